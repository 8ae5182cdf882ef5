// Package gpu samples GPU telemetry through whichever backend the host
// offers: the NVML library when it loads, the nvidia-smi tool as a fallback,
// or an explicit unavailable backend. The probe runs once at startup; the
// choice is never re-detected per sample.
package gpu

import (
	"time"

	"github.com/sysboard/sysboard/internal/logger"
	"github.com/sysboard/sysboard/internal/metrics"
)

// Info is the GPU snapshot payload. Fields the backend cannot read stay zero;
// Available false means no backend could be selected at all.
type Info struct {
	Available          bool    `json:"available"`
	Backend            string  `json:"backend,omitempty"`
	Name               string  `json:"name,omitempty"`
	UtilizationPercent float64 `json:"utilization_percent"`
	MemoryUsedMiB      uint64  `json:"memory_used_mib"`
	MemoryTotalMiB     uint64  `json:"memory_total_mib"`
	TemperatureC       float64 `json:"temperature_c"`
	FanPercent         float64 `json:"fan_percent"`
	PowerWatts         float64 `json:"power_watts"`
}

// Backend reads GPU state from one concrete source.
type Backend interface {
	Name() string
	Sample() (Info, error)
	Close() error
}

// Probe selects the backend once. Order: NVML, nvidia-smi, unavailable.
func Probe() Backend {
	if backend, err := newNVMLBackend(); err == nil {
		logger.Info().Str("backend", backend.Name()).Msg("GPU backend selected")
		return backend
	} else {
		logger.Debug().Err(err).Msg("NVML backend unavailable")
	}

	if backend, err := newSMIBackend(); err == nil {
		logger.Info().Str("backend", backend.Name()).Msg("GPU backend selected")
		return backend
	} else {
		logger.Debug().Err(err).Msg("nvidia-smi backend unavailable")
	}

	logger.Info().Msg("no GPU backend available")

	return unavailableBackend{}
}

type unavailableBackend struct{}

func (unavailableBackend) Name() string { return "none" }

func (unavailableBackend) Sample() (Info, error) {
	return Info{Available: false}, nil
}

func (unavailableBackend) Close() error { return nil }

// Sampler adapts a Backend to the metrics sampler contract.
type Sampler struct {
	backend Backend
}

func NewSampler(backend Backend) *Sampler {
	return &Sampler{backend: backend}
}

func (*Sampler) Category() metrics.Category {
	return metrics.CategoryGPU
}

func (s *Sampler) Sample() (metrics.Snapshot, error) {
	taken := time.Now()

	info, err := s.backend.Sample()
	if err != nil {
		// A backend that was probed healthy can still fail transiently
		// (driver reload, device reset). Report unavailable, keep going.
		logger.Debug().Err(err).Str("backend", s.backend.Name()).Msg("GPU sample failed")
		info = Info{Available: false, Backend: s.backend.Name()}
	}

	return metrics.Snapshot{Category: metrics.CategoryGPU, Taken: taken, Data: info}, nil
}
