package metrics

import (
	"time"

	pscpu "github.com/shirou/gopsutil/v4/cpu"

	"github.com/sysboard/sysboard/internal/logger"
)

// CPUSampler reads overall and per-core utilization. Per-core output is
// capped so a high core count does not flood the per-core view.
type CPUSampler struct {
	maxCores int
}

func NewCPUSampler(maxCores int) *CPUSampler {
	return &CPUSampler{maxCores: maxCores}
}

func (*CPUSampler) Category() Category {
	return CategoryCPU
}

func (s *CPUSampler) Sample() (Snapshot, error) {
	info := CPUInfo{}

	// Interval 0 measures against the previous call, which matches the
	// periodic sampling cadence without blocking the loop.
	if overall, err := pscpu.Percent(0, false); err == nil && len(overall) > 0 {
		info.Percent = overall[0]
	} else if err != nil {
		logger.Debug().Err(err).Msg("cpu percent unavailable")
	}

	if perCore, err := pscpu.Percent(0, true); err == nil {
		if s.maxCores > 0 && len(perCore) > s.maxCores {
			perCore = perCore[:s.maxCores]
		}
		info.PercentPerCore = perCore
	}

	if stats, err := pscpu.Info(); err == nil && len(stats) > 0 {
		info.FrequencyMHz = stats[0].Mhz
	}

	return Snapshot{Category: CategoryCPU, Taken: time.Now(), Data: info}, nil
}
