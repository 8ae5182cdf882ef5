// Package history optionally persists one utilization row per sampling tick
// to sqlite, serving the /history endpoint. Snapshots themselves retain
// nothing; this is a separate sink fed by the sampling loop.
package history

import (
	"context"
	"time"

	"github.com/sysboard/sysboard/internal/errors"
	"github.com/sysboard/sysboard/internal/logger"
)

// Row is one per-tick utilization summary.
type Row struct {
	Timestamp     time.Time `json:"timestamp"`
	CPUPercent    float64   `json:"cpu_percent"`
	MemoryPercent float64   `json:"memory_percent"`
	DiskPercent   float64   `json:"disk_percent"`
	NetSentRate   float64   `json:"net_sent_rate"`
	NetRecvRate   float64   `json:"net_recv_rate"`
	GPUPercent    float64   `json:"gpu_percent"`
	TemperatureC  float64   `json:"temperature_c"`
}

// Recorder is the history sink the sampling loop writes into.
type Recorder interface {
	Record(ctx context.Context, row *Row) error
	Recent(ctx context.Context, limit int) ([]Row, error)
	Close() error
}

// NewRecorder returns a sqlite-backed recorder, or a no-op one when history
// is disabled.
func NewRecorder(cfg Config) (Recorder, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(ErrInvalidConfig, err)
	}

	if !cfg.Enabled {
		logger.Debug().Msg("history disabled, using no-op recorder")
		return noopRecorder{}, nil
	}

	repo, err := newRepository(cfg)
	if err != nil {
		return nil, err
	}

	logger.Debug().Str("db_path", cfg.DBPath).Msg("history recorder initialized")

	return repo, nil
}

type noopRecorder struct{}

func (noopRecorder) Record(_ context.Context, _ *Row) error {
	return nil
}

func (noopRecorder) Recent(_ context.Context, _ int) ([]Row, error) {
	return nil, nil
}

func (noopRecorder) Close() error {
	return nil
}
