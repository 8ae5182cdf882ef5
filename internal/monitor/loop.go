// Package monitor runs the sampling loop: wake at the finest configured
// interval, resample every due category, and fan the rendered fragments out.
package monitor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sysboard/sysboard/internal/errors"
	"github.com/sysboard/sysboard/internal/gpu"
	"github.com/sysboard/sysboard/internal/history"
	"github.com/sysboard/sysboard/internal/logger"
	"github.com/sysboard/sysboard/internal/metrics"
	"github.com/sysboard/sysboard/internal/schedule"
	"github.com/sysboard/sysboard/internal/stream"
)

const (
	ErrTickPanic = errors.ErrorCode("monitor_tick_panic")

	// errorBackoff delays the next tick after a failed one so a broken
	// sampler cannot spin the loop.
	errorBackoff = 2 * time.Second
)

// Broadcaster is the fan-out the loop pushes fragments into.
type Broadcaster interface {
	Broadcast(msg stream.Message)
}

// Loop drives the per-category scheduler. Ticks run on the loop goroutine,
// but FirstPaint is called from HTTP handler goroutines, so both paths take
// the mutex: the samplers and the snapshot cache are shared state.
type Loop struct {
	policy   *schedule.Policy
	out      Broadcaster
	samplers []metrics.Sampler
	recorder history.Recorder
	now      func() time.Time

	mu     sync.Mutex
	latest map[metrics.Category]any
}

// New builds a loop. Samplers must be passed in broadcast order; recorder may
// be the no-op recorder.
func New(policy *schedule.Policy, out Broadcaster, samplers []metrics.Sampler, recorder history.Recorder) *Loop {
	return &Loop{
		policy:   policy,
		out:      out,
		samplers: samplers,
		recorder: recorder,
		now:      time.Now,
		latest:   make(map[metrics.Category]any),
	}
}

// Run ticks until ctx is cancelled. The wake period follows the minimum
// configured interval; an interval change wakes the loop immediately so the
// reset due-timer never waits out the old period.
func (l *Loop) Run(ctx context.Context) {
	timer := time.NewTimer(l.policy.TickPeriod())
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		case <-l.policy.Changed():
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
		}

		period := l.policy.TickPeriod()
		if err := l.safeTick(ctx); err != nil {
			logger.Error().Err(err).Msg("tick failed, backing off")
			period = errorBackoff
		}

		timer.Reset(period)
	}
}

// safeTick contains a panicking sampler: one bad sample must not take
// observability down for every other category.
func (l *Loop) safeTick(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.WithData(ErrTickPanic, fmt.Sprint(r))
		}
	}()

	l.Tick(ctx, l.now())

	return nil
}

// Tick samples every due category in fixed order, broadcasts one update
// fragment per fired category, and appends a single timestamp fragment iff at
// least one fired. Returns the categories that fired.
func (l *Loop) Tick(ctx context.Context, now time.Time) []metrics.Category {
	l.mu.Lock()
	defer l.mu.Unlock()

	var fired []metrics.Category

	for _, sampler := range l.samplers {
		category := sampler.Category()
		if !l.policy.IsDue(category, now) {
			continue
		}

		snapshot, err := sampler.Sample()
		if err != nil {
			logger.Warn().Err(err).Str("category", string(category)).Msg("sample failed")
			continue
		}

		l.policy.MarkSampled(category, now)
		l.latest[category] = snapshot.Data
		l.out.Broadcast(stream.Update(string(category), snapshot.Data))
		fired = append(fired, category)
	}

	if len(fired) > 0 {
		l.out.Broadcast(stream.Timestamp(now.Format(time.RFC3339)))
		l.record(ctx, now)
	}

	return fired
}

// FirstPaint forces one sample of every category for the initial page render
// and marks them sampled so the next tick does not immediately repeat them.
func (l *Loop) FirstPaint() map[string]any {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	out := make(map[string]any, len(l.samplers))

	for _, sampler := range l.samplers {
		category := sampler.Category()
		snapshot, err := sampler.Sample()
		if err != nil {
			logger.Warn().Err(err).Str("category", string(category)).Msg("first paint sample failed")
			continue
		}
		l.policy.MarkSampled(category, now)
		l.latest[category] = snapshot.Data
		out[string(category)] = snapshot.Data
	}

	return out
}

func (l *Loop) record(ctx context.Context, now time.Time) {
	row := &history.Row{Timestamp: now}

	if cpu, ok := l.latest[metrics.CategoryCPU].(metrics.CPUInfo); ok {
		row.CPUPercent = cpu.Percent
	}
	if mem, ok := l.latest[metrics.CategoryMemory].(metrics.MemoryInfo); ok {
		row.MemoryPercent = mem.Percent
	}
	if disk, ok := l.latest[metrics.CategoryDisk].(metrics.DiskInfo); ok {
		for _, partition := range disk.Partitions {
			if partition.Percent > row.DiskPercent {
				row.DiskPercent = partition.Percent
			}
		}
	}
	if network, ok := l.latest[metrics.CategoryNetwork].(metrics.NetworkInfo); ok {
		row.NetSentRate = network.SentRate
		row.NetRecvRate = network.RecvRate
	}
	if temperature, ok := l.latest[metrics.CategoryTemperature].(metrics.TemperatureInfo); ok {
		for _, sensor := range temperature.Sensors {
			if sensor.Current > row.TemperatureC {
				row.TemperatureC = sensor.Current
			}
		}
	}
	if info, ok := l.latest[metrics.CategoryGPU].(gpu.Info); ok && info.Available {
		row.GPUPercent = info.UtilizationPercent
	}

	if err := l.recorder.Record(ctx, row); err != nil {
		logger.Warn().Err(err).Msg("history record failed")
	}
}
