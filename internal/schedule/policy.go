// Package schedule decides when each metric category is due for a resample.
package schedule

import (
	"sync"
	"time"

	"github.com/sysboard/sysboard/internal/errors"
	"github.com/sysboard/sysboard/internal/metrics"
)

const (
	ErrUnknownCategory = errors.ErrorCode("schedule_unknown_category")

	// minTickPeriod bounds busy-waking regardless of configured intervals.
	minTickPeriod = time.Second
)

type bounds struct {
	min, max time.Duration
}

// Per-category interval clamps. A settings update outside the range is pulled
// to the nearest bound, not rejected.
var intervalBounds = map[metrics.Category]bounds{
	metrics.CategoryCPU:         {1 * time.Second, 30 * time.Second},
	metrics.CategoryMemory:      {1 * time.Second, 30 * time.Second},
	metrics.CategoryDisk:        {5 * time.Second, 60 * time.Second},
	metrics.CategoryNetwork:     {1 * time.Second, 30 * time.Second},
	metrics.CategoryProcess:     {2 * time.Second, 60 * time.Second},
	metrics.CategoryGPU:         {2 * time.Second, 30 * time.Second},
	metrics.CategoryTemperature: {5 * time.Second, 60 * time.Second},
}

var defaultIntervals = map[metrics.Category]time.Duration{
	metrics.CategoryCPU:         2 * time.Second,
	metrics.CategoryMemory:      2 * time.Second,
	metrics.CategoryDisk:        10 * time.Second,
	metrics.CategoryNetwork:     2 * time.Second,
	metrics.CategoryProcess:     5 * time.Second,
	metrics.CategoryGPU:         3 * time.Second,
	metrics.CategoryTemperature: 5 * time.Second,
}

// Policy owns the refresh interval and last-sample timestamp per category.
// It is shared between the sampling loop and the settings handler, so every
// access takes the mutex.
type Policy struct {
	mu          sync.Mutex
	intervals   map[metrics.Category]time.Duration
	lastSampled map[metrics.Category]time.Time

	// changed carries at most one pending settings-change signal for the
	// sampling loop; back-to-back updates coalesce.
	changed chan struct{}
}

// NewPolicy builds a policy from the defaults, overridden by any entries in
// overrides (seconds per category name, as configured). Overrides are clamped
// to the category bounds.
func NewPolicy(overrides map[string]int) *Policy {
	p := &Policy{
		intervals:   make(map[metrics.Category]time.Duration, len(defaultIntervals)),
		lastSampled: make(map[metrics.Category]time.Time, len(defaultIntervals)),
		changed:     make(chan struct{}, 1),
	}

	for category, interval := range defaultIntervals {
		p.intervals[category] = interval
	}
	for name, secs := range overrides {
		category := metrics.Category(name)
		if !category.IsValid() {
			continue
		}
		p.intervals[category] = clampInterval(category, time.Duration(secs)*time.Second)
	}

	return p
}

// IsDue reports whether the category's interval has elapsed since its last
// sample. A never-sampled category is always due.
func (p *Policy) IsDue(category metrics.Category, now time.Time) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	last, ok := p.lastSampled[category]
	if !ok || last.IsZero() {
		return true
	}

	return now.Sub(last) >= p.intervals[category]
}

// MarkSampled records a successful sample at now.
func (p *Policy) MarkSampled(category metrics.Category, now time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.lastSampled[category] = now
}

// SetInterval applies a new interval and resets the category's due-timer so
// the change takes effect on the very next tick, not after a stale wait.
func (p *Policy) SetInterval(category metrics.Category, seconds int) error {
	if !category.IsValid() {
		return errors.WithData(ErrUnknownCategory, string(category))
	}
	if seconds <= 0 {
		return errors.WithData(errors.ErrInvalidInterval, seconds)
	}

	p.mu.Lock()
	p.intervals[category] = clampInterval(category, time.Duration(seconds)*time.Second)
	p.lastSampled[category] = time.Time{}
	p.mu.Unlock()

	select {
	case p.changed <- struct{}{}:
	default:
	}

	return nil
}

// Changed signals after SetInterval applies, so the sampling loop can re-arm
// its timer instead of waiting out the old period.
func (p *Policy) Changed() <-chan struct{} {
	return p.changed
}

// Interval returns the current interval for a category.
func (p *Policy) Interval(category metrics.Category) time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.intervals[category]
}

// TickPeriod is the loop wake period: the minimum configured interval,
// floored at one second.
func (p *Policy) TickPeriod() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()

	period := time.Duration(0)
	for _, interval := range p.intervals {
		if period == 0 || interval < period {
			period = interval
		}
	}
	if period < minTickPeriod {
		period = minTickPeriod
	}

	return period
}

// Intervals returns a copy of the current intervals in seconds, keyed by
// category name, for the settings form.
func (p *Policy) Intervals() map[string]int {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make(map[string]int, len(p.intervals))
	for category, interval := range p.intervals {
		out[string(category)] = int(interval / time.Second)
	}

	return out
}

// Bounds returns the allowed interval range for a category in seconds.
func Bounds(category metrics.Category) (minSecs, maxSecs int, ok bool) {
	b, ok := intervalBounds[category]
	if !ok {
		return 0, 0, false
	}

	return int(b.min / time.Second), int(b.max / time.Second), true
}

func clampInterval(category metrics.Category, interval time.Duration) time.Duration {
	b, ok := intervalBounds[category]
	if !ok {
		return interval
	}
	if interval < b.min {
		return b.min
	}
	if interval > b.max {
		return b.max
	}

	return interval
}
