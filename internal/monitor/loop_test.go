package monitor_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sysboard/sysboard/internal/errors"
	"github.com/sysboard/sysboard/internal/history"
	"github.com/sysboard/sysboard/internal/metrics"
	"github.com/sysboard/sysboard/internal/monitor"
	"github.com/sysboard/sysboard/internal/schedule"
	"github.com/sysboard/sysboard/internal/stream"
)

type fakeSampler struct {
	category metrics.Category
	samples  int
	fail     bool
}

func (s *fakeSampler) Category() metrics.Category {
	return s.category
}

func (s *fakeSampler) Sample() (metrics.Snapshot, error) {
	if s.fail {
		return metrics.Snapshot{}, errors.New(errors.ErrUnavailable)
	}
	s.samples++
	return metrics.Snapshot{
		Category: s.category,
		Taken:    time.Now(),
		Data:     metrics.CPUInfo{Percent: float64(s.samples)},
	}, nil
}

type sink struct {
	messages []stream.Message
}

func (s *sink) Broadcast(msg stream.Message) {
	s.messages = append(s.messages, msg)
}

func (s *sink) reset() {
	s.messages = nil
}

func newLoop(t *testing.T, policy *schedule.Policy, out *sink, samplers ...metrics.Sampler) *monitor.Loop {
	t.Helper()
	recorder, err := history.NewRecorder(history.DefaultConfig())
	require.NoError(t, err)
	return monitor.New(policy, out, samplers, recorder)
}

func TestTickHonorsInterval(t *testing.T) {
	policy := schedule.NewPolicy(map[string]int{"cpu": 2})
	out := &sink{}
	cpu := &fakeSampler{category: metrics.CategoryCPU}
	loop := newLoop(t, policy, out, cpu)

	start := time.Unix(1000, 0)
	ctx := context.Background()

	fired := loop.Tick(ctx, start)
	require.Equal(t, []metrics.Category{metrics.CategoryCPU}, fired)
	require.Equal(t, 1, cpu.samples)

	// One second in with a 2s interval: nothing fires, nothing is sent.
	out.reset()
	fired = loop.Tick(ctx, start.Add(1*time.Second))
	assert.Empty(t, fired)
	assert.Empty(t, out.messages, "no update batch when nothing fired")

	// Full interval elapsed: exactly one more cpu update.
	out.reset()
	fired = loop.Tick(ctx, start.Add(2*time.Second))
	require.Equal(t, []metrics.Category{metrics.CategoryCPU}, fired)
	assert.Equal(t, 2, cpu.samples)
}

func TestTickEmitsFixedOrderWithTrailingTimestamp(t *testing.T) {
	policy := schedule.NewPolicy(nil)
	out := &sink{}
	loop := newLoop(t, policy, out,
		&fakeSampler{category: metrics.CategoryCPU},
		&fakeSampler{category: metrics.CategoryMemory},
		&fakeSampler{category: metrics.CategoryDisk},
	)

	loop.Tick(context.Background(), time.Unix(1000, 0))

	require.Len(t, out.messages, 4, "three updates plus one timestamp")
	assert.Equal(t, "cpu", out.messages[0].Target)
	assert.Equal(t, "memory", out.messages[1].Target)
	assert.Equal(t, "disk", out.messages[2].Target)
	assert.Equal(t, stream.MessageTimestamp, out.messages[3].Type)

	for _, msg := range out.messages[:3] {
		assert.Equal(t, stream.MessageUpdate, msg.Type)
		assert.Equal(t, stream.SwapReplace, msg.Swap)
	}
}

func TestTickSkipsFailingSampler(t *testing.T) {
	policy := schedule.NewPolicy(nil)
	out := &sink{}
	broken := &fakeSampler{category: metrics.CategoryCPU, fail: true}
	healthy := &fakeSampler{category: metrics.CategoryMemory}
	loop := newLoop(t, policy, out, broken, healthy)

	start := time.Unix(1000, 0)
	fired := loop.Tick(context.Background(), start)

	// The broken category is skipped; the healthy one still goes out.
	require.Equal(t, []metrics.Category{metrics.CategoryMemory}, fired)
	require.Len(t, out.messages, 2)
	assert.Equal(t, "memory", out.messages[0].Target)

	// Not marked sampled on failure, so it retries on the next tick.
	broken.fail = false
	fired = loop.Tick(context.Background(), start.Add(1*time.Second))
	assert.Contains(t, fired, metrics.CategoryCPU)
}

func TestIntervalUpdateForcesResample(t *testing.T) {
	policy := schedule.NewPolicy(map[string]int{"cpu": 30})
	out := &sink{}
	cpu := &fakeSampler{category: metrics.CategoryCPU}
	loop := newLoop(t, policy, out, cpu)

	start := time.Unix(1000, 0)
	ctx := context.Background()

	loop.Tick(ctx, start)
	require.Equal(t, 1, cpu.samples)

	require.NoError(t, policy.SetInterval(metrics.CategoryCPU, 5))

	// Same instant, but the settings change reset the due-timer.
	fired := loop.Tick(ctx, start.Add(1*time.Second))
	assert.Equal(t, []metrics.Category{metrics.CategoryCPU}, fired)
	assert.Equal(t, 2, cpu.samples)
}

// Page loads request a first paint from handler goroutines while the loop is
// mid-tick; both paths share the samplers and the snapshot cache, so they
// must serialize. Run with the race detector.
func TestFirstPaintConcurrentWithTick(t *testing.T) {
	policy := schedule.NewPolicy(map[string]int{"cpu": 1})
	out := &sink{}
	cpu := &fakeSampler{category: metrics.CategoryCPU}
	loop := newLoop(t, policy, out, cpu)

	start := time.Unix(1000, 0)
	ctx := context.Background()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			loop.Tick(ctx, start.Add(time.Duration(i)*time.Second))
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			loop.FirstPaint()
		}
	}()
	wg.Wait()
}

type chanSink struct {
	ch chan stream.Message
}

func (s *chanSink) Broadcast(msg stream.Message) {
	select {
	case s.ch <- msg:
	default:
	}
}

func TestRunWakesOnIntervalChange(t *testing.T) {
	// Every interval at its maximum, so without the change signal the loop
	// would sleep for the full 30s period before noticing anything.
	policy := schedule.NewPolicy(map[string]int{
		"cpu": 30, "memory": 30, "disk": 60, "network": 30,
		"process": 60, "gpu": 30, "temperature": 60,
	})
	out := &chanSink{ch: make(chan stream.Message, 16)}
	cpu := &fakeSampler{category: metrics.CategoryCPU}
	recorder, err := history.NewRecorder(history.DefaultConfig())
	require.NoError(t, err)
	loop := monitor.New(policy, out, []metrics.Sampler{cpu}, recorder)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go loop.Run(ctx)

	require.NoError(t, policy.SetInterval(metrics.CategoryCPU, 1))

	select {
	case msg := <-out.ch:
		assert.Equal(t, "cpu", msg.Target)
	case <-time.After(2 * time.Second):
		t.Fatal("loop did not wake on the interval change")
	}
}

func TestFirstPaintSamplesEverythingOnce(t *testing.T) {
	policy := schedule.NewPolicy(nil)
	out := &sink{}
	cpu := &fakeSampler{category: metrics.CategoryCPU}
	mem := &fakeSampler{category: metrics.CategoryMemory}
	loop := newLoop(t, policy, out, cpu, mem)

	snapshots := loop.FirstPaint()
	require.Len(t, snapshots, 2)
	assert.Contains(t, snapshots, "cpu")
	assert.Contains(t, snapshots, "memory")
	assert.Empty(t, out.messages, "first paint renders, it does not broadcast")

	// Categories were marked sampled, so an immediate tick stays quiet.
	fired := loop.Tick(context.Background(), time.Now())
	assert.Empty(t, fired)
	assert.Equal(t, 1, cpu.samples)
}
