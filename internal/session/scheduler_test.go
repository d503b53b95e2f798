package session

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestSchedulerRunOnceOrder(t *testing.T) {
	s := NewScheduler(0)

	var calls []string
	s.Every("clock", func(ctx context.Context) { calls = append(calls, "clock") })
	s.Every("timers", func(ctx context.Context) { calls = append(calls, "timers") })

	for i := 0; i < 3; i++ {
		s.RunOnce(context.Background())
	}

	assert.Equal(t, []string{"clock", "timers", "clock", "timers", "clock", "timers"}, calls)
	assert.Equal(t, DefaultInterval, s.interval)
}

func TestSchedulerStartStop(t *testing.T) {
	s := NewScheduler(5 * time.Millisecond)

	var ticks atomic.Int32
	s.Every("count", func(ctx context.Context) { ticks.Add(1) })

	s.Start(context.Background())
	s.Start(context.Background())

	assert.Eventually(t, func() bool { return ticks.Load() >= 3 }, time.Second, 5*time.Millisecond)

	s.Stop()
	s.Stop()

	stopped := ticks.Load()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, stopped, ticks.Load())
}

func TestSchedulerStopsWithContext(t *testing.T) {
	s := NewScheduler(time.Hour)
	ctx, cancel := context.WithCancel(context.Background())

	s.Start(ctx)
	cancel()
	s.Stop()
}
