package session

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// DefaultInterval is the nominal tick period
const DefaultInterval = time.Second

// TaskFunc is one periodic unit of work
type TaskFunc func(ctx context.Context)

type task struct {
	name string
	fn   TaskFunc
}

// Scheduler runs registered tasks on a fixed cadence
type Scheduler struct {
	interval time.Duration

	mu      sync.Mutex
	tasks   []task
	cancel  context.CancelFunc
	done    chan struct{}
	running bool
}

// NewScheduler creates a scheduler ticking every interval
func NewScheduler(interval time.Duration) *Scheduler {
	if interval <= 0 {
		interval = DefaultInterval
	}

	return &Scheduler{
		interval: interval,
	}
}

// Every registers a task run on each tick, in registration order
func (s *Scheduler) Every(name string, fn TaskFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks = append(s.tasks, task{name: name, fn: fn})
}

// Start begins ticking in a goroutine. Calling Start twice is a no-op.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})
	s.running = true

	go s.run(ctx, s.done)
}

// Stop cancels the loop and waits for the running tick to finish
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	cancel, done := s.cancel, s.done
	s.running = false
	s.mu.Unlock()

	cancel()
	<-done
}

// RunOnce runs every task exactly once
func (s *Scheduler) RunOnce(ctx context.Context) {
	s.mu.Lock()
	tasks := make([]task, len(s.tasks))
	copy(tasks, s.tasks)
	s.mu.Unlock()

	for _, t := range tasks {
		t.fn(ctx)
	}
}

// run is the main loop of the scheduler
func (s *Scheduler) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	slog.Info("scheduler started", "interval", s.interval)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("scheduler stopped")
			return
		case <-ticker.C:
			s.RunOnce(ctx)
		}
	}
}
