// Package jobs runs periodic housekeeping for the daemon.
package jobs

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Task is one round of background work.
type Task interface {
	Run(ctx context.Context) error
}

// TaskFunc lets a plain function act as a Task.
type TaskFunc func(ctx context.Context) error

func (f TaskFunc) Run(ctx context.Context) error { return f(ctx) }

// Worker repeats a Task every interval. A failed round is logged and the
// next tick tries again.
type Worker struct {
	task     Task
	interval time.Duration
	log      *zap.Logger

	quit     chan struct{}
	done     chan struct{}
	quitOnce sync.Once
}

func NewWorker(name string, task Task, interval time.Duration, logger *zap.Logger) *Worker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Worker{
		task:     task,
		interval: interval,
		log:      logger.With(zap.String("worker", name)),
		quit:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start blocks, running the task on every tick until ctx ends or Stop is
// called.
func (w *Worker) Start(ctx context.Context) {
	defer close(w.done)

	tick := time.NewTicker(w.interval)
	defer tick.Stop()

	w.log.Debug("worker running", zap.Duration("interval", w.interval))
	for {
		select {
		case <-ctx.Done():
			w.log.Debug("worker exiting", zap.String("reason", "context done"))
			return
		case <-w.quit:
			w.log.Debug("worker exiting", zap.String("reason", "stopped"))
			return
		case <-tick.C:
			w.round(ctx)
		}
	}
}

func (w *Worker) round(ctx context.Context) {
	began := time.Now()
	if err := w.task.Run(ctx); err != nil {
		w.log.Warn("worker round failed", zap.Error(err), zap.Duration("took", time.Since(began)))
	}
}

// Stop signals the loop and waits for Start to return. Calling it again is
// a no-op.
func (w *Worker) Stop() {
	w.quitOnce.Do(func() { close(w.quit) })
	<-w.done
}
