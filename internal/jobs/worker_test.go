package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type MockTask struct {
	mock.Mock
}

func (m *MockTask) Run(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func startWorker(w *Worker, ctx context.Context) <-chan struct{} {
	exited := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(exited)
	}()
	return exited
}

func TestWorker_RunsTaskUntilStopped(t *testing.T) {
	var ran atomic.Bool
	task := new(MockTask)
	task.On("Run", mock.Anything).Run(func(mock.Arguments) { ran.Store(true) }).Return(nil)

	w := NewWorker("sweeper", task, 15*time.Millisecond, nil)
	exited := startWorker(w, context.Background())

	assert.Eventually(t, ran.Load, time.Second, 5*time.Millisecond)
	w.Stop()
	assert.Eventually(t, func() bool {
		select {
		case <-exited:
			return true
		default:
			return false
		}
	}, time.Second, 5*time.Millisecond)
	task.AssertCalled(t, "Run", mock.Anything)
}

func TestWorker_ExitsWhenContextEnds(t *testing.T) {
	var rounds atomic.Int32
	w := NewWorker("sweeper", TaskFunc(func(context.Context) error {
		rounds.Add(1)
		return nil
	}), 15*time.Millisecond, nil)

	ctx, cancel := context.WithCancel(context.Background())
	exited := startWorker(w, ctx)
	assert.Eventually(t, func() bool { return rounds.Load() > 0 }, time.Second, 5*time.Millisecond)

	cancel()
	<-exited
	// Stop after the loop already ended returns straight away.
	w.Stop()
}

func TestWorker_FailedRoundsAreLoggedAndRetried(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	var rounds atomic.Int32
	w := NewWorker("sweeper", TaskFunc(func(context.Context) error {
		rounds.Add(1)
		return errors.New("registry locked")
	}), 10*time.Millisecond, zap.New(core))

	startWorker(w, context.Background())
	assert.Eventually(t, func() bool { return rounds.Load() >= 3 }, time.Second, 5*time.Millisecond)
	w.Stop()

	entries := logs.FilterMessage("worker round failed").All()
	assert.GreaterOrEqual(t, len(entries), 3)
	assert.Equal(t, "sweeper", entries[0].ContextMap()["worker"])
}

func TestWorker_StopTwice(t *testing.T) {
	w := NewWorker("sweeper", TaskFunc(func(context.Context) error { return nil }), time.Hour, nil)
	startWorker(w, context.Background())

	w.Stop()
	assert.NotPanics(t, w.Stop)
}
