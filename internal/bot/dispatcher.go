package bot

import (
	"context"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

// DefaultMaxConcurrent bounds in-flight updates when no limit is configured.
const DefaultMaxConcurrent = 16

// MessageHandler processes one inbound message.
type MessageHandler interface {
	Handle(ctx context.Context, msg Message) error
}

// Dispatcher runs each message in its own goroutine, at most maxConcurrent at a time.
// A panicking handler is recovered and logged.
type Dispatcher struct {
	handler MessageHandler
	sem     *semaphore.Weighted
	wg      sync.WaitGroup
	logger  *zap.Logger
}

// NewDispatcher creates a Dispatcher. maxConcurrent <= 0 uses DefaultMaxConcurrent.
func NewDispatcher(handler MessageHandler, maxConcurrent int, logger *zap.Logger) *Dispatcher {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrent
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{
		handler: handler,
		sem:     semaphore.NewWeighted(int64(maxConcurrent)),
		logger:  logger,
	}
}

// Dispatch schedules msg. It blocks while maxConcurrent messages are in flight
// and returns ctx.Err() if ctx ends first.
func (d *Dispatcher) Dispatch(ctx context.Context, msg Message) error {
	if err := d.sem.Acquire(ctx, 1); err != nil {
		return err //nolint:wrapcheck // context error
	}

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer d.sem.Release(1)
		defer func() {
			if rvr := recover(); rvr != nil {
				d.logger.Error("panic recovered in update handler",
					zap.Any("panic", rvr),
					zap.Int("update_id", msg.UpdateID),
					zap.Stack("stacktrace"),
				)
			}
		}()

		// Errors are logged by the handler.
		_ = d.handler.Handle(context.WithoutCancel(ctx), msg)
	}()
	return nil
}

// Wait blocks until all dispatched messages are handled.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}
