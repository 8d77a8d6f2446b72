package bot

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/paperbot/internal/metrics"
)

// RetryPolicy decides how long to wait before restarting a failed session.
type RetryPolicy interface {
	// Next returns the delay before attempt number attempt (1-based count of
	// consecutive failures) given how long the failed session ran.
	Next(attempt int, ran time.Duration) time.Duration
}

// InfiniteRetry restarts immediately, forever.
type InfiniteRetry struct{}

// Next always returns zero.
func (InfiniteRetry) Next(int, time.Duration) time.Duration { return 0 }

// Backoff doubles the delay on each consecutive failure, starting at Initial and capped at Max.
type Backoff struct {
	Initial time.Duration
	Max     time.Duration
}

// Next returns Initial * 2^(attempt-1), capped at Max.
func (b Backoff) Next(attempt int, _ time.Duration) time.Duration {
	if b.Initial <= 0 {
		return 0
	}
	d := b.Initial
	for i := 1; i < attempt; i++ {
		d *= 2
		if b.Max > 0 && d >= b.Max {
			return b.Max
		}
	}
	if b.Max > 0 && d > b.Max {
		return b.Max
	}
	return d
}

// Session is one connect-and-receive cycle of the chat transport.
// It returns when the transport fails or ctx is cancelled.
type Session func(ctx context.Context) error

// Supervisor keeps a Session running until ctx is cancelled.
type Supervisor struct {
	policy RetryPolicy
	// healthyAfter is how long a session must run before the failure count resets.
	healthyAfter time.Duration
	logger       *zap.Logger
	sleep        func(ctx context.Context, d time.Duration)
}

// NewSupervisor creates a Supervisor. A nil policy means InfiniteRetry.
func NewSupervisor(policy RetryPolicy, logger *zap.Logger) *Supervisor {
	if policy == nil {
		policy = InfiniteRetry{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	healthyAfter := time.Minute
	if b, ok := policy.(Backoff); ok && b.Max > healthyAfter {
		healthyAfter = b.Max
	}
	return &Supervisor{policy: policy, healthyAfter: healthyAfter, logger: logger, sleep: sleepCtx}
}

// Run runs session repeatedly until ctx is cancelled. Session errors and panics
// are logged and followed by a restart after the policy's delay.
func (s *Supervisor) Run(ctx context.Context, session Session) {
	failures := 0
	for {
		if ctx.Err() != nil {
			return
		}

		s.logger.Info("Transport session starting")
		start := time.Now()
		err := s.runOnce(ctx, session)
		ran := time.Since(start)

		if ctx.Err() != nil {
			s.logger.Info("Transport session stopped")
			return
		}

		if ran >= s.healthyAfter {
			failures = 0
		}
		failures++
		delay := s.policy.Next(failures, ran)

		metrics.TransportRestartsTotal.Inc()
		s.logger.Error("Transport session ended, restarting",
			zap.Error(err),
			zap.Int("consecutive_failures", failures),
			zap.Duration("ran", ran),
			zap.Duration("delay", delay),
		)
		if delay > 0 {
			s.sleep(ctx, delay)
		}
	}
}

func (s *Supervisor) runOnce(ctx context.Context, session Session) (err error) {
	defer func() {
		if rvr := recover(); rvr != nil {
			err = fmt.Errorf("session panic: %v", rvr)
		}
	}()
	if err = session(ctx); err == nil {
		err = fmt.Errorf("session returned without error")
	}
	return err
}

func sleepCtx(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
