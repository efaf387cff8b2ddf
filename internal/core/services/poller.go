package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/custodia-labs/stagesync/internal/core/domain"
	"github.com/custodia-labs/stagesync/internal/logger"
)

// ErrPollerRunning is returned when Start is called on a running poller.
var ErrPollerRunning = errors.New("poller already running")

// PollFunc reads one progress snapshot from the remote job.
type PollFunc func(ctx context.Context) (*domain.ProgressSnapshot, error)

// ProgressPoller queries remote progress on a fixed interval until stopped.
//
// Polls are serialised: the poll runs on the poller's own goroutine and a
// tick that fires while a poll is still in flight is dropped by the ticker,
// so at most one query is outstanding at any time.
type ProgressPoller struct {
	interval    time.Duration
	maxFailures int

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewProgressPoller creates a poller. maxFailures bounds consecutive failed
// polls before the poller gives up on its own; zero means never.
func NewProgressPoller(interval time.Duration, maxFailures int) *ProgressPoller {
	return &ProgressPoller{
		interval:    interval,
		maxFailures: maxFailures,
	}
}

// Start begins polling. onSnapshot is called from the poller's goroutine for
// every successful poll. Failures are logged and do not stop polling until
// the failure ceiling is reached.
func (p *ProgressPoller) Start(ctx context.Context, poll PollFunc, onSnapshot func(domain.ProgressSnapshot)) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.done != nil {
		return ErrPollerRunning
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	p.cancel = cancel
	p.done = done

	go p.run(ctx, done, poll, onSnapshot)
	return nil
}

// run is the polling loop.
func (p *ProgressPoller) run(
	ctx context.Context,
	done chan struct{},
	poll PollFunc,
	onSnapshot func(domain.ProgressSnapshot),
) {
	defer close(done)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	failures := 0
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		snap, err := poll(ctx)
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			failures++
			logger.Debug("progress poll failed (%d in a row): %v", failures, err)
			if p.maxFailures > 0 && failures >= p.maxFailures {
				logger.Warn("progress polling stopped after %d consecutive failures", failures)
				return
			}
			continue
		}
		failures = 0
		if snap != nil {
			onSnapshot(*snap)
		}
	}
}

// Stop cancels polling and waits for the poller goroutine to exit, so no
// snapshot is delivered after Stop returns. Stop is idempotent and safe to
// call on a poller that was never started.
func (p *ProgressPoller) Stop() {
	p.mu.Lock()
	cancel, done := p.cancel, p.done
	p.cancel, p.done = nil, nil
	p.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Running reports whether the poller goroutine is still active.
func (p *ProgressPoller) Running() bool {
	p.mu.Lock()
	done := p.done
	p.mu.Unlock()

	if done == nil {
		return false
	}
	select {
	case <-done:
		return false
	default:
		return true
	}
}
