// Package jobs drives asynchronous remote jobs: it polls their status,
// folds progress into an observable GenerationStatus and delivers the
// terminal outcome exactly once.
package jobs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"wzrd/internal/domain"
	"wzrd/internal/infra"
)

const (
	DefaultInterval     = 2 * time.Second
	DefaultMaxFailures  = 5
	DefaultProgressStep = 10
	DefaultProgressCap  = 90
)

// StatusFetcher fetches the current status of a remote job.
type StatusFetcher interface {
	FetchStatus(ctx context.Context, handle domain.JobHandle) (domain.Snapshot, error)
}

// Tick is a non-terminal observation together with the estimated progress.
type Tick struct {
	Snapshot domain.Snapshot
	Progress int
}

// PollerOptions controls the polling policy. Zero values use the defaults.
type PollerOptions struct {
	Interval       time.Duration
	MaxFailures    int
	ProgressStep   int
	ProgressCap    int
	FailureMessage string
	Logger         *infra.Logger
}

func (o PollerOptions) withDefaults() PollerOptions {
	if o.Interval <= 0 {
		o.Interval = DefaultInterval
	}
	if o.MaxFailures <= 0 {
		o.MaxFailures = DefaultMaxFailures
	}
	if o.ProgressStep <= 0 {
		o.ProgressStep = DefaultProgressStep
	}
	if o.ProgressCap <= 0 || o.ProgressCap > 100 {
		o.ProgressCap = DefaultProgressCap
	}
	if o.FailureMessage == "" {
		o.FailureMessage = "Job failed"
	}
	if o.Logger == nil {
		o.Logger = infra.DiscardLogger()
	}
	return o
}

// Poller polls a StatusFetcher on a fixed period.
type Poller struct {
	fetcher StatusFetcher
	opts    PollerOptions
}

func NewPoller(fetcher StatusFetcher, opts PollerOptions) *Poller {
	return &Poller{fetcher: fetcher, opts: opts.withDefaults()}
}

// CancelToken stops a running poll loop.
type CancelToken struct {
	mu        sync.Mutex
	cancelled bool
	stop      context.CancelFunc
	done      chan struct{}
}

// Cancel stops future ticks. It is idempotent and, once it returns, no
// callback for this poll will start. Cancel blocks while a callback is
// running, so it must not be called from inside onTick or onTerminal.
func (t *CancelToken) Cancel() {
	t.mu.Lock()
	t.cancelled = true
	t.mu.Unlock()
	t.stop()
}

// Done is closed when the poll loop has exited.
func (t *CancelToken) Done() <-chan struct{} {
	return t.done
}

// Cancelled reports whether Cancel has been called.
func (t *CancelToken) Cancelled() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cancelled
}

// deliver runs fn unless the token was cancelled.
func (t *CancelToken) deliver(fn func()) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.cancelled {
		return false
	}
	fn()
	return true
}

// Start begins polling handle in its own goroutine. onTick receives every
// non-terminal snapshot; onTerminal fires at most once, and exactly once
// unless the token is cancelled or ctx ends first.
func (p *Poller) Start(ctx context.Context, handle domain.JobHandle, onTick func(Tick), onTerminal func(domain.Outcome)) *CancelToken {
	ctx, stop := context.WithCancel(ctx)
	token := &CancelToken{stop: stop, done: make(chan struct{})}
	go p.run(ctx, token, handle, onTick, onTerminal)
	return token
}

func (p *Poller) run(ctx context.Context, token *CancelToken, handle domain.JobHandle, onTick func(Tick), onTerminal func(domain.Outcome)) {
	defer close(token.done)
	defer token.stop()

	log := p.opts.Logger.With().Str("job_id", string(handle)).Logger()
	timer := time.NewTimer(p.opts.Interval)
	defer timer.Stop()

	progress := 0
	failures := 0
	for {
		select {
		case <-ctx.Done():
			log.Debug().Msg("jobs: polling stopped")
			return
		case <-timer.C:
		}

		snap, err := p.fetcher.FetchStatus(ctx, handle)
		if ctx.Err() != nil {
			// Cancelled while the fetch was in flight; drop its result.
			log.Debug().Msg("jobs: discarding in-flight status after cancel")
			return
		}
		if err != nil {
			failures++
			log.Warn().Err(err).Int("failures", failures).Msg("jobs: status fetch failed")
			if failures >= p.opts.MaxFailures {
				outcome := domain.Outcome{
					Reason: p.opts.FailureMessage,
					Cause:  fmt.Errorf("%d consecutive status failures: %w", failures, err),
				}
				token.deliver(func() { onTerminal(outcome) })
				return
			}
			timer.Reset(p.opts.Interval)
			continue
		}
		failures = 0

		switch snap.Status {
		case domain.JobStatusCompleted:
			log.Debug().Str("payload", snap.Payload).Msg("jobs: job completed")
			token.deliver(func() { onTerminal(domain.Outcome{Success: true, Payload: snap.Payload}) })
			return
		case domain.JobStatusFailed:
			reason := snap.Reason
			if reason == "" {
				reason = p.opts.FailureMessage
			}
			log.Debug().Str("reason", reason).Msg("jobs: job failed")
			token.deliver(func() {
				onTerminal(domain.Outcome{Reason: reason, Cause: domain.ErrTerminalFailure})
			})
			return
		default:
			progress = min(progress+p.opts.ProgressStep, p.opts.ProgressCap)
			tick := Tick{Snapshot: snap, Progress: progress}
			if !token.deliver(func() { onTick(tick) }) {
				return
			}
			timer.Reset(p.opts.Interval)
		}
	}
}
