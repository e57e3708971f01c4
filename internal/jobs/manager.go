package jobs

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"wzrd/internal/domain"
	"wzrd/internal/infra"
)

// Client is a remote job service the manager can poll.
type Client interface {
	StatusFetcher
	Kind() domain.JobKind
	FailureMessage() string
}

// TrackRequest describes one job to submit and follow.
type TrackRequest struct {
	Client Client
	// Submit performs the remote submission with the caller's input.
	Submit func(ctx context.Context) (domain.JobHandle, error)
	// Persist stores the terminal outcome on the owning record. Optional.
	Persist func(ctx context.Context, handle domain.JobHandle, o domain.Outcome) error
	// OnChange observes every GenerationStatus change. Optional.
	OnChange func(domain.GenerationStatus)
}

// Job is a point-in-time view of a tracked job.
type Job struct {
	ID        string                  `json:"job_id"`
	Kind      domain.JobKind          `json:"kind"`
	Handle    domain.JobHandle        `json:"remote_job_id"`
	StartedAt time.Time               `json:"started_at"`
	Status    domain.GenerationStatus `json:"status"`
}

// DefaultPersistTimeout bounds a Persist call, and with it how long Cancel can
// wait behind one.
const DefaultPersistTimeout = 5 * time.Second

// ManagerOptions configures a Manager.
type ManagerOptions struct {
	Poll           PollerOptions
	Retention      time.Duration
	PersistTimeout time.Duration
	Logger         *infra.Logger
	Now            func() time.Time
}

type entry struct {
	id         string
	kind       domain.JobKind
	handle     domain.JobHandle
	startedAt  time.Time
	finishedAt time.Time
	merger     *StatusMerger
	token      *CancelToken
}

// Manager owns every in-flight job of the process. Jobs are keyed by a
// locally generated id because fallback submissions share one handle.
type Manager struct {
	mu      sync.Mutex
	entries map[string]*entry
	opts    ManagerOptions
	logger  *infra.Logger
	ctx     context.Context
	cancel  context.CancelFunc
}

func NewManager(opts ManagerOptions) *Manager {
	if opts.Retention <= 0 {
		opts.Retention = 10 * time.Minute
	}
	if opts.PersistTimeout <= 0 {
		opts.PersistTimeout = DefaultPersistTimeout
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	logger := opts.Logger
	if logger == nil {
		logger = infra.DiscardLogger()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		entries: make(map[string]*entry),
		opts:    opts,
		logger:  logger,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Track submits the job and starts polling it. Submission errors are
// returned immediately and never retried.
func (m *Manager) Track(ctx context.Context, req TrackRequest) (Job, error) {
	if req.Client == nil || req.Submit == nil {
		return Job{}, errors.New("jobs: client and submit are required")
	}
	if err := m.ctx.Err(); err != nil {
		return Job{}, fmt.Errorf("jobs: manager is shut down: %w", err)
	}
	kind := req.Client.Kind()
	handle, err := req.Submit(ctx)
	if err != nil {
		if !errors.Is(err, domain.ErrSubmission) && !errors.Is(err, domain.ErrInvalidInput) {
			err = fmt.Errorf("%w: %w", domain.ErrSubmission, err)
		}
		m.logger.Warn().Err(err).Str("kind", string(kind)).Msg("jobs: submission failed")
		return Job{}, err
	}

	e := &entry{
		id:        uuid.NewString(),
		kind:      kind,
		handle:    handle,
		startedAt: m.opts.Now(),
	}
	log := m.logger.With().Str("kind", string(kind)).Str("job_id", string(handle)).Str("tracking_id", e.id).Logger()

	e.merger = NewStatusMerger(MergerOptions{
		ProgressCap: m.opts.Poll.ProgressCap,
		OnChange:    req.OnChange,
		Persist: func(o domain.Outcome) {
			m.markFinished(e)
			if o.Success {
				log.Info().Str("result", o.Payload).Msg("jobs: job succeeded")
			} else {
				log.Warn().AnErr("cause", o.Cause).Str("reason", o.Reason).Msg("jobs: job failed")
			}
			if req.Persist == nil {
				return
			}
			pctx, cancel := context.WithTimeout(context.WithoutCancel(m.ctx), m.opts.PersistTimeout)
			defer cancel()
			pctx = log.WithContext(pctx)
			if err := req.Persist(pctx, handle, o); err != nil {
				log.Error().Err(err).Msg("jobs: persist outcome failed")
			}
		},
	})
	e.merger.Begin()

	pollOpts := m.opts.Poll
	pollOpts.FailureMessage = req.Client.FailureMessage()
	pollOpts.Logger = &log

	m.mu.Lock()
	m.evictLocked(m.opts.Now())
	m.entries[e.id] = e
	e.token = NewPoller(req.Client, pollOpts).Start(m.ctx, handle, e.merger.OnTick, e.merger.OnTerminal)
	m.mu.Unlock()

	log.Info().Msg("jobs: job submitted")
	return m.view(e), nil
}

// Get returns the current view of a tracked job.
func (m *Manager) Get(id string) (Job, error) {
	m.mu.Lock()
	m.evictLocked(m.opts.Now())
	e, ok := m.entries[id]
	m.mu.Unlock()
	if !ok {
		return Job{}, domain.ErrNotFound
	}
	return m.view(e), nil
}

// Cancel stops polling a job. Cancelling a finished job is a no-op.
//
// A terminal outcome that is already being delivered wins: Cancel then waits
// for its Persist call to return, bounded by PersistTimeout, and the job keeps
// its result or error.
func (m *Manager) Cancel(id string) (Job, error) {
	m.mu.Lock()
	e, ok := m.entries[id]
	m.mu.Unlock()
	if !ok {
		return Job{}, domain.ErrNotFound
	}
	e.token.Cancel()
	if !e.merger.Finished() {
		e.merger.Abandon()
		m.markFinished(e)
		m.logger.Info().Str("kind", string(e.kind)).Str("job_id", string(e.handle)).Msg("jobs: job cancelled")
	}
	return m.view(e), nil
}

// Wait blocks until the job stops polling or ctx ends.
func (m *Manager) Wait(ctx context.Context, id string) (Job, error) {
	m.mu.Lock()
	e, ok := m.entries[id]
	m.mu.Unlock()
	if !ok {
		return Job{}, domain.ErrNotFound
	}
	select {
	case <-e.token.Done():
		return m.view(e), nil
	case <-ctx.Done():
		return m.view(e), ctx.Err()
	}
}

// Shutdown cancels every job and waits for all poll loops to exit.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	entries := make([]*entry, 0, len(m.entries))
	for _, e := range m.entries {
		entries = append(entries, e)
	}
	m.mu.Unlock()

	g, gctx := errgroup.WithContext(ctx)
	for _, e := range entries {
		g.Go(func() error {
			e.token.Cancel()
			e.merger.Abandon()
			select {
			case <-e.token.Done():
				return nil
			case <-gctx.Done():
				return gctx.Err()
			}
		})
	}
	err := g.Wait()
	m.cancel()
	return err
}

func (m *Manager) markFinished(e *entry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e.finishedAt.IsZero() {
		e.finishedAt = m.opts.Now()
	}
}

// Active returns the number of jobs still polling.
func (m *Manager) Active() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, e := range m.entries {
		if e.finishedAt.IsZero() {
			n++
		}
	}
	return n
}

func (m *Manager) evictLocked(now time.Time) {
	for id, e := range m.entries {
		if !e.finishedAt.IsZero() && now.Sub(e.finishedAt) > m.opts.Retention {
			delete(m.entries, id)
		}
	}
}

func (m *Manager) view(e *entry) Job {
	return Job{
		ID:        e.id,
		Kind:      e.kind,
		Handle:    e.handle,
		StartedAt: e.startedAt,
		Status:    e.merger.Status(),
	}
}
