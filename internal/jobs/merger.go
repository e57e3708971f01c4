package jobs

import (
	"sync"

	"wzrd/internal/domain"
)

// StatusMerger folds poll results into a GenerationStatus and hands the
// terminal outcome to a persist callback exactly once.
type StatusMerger struct {
	mu       sync.RWMutex
	status   domain.GenerationStatus
	finished bool
	limit    int
	persist  func(domain.Outcome)
	onChange func(domain.GenerationStatus)
}

// MergerOptions configures a StatusMerger.
type MergerOptions struct {
	// ProgressCap bounds progress until a terminal outcome arrives.
	ProgressCap int
	// Persist receives the terminal outcome. Optional.
	Persist func(domain.Outcome)
	// OnChange observes every state change. Optional.
	OnChange func(domain.GenerationStatus)
}

func NewStatusMerger(opts MergerOptions) *StatusMerger {
	limit := opts.ProgressCap
	if limit <= 0 || limit > 100 {
		limit = DefaultProgressCap
	}
	return &StatusMerger{limit: limit, persist: opts.Persist, onChange: opts.OnChange}
}

// Begin marks the job as generating with zero progress.
func (m *StatusMerger) Begin() {
	m.mu.Lock()
	if m.finished {
		m.mu.Unlock()
		return
	}
	m.status = domain.GenerationStatus{IsGenerating: true}
	snapshot := m.copyLocked()
	m.mu.Unlock()
	m.notify(snapshot)
}

// OnTick advances progress. Progress never decreases and stays within the cap.
func (m *StatusMerger) OnTick(t Tick) {
	m.mu.Lock()
	if m.finished || !m.status.IsGenerating {
		m.mu.Unlock()
		return
	}
	next := min(t.Progress, m.limit)
	if next <= m.status.Progress {
		m.mu.Unlock()
		return
	}
	m.status.Progress = next
	snapshot := m.copyLocked()
	m.mu.Unlock()
	m.notify(snapshot)
}

// OnTerminal records the outcome and persists it. Calls after the first
// are no-ops.
func (m *StatusMerger) OnTerminal(o domain.Outcome) {
	m.mu.Lock()
	if m.finished {
		m.mu.Unlock()
		return
	}
	m.finished = true
	m.status.IsGenerating = false
	if o.Success {
		payload := o.Payload
		m.status.Result = &payload
		m.status.Progress = 100
	} else {
		reason := o.Reason
		m.status.Error = &reason
	}
	snapshot := m.copyLocked()
	m.mu.Unlock()

	m.notify(snapshot)
	if m.persist != nil {
		m.persist(o)
	}
}

// Abandon stops generation without an outcome, as after a cancel. Later
// terminal calls are ignored.
func (m *StatusMerger) Abandon() {
	m.mu.Lock()
	if m.finished {
		m.mu.Unlock()
		return
	}
	m.finished = true
	m.status.IsGenerating = false
	snapshot := m.copyLocked()
	m.mu.Unlock()
	m.notify(snapshot)
}

// Finished reports whether a terminal outcome or abandon has been recorded.
func (m *StatusMerger) Finished() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.finished
}

// Status returns a copy of the current state.
func (m *StatusMerger) Status() domain.GenerationStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.copyLocked()
}

func (m *StatusMerger) copyLocked() domain.GenerationStatus {
	out := m.status
	if m.status.Result != nil {
		v := *m.status.Result
		out.Result = &v
	}
	if m.status.Error != nil {
		v := *m.status.Error
		out.Error = &v
	}
	return out
}

func (m *StatusMerger) notify(s domain.GenerationStatus) {
	if m.onChange != nil {
		m.onChange(s)
	}
}
