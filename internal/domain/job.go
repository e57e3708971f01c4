package domain

// JobKind identifies the remote service backing an asynchronous job.
type JobKind string

const (
	JobKindVideo     JobKind = "video"
	JobKindExecution JobKind = "execution"
)

// JobStatus enumerates the states reported by a remote job service.
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
)

// IsTerminal reports whether no further status changes are expected.
func (s JobStatus) IsTerminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// Valid reports whether s is one of the known statuses.
func (s JobStatus) Valid() bool {
	switch s {
	case JobStatusPending, JobStatusRunning, JobStatusCompleted, JobStatusFailed:
		return true
	default:
		return false
	}
}

// JobHandle is the opaque identifier a remote service returns on submission.
type JobHandle string

// Snapshot is a single status observation for a job. Payload is only
// meaningful for completed snapshots and Reason for failed ones.
type Snapshot struct {
	Status  JobStatus
	Payload string
	Reason  string
}

// GenerationStatus is the locally observable state of a running job.
type GenerationStatus struct {
	IsGenerating bool    `json:"is_generating"`
	Progress     int     `json:"progress"`
	Result       *string `json:"result"`
	Error        *string `json:"error"`
}

// Outcome is the terminal result delivered once per job. Reason is the
// human-readable message; Cause keeps the underlying error for logs.
type Outcome struct {
	Success bool
	Payload string
	Reason  string
	Cause   error
}
