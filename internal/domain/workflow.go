package domain

import "time"

// WorkflowActionStatus enumerates the lifecycle of a workflow action.
type WorkflowActionStatus string

const (
	WorkflowActionDraft     WorkflowActionStatus = "draft"
	WorkflowActionRunning   WorkflowActionStatus = "running"
	WorkflowActionSucceeded WorkflowActionStatus = "succeeded"
	WorkflowActionFailed    WorkflowActionStatus = "failed"
)

// WorkflowAction is a user-defined automation step whose code runs in the sandbox.
type WorkflowAction struct {
	ID        string
	UserID    string
	Name      string
	Language  string
	Code      string
	Status    WorkflowActionStatus
	OutputURL string
	LastError string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ExecutionLog records the outcome of one sandbox execution.
type ExecutionLog struct {
	ID               string
	WorkflowActionID string
	UserID           string
	JobID            string
	Status           JobStatus
	OutputURL        string
	ErrorMessage     string
	CreatedAt        time.Time
}

// UsagePoint is a single day in the usage timeline.
type UsagePoint struct {
	Day       time.Time `json:"day"`
	Total     int       `json:"total"`
	Succeeded int       `json:"succeeded"`
	Failed    int       `json:"failed"`
}
