package domain

import (
	"context"
	"time"
)

// RecordUpdater attaches terminal job payloads to an owning record.
// Implementations must tolerate repeated identical calls.
type RecordUpdater interface {
	UpdateRecord(ctx context.Context, id string, fields RecordFields) error
}

// WorkflowActionRepository defines persistence for workflow actions.
type WorkflowActionRepository interface {
	RecordUpdater
	Create(ctx context.Context, action *WorkflowAction) error
	GetByID(ctx context.Context, id string) (*WorkflowAction, error)
	ListByUser(ctx context.Context, userID string, limit int) ([]WorkflowAction, error)
}

// ExecutionLogRepository defines persistence for execution logs.
type ExecutionLogRepository interface {
	Insert(ctx context.Context, log *ExecutionLog) error
	ListByAction(ctx context.Context, workflowActionID string, limit int) ([]ExecutionLog, error)
	DailyCounts(ctx context.Context, userID string, since time.Time) ([]UsagePoint, error)
}

// PreferencesRepository handles user preferences.
type PreferencesRepository interface {
	Get(ctx context.Context, userID string) (*UserPreferences, error)
	Upsert(ctx context.Context, prefs *UserPreferences) error
}

// ScreenRecordingRepository handles screen recording metadata.
type ScreenRecordingRepository interface {
	Create(ctx context.Context, rec *ScreenRecording) error
	ListByUser(ctx context.Context, userID string, limit int) ([]ScreenRecording, error)
}
