package generation

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"wzrd/internal/domain"
	"wzrd/internal/jobs"
	"wzrd/internal/providers/sandbox"
	"wzrd/internal/providers/video"
)

type recordUpdate struct {
	id     string
	fields domain.RecordFields
}

type memoryRecords struct {
	mu      sync.Mutex
	updates []recordUpdate
}

func (m *memoryRecords) UpdateRecord(ctx context.Context, id string, fields domain.RecordFields) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updates = append(m.updates, recordUpdate{id: id, fields: fields})
	return nil
}

func (m *memoryRecords) last() recordUpdate {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.updates[len(m.updates)-1]
}

func (m *memoryRecords) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.updates)
}

type memoryActions struct {
	memoryRecords
	actions map[string]domain.WorkflowAction
}

func (m *memoryActions) Create(ctx context.Context, action *domain.WorkflowAction) error {
	m.actions[action.ID] = *action
	return nil
}

func (m *memoryActions) GetByID(ctx context.Context, id string) (*domain.WorkflowAction, error) {
	action, ok := m.actions[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &action, nil
}

func (m *memoryActions) ListByUser(ctx context.Context, userID string, limit int) ([]domain.WorkflowAction, error) {
	return nil, nil
}

type memoryLogs struct {
	mu   sync.Mutex
	logs []domain.ExecutionLog
}

func (m *memoryLogs) Insert(ctx context.Context, log *domain.ExecutionLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logs = append(m.logs, *log)
	return nil
}

func (m *memoryLogs) ListByAction(ctx context.Context, id string, limit int) ([]domain.ExecutionLog, error) {
	return nil, nil
}

func (m *memoryLogs) DailyCounts(ctx context.Context, userID string, since time.Time) ([]domain.UsagePoint, error) {
	return nil, nil
}

// storedRow applies updates the way the SQL does: nil keeps a column and
// an empty string clears it.
type storedRow struct {
	status, result, errMsg string
}

type rowRecords struct {
	mu   sync.Mutex
	rows map[string]storedRow
}

func (m *rowRecords) UpdateRecord(ctx context.Context, id string, fields domain.RecordFields) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.rows == nil {
		m.rows = map[string]storedRow{}
	}
	row := m.rows[id]
	if fields.Status != nil {
		row.status = *fields.Status
	}
	if fields.ResultURL != nil {
		row.result = *fields.ResultURL
	}
	if fields.ErrorMessage != nil {
		row.errMsg = *fields.ErrorMessage
	}
	m.rows[id] = row
	return nil
}

func (m *rowRecords) get(id string) storedRow {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rows[id]
}

// scriptedVideo hands out job-1, job-2, ... and reports the snapshot set for
// each handle.
type scriptedVideo struct {
	mu        sync.Mutex
	submitted int
	submitErr error
	snaps     map[domain.JobHandle]domain.Snapshot
}

func (v *scriptedVideo) Kind() domain.JobKind { return domain.JobKindVideo }

func (v *scriptedVideo) FailureMessage() string { return video.FailureMessage }

func (v *scriptedVideo) Submit(ctx context.Context, req video.Request) (domain.JobHandle, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.submitErr != nil {
		return "", v.submitErr
	}
	v.submitted++
	return domain.JobHandle(fmt.Sprintf("job-%d", v.submitted)), nil
}

func (v *scriptedVideo) FetchStatus(ctx context.Context, handle domain.JobHandle) (domain.Snapshot, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.snaps[handle], nil
}

type fixture struct {
	svc      *Service
	manager  *jobs.Manager
	messages *memoryRecords
	actions  *memoryActions
	logs     *memoryLogs
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	videoClient, err := video.NewClient(video.Options{})
	if err != nil {
		t.Fatalf("video client: %v", err)
	}
	return newFixtureWithVideo(t, videoClient)
}

func newFixtureWithVideo(t *testing.T, videoClient VideoClient) *fixture {
	t.Helper()
	sandboxClient, err := sandbox.NewClient(sandbox.Options{})
	if err != nil {
		t.Fatalf("sandbox client: %v", err)
	}
	manager := jobs.NewManager(jobs.ManagerOptions{Poll: jobs.PollerOptions{Interval: time.Millisecond}})
	t.Cleanup(func() { _ = manager.Shutdown(context.Background()) })

	f := &fixture{
		manager:  manager,
		messages: &memoryRecords{},
		actions: &memoryActions{actions: map[string]domain.WorkflowAction{
			"action-1": {ID: "action-1", UserID: "user-1", Language: "bash", Code: "echo hi"},
		}},
		logs: &memoryLogs{},
	}
	f.svc, err = NewService(Dependencies{
		Manager:  manager,
		Video:    videoClient,
		Sandbox:  sandboxClient,
		Messages: f.messages,
		Actions:  f.actions,
		Logs:     f.logs,
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return f
}

func TestStartVideoAttachesResultToMessage(t *testing.T) {
	f := newFixture(t)

	job, err := f.svc.StartVideo(context.Background(), VideoInput{MessageID: "msg-1", Script: "Hello"})
	if err != nil {
		t.Fatalf("StartVideo error: %v", err)
	}
	if job.Kind != domain.JobKindVideo || job.Handle != video.FallbackJobID {
		t.Fatalf("job = %+v", job)
	}
	if _, err := f.manager.Wait(context.Background(), job.ID); err != nil {
		t.Fatalf("wait: %v", err)
	}

	if n := f.messages.count(); n != 2 {
		t.Fatalf("message updates = %d, want 2", n)
	}
	last := f.messages.last()
	if last.id != "msg-1" || last.fields.ResultURL == nil || *last.fields.ResultURL != video.FallbackVideoURL {
		t.Fatalf("last update = %+v", last)
	}
}

func TestStartVideoInvalidScriptLeavesMessageUntouched(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.StartVideo(context.Background(), VideoInput{MessageID: "msg-1", Script: " "})
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("error = %v, want ErrInvalidInput", err)
	}
	if got := UserMessage(err); got != "script is required" {
		t.Fatalf("message = %q, want %q", got, "script is required")
	}
	if n := f.messages.count(); n != 0 {
		t.Fatalf("message updates = %d, want 0", n)
	}
}

func TestStartExecutionUnsupportedLanguageLeavesActionUntouched(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.StartExecution(context.Background(), ExecutionInput{WorkflowActionID: "action-1", Language: "cobol"})
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("error = %v, want ErrInvalidInput", err)
	}
	if n := f.actions.count(); n != 0 {
		t.Fatalf("action updates = %d, want 0", n)
	}
}

func TestStartVideoSubmissionFailureMarksMessageFailed(t *testing.T) {
	remote := &scriptedVideo{submitErr: fmt.Errorf("%w: status 500", domain.ErrSubmission)}
	f := newFixtureWithVideo(t, remote)

	_, err := f.svc.StartVideo(context.Background(), VideoInput{MessageID: "msg-1", Script: "Hello"})
	if !errors.Is(err, domain.ErrSubmission) {
		t.Fatalf("error = %v, want ErrSubmission", err)
	}
	last := f.messages.last()
	if last.fields.Status == nil || *last.fields.Status != "failed" {
		t.Fatalf("last update = %+v", last)
	}
	if last.fields.ErrorMessage == nil || *last.fields.ErrorMessage != UserMessage(err) {
		t.Fatalf("error message = %v", last.fields.ErrorMessage)
	}
}

func TestRerunReplacesPreviousOutcome(t *testing.T) {
	remote := &scriptedVideo{snaps: map[domain.JobHandle]domain.Snapshot{
		"job-1": {Status: domain.JobStatusFailed, Reason: "render crashed"},
		"job-2": {Status: domain.JobStatusCompleted, Payload: "https://cdn.example/v2.mp4"},
		"job-3": {Status: domain.JobStatusFailed},
	}}
	f := newFixtureWithVideo(t, remote)
	rows := &rowRecords{}
	f.svc.deps.Messages = rows

	tests := []struct {
		want storedRow
	}{
		{want: storedRow{status: "failed", errMsg: "render crashed"}},
		{want: storedRow{status: "completed", result: "https://cdn.example/v2.mp4"}},
		{want: storedRow{status: "failed", errMsg: video.FailureMessage}},
	}
	for i, tt := range tests {
		job, err := f.svc.StartVideo(context.Background(), VideoInput{MessageID: "msg-1", Script: "Hello"})
		if err != nil {
			t.Fatalf("run %d: StartVideo error: %v", i+1, err)
		}
		if _, err := f.manager.Wait(context.Background(), job.ID); err != nil {
			t.Fatalf("run %d: wait: %v", i+1, err)
		}
		if got := rows.get("msg-1"); got != tt.want {
			t.Fatalf("run %d: row = %+v, want %+v", i+1, got, tt.want)
		}
	}
}

func TestStartExecutionUsesStoredActionAndLogsOutcome(t *testing.T) {
	f := newFixture(t)

	job, err := f.svc.StartExecution(context.Background(), ExecutionInput{WorkflowActionID: "action-1"})
	if err != nil {
		t.Fatalf("StartExecution error: %v", err)
	}
	if _, err := f.manager.Wait(context.Background(), job.ID); err != nil {
		t.Fatalf("wait: %v", err)
	}

	last := f.actions.last()
	if last.fields.Status == nil || *last.fields.Status != string(domain.WorkflowActionSucceeded) {
		t.Fatalf("last action update = %+v", last)
	}
	if last.fields.ResultURL == nil || *last.fields.ResultURL != sandbox.FallbackOutputURL {
		t.Fatalf("result url = %v", last.fields.ResultURL)
	}

	f.logs.mu.Lock()
	defer f.logs.mu.Unlock()
	if len(f.logs.logs) != 1 {
		t.Fatalf("logs = %d, want 1", len(f.logs.logs))
	}
	log := f.logs.logs[0]
	if log.UserID != "user-1" || log.Status != domain.JobStatusCompleted || log.JobID != sandbox.FallbackJobID {
		t.Fatalf("log = %+v", log)
	}
}

func TestStartExecutionUnknownAction(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.StartExecution(context.Background(), ExecutionInput{WorkflowActionID: "missing"})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("error = %v, want ErrNotFound", err)
	}
}

func TestStatusChecksKind(t *testing.T) {
	f := newFixture(t)

	job, err := f.svc.StartVideo(context.Background(), VideoInput{Script: "Hello"})
	if err != nil {
		t.Fatalf("StartVideo error: %v", err)
	}
	if _, err := f.svc.Status(domain.JobKindVideo, job.ID); err != nil {
		t.Fatalf("Status error: %v", err)
	}
	if _, err := f.svc.Status(domain.JobKindExecution, job.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("error = %v, want ErrNotFound", err)
	}
	if _, err := f.svc.Cancel(domain.JobKindExecution, job.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("error = %v, want ErrNotFound", err)
	}
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{err: nil, want: ""},
		{err: fmt.Errorf("%w: code is required", domain.ErrInvalidInput), want: "code is required"},
		{err: domain.ErrNotFound, want: "Record not found"},
		{err: fmt.Errorf("%w: status 500", domain.ErrSubmission), want: "The job could not be started. Please try again."},
		{err: errors.New("boom"), want: "Something went wrong"},
	}
	for _, tt := range tests {
		if got := UserMessage(tt.err); got != tt.want {
			t.Fatalf("UserMessage(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}
