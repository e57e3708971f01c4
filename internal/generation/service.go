// Package generation starts video and sandbox jobs on behalf of the API and
// writes their outcomes back to the records that own them.
package generation

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"wzrd/internal/domain"
	"wzrd/internal/infra"
	"wzrd/internal/jobs"
	"wzrd/internal/providers/sandbox"
	"wzrd/internal/providers/video"
)

// VideoClient is satisfied by *video.Client.
type VideoClient interface {
	jobs.Client
	Submit(ctx context.Context, req video.Request) (domain.JobHandle, error)
}

// SandboxClient is satisfied by *sandbox.Client.
type SandboxClient interface {
	jobs.Client
	Submit(ctx context.Context, req sandbox.Request) (domain.JobHandle, error)
}

// Dependencies wires the service. Repositories may be nil in offline tools;
// outcomes are then only logged.
type Dependencies struct {
	Manager  *jobs.Manager
	Video    VideoClient
	Sandbox  SandboxClient
	Messages domain.RecordUpdater
	Actions  domain.WorkflowActionRepository
	Logs     domain.ExecutionLogRepository
	Logger   *infra.Logger
}

type Service struct {
	deps   Dependencies
	logger *infra.Logger
}

// VideoInput requests a video for a chat message.
type VideoInput struct {
	MessageID string
	Script    string
	ReplicaID string
	OnChange  func(domain.GenerationStatus)
}

// ExecutionInput runs a workflow action's code.
type ExecutionInput struct {
	WorkflowActionID string
	UserID           string
	Code             string
	Language         string
	OnChange         func(domain.GenerationStatus)
}

func NewService(deps Dependencies) (*Service, error) {
	if deps.Manager == nil || deps.Video == nil || deps.Sandbox == nil {
		return nil, errors.New("generation: manager, video and sandbox clients are required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = infra.DiscardLogger()
	}
	return &Service{deps: deps, logger: logger}, nil
}

// StartVideo submits a video job and attaches the result to the message
// when it finishes.
func (s *Service) StartVideo(ctx context.Context, in VideoInput) (jobs.Job, error) {
	in.MessageID = strings.TrimSpace(in.MessageID)
	req, err := video.Request{Script: in.Script, ReplicaID: in.ReplicaID}.Normalize()
	if err != nil {
		return jobs.Job{}, err
	}
	if in.MessageID != "" {
		req.VideoName = "message-" + in.MessageID
	}
	var messages domain.RecordUpdater
	if in.MessageID != "" {
		messages = s.deps.Messages
	}
	s.markStarted(ctx, messages, in.MessageID, "generating")
	job, err := s.deps.Manager.Track(ctx, jobs.TrackRequest{
		Client: s.deps.Video,
		Submit: func(ctx context.Context) (domain.JobHandle, error) {
			return s.deps.Video.Submit(ctx, req)
		},
		Persist: func(ctx context.Context, handle domain.JobHandle, o domain.Outcome) error {
			if messages == nil {
				return nil
			}
			return messages.UpdateRecord(ctx, in.MessageID, outcomeFields(o))
		},
		OnChange: in.OnChange,
	})
	if err != nil {
		s.markSubmitFailed(ctx, messages, in.MessageID, "failed", err)
		return jobs.Job{}, err
	}
	return job, nil
}

// StartExecution runs code in the sandbox. When WorkflowActionID is set and
// Code is empty the stored action code is used.
func (s *Service) StartExecution(ctx context.Context, in ExecutionInput) (jobs.Job, error) {
	in.WorkflowActionID = strings.TrimSpace(in.WorkflowActionID)
	if in.WorkflowActionID != "" && s.deps.Actions != nil {
		action, err := s.deps.Actions.GetByID(ctx, in.WorkflowActionID)
		if err != nil {
			return jobs.Job{}, fmt.Errorf("load workflow action: %w", err)
		}
		if strings.TrimSpace(in.Code) == "" {
			in.Code = action.Code
		}
		if in.Language == "" {
			in.Language = action.Language
		}
		if in.UserID == "" {
			in.UserID = action.UserID
		}
	}
	req, err := sandbox.Request{Code: in.Code, Language: in.Language}.Normalize()
	if err != nil {
		return jobs.Job{}, err
	}

	// Mark before tracking so a fast terminal outcome is never overwritten.
	s.markStarted(ctx, s.actionUpdater(in.WorkflowActionID), in.WorkflowActionID, string(domain.WorkflowActionRunning))
	job, err := s.deps.Manager.Track(ctx, jobs.TrackRequest{
		Client: s.deps.Sandbox,
		Submit: func(ctx context.Context) (domain.JobHandle, error) {
			return s.deps.Sandbox.Submit(ctx, req)
		},
		Persist: func(ctx context.Context, handle domain.JobHandle, o domain.Outcome) error {
			return s.persistExecution(ctx, in, handle, o)
		},
		OnChange: in.OnChange,
	})
	if err != nil {
		s.markSubmitFailed(ctx, s.actionUpdater(in.WorkflowActionID), in.WorkflowActionID, string(domain.WorkflowActionFailed), err)
		return jobs.Job{}, err
	}
	return job, nil
}

// Status returns the job only if it is of the expected kind.
func (s *Service) Status(kind domain.JobKind, id string) (jobs.Job, error) {
	job, err := s.deps.Manager.Get(id)
	if err != nil {
		return jobs.Job{}, err
	}
	if job.Kind != kind {
		return jobs.Job{}, domain.ErrNotFound
	}
	return job, nil
}

// Cancel stops a job of the expected kind.
func (s *Service) Cancel(kind domain.JobKind, id string) (jobs.Job, error) {
	if _, err := s.Status(kind, id); err != nil {
		return jobs.Job{}, err
	}
	return s.deps.Manager.Cancel(id)
}

// ActiveJobs returns the number of jobs still being polled.
func (s *Service) ActiveJobs() int {
	return s.deps.Manager.Active()
}

func (s *Service) persistExecution(ctx context.Context, in ExecutionInput, handle domain.JobHandle, o domain.Outcome) error {
	if in.WorkflowActionID == "" {
		return nil
	}
	var errs []error
	if s.deps.Actions != nil {
		fields := outcomeFields(o)
		status := string(domain.WorkflowActionFailed)
		if o.Success {
			status = string(domain.WorkflowActionSucceeded)
		}
		fields.Status = &status
		if err := s.deps.Actions.UpdateRecord(ctx, in.WorkflowActionID, fields); err != nil {
			errs = append(errs, fmt.Errorf("update workflow action: %w", err))
		}
	}
	if s.deps.Logs != nil && in.UserID != "" {
		log := &domain.ExecutionLog{
			WorkflowActionID: in.WorkflowActionID,
			UserID:           in.UserID,
			JobID:            string(handle),
			Status:           domain.JobStatusFailed,
			ErrorMessage:     o.Reason,
		}
		if o.Success {
			log.Status = domain.JobStatusCompleted
			log.OutputURL = o.Payload
			log.ErrorMessage = ""
		}
		if err := s.deps.Logs.Insert(ctx, log); err != nil {
			errs = append(errs, fmt.Errorf("insert execution log: %w", err))
		}
	}
	return errors.Join(errs...)
}

func (s *Service) actionUpdater(id string) domain.RecordUpdater {
	if id == "" || s.deps.Actions == nil {
		return nil
	}
	return s.deps.Actions
}

func (s *Service) markStarted(ctx context.Context, records domain.RecordUpdater, id, status string) {
	if records == nil {
		return
	}
	// Empty strings clear the result and error left by a previous run.
	cleared := ""
	fields := domain.RecordFields{Status: &status, ResultURL: &cleared, ErrorMessage: &cleared}
	if err := records.UpdateRecord(ctx, id, fields); err != nil {
		s.logger.Warn().Err(err).Str("record_id", id).Msg("generation: mark record started failed")
	}
}

func (s *Service) markSubmitFailed(ctx context.Context, records domain.RecordUpdater, id, status string, cause error) {
	if records == nil {
		return
	}
	reason := UserMessage(cause)
	if err := records.UpdateRecord(ctx, id, domain.RecordFields{Status: &status, ErrorMessage: &reason}); err != nil {
		s.logger.Warn().Err(err).Str("record_id", id).Msg("generation: record submission failure failed")
	}
}

// UserMessage turns an error into the string shown in the UI.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, domain.ErrInvalidInput):
		return strings.TrimPrefix(err.Error(), domain.ErrInvalidInput.Error()+": ")
	case errors.Is(err, domain.ErrNotFound):
		return "Record not found"
	case errors.Is(err, domain.ErrSubmission):
		return "The job could not be started. Please try again."
	default:
		return "Something went wrong"
	}
}

// outcomeFields sets exactly one of result and error and clears the other.
func outcomeFields(o domain.Outcome) domain.RecordFields {
	cleared := ""
	if o.Success {
		status := "completed"
		payload := o.Payload
		return domain.RecordFields{Status: &status, ResultURL: &payload, ErrorMessage: &cleared}
	}
	status := "failed"
	reason := o.Reason
	return domain.RecordFields{Status: &status, ResultURL: &cleared, ErrorMessage: &reason}
}
