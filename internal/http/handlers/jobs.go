package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"wzrd/internal/domain"
	"wzrd/internal/generation"
	"wzrd/internal/jobs"
)

type videoRequest struct {
	MessageID string `json:"message_id"`
	Script    string `json:"script"`
	ReplicaID string `json:"replica_id"`
}

type executionRequest struct {
	WorkflowActionID string `json:"workflow_action_id"`
	Code             string `json:"code"`
	Language         string `json:"language"`
}

type jobAccepted struct {
	JobID       string           `json:"job_id"`
	RemoteJobID domain.JobHandle `json:"remote_job_id"`
	Status      string           `json:"status"`
}

type jobStatusResponse struct {
	JobID       string           `json:"job_id"`
	Kind        domain.JobKind   `json:"kind"`
	RemoteJobID domain.JobHandle `json:"remote_job_id"`
	StartedAt   time.Time        `json:"started_at"`
	domain.GenerationStatus
}

func (a *App) VideosCreate(w http.ResponseWriter, r *http.Request) {
	var req videoRequest
	if !a.decode(w, r, &req) {
		return
	}
	if req.MessageID != "" {
		id, ok := parseID(req.MessageID)
		if !ok {
			a.error(w, http.StatusBadRequest, "bad_request", "message_id must be a UUID")
			return
		}
		req.MessageID = id
	}
	job, err := a.Generations.StartVideo(r.Context(), generation.VideoInput{
		MessageID: req.MessageID,
		Script:    req.Script,
		ReplicaID: req.ReplicaID,
	})
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.accepted(w, job)
}

func (a *App) ExecutionsCreate(w http.ResponseWriter, r *http.Request) {
	var req executionRequest
	if !a.decode(w, r, &req) {
		return
	}
	if req.WorkflowActionID != "" {
		id, ok := parseID(req.WorkflowActionID)
		if !ok {
			a.error(w, http.StatusBadRequest, "bad_request", "workflow_action_id must be a UUID")
			return
		}
		req.WorkflowActionID = id
	}
	job, err := a.Generations.StartExecution(r.Context(), generation.ExecutionInput{
		WorkflowActionID: req.WorkflowActionID,
		Code:             req.Code,
		Language:         req.Language,
	})
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.accepted(w, job)
}

func (a *App) VideoStatus(w http.ResponseWriter, r *http.Request) {
	a.jobStatus(w, r, domain.JobKindVideo)
}

func (a *App) ExecutionStatus(w http.ResponseWriter, r *http.Request) {
	a.jobStatus(w, r, domain.JobKindExecution)
}

func (a *App) VideoCancel(w http.ResponseWriter, r *http.Request) {
	a.jobCancel(w, r, domain.JobKindVideo)
}

func (a *App) ExecutionCancel(w http.ResponseWriter, r *http.Request) {
	a.jobCancel(w, r, domain.JobKindExecution)
}

func (a *App) jobStatus(w http.ResponseWriter, r *http.Request, kind domain.JobKind) {
	job, err := a.Generations.Status(kind, chi.URLParam(r, "job_id"))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, jobStatusResponse{
		JobID:            job.ID,
		Kind:             job.Kind,
		RemoteJobID:      job.Handle,
		StartedAt:        job.StartedAt,
		GenerationStatus: job.Status,
	})
}

func (a *App) jobCancel(w http.ResponseWriter, r *http.Request, kind domain.JobKind) {
	if _, err := a.Generations.Cancel(kind, chi.URLParam(r, "job_id")); err != nil {
		a.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *App) accepted(w http.ResponseWriter, job jobs.Job) {
	status := "running"
	if !job.Status.IsGenerating {
		status = "finished"
	}
	a.json(w, http.StatusAccepted, jobAccepted{JobID: job.ID, RemoteJobID: job.Handle, Status: status})
}
