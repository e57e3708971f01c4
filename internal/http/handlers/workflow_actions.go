package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"wzrd/internal/domain"
	"wzrd/internal/providers/sandbox"
)

type workflowActionRequest struct {
	UserID   string `json:"user_id"`
	Name     string `json:"name"`
	Language string `json:"language"`
	Code     string `json:"code"`
}

type workflowActionDTO struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Name      string    `json:"name"`
	Language  string    `json:"language"`
	Code      string    `json:"code"`
	Status    string    `json:"status"`
	OutputURL string    `json:"output_url,omitempty"`
	LastError string    `json:"last_error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type executionLogDTO struct {
	ID               string    `json:"id"`
	WorkflowActionID string    `json:"workflow_action_id"`
	JobID            string    `json:"job_id"`
	Status           string    `json:"status"`
	OutputURL        string    `json:"output_url,omitempty"`
	ErrorMessage     string    `json:"error_message,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

func (a *App) WorkflowActionsCreate(w http.ResponseWriter, r *http.Request) {
	var req workflowActionRequest
	if !a.decode(w, r, &req) {
		return
	}
	userID, ok := parseID(req.UserID)
	if !ok {
		a.error(w, http.StatusBadRequest, "bad_request", "user_id must be a UUID")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if strings.TrimSpace(req.Code) == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "code required")
		return
	}
	lang, err := sandbox.NormalizeLanguage(req.Language)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if req.Name == "" {
		req.Name = "Untitled action"
	}
	action := &domain.WorkflowAction{
		UserID:   userID,
		Name:     req.Name,
		Language: lang,
		Code:     req.Code,
		Status:   domain.WorkflowActionDraft,
	}
	if err := a.Actions.Create(r.Context(), action); err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusCreated, toWorkflowActionDTO(*action))
}

func (a *App) WorkflowActionsList(w http.ResponseWriter, r *http.Request) {
	userID, ok := a.requireUserID(w, r)
	if !ok {
		return
	}
	actions, err := a.Actions.ListByUser(r.Context(), userID, queryLimit(r))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	items := make([]workflowActionDTO, 0, len(actions))
	for _, action := range actions {
		items = append(items, toWorkflowActionDTO(action))
	}
	a.json(w, http.StatusOK, map[string]any{"items": items})
}

func (a *App) WorkflowActionGet(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(chi.URLParam(r, "id"))
	if !ok {
		a.fail(w, r, domain.ErrNotFound)
		return
	}
	action, err := a.Actions.GetByID(r.Context(), id)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, toWorkflowActionDTO(*action))
}

func (a *App) ExecutionLogsList(w http.ResponseWriter, r *http.Request) {
	actionID, ok := parseID(r.URL.Query().Get("workflow_action_id"))
	if !ok {
		a.error(w, http.StatusBadRequest, "bad_request", "workflow_action_id must be a UUID")
		return
	}
	logs, err := a.Logs.ListByAction(r.Context(), actionID, queryLimit(r))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	items := make([]executionLogDTO, 0, len(logs))
	for _, log := range logs {
		items = append(items, executionLogDTO{
			ID:               log.ID,
			WorkflowActionID: log.WorkflowActionID,
			JobID:            log.JobID,
			Status:           string(log.Status),
			OutputURL:        log.OutputURL,
			ErrorMessage:     log.ErrorMessage,
			CreatedAt:        log.CreatedAt,
		})
	}
	a.json(w, http.StatusOK, map[string]any{"items": items})
}

func toWorkflowActionDTO(action domain.WorkflowAction) workflowActionDTO {
	return workflowActionDTO{
		ID:        action.ID,
		UserID:    action.UserID,
		Name:      action.Name,
		Language:  action.Language,
		Code:      action.Code,
		Status:    string(action.Status),
		OutputURL: action.OutputURL,
		LastError: action.LastError,
		CreatedAt: action.CreatedAt,
		UpdatedAt: action.UpdatedAt,
	}
}

// queryLimit reads ?limit=; the repositories clamp it.
func queryLimit(r *http.Request) int {
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil {
		return 0
	}
	return limit
}
