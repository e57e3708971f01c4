package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"wzrd/internal/domain"
	"wzrd/internal/generation"
	"wzrd/internal/infra"
	"wzrd/internal/storage"
)

// App carries the dependencies shared by every handler.
type App struct {
	Generations *generation.Service
	Actions     domain.WorkflowActionRepository
	Logs        domain.ExecutionLogRepository
	Prefs       domain.PreferencesRepository
	Recordings  domain.ScreenRecordingRepository
	Store       *storage.FileStore
	Logger      *infra.Logger
	Now         func() time.Time

	// Ping checks the database for the health endpoint. Optional.
	Ping func(ctx context.Context) error

	// MaxRecordingBytes caps an upload body; zero means 200 MB.
	MaxRecordingBytes int64
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (a *App) error(w http.ResponseWriter, status int, code, message string) {
	a.json(w, status, errorBody{Error: errorDetail{Code: code, Message: message}})
}

// fail maps a domain error onto a status code and the user-facing message.
func (a *App) fail(w http.ResponseWriter, r *http.Request, err error) {
	message := generation.UserMessage(err)
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		a.error(w, http.StatusBadRequest, "bad_request", message)
	case errors.Is(err, domain.ErrNotFound):
		a.error(w, http.StatusNotFound, "not_found", message)
	case errors.Is(err, domain.ErrSubmission):
		a.logger().Warn().Err(err).Str("path", r.URL.Path).Msg("job submission failed")
		a.error(w, http.StatusBadGateway, "submission_failed", message)
	default:
		a.logger().Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		a.error(w, http.StatusInternalServerError, "internal", message)
	}
}

func (a *App) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return false
	}
	return true
}

// parseID canonicalises a UUID identifier. Every table keys rows by UUID.
func parseID(raw string) (string, bool) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", false
	}
	return id.String(), true
}

// requireUserID reads ?user_id= and writes a 400 when it is not a UUID.
func (a *App) requireUserID(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, ok := parseID(r.URL.Query().Get("user_id"))
	if !ok {
		a.error(w, http.StatusBadRequest, "bad_request", "user_id must be a UUID")
	}
	return userID, ok
}

func (a *App) now() time.Time {
	if a.Now != nil {
		return a.Now()
	}
	return time.Now()
}

func (a *App) logger() *infra.Logger {
	if a.Logger != nil {
		return a.Logger
	}
	return infra.DiscardLogger()
}
