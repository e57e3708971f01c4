package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"wzrd/internal/domain"
	"wzrd/internal/middleware"
)

type preferencesDTO struct {
	UserID               string    `json:"user_id"`
	Theme                string    `json:"theme"`
	Language             string    `json:"language"`
	NotificationsEnabled bool      `json:"notifications_enabled"`
	UpdatedAt            time.Time `json:"updated_at,omitzero"`
}

type preferencesRequest struct {
	Theme                string `json:"theme"`
	Language             string `json:"language"`
	NotificationsEnabled *bool  `json:"notifications_enabled"`
}

// PreferencesGet returns stored preferences, or defaults seeded from the
// request locale when the user has none yet.
func (a *App) PreferencesGet(w http.ResponseWriter, r *http.Request) {
	userID, ok := parseID(chi.URLParam(r, "user_id"))
	if !ok {
		a.error(w, http.StatusBadRequest, "bad_request", "user_id must be a UUID")
		return
	}
	prefs, err := a.Prefs.Get(r.Context(), userID)
	if errors.Is(err, domain.ErrNotFound) {
		prefs = &domain.UserPreferences{
			UserID:               userID,
			Language:             middleware.LocaleFromContext(r.Context()),
			NotificationsEnabled: true,
		}
		err = prefs.Normalize()
	}
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, toPreferencesDTO(prefs))
}

func (a *App) PreferencesPut(w http.ResponseWriter, r *http.Request) {
	userID, ok := parseID(chi.URLParam(r, "user_id"))
	if !ok {
		a.error(w, http.StatusBadRequest, "bad_request", "user_id must be a UUID")
		return
	}
	var req preferencesRequest
	if !a.decode(w, r, &req) {
		return
	}
	prefs := &domain.UserPreferences{
		UserID:               userID,
		Theme:                req.Theme,
		Language:             req.Language,
		NotificationsEnabled: true,
	}
	if req.NotificationsEnabled != nil {
		prefs.NotificationsEnabled = *req.NotificationsEnabled
	}
	if prefs.Language == "" {
		prefs.Language = middleware.LocaleFromContext(r.Context())
	}
	if err := prefs.Normalize(); err != nil {
		a.fail(w, r, err)
		return
	}
	if err := a.Prefs.Upsert(r.Context(), prefs); err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, toPreferencesDTO(prefs))
}

func toPreferencesDTO(p *domain.UserPreferences) preferencesDTO {
	return preferencesDTO{
		UserID:               p.UserID,
		Theme:                p.Theme,
		Language:             p.Language,
		NotificationsEnabled: p.NotificationsEnabled,
		UpdatedAt:            p.UpdatedAt,
	}
}
