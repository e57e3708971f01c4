package handlers

import (
	"net/http"
	"strconv"

	"wzrd/internal/usage"
)

// UsageTimeline returns one execution count per day for the last N days.
func (a *App) UsageTimeline(w http.ResponseWriter, r *http.Request) {
	userID, ok := a.requireUserID(w, r)
	if !ok {
		return
	}
	days := usage.DefaultDays
	if raw := r.URL.Query().Get("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			a.error(w, http.StatusBadRequest, "bad_request", "days must be an integer")
			return
		}
		days = n
	}
	start, err := usage.Window(a.now(), days)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	points, err := a.Logs.DailyCounts(r.Context(), userID, start)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, map[string]any{
		"user_id": userID,
		"days":    days,
		"items":   usage.Timeline(points, start, days),
	})
}
