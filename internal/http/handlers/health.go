package handlers

import (
	"context"
	"net/http"
	"time"
)

const healthPingTimeout = 2 * time.Second

type healthResponse struct {
	Status     string `json:"status"`
	Database   string `json:"database"`
	ActiveJobs int    `json:"active_jobs"`
}

// Health reports 503 when the database does not answer a ping.
func (a *App) Health(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "ok", Database: "skipped"}
	if a.Generations != nil {
		resp.ActiveJobs = a.Generations.ActiveJobs()
	}
	if a.Ping != nil {
		ctx, cancel := context.WithTimeout(r.Context(), healthPingTimeout)
		defer cancel()
		if err := a.Ping(ctx); err != nil {
			a.logger().Warn().Err(err).Msg("health: database ping failed")
			resp.Status = "unavailable"
			resp.Database = "unreachable"
			a.json(w, http.StatusServiceUnavailable, resp)
			return
		}
		resp.Database = "ok"
	}
	a.json(w, http.StatusOK, resp)
}
