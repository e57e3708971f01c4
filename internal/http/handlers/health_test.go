package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHealth(t *testing.T) {
	tests := []struct {
		name       string
		ping       func(ctx context.Context) error
		wantStatus int
		want       healthResponse
	}{
		{name: "no database", wantStatus: http.StatusOK, want: healthResponse{Status: "ok", Database: "skipped"}},
		{name: "database up", ping: func(context.Context) error { return nil }, wantStatus: http.StatusOK, want: healthResponse{Status: "ok", Database: "ok"}},
		{name: "database down", ping: func(context.Context) error { return errors.New("dial tcp: connection refused") }, wantStatus: http.StatusServiceUnavailable, want: healthResponse{Status: "unavailable", Database: "unreachable"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := &App{Ping: tt.ping}
			rr := httptest.NewRecorder()
			app.Health(rr, httptest.NewRequest(http.MethodGet, "/v1/healthz", nil))
			if rr.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rr.Code, tt.wantStatus)
			}
			var got healthResponse
			if err := json.NewDecoder(rr.Body).Decode(&got); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if got != tt.want {
				t.Fatalf("body = %+v, want %+v", got, tt.want)
			}
		})
	}
}
