package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestLoggerRecordsRequest(t *testing.T) {
	var buf bytes.Buffer
	l := zerolog.New(&buf)
	h := RequestID(Logger(l)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		zerolog.Ctx(r.Context()).Info().Msg("looking up video")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte("missing"))
	})))

	req := httptest.NewRequest(http.MethodGet, "/v1/videos/abc", nil)
	req.Header.Set("X-Request-ID", "req-1")
	h.ServeHTTP(httptest.NewRecorder(), req)

	var lines []map[string]any
	for _, raw := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		var line map[string]any
		if err := json.Unmarshal([]byte(raw), &line); err != nil {
			t.Fatalf("decode log line: %v (%s)", err, raw)
		}
		lines = append(lines, line)
	}
	if len(lines) != 2 {
		t.Fatalf("log lines = %d, want 2 (%s)", len(lines), buf.String())
	}
	if lines[0]["message"] != "looking up video" || lines[0]["request_id"] != "req-1" {
		t.Fatalf("handler line = %v", lines[0])
	}
	access := lines[1]
	if access["level"] != "warn" {
		t.Fatalf("level = %v, want warn", access["level"])
	}
	if access["request_id"] != "req-1" {
		t.Fatalf("request_id = %v, want req-1", access["request_id"])
	}
	if access["status"] != float64(http.StatusNotFound) || access["bytes"] != float64(len("missing")) {
		t.Fatalf("status/bytes = %v/%v", access["status"], access["bytes"])
	}
}
