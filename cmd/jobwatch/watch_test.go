package main

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/goleak"

	"wzrd/internal/providers/sandbox"
	"wzrd/internal/providers/video"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func offlineEnv(t *testing.T, intervalMS string) string {
	t.Helper()
	t.Setenv("VIDEO_API_KEY", "")
	t.Setenv("SANDBOX_API_KEY", "")
	t.Setenv("APP_ENV", "test")
	t.Setenv("POLL_INTERVAL_MS", intervalMS)
	return filepath.Join(t.TempDir(), "missing.env")
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	app := newApp()
	app.Writer = &out
	app.ErrWriter = &out
	err := app.Run(context.Background(), append([]string{"jobwatch"}, args...))
	return out.String(), err
}

func TestVideoJobsCompleteConcurrently(t *testing.T) {
	envFile := offlineEnv(t, "1")

	out, err := run(t, "video", "--env", envFile, "--script", "Hello there", "--count", "3")
	if err != nil {
		t.Fatalf("run error: %v\n%s", err, out)
	}
	if got := strings.Count(out, "completed "+video.FallbackVideoURL); got != 3 {
		t.Fatalf("completed lines = %d, want 3\n%s", got, out)
	}
	if got := strings.Count(out, "submitted"); got != 3 {
		t.Fatalf("submitted lines = %d, want 3\n%s", got, out)
	}
}

func TestExecJobCompletes(t *testing.T) {
	envFile := offlineEnv(t, "1")

	out, err := run(t, "exec", "--env", envFile, "--code", "echo hi", "--language", "bash")
	if err != nil {
		t.Fatalf("run error: %v\n%s", err, out)
	}
	if !strings.Contains(out, "job 1: completed "+sandbox.FallbackOutputURL) {
		t.Fatalf("output missing completion:\n%s", out)
	}
}

func TestTimeoutCancelsRunningJobs(t *testing.T) {
	envFile := offlineEnv(t, "3600000")

	out, err := run(t, "video", "--env", envFile, "--script", "Hello", "--count", "2", "--timeout", "20ms")
	if err == nil {
		t.Fatalf("expected timeout error\n%s", out)
	}
	if !strings.Contains(err.Error(), "2 of 2 jobs did not finish") {
		t.Fatalf("error = %v", err)
	}
	if got := strings.Count(out, "cancelled after timeout"); got != 2 {
		t.Fatalf("cancelled lines = %d, want 2\n%s", got, out)
	}
}

func TestInvalidInputIsReported(t *testing.T) {
	envFile := offlineEnv(t, "1")

	_, err := run(t, "exec", "--env", envFile, "--code", "print(1)", "--language", "cobol")
	if err == nil || !strings.Contains(err.Error(), `unsupported language "cobol"`) {
		t.Fatalf("error = %v", err)
	}
}
