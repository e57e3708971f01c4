package infra

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv             string
	Port               string
	DatabaseURL        string
	DBMaxConns         int
	DefaultLocale      string
	StoragePath        string
	CORSAllowedOrigins []string
	HTTPReadTimeout    time.Duration
	HTTPWriteTimeout   time.Duration
	HTTPIdleTimeout    time.Duration
	ShutdownTimeout    time.Duration
	RateLimitPerMin    int
	Jobs               JobConfig
}

// JobConfig carries the remote job services and polling policy.
type JobConfig struct {
	VideoAPIKey     string
	VideoBaseURL    string
	SandboxAPIKey   string
	SandboxBaseURL  string
	PollInterval    time.Duration
	MaxFailures     int
	ProgressStep    int
	ProgressCap     int
	RequestTimeout  time.Duration
	StatusRetention time.Duration
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	jobs, err := LoadJobConfig()
	if err != nil {
		return nil, err
	}
	cfg := &Config{
		AppEnv:             getEnv("APP_ENV", "development"),
		Port:               getEnv("PORT", "8080"),
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		DBMaxConns:         getEnvInt("DB_MAX_CONNS", 10),
		DefaultLocale:      getEnv("DEFAULT_LOCALE", "en"),
		StoragePath:        getEnv("STORAGE_PATH", "./storage"),
		CORSAllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:5173"}),
		HTTPReadTimeout:    time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout:   time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 30)),
		HTTPIdleTimeout:    time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		ShutdownTimeout:    time.Second * time.Duration(getEnvInt("SHUTDOWN_TIMEOUT_SECONDS", 20)),
		RateLimitPerMin:    getEnvInt("RATE_LIMIT_PER_MINUTE", 60),
		Jobs:               *jobs,
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.DBMaxConns <= 0 {
		return nil, fmt.Errorf("DB_MAX_CONNS must be positive")
	}

	return cfg, nil
}

// LoadJobConfig reads only the job-related settings. It never requires a
// database so offline tools can use it.
func LoadJobConfig() (*JobConfig, error) {
	cfg := &JobConfig{
		VideoAPIKey:     strings.TrimSpace(os.Getenv("VIDEO_API_KEY")),
		VideoBaseURL:    getEnv("VIDEO_BASE_URL", "https://tavusapi.com/v2"),
		SandboxAPIKey:   strings.TrimSpace(os.Getenv("SANDBOX_API_KEY")),
		SandboxBaseURL:  getEnv("SANDBOX_BASE_URL", "https://api.e2b.dev/v1"),
		PollInterval:    time.Millisecond * time.Duration(getEnvInt("POLL_INTERVAL_MS", 2000)),
		MaxFailures:     getEnvInt("POLL_MAX_FAILURES", 5),
		ProgressStep:    getEnvInt("POLL_PROGRESS_STEP", 10),
		ProgressCap:     getEnvInt("POLL_PROGRESS_CAP", 90),
		RequestTimeout:  time.Second * time.Duration(getEnvInt("JOB_REQUEST_TIMEOUT_SECONDS", 30)),
		StatusRetention: time.Minute * time.Duration(getEnvInt("JOB_STATUS_RETENTION_MINUTES", 10)),
	}

	if cfg.PollInterval <= 0 {
		return nil, fmt.Errorf("POLL_INTERVAL_MS must be positive")
	}
	if cfg.MaxFailures <= 0 {
		return nil, fmt.Errorf("POLL_MAX_FAILURES must be positive")
	}
	if cfg.ProgressCap < 0 || cfg.ProgressCap > 100 {
		return nil, fmt.Errorf("POLL_PROGRESS_CAP must be within 0..100")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvList(key string, fallback []string) []string {
	v, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(v) == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
