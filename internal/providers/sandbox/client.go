// Package sandbox runs workflow action code in a remote execution sandbox.
package sandbox

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"wzrd/internal/domain"
	"wzrd/internal/infra"
	"wzrd/internal/providers/remotejob"
)

const (
	FallbackJobID     = "mock_execution_123"
	FallbackOutputURL = "https://storage.googleapis.com/wzrd-dev-public/sample_executions/hello_world.log"
	FailureMessage    = "Failed to execute workflow action"

	defaultTimeoutSeconds = 60
)

var supportedLanguages = map[string]struct{}{
	"python":     {},
	"javascript": {},
	"typescript": {},
	"bash":       {},
}

type Options struct {
	APIKey         string
	BaseURL        string
	HTTPClient     *http.Client
	Logger         *infra.Logger
	RequestTimeout time.Duration
}

// Request is the code to execute.
type Request struct {
	Code           string `json:"code"`
	Language       string `json:"language"`
	TimeoutSeconds int    `json:"timeout_seconds,omitempty"`
}

type Client struct {
	jobs *remotejob.Client
}

func NewClient(opts Options) (*Client, error) {
	jobs, err := remotejob.NewClient(remotejob.Options{
		Kind:           domain.JobKindExecution,
		APIKey:         opts.APIKey,
		BaseURL:        opts.BaseURL,
		Fallback:       remotejob.Fallback{JobID: FallbackJobID, ResultURL: FallbackOutputURL},
		HTTPClient:     opts.HTTPClient,
		Logger:         opts.Logger,
		RequestTimeout: opts.RequestTimeout,
	})
	if err != nil {
		return nil, err
	}
	return &Client{jobs: jobs}, nil
}

func (c *Client) Kind() domain.JobKind { return domain.JobKindExecution }

func (c *Client) FailureMessage() string { return FailureMessage }

func (c *Client) HasCredentials() bool { return c.jobs.HasCredentials() }

// Normalize applies the language and timeout defaults and rejects empty code.
func (r Request) Normalize() (Request, error) {
	lang, err := NormalizeLanguage(r.Language)
	if err != nil {
		return r, err
	}
	r.Language = lang
	if strings.TrimSpace(r.Code) == "" {
		return r, fmt.Errorf("%w: code is required", domain.ErrInvalidInput)
	}
	if r.TimeoutSeconds <= 0 {
		r.TimeoutSeconds = defaultTimeoutSeconds
	}
	return r, nil
}

func (c *Client) Submit(ctx context.Context, req Request) (domain.JobHandle, error) {
	req, err := req.Normalize()
	if err != nil {
		return "", err
	}
	return c.jobs.Submit(ctx, req)
}

// NormalizeLanguage lowercases lang, defaults it to python and rejects
// languages the sandbox cannot run.
func NormalizeLanguage(lang string) (string, error) {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if lang == "" {
		return "python", nil
	}
	if _, ok := supportedLanguages[lang]; !ok {
		return "", fmt.Errorf("%w: unsupported language %q", domain.ErrInvalidInput, lang)
	}
	return lang, nil
}

func (c *Client) FetchStatus(ctx context.Context, handle domain.JobHandle) (domain.Snapshot, error) {
	return c.jobs.FetchStatus(ctx, handle)
}
