// Package remotejob talks to asynchronous job services that expose
// POST /jobs and GET /jobs/{id}. Without an API key the client serves a
// canned fallback and never touches the network.
package remotejob

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"wzrd/internal/domain"
	"wzrd/internal/infra"
)

// Fallback holds the canned values served when no credential is configured.
type Fallback struct {
	JobID     string
	ResultURL string
}

// Options configures a Client.
type Options struct {
	Kind           domain.JobKind
	APIKey         string
	BaseURL        string
	Fallback       Fallback
	HTTPClient     *http.Client
	Logger         *infra.Logger
	RequestTimeout time.Duration
}

// Client submits jobs and fetches their status.
type Client struct {
	kind       domain.JobKind
	apiKey     string
	baseURL    string
	fallback   Fallback
	httpClient *http.Client
	logger     *infra.Logger
}

type submitResponse struct {
	ID string `json:"id"`
}

type statusResponse struct {
	Status    string `json:"status"`
	ResultURL string `json:"result_url,omitempty"`
	Error     string `json:"error,omitempty"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// NewClient constructs a client with defaults for any unset option.
func NewClient(opts Options) (*Client, error) {
	if opts.Kind == "" {
		return nil, errors.New("remotejob: kind is required")
	}
	apiKey := strings.TrimSpace(opts.APIKey)
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if apiKey != "" {
		if baseURL == "" {
			return nil, fmt.Errorf("remotejob: base url is required for %s", opts.Kind)
		}
		if _, err := url.Parse(baseURL); err != nil {
			return nil, fmt.Errorf("remotejob: invalid base url: %w", err)
		}
	} else if opts.Fallback.JobID == "" {
		return nil, fmt.Errorf("remotejob: fallback job id is required for %s", opts.Kind)
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.RequestTimeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	logger := opts.Logger
	if logger == nil {
		logger = infra.DiscardLogger()
	}
	return &Client{
		kind:       opts.Kind,
		apiKey:     apiKey,
		baseURL:    baseURL,
		fallback:   opts.Fallback,
		httpClient: httpClient,
		logger:     logger,
	}, nil
}

// Kind returns the service this client is bound to.
func (c *Client) Kind() domain.JobKind {
	return c.kind
}

// HasCredentials reports whether the client performs remote calls.
func (c *Client) HasCredentials() bool {
	return c.apiKey != ""
}

// Submit posts payload as a new job and returns the remote identifier.
// Errors wrap domain.ErrSubmission.
func (c *Client) Submit(ctx context.Context, payload any) (domain.JobHandle, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrSubmission, err)
	}
	if !c.HasCredentials() {
		c.logger.Debug().
			Str("kind", string(c.kind)).
			Str("job_id", c.fallback.JobID).
			Msg("remotejob: no credential configured, using fallback submission")
		return domain.JobHandle(c.fallback.JobID), nil
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("%w: encode request: %w", domain.ErrSubmission, err)
	}
	raw, err := c.do(ctx, http.MethodPost, c.baseURL+"/jobs", body)
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrSubmission, err)
	}
	var decoded submitResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return "", fmt.Errorf("%w: decode response: %w", domain.ErrSubmission, err)
	}
	id := strings.TrimSpace(decoded.ID)
	if id == "" {
		return "", fmt.Errorf("%w: response carried no job id", domain.ErrSubmission)
	}
	c.logger.Debug().Str("kind", string(c.kind)).Str("job_id", id).Msg("remotejob: job submitted")
	return domain.JobHandle(id), nil
}

// FetchStatus returns the current snapshot for handle. Errors wrap
// domain.ErrStatusFetch and are transient from the caller's point of view.
func (c *Client) FetchStatus(ctx context.Context, handle domain.JobHandle) (domain.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return domain.Snapshot{}, fmt.Errorf("%w: %w", domain.ErrStatusFetch, err)
	}
	if !c.HasCredentials() {
		return domain.Snapshot{Status: domain.JobStatusCompleted, Payload: c.fallback.ResultURL}, nil
	}
	if strings.TrimSpace(string(handle)) == "" {
		return domain.Snapshot{}, fmt.Errorf("%w: empty job handle", domain.ErrStatusFetch)
	}

	raw, err := c.do(ctx, http.MethodGet, c.baseURL+"/jobs/"+url.PathEscape(string(handle)), nil)
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("%w: %w", domain.ErrStatusFetch, err)
	}
	var decoded statusResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return domain.Snapshot{}, fmt.Errorf("%w: decode response: %w", domain.ErrStatusFetch, err)
	}
	status := domain.JobStatus(strings.ToLower(strings.TrimSpace(decoded.Status)))
	if !status.Valid() {
		return domain.Snapshot{}, fmt.Errorf("%w: unknown status %q", domain.ErrStatusFetch, decoded.Status)
	}
	snap := domain.Snapshot{Status: status}
	switch status {
	case domain.JobStatusCompleted:
		snap.Payload = strings.TrimSpace(decoded.ResultURL)
		if snap.Payload == "" {
			return domain.Snapshot{}, fmt.Errorf("%w: completed job carried no result_url", domain.ErrStatusFetch)
		}
	case domain.JobStatusFailed:
		snap.Reason = strings.TrimSpace(decoded.Error)
	}
	return snap, nil
}

func (c *Client) do(ctx context.Context, method, endpoint string, body []byte) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		var detail errorResponse
		if err := json.Unmarshal(raw, &detail); err == nil {
			if msg := firstNonEmpty(detail.Message, detail.Error); msg != "" {
				return nil, fmt.Errorf("status %d: %s", resp.StatusCode, msg)
			}
		}
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	return raw, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
