// Package video submits avatar video generation jobs.
package video

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
	// FallbackJobID is returned when no API key is configured.
	FallbackJobID = "mock_video_123"
	// FallbackVideoURL is the placeholder result served in fallback mode.
	FallbackVideoURL = "https://storage.googleapis.com/tavus-dev-public/sample_videos/welcome_to_tavus.mp4"
	// FailureMessage is shown when generation fails without a remote reason.
	FailureMessage = "Failed to generate video"

	maxScriptLength = 5000
)

// Options configures the video client.
type Options struct {
	APIKey         string
	BaseURL        string
	HTTPClient     *http.Client
	Logger         *infra.Logger
	RequestTimeout time.Duration
}

// Request describes a video to render.
type Request struct {
	Script    string `json:"script"`
	ReplicaID string `json:"replica_id,omitempty"`
	VideoName string `json:"video_name,omitempty"`
}

// Client submits video jobs and reports their status.
type Client struct {
	jobs *remotejob.Client
}

func NewClient(opts Options) (*Client, error) {
	jobs, err := remotejob.NewClient(remotejob.Options{
		Kind:           domain.JobKindVideo,
		APIKey:         opts.APIKey,
		BaseURL:        opts.BaseURL,
		Fallback:       remotejob.Fallback{JobID: FallbackJobID, ResultURL: FallbackVideoURL},
		HTTPClient:     opts.HTTPClient,
		Logger:         opts.Logger,
		RequestTimeout: opts.RequestTimeout,
	})
	if err != nil {
		return nil, err
	}
	return &Client{jobs: jobs}, nil
}

func (c *Client) Kind() domain.JobKind { return domain.JobKindVideo }

func (c *Client) FailureMessage() string { return FailureMessage }

func (c *Client) HasCredentials() bool { return c.jobs.HasCredentials() }

// Normalize trims the request and checks the script.
func (r Request) Normalize() (Request, error) {
	r.Script = strings.TrimSpace(r.Script)
	r.ReplicaID = strings.TrimSpace(r.ReplicaID)
	if r.Script == "" {
		return r, fmt.Errorf("%w: script is required", domain.ErrInvalidInput)
	}
	if len(r.Script) > maxScriptLength {
		return r, fmt.Errorf("%w: script exceeds %d characters", domain.ErrInvalidInput, maxScriptLength)
	}
	return r, nil
}

// Submit validates req and starts a generation job.
func (c *Client) Submit(ctx context.Context, req Request) (domain.JobHandle, error) {
	req, err := req.Normalize()
	if err != nil {
		return "", err
	}
	return c.jobs.Submit(ctx, req)
}

func (c *Client) FetchStatus(ctx context.Context, handle domain.JobHandle) (domain.Snapshot, error) {
	return c.jobs.FetchStatus(ctx, handle)
}
