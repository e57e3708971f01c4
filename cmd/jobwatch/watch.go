package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"

	"wzrd/internal/domain"
	"wzrd/internal/generation"
	"wzrd/internal/infra"
	"wzrd/internal/jobs"
	"wzrd/internal/providers/sandbox"
	"wzrd/internal/providers/video"
)

type startFunc func(ctx context.Context, onChange func(domain.GenerationStatus)) (jobs.Job, error)

func videoAction(ctx context.Context, cmd *cli.Command) error {
	env, err := setup(cmd)
	if err != nil {
		return err
	}
	defer env.close()
	return watch(ctx, cmd, env, func(ctx context.Context, onChange func(domain.GenerationStatus)) (jobs.Job, error) {
		return env.service.StartVideo(ctx, generation.VideoInput{
			Script:    cmd.String("script"),
			ReplicaID: cmd.String("replica-id"),
			OnChange:  onChange,
		})
	})
}

func execAction(ctx context.Context, cmd *cli.Command) error {
	env, err := setup(cmd)
	if err != nil {
		return err
	}
	defer env.close()
	return watch(ctx, cmd, env, func(ctx context.Context, onChange func(domain.GenerationStatus)) (jobs.Job, error) {
		return env.service.StartExecution(ctx, generation.ExecutionInput{
			Code:     cmd.String("code"),
			Language: cmd.String("language"),
			OnChange: onChange,
		})
	})
}

type environment struct {
	manager *jobs.Manager
	service *generation.Service
	logger  infra.Logger
}

func (e *environment) close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := e.manager.Shutdown(ctx); err != nil {
		e.logger.Warn().Err(err).Msg("jobwatch: shutdown incomplete")
	}
}

// setup builds offline-capable clients from the environment. No database is
// involved, so outcomes are reported but not stored.
func setup(cmd *cli.Command) (*environment, error) {
	if err := godotenv.Load(cmd.String("env")); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load env file: %w", err)
	}
	cfg, err := infra.LoadJobConfig()
	if err != nil {
		return nil, err
	}
	logger := infra.NewLoggerTo(os.Stderr, os.Getenv("APP_ENV")).With().Str("cmd", "jobwatch").Logger()

	videoClient, err := video.NewClient(video.Options{
		APIKey:         cfg.VideoAPIKey,
		BaseURL:        cfg.VideoBaseURL,
		Logger:         &logger,
		RequestTimeout: cfg.RequestTimeout,
	})
	if err != nil {
		return nil, err
	}
	sandboxClient, err := sandbox.NewClient(sandbox.Options{
		APIKey:         cfg.SandboxAPIKey,
		BaseURL:        cfg.SandboxBaseURL,
		Logger:         &logger,
		RequestTimeout: cfg.RequestTimeout,
	})
	if err != nil {
		return nil, err
	}
	manager := jobs.NewManager(jobs.ManagerOptions{
		Poll: jobs.PollerOptions{
			Interval:     cfg.PollInterval,
			MaxFailures:  cfg.MaxFailures,
			ProgressStep: cfg.ProgressStep,
			ProgressCap:  cfg.ProgressCap,
		},
		Retention: cfg.StatusRetention,
		Logger:    &logger,
	})
	service, err := generation.NewService(generation.Dependencies{
		Manager: manager,
		Video:   videoClient,
		Sandbox: sandboxClient,
		Logger:  &logger,
	})
	if err != nil {
		_ = manager.Shutdown(context.Background())
		return nil, err
	}
	return &environment{manager: manager, service: service, logger: logger}, nil
}

// watch starts --count jobs, prints every status change and cancels the
// ones still running when --timeout elapses.
func watch(ctx context.Context, cmd *cli.Command, env *environment, start startFunc) error {
	count := cmd.Int("count")
	if count < 1 {
		return fmt.Errorf("--count must be at least 1")
	}
	out := &lineWriter{w: cmd.Root().Writer}
	if out.w == nil {
		out.w = os.Stdout
	}

	deadline, cancel := context.WithTimeout(ctx, cmd.Duration("timeout"))
	defer cancel()

	var (
		mu         sync.Mutex
		unfinished int
	)
	g, gctx := errgroup.WithContext(deadline)
	for i := 1; i <= count; i++ {
		g.Go(func() error {
			job, err := start(gctx, func(s domain.GenerationStatus) {
				if s.IsGenerating {
					out.printf("job %d: progress %d%%\n", i, s.Progress)
				}
			})
			if err != nil {
				return fmt.Errorf("job %d: %s", i, generation.UserMessage(err))
			}
			out.printf("job %d: submitted %s (remote %s)\n", i, job.ID, job.Handle)

			job, err = env.manager.Wait(gctx, job.ID)
			if err != nil {
				job, _ = env.manager.Cancel(job.ID)
				mu.Lock()
				unfinished++
				mu.Unlock()
				out.printf("job %d: cancelled after timeout at %d%%\n", i, job.Status.Progress)
				return nil
			}
			out.printf("job %d: %s\n", i, describe(job.Status))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	if unfinished > 0 {
		return fmt.Errorf("%d of %d jobs did not finish before the timeout", unfinished, count)
	}
	return nil
}

func describe(s domain.GenerationStatus) string {
	switch {
	case s.Result != nil:
		return "completed " + *s.Result
	case s.Error != nil:
		return "failed: " + *s.Error
	default:
		return "stopped without a result"
	}
}

type lineWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lineWriter) printf(format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.w, format, args...)
}
