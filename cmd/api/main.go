package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"wzrd/internal/adapter/repo"
	"wzrd/internal/generation"
	"wzrd/internal/http/handlers"
	httpapi "wzrd/internal/http/httpapi"
	"wzrd/internal/infra"
	"wzrd/internal/infra/credentials"
	"wzrd/internal/jobs"
	"wzrd/internal/providers/sandbox"
	"wzrd/internal/providers/video"
	"wzrd/internal/storage"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx := context.Background()
	dbpool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect database")
	}
	defer dbpool.Close()
	sqlRunner := infra.NewSQLRunner(dbpool, logger)

	// Environment keys win; otherwise use keys stored with cmd/jobkey.
	creds := credentials.NewStore(sqlRunner)
	videoKey, err := creds.Resolve(ctx, credentials.ProviderVideo, cfg.Jobs.VideoAPIKey)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load video api key")
	}
	sandboxKey, err := creds.Resolve(ctx, credentials.ProviderSandbox, cfg.Jobs.SandboxAPIKey)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load sandbox api key")
	}

	videoClient, err := video.NewClient(video.Options{
		APIKey:         videoKey,
		BaseURL:        cfg.Jobs.VideoBaseURL,
		Logger:         &logger,
		RequestTimeout: cfg.Jobs.RequestTimeout,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build video client")
	}
	sandboxClient, err := sandbox.NewClient(sandbox.Options{
		APIKey:         sandboxKey,
		BaseURL:        cfg.Jobs.SandboxBaseURL,
		Logger:         &logger,
		RequestTimeout: cfg.Jobs.RequestTimeout,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build sandbox client")
	}
	if !videoClient.HasCredentials() {
		logger.Warn().Msg("no video api key configured, video jobs return sample results")
	}
	if !sandboxClient.HasCredentials() {
		logger.Warn().Msg("no sandbox api key configured, executions return sample results")
	}

	manager := jobs.NewManager(jobs.ManagerOptions{
		Poll: jobs.PollerOptions{
			Interval:     cfg.Jobs.PollInterval,
			MaxFailures:  cfg.Jobs.MaxFailures,
			ProgressStep: cfg.Jobs.ProgressStep,
			ProgressCap:  cfg.Jobs.ProgressCap,
		},
		Retention: cfg.Jobs.StatusRetention,
		Logger:    &logger,
	})

	actions := repo.NewWorkflowActionRepository(sqlRunner)
	logs := repo.NewExecutionLogRepository(sqlRunner)
	generations, err := generation.NewService(generation.Dependencies{
		Manager:  manager,
		Video:    videoClient,
		Sandbox:  sandboxClient,
		Messages: repo.NewMessageRepository(sqlRunner),
		Actions:  actions,
		Logs:     logs,
		Logger:   &logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build generation service")
	}

	store, err := storage.NewFileStore(cfg.StoragePath)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to prepare storage")
	}

	app := &handlers.App{
		Generations: generations,
		Actions:     actions,
		Logs:        logs,
		Prefs:       repo.NewPreferencesRepository(sqlRunner),
		Recordings:  repo.NewScreenRecordingRepository(sqlRunner),
		Store:       store,
		Logger:      &logger,
		Ping:        dbpool.Ping,
	}
	router := httpapi.NewRouter(app, httpapi.Options{
		Logger:             logger,
		AllowedOrigins:     cfg.CORSAllowedOrigins,
		RateLimitPerMinute: cfg.RateLimitPerMin,
		DefaultLocale:      cfg.DefaultLocale,
	})

	server := infra.NewHTTPServer(cfg, router, logger)

	go func() {
		if err := server.Start(); err != nil {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	if err := manager.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to stop pollers")
	}
	logger.Info().Msg("server stopped")
}
