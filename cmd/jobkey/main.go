package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"wzrd/internal/infra"
	"wzrd/internal/infra/credentials"
)

var envKeys = map[string]string{
	credentials.ProviderVideo:   "VIDEO_API_KEY",
	credentials.ProviderSandbox: "SANDBOX_API_KEY",
}

func main() {
	_ = godotenv.Load()

	var (
		keyFlag      string
		providerFlag string
	)
	flag.StringVar(&keyFlag, "key", "", "API key for the selected service (falls back to environment)")
	flag.StringVar(&providerFlag, "provider", credentials.ProviderVideo, "service to configure (video or sandbox)")
	flag.Parse()

	provider, key, err := resolveKey(providerFlag, keyFlag, os.Getenv)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	dbURL := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if dbURL == "" {
		fmt.Fprintln(os.Stderr, "DATABASE_URL is required")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create pool: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	logger := infra.NewLogger("cli").With().Str("cmd", "jobkey").Str("provider", provider).Logger()
	store := credentials.NewStore(infra.NewSQLRunner(pool, logger))

	var persistErr error
	switch provider {
	case credentials.ProviderSandbox:
		persistErr = store.SetSandboxAPIKey(ctx, key)
	default:
		persistErr = store.SetVideoAPIKey(ctx, key)
	}
	if persistErr != nil {
		fmt.Fprintf(os.Stderr, "failed to persist %s api key: %v\n", provider, persistErr)
		os.Exit(1)
	}

	fmt.Printf("%s API key stored successfully\n", strings.ToUpper(provider))
}

// resolveKey validates the provider and picks the key from the flag or the
// provider's environment variable.
func resolveKey(providerFlag, keyFlag string, getenv func(string) string) (string, string, error) {
	provider := strings.TrimSpace(strings.ToLower(providerFlag))
	if provider == "" {
		provider = credentials.ProviderVideo
	}
	envKey, ok := envKeys[provider]
	if !ok {
		return "", "", fmt.Errorf("unsupported provider %q", providerFlag)
	}
	key := strings.TrimSpace(keyFlag)
	if key == "" {
		key = strings.TrimSpace(getenv(envKey))
	}
	if key == "" {
		return "", "", fmt.Errorf("%s API key is required via -key or %s", strings.ToUpper(provider), envKey)
	}
	return provider, key, nil
}
