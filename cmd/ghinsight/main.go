// Command ghinsight fetches and aggregates GitHub account insight from the
// command line, or serves the same views over HTTP.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/ghinsight/ghinsight/pkg/apierr"
	"github.com/ghinsight/ghinsight/pkg/cache"
	"github.com/ghinsight/ghinsight/pkg/gateway"
	"github.com/ghinsight/ghinsight/pkg/logging"
	"github.com/ghinsight/ghinsight/pkg/ratelimit"
	"github.com/ghinsight/ghinsight/pkg/transport"
	"github.com/ghinsight/ghinsight/pkg/usecase"
)

var (
	flagBaseURL  string
	flagTimeout  time.Duration
	flagLogLevel string
	flagPretty   bool
	flagNoCache  bool
	flagRefresh  bool
)

var rootCmd = &cobra.Command{
	Use:   "ghinsight",
	Short: "Fetch and aggregate GitHub account insight",
	Long: `ghinsight fetches a GitHub account and its repositories through a
retrying, cache-aware client and derives profile completeness, repository
analytics, and categorization from the result.

Set GITHUB_TOKEN (environment or .env file) to raise the API rate limit.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// A missing .env file is the normal case outside development.
		_ = godotenv.Load()

		logging.Setup(logging.Config{
			Level:  logging.LogLevel(flagLogLevel),
			Pretty: flagPretty,
		})
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitCode(err))
	}
}

// exitCode maps the error taxonomy onto distinct process exit codes so
// shell callers can branch without parsing messages.
func exitCode(err error) int {
	switch apierr.KindOf(err) {
	case apierr.KindValidation:
		return 2
	case apierr.KindNotFound:
		return 3
	case apierr.KindRateLimit:
		return 4
	default:
		return 1
	}
}

// app bundles the wired collaborators behind the subcommands.
type app struct {
	client  *transport.Client
	gateway *gateway.Gateway
	tokens  *usecase.Tracker
}

// newApp wires transport, cache, rate limit tracking, and the gateway. The
// GITHUB_TOKEN environment variable, when set, authenticates every request.
func newApp() (*app, error) {
	cfg := transport.DefaultConfig(flagBaseURL)
	if flagTimeout > 0 {
		cfg.Timeout = flagTimeout
	}

	tracker := ratelimit.NewTracker()
	client, err := transport.New(cfg, tracker)
	if err != nil {
		return nil, fmt.Errorf("create transport client: %w", err)
	}
	if token := os.Getenv("GITHUB_TOKEN"); token != "" {
		client.SetToken(token)
	}

	gw, err := gateway.New(client, cache.NewStore(), tracker)
	if err != nil {
		return nil, fmt.Errorf("create gateway: %w", err)
	}

	return &app{client: client, gateway: gw, tokens: usecase.NewTracker()}, nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagBaseURL, "base-url", "https://api.github.com", "API base URL")
	rootCmd.PersistentFlags().DurationVar(&flagTimeout, "timeout", 0, "per-request timeout (default 30s)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "info", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().BoolVar(&flagPretty, "pretty-logs", false, "human-readable log output")
	rootCmd.PersistentFlags().BoolVar(&flagNoCache, "no-cache", false, "bypass the response cache")
	rootCmd.PersistentFlags().BoolVar(&flagRefresh, "refresh", false, "ignore cached entries and refetch")
}
