package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/corectl/corectl/internal/app"
	"github.com/corectl/corectl/internal/config"
)

var (
	serveHTTPAddr      string
	serveManifestURI   string
	serveManifestPoll  time.Duration
	serveOverridePath  string
	serveOrchestration int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the candidate registry and lifecycle control plane",
	Long: `serve starts the in-memory candidate registry, the swap
orchestrator, and (when configured) the remote manifest poller and local
override-table watcher. It exposes an admin API, a websocket event stream,
and Prometheus metrics on --http-addr for every other corectl subcommand
to talk to.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	settings := config.LoadSettingsFromEnv()
	cfg := app.ConfigFromSettings(settings)
	cfg.Debug = debugFlag
	cfg.HTTPAddr = serveHTTPAddr
	cfg.ManifestURI = serveManifestURI
	cfg.ManifestPollInterval = serveManifestPoll
	cfg.OverrideTablePath = serveOverridePath
	cfg.OrchestratorWorkers = serveOrchestration

	application, err := app.NewApplication(cfg)
	if err != nil {
		return fmt.Errorf("initialize application: %w", err)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return application.Run(ctx)
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false, "enable debug logging")

	serveCmd.Flags().StringVar(&serveHTTPAddr, "http-addr", ":8080", "admin API / events / metrics listen address")
	serveCmd.Flags().StringVar(&serveManifestURI, "manifest-uri", "", "remote manifest URI to poll (file://, https://)")
	serveCmd.Flags().DurationVar(&serveManifestPoll, "manifest-poll-interval", 30*time.Second, "remote manifest poll interval")
	serveCmd.Flags().StringVar(&serveOverridePath, "override-table", "", "path to a local override table file to watch")
	serveCmd.Flags().IntVar(&serveOrchestration, "workers", 4, "number of concurrent swap orchestrator workers")
}
