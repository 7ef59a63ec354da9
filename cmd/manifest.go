package cmd

import (
	"time"

	"github.com/briandowns/spinner"
	"github.com/spf13/cobra"

	"github.com/corectl/corectl/internal/cli"
	"github.com/corectl/corectl/internal/manifest"
)

var manifestCmd = &cobra.Command{
	Use:   "manifest",
	Short: "Fetch and inspect remote candidate manifests",
}

var manifestFetchCmd = &cobra.Command{
	Use:   "fetch <uri>",
	Short: "Fetch, verify, and register the candidates in a manifest",
	Args:  cobra.ExactArgs(1),
	RunE:  runManifestFetch,
}

var manifestStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the daemon's manifest loader state (cache, circuit breaker)",
	Args:  cobra.NoArgs,
	RunE:  runManifestStatus,
}

func runManifestFetch(cmd *cobra.Command, args []string) error {
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	s.Suffix = " Fetching manifest..."
	s.Start()

	var resp manifestFetchResponse
	err := newAPIClient().post(cmd.Context(), "/api/manifest/fetch", manifestFetchRequest{URI: args[0]}, &resp)
	s.Stop()
	if err != nil {
		return err
	}
	cli.Success("registered %d candidates from %s", resp.Registered, args[0])
	return nil
}

func runManifestStatus(cmd *cobra.Command, args []string) error {
	var status manifest.Status
	if err := newAPIClient().get(cmd.Context(), "/api/manifest/status", nil, &status); err != nil {
		return err
	}
	if !status.HasCachedManifest {
		cli.Warn("no manifest has been fetched yet (breaker: %s)", status.BreakerState)
		return nil
	}
	cli.Success(
		"last fetched %s (from_cache=%v) breaker=%s",
		status.LastFetchedAt.Format(time.RFC3339), status.FromCache, status.BreakerState,
	)
	return nil
}

func init() {
	manifestCmd.AddCommand(manifestFetchCmd, manifestStatusCmd)
	rootCmd.AddCommand(manifestCmd)
}
