package cmd

import (
	"net/url"

	"github.com/spf13/cobra"

	"github.com/corectl/corectl/internal/cli"
	"github.com/corectl/corectl/internal/lifecycle"
)

var activityDomain string

var activityCmd = &cobra.Command{
	Use:   "activity",
	Short: "Show live instance state (pause/drain, health) across the daemon",
	Args:  cobra.NoArgs,
	RunE:  runActivity,
}

func runActivity(cmd *cobra.Command, args []string) error {
	q := url.Values{}
	if activityDomain != "" {
		q.Set("domain", activityDomain)
	}
	var entries []activityEntry
	if err := newAPIClient().get(cmd.Context(), "/api/activity", q, &entries); err != nil {
		return err
	}
	rows := make([]cli.ActivityRow, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, cli.ActivityRow{
			Domain:       e.Domain,
			Key:          e.Key,
			Provider:     e.Provider,
			State:        lifecycle.State(e.State),
			Healthy:      e.Healthy,
			LastHealthAt: e.LastHealthAt,
		})
	}
	cli.RenderActivity(cmd.OutOrStdout(), rows)
	return nil
}

func init() {
	rootCmd.AddCommand(activityCmd)
	activityCmd.Flags().StringVar(&activityDomain, "domain", "", "filter to one domain")
}
