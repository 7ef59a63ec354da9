package cmd

import (
	"net/url"

	"github.com/spf13/cobra"

	"github.com/corectl/corectl/internal/cli"
	"github.com/corectl/corectl/internal/registry"
)

var explainCmd = &cobra.Command{
	Use:   "explain <domain> <key>",
	Short: "Show the full decision trace for a (domain, key) resolution",
	Args:  cobra.ExactArgs(2),
	RunE:  runExplain,
}

func runExplain(cmd *cobra.Command, args []string) error {
	q := url.Values{"domain": {args[0]}, "key": {args[1]}}

	var trace registry.ExplainTrace
	if err := newAPIClient().get(cmd.Context(), "/api/explain", q, &trace); err != nil {
		return err
	}
	cli.RenderExplainTrace(cmd.OutOrStdout(), trace)
	return nil
}

func init() {
	rootCmd.AddCommand(explainCmd)
}
