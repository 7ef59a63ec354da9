package cmd

import (
	"fmt"
	"net/url"

	"github.com/spf13/cobra"

	"github.com/corectl/corectl/internal/cli"
	"github.com/corectl/corectl/internal/registry"
)

var listCmd = &cobra.Command{
	Use:   "list active|shadowed <domain>",
	Short: "List active or shadowed candidates for a domain",
	Args:  cobra.ExactArgs(2),
	RunE:  runList,
}

func runList(cmd *cobra.Command, args []string) error {
	state, domain := args[0], args[1]
	if state != "active" && state != "shadowed" {
		return fmt.Errorf("state must be \"active\" or \"shadowed\", got %q", state)
	}

	q := url.Values{"domain": {domain}, "state": {state}}
	var candidates []registry.Candidate
	if err := newAPIClient().get(cmd.Context(), "/api/list", q, &candidates); err != nil {
		return err
	}
	cli.RenderCandidates(cmd.OutOrStdout(), domain, candidates)
	return nil
}

func init() {
	rootCmd.AddCommand(listCmd)
}
