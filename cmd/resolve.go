package cmd

import (
	"net/url"
	"strings"

	"github.com/spf13/cobra"

	"github.com/corectl/corectl/internal/cli"
	"github.com/corectl/corectl/internal/registry"
)

var (
	resolveRequire []string
	resolveOptional []string
)

var resolveCmd = &cobra.Command{
	Use:   "resolve <domain> <key>",
	Short: "Resolve the active candidate for a (domain, key)",
	Args:  cobra.ExactArgs(2),
	RunE:  runResolve,
}

func runResolve(cmd *cobra.Command, args []string) error {
	q := url.Values{}
	q.Set("domain", args[0])
	q.Set("key", args[1])
	if len(resolveRequire) > 0 {
		q.Set("require", strings.Join(resolveRequire, ","))
	}
	if len(resolveOptional) > 0 {
		q.Set("optional", strings.Join(resolveOptional, ","))
	}

	var candidate registry.Candidate
	if err := newAPIClient().get(cmd.Context(), "/api/resolve", q, &candidate); err != nil {
		return err
	}
	cli.Success("%s/%s -> provider=%s source=%s", args[0], args[1], candidate.Provider, candidate.Source)
	return nil
}

func init() {
	rootCmd.AddCommand(resolveCmd)
	resolveCmd.Flags().StringSliceVar(&resolveRequire, "require", nil, "required capability (repeatable)")
	resolveCmd.Flags().StringSliceVar(&resolveOptional, "optional", nil, "optional capability considered in scoring (repeatable)")
}
