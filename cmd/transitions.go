package cmd

import (
	"github.com/spf13/cobra"

	"github.com/corectl/corectl/internal/cli"
)

func newTransitionCmd(use, short, path string, withNote bool) *cobra.Command {
	var note string
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := transitionRequest{Domain: args[0], Key: args[1], Note: note}
			if err := newAPIClient().post(cmd.Context(), path, req, nil); err != nil {
				return err
			}
			cli.Success("%s %s/%s", path[len("/api/"):], args[0], args[1])
			return nil
		},
	}
	if withNote {
		cmd.Flags().StringVar(&note, "note", "", "operator note recorded with the transition")
	}
	return cmd
}

func init() {
	rootCmd.AddCommand(newTransitionCmd("pause <domain> <key>", "Pause the live instance for a (domain, key)", "/api/pause", true))
	rootCmd.AddCommand(newTransitionCmd("resume <domain> <key>", "Resume a paused instance", "/api/resume", false))
	rootCmd.AddCommand(newTransitionCmd("drain <domain> <key>", "Drain the live instance, rejecting new work while finishing in-flight calls", "/api/drain", true))
	rootCmd.AddCommand(newTransitionCmd("undrain <domain> <key>", "Return a drained instance to service", "/api/undrain", false))
}
