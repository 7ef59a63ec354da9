package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/corectl/corectl/internal/cli"
)

var versionCheckTimeout = 3 * time.Second

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the corectl CLI version and the running daemon's status",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "corectl version %s\n", rootCmd.Version)
		if cli.IsEmojiDisabled() {
			fmt.Fprintln(cmd.OutOrStdout(), "icons: disabled (NO_EMOJI/CORECTL_NO_EMOJI set)")
		}

		ctx, cancel := context.WithTimeout(context.Background(), versionCheckTimeout)
		defer cancel()

		client := newAPIClient()
		if err := client.get(ctx, "/healthz", nil, nil); err != nil {
			fmt.Fprintf(cmd.OutOrStdout(), "daemon: not reachable at %s\n", endpoint)
			return
		}
		fmt.Fprintf(cmd.OutOrStdout(), "daemon: reachable at %s\n", endpoint)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
