package cmd

import (
	"time"

	"github.com/briandowns/spinner"
	"github.com/spf13/cobra"

	"github.com/corectl/corectl/internal/cli"
)

var (
	swapProvider string
	swapForce    bool
)

var swapCmd = &cobra.Command{
	Use:   "swap <domain> <key>",
	Short: "Re-resolve and hot-swap the live instance for a (domain, key)",
	Args:  cobra.ExactArgs(2),
	RunE:  runSwap,
}

func runSwap(cmd *cobra.Command, args []string) error {
	req := swapRequest{Domain: args[0], Key: args[1], Force: swapForce}
	if swapProvider != "" {
		req.Provider = &swapProvider
	}

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	s.Suffix = " Swapping..."
	s.Start()

	var resp swapResponse
	err := newAPIClient().post(cmd.Context(), "/api/swap", req, &resp)
	s.Stop()
	if err != nil {
		return err
	}
	cli.Success("swapped %s/%s -> provider=%s state=%s", resp.Domain, resp.Key, resp.Provider, resp.State)
	return nil
}

func init() {
	rootCmd.AddCommand(swapCmd)
	swapCmd.Flags().StringVar(&swapProvider, "provider", "", "pin the swap to this provider")
	swapCmd.Flags().BoolVar(&swapForce, "force", false, "proceed even if the new instance fails its health probe")
}
