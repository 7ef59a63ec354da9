package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/corectl/corectl/internal/cli"
	"github.com/corectl/corectl/internal/registry"
)

var (
	registerProvider     string
	registerPriority     string
	registerStackLevel   string
	registerFactory      string
	registerSource       string
	registerCapabilities []string
)

var registerCmd = &cobra.Command{
	Use:   "register <domain> <key>",
	Short: "Register a candidate implementation for a (domain, key)",
	Args:  cobra.ExactArgs(2),
	RunE:  runRegister,
}

func runRegister(cmd *cobra.Command, args []string) error {
	req := registerRequest{
		Domain:       args[0],
		Key:          args[1],
		Provider:     registerProvider,
		Factory:      registerFactory,
		Source:       registerSource,
		Capabilities: registerCapabilities,
	}
	if registerPriority != "" {
		p, err := strconv.Atoi(registerPriority)
		if err != nil {
			return fmt.Errorf("--priority must be an integer: %w", err)
		}
		req.Priority = &p
	}
	if registerStackLevel != "" {
		s, err := strconv.Atoi(registerStackLevel)
		if err != nil {
			return fmt.Errorf("--stack-level must be an integer: %w", err)
		}
		req.StackLevel = &s
	}

	var candidate registry.Candidate
	if err := newAPIClient().post(cmd.Context(), "/api/register", req, &candidate); err != nil {
		return err
	}
	cli.Success("registered %s/%s provider=%s", req.Domain, req.Key, req.Provider)
	return nil
}

func init() {
	rootCmd.AddCommand(registerCmd)
	registerCmd.Flags().StringVar(&registerProvider, "provider", "", "provider name (required)")
	registerCmd.Flags().StringVar(&registerPriority, "priority", "", "registration priority, higher wins")
	registerCmd.Flags().StringVar(&registerStackLevel, "stack-level", "", "tie-breaking stack level")
	registerCmd.Flags().StringVar(&registerFactory, "factory", "", "module:symbol factory reference")
	registerCmd.Flags().StringVar(&registerSource, "source", "MANUAL", "candidate source label")
	registerCmd.Flags().StringSliceVar(&registerCapabilities, "capability", nil, "capability tag (repeatable)")
	_ = registerCmd.MarkFlagRequired("provider")
}
