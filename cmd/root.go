package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/corectl/corectl/internal/cli"
)

// Exit codes for CLI commands.
const (
	// ExitCodeSuccess indicates successful execution.
	ExitCodeSuccess = 0
	// ExitCodeError indicates a general error (command failed, invalid arguments, daemon unreachable).
	ExitCodeError = 1
	// ExitCodeConflict indicates the daemon rejected the operation (swap-in-progress, health failure, resolution miss).
	ExitCodeConflict = 2
)

// endpoint is the admin API base URL of a running "corectl serve" daemon,
// shared by every subcommand except serve itself.
var endpoint string

// debugFlag enables debug-level logging for "corectl serve".
var debugFlag bool

// rootCmd is the entry point when corectl is invoked without a subcommand.
var rootCmd = &cobra.Command{
	Use:   "corectl",
	Short: "Operate a live candidate registry and lifecycle control plane",
	Long: `corectl resolves, swaps, and supervises pluggable implementations
("candidates") registered against a small set of domains (adapter, service,
task, event, workflow). "corectl serve" runs the control plane; every other
subcommand is a thin client against its admin API.`,
	SilenceUsage: true,
}

// SetVersion sets the version for the root command, injected at build time
// from main.
func SetVersion(v string) {
	rootCmd.Version = v
}

// GetVersion returns the current version of the application.
func GetVersion() string {
	return rootCmd.Version
}

// Execute initializes and executes the root command. It is called by
// main.main().
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "corectl version %s\n" .Version}}`)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(getExitCode(err))
	}
}

// getExitCode maps a returned error to a scripting-friendly exit code.
func getExitCode(err error) int {
	if apiErr, ok := err.(*apiError); ok && apiErr.status == 409 {
		return ExitCodeConflict
	}
	return ExitCodeError
}

func init() {
	rootCmd.PersistentFlags().StringVar(&endpoint, "endpoint", defaultEndpoint(), "corectl serve admin API endpoint")
	rootCmd.PersistentFlags().BoolVar(&cli.Plain, "plain", false, "render tables as plain, pipe-friendly kubectl-style output")
}
