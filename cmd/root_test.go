package cmd

import (
	"bytes"
	"testing"

	"github.com/spf13/cobra"
)

func TestSetVersion(t *testing.T) {
	testVersion := "1.2.3-test"
	SetVersion(testVersion)

	if rootCmd.Version != testVersion {
		t.Errorf("expected version to be %s, got %s", testVersion, rootCmd.Version)
	}
}

func TestRootCommand(t *testing.T) {
	if rootCmd.Use != "corectl" {
		t.Errorf("expected Use to be 'corectl', got %s", rootCmd.Use)
	}
	if rootCmd.Short == "" {
		t.Error("expected Short description to be set")
	}
	if !rootCmd.SilenceUsage {
		t.Error("expected SilenceUsage to be true")
	}
}

func TestVersionTemplate(t *testing.T) {
	testCmd := &cobra.Command{Use: "test", Version: "1.0.0"}
	testCmd.SetVersionTemplate(`{{printf "corectl version %s\n" .Version}}`)

	var buf bytes.Buffer
	testCmd.SetOut(&buf)
	testCmd.SetArgs([]string{"--version"})
	if err := testCmd.Execute(); err != nil {
		t.Fatalf("error executing version command: %v", err)
	}

	want := "corectl version 1.0.0\n"
	if got := buf.String(); got != want {
		t.Errorf("expected version output %q, got %q", want, got)
	}
}

func TestSubcommandsRegistered(t *testing.T) {
	expected := []string{
		"version", "serve", "register", "resolve", "explain", "list",
		"swap", "pause", "resume", "drain", "undrain", "manifest", "activity",
	}
	found := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		found[c.Name()] = true
	}
	for _, name := range expected {
		if !found[name] {
			t.Errorf("expected subcommand %q to be registered", name)
		}
	}
}

func TestGetExitCodeMapsConflict(t *testing.T) {
	if got := getExitCode(&apiError{status: 409}); got != ExitCodeConflict {
		t.Errorf("expected conflict to map to %d, got %d", ExitCodeConflict, got)
	}
	if got := getExitCode(&apiError{status: 400}); got != ExitCodeError {
		t.Errorf("expected non-conflict error to map to %d, got %d", ExitCodeError, got)
	}
}
