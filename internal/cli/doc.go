// Package cli provides output-formatting helpers shared by the cmd
// subcommands: a plain kubectl-style table writer for piping (PlainTableWriter)
// and go-pretty-rendered tables for candidates, explain traces, and activity
// records, plus the status iconography used across both.
package cli
