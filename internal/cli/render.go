package cli

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/corectl/corectl/internal/lifecycle"
	"github.com/corectl/corectl/internal/registry"
)

// emojiDisabled caches whether icon display is disabled via environment
// variable. Set NO_EMOJI or CORECTL_NO_EMOJI to fall back to plain ASCII.
var emojiDisabled = os.Getenv("NO_EMOJI") != "" || os.Getenv("CORECTL_NO_EMOJI") != ""

// Plain switches every Render* function from go-pretty's box-drawing tables
// to PlainTableWriter's kubectl-style output, set by corectl's --plain flag
// for piping to grep/awk/cut.
var Plain bool

// IsEmojiDisabled returns true if icon display is disabled via environment variables.
func IsEmojiDisabled() bool {
	return emojiDisabled
}

func icon(emoji, fallback string) string {
	if emojiDisabled {
		return fallback
	}
	return emoji
}

func stateIcon(s lifecycle.State) string {
	switch s {
	case lifecycle.StateReady:
		return icon("✅", "READY")
	case lifecycle.StatePaused:
		return icon("⏸", "PAUSED")
	case lifecycle.StateDraining:
		return icon("🚰", "DRAINING")
	case lifecycle.StateInitializing:
		return icon("⏳", "INITIALIZING")
	case lifecycle.StateFailed:
		return icon("❌", "FAILED")
	case lifecycle.StateCleanup:
		return icon("🧹", "CLEANUP")
	default:
		return icon("❔", "UNINIT")
	}
}

func intOrDash(v *int) string {
	if v == nil {
		return "-"
	}
	return strconv.Itoa(*v)
}

func newStyledWriter() table.Writer {
	w := table.NewWriter()
	w.SetStyle(table.StyleLight)
	w.Style().Options.SeparateRows = false
	return w
}

// RenderCandidates writes a table of candidates (active or shadowed) for
// one domain to the given writer, in go-pretty's box-drawing style or
// PlainTableWriter's kubectl style depending on Plain.
func RenderCandidates(out io.Writer, domain string, candidates []registry.Candidate) {
	if Plain {
		w := NewPlainTableWriter(out)
		w.SetHeaders([]string{"KEY", "PROVIDER", "PRIORITY", "STACK_LEVEL", "SOURCE", "FACTORY", "REGISTERED_AT"})
		for _, c := range candidates {
			w.AppendRow([]string{
				c.Key, c.Provider, intOrDash(c.Priority), intOrDash(c.StackLevel),
				string(c.Source), c.Factory, c.RegisteredAt.Format("2006-01-02T15:04:05Z07:00"),
			})
		}
		w.Render()
		return
	}
	w := newStyledWriter()
	w.SetOutputMirror(out)
	w.AppendHeader(table.Row{"KEY", "PROVIDER", "PRIORITY", "STACK_LEVEL", "SOURCE", "FACTORY", "REGISTERED_AT"})
	for _, c := range candidates {
		w.AppendRow(table.Row{
			c.Key, c.Provider, intOrDash(c.Priority), intOrDash(c.StackLevel),
			string(c.Source), c.Factory, c.RegisteredAt.Format("2006-01-02T15:04:05Z07:00"),
		})
	}
	w.Render()
}

// RenderExplainTrace writes the decision trace for one (domain,key)
// resolution, marking the winning candidate.
func RenderExplainTrace(out io.Writer, trace registry.ExplainTrace) {
	w := newStyledWriter()
	w.SetOutputMirror(out)
	w.AppendHeader(table.Row{"", "PROVIDER", "SOURCE", "RULE", "REASON"})
	for _, e := range trace.Entries {
		mark := icon("  ", "  ")
		if e.Winner {
			mark = icon("👉", "=>")
		}
		w.AppendRow(table.Row{mark, e.Candidate.Provider, string(e.Candidate.Source), e.Rule, e.Reason})
	}
	w.Render()
}

// RenderActivity writes a table of activity records (pause/drain state,
// health) for a set of instances, in go-pretty's box-drawing style or
// PlainTableWriter's kubectl style depending on Plain.
func RenderActivity(out io.Writer, rows []ActivityRow) {
	if Plain {
		w := NewPlainTableWriter(out)
		w.SetHeaders([]string{"DOMAIN", "KEY", "PROVIDER", "STATE", "HEALTH", "LAST_HEALTH_AT"})
		for _, r := range rows {
			w.AppendRow([]string{r.Domain, r.Key, r.Provider, string(r.State), healthText(r.Healthy), lastHealthText(r.LastHealthAt)})
		}
		w.Render()
		return
	}
	w := newStyledWriter()
	w.SetOutputMirror(out)
	w.AppendHeader(table.Row{"", "DOMAIN", "KEY", "PROVIDER", "STATE", "HEALTH", "LAST_HEALTH_AT"})
	for _, r := range rows {
		w.AppendRow(table.Row{stateIcon(r.State), r.Domain, r.Key, r.Provider, string(r.State), healthText(r.Healthy), lastHealthText(r.LastHealthAt)})
	}
	w.Render()
}

func healthText(healthy bool) string {
	if healthy {
		return icon("✅", "ok")
	}
	return icon("❌", "fail")
}

func lastHealthText(at time.Time) string {
	if at.IsZero() {
		return "-"
	}
	return at.Format("2006-01-02T15:04:05Z07:00")
}

// ActivityRow is the flattened view of a LiveInstance used by RenderActivity;
// cmd builds it from the /api/activity entries returned by the daemon rather
// than exposing LiveInstance's internal locking to the rendering layer.
type ActivityRow struct {
	Domain       string
	Key          string
	Provider     string
	State        lifecycle.State
	Healthy      bool
	LastHealthAt time.Time
}

// Success prints a consistently-styled success line.
func Success(format string, args ...interface{}) {
	fmt.Printf("%s %s\n", icon("✓", "OK:"), fmt.Sprintf(format, args...))
}

// Warn prints a consistently-styled warning line.
func Warn(format string, args ...interface{}) {
	fmt.Printf("%s %s\n", icon("⚠", "WARN:"), fmt.Sprintf(format, args...))
}
