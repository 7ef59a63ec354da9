package cli

import (
	"bytes"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/corectl/corectl/internal/identity"
	"github.com/corectl/corectl/internal/lifecycle"
	"github.com/corectl/corectl/internal/registry"
)

func TestStateIconRespectsNoEmoji(t *testing.T) {
	os.Setenv("CORECTL_NO_EMOJI", "1")
	emojiDisabled = true
	defer func() {
		os.Unsetenv("CORECTL_NO_EMOJI")
		emojiDisabled = false
	}()

	assert.Equal(t, "READY", stateIcon(lifecycle.StateReady))
	assert.Equal(t, "FAILED", stateIcon(lifecycle.StateFailed))
}

func TestIntOrDash(t *testing.T) {
	assert.Equal(t, "-", intOrDash(nil))
	ten := 10
	assert.Equal(t, "10", intOrDash(&ten))
}

func TestRenderCandidatesDoesNotPanic(t *testing.T) {
	p := 5
	candidates := []registry.Candidate{
		{Domain: identity.DomainAdapter, Key: "cache", Provider: "A", Priority: &p, Source: registry.SourceLocalPkg, RegisteredAt: time.Now()},
	}
	RenderCandidates(os.Stdout, "adapter", candidates)
}

func TestRenderExplainTraceDoesNotPanic(t *testing.T) {
	trace := registry.ExplainTrace{
		Domain: identity.DomainAdapter,
		Key:    "cache",
		Entries: []registry.ExplainEntry{
			{Candidate: registry.Candidate{Provider: "A"}, Winner: true, Rule: "priority", Reason: "selected as active candidate"},
		},
	}
	RenderExplainTrace(os.Stdout, trace)
}

func TestRenderActivityDoesNotPanic(t *testing.T) {
	rows := []ActivityRow{
		{Domain: "adapter", Key: "cache", Provider: "A", State: lifecycle.StateReady, Healthy: true, LastHealthAt: time.Now()},
		{Domain: "adapter", Key: "queue", Provider: "B", State: lifecycle.StatePaused, Healthy: false},
	}
	RenderActivity(os.Stdout, rows)
}

func TestRenderCandidatesPlainOutputHasNoBoxDrawing(t *testing.T) {
	Plain = true
	defer func() { Plain = false }()

	p := 5
	var buf bytes.Buffer
	RenderCandidates(&buf, "adapter", []registry.Candidate{
		{Domain: identity.DomainAdapter, Key: "cache", Provider: "A", Priority: &p, Source: registry.SourceLocalPkg, RegisteredAt: time.Now()},
	})

	out := buf.String()
	assert.Contains(t, out, "cache")
	assert.NotContains(t, out, "│")
}
