package watch

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corectl/corectl/internal/identity"
	"github.com/corectl/corectl/internal/lifecycle"
	"github.com/corectl/corectl/internal/registry"
)

func TestOrchestratorProcessesSwap(t *testing.T) {
	reg := registry.New()
	factories := lifecycle.NewFactoryTable()
	mgr := lifecycle.NewManager(reg, factories)

	p10 := 10
	require.NoError(t, reg.Register(registry.Candidate{
		Domain: identity.DomainAdapter, Key: "cache", Provider: "A",
		Priority: &p10, Factory: "pkg:A", Source: registry.SourceLocalPkg,
	}))
	factories.Register("pkg:A", func() (interface{}, error) { return struct{}{}, nil })

	orch := NewOrchestrator(mgr, 2)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		orch.Run(ctx)
		close(done)
	}()

	orch.Enqueue(swapRequest{Domain: identity.DomainAdapter, Key: "cache"})

	assert.Eventually(t, func() bool {
		_, ok := mgr.Instance(identity.DomainAdapter, "cache")
		return ok
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("orchestrator did not shut down")
	}
}

func TestOrchestratorDefersPausedTarget(t *testing.T) {
	reg := registry.New()
	factories := lifecycle.NewFactoryTable()
	activity := lifecycle.NewInMemoryActivityStore()
	mgr := lifecycle.NewManager(reg, factories, lifecycle.WithActivityStore(activity))

	require.NoError(t, activity.Set(lifecycle.ActivityRecord{Domain: identity.DomainAdapter, Key: "cache", Paused: true}))

	p10 := 10
	require.NoError(t, reg.Register(registry.Candidate{
		Domain: identity.DomainAdapter, Key: "cache", Provider: "A",
		Priority: &p10, Factory: "pkg:A", Source: registry.SourceLocalPkg,
	}))
	factories.Register("pkg:A", func() (interface{}, error) { return struct{}{}, nil })

	orch := NewOrchestrator(mgr, 1)
	orch.Enqueue(swapRequest{Domain: identity.DomainAdapter, Key: "cache"})
	orch.process(context.Background(), keyFor(identity.DomainAdapter, "cache"))

	_, ok := mgr.Instance(identity.DomainAdapter, "cache")
	assert.False(t, ok, "swap should have been deferred, not executed")
}
