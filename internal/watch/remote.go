package watch

import (
	"context"
	"time"

	"k8s.io/apimachinery/pkg/util/wait"

	"github.com/corectl/corectl/internal/identity"
	"github.com/corectl/corectl/internal/manifest"
	"github.com/corectl/corectl/internal/registry"
	"github.com/corectl/corectl/pkg/logging"
)

// RemoteWatcher periodically re-runs the manifest fetch pipeline and
// enqueues a swap for every (domain,key) whose resolved candidate changed
// as a result (spec.md §4.4).
type RemoteWatcher struct {
	uri      string
	interval time.Duration
	loader   *manifest.Loader
	reg      *registry.Registry
	orch     *Orchestrator
}

// NewRemoteWatcher constructs a watcher that re-fetches uri every interval.
func NewRemoteWatcher(uri string, interval time.Duration, loader *manifest.Loader, reg *registry.Registry, orch *Orchestrator) *RemoteWatcher {
	return &RemoteWatcher{uri: uri, interval: interval, loader: loader, reg: reg, orch: orch}
}

// Run polls every interval until ctx is cancelled. It uses apimachinery's
// wait.UntilWithContext rather than a hand-rolled ticker loop, the same
// resync-loop primitive client-go-based controllers use internally.
func (w *RemoteWatcher) Run(ctx context.Context) {
	wait.UntilWithContext(ctx, w.poll, w.interval)
}

func (w *RemoteWatcher) poll(ctx context.Context) {
	before := w.snapshot()

	n, err := w.loader.Load(ctx, w.uri)
	if err != nil {
		logging.Warn("watch", "remote manifest poll failed for %s: %v", w.uri, err)
		return
	}
	logging.Debug("watch", "remote manifest poll registered %d entries from %s", n, w.uri)

	after := w.snapshot()
	for ck := range diffSnapshots(before, after) {
		w.orch.Enqueue(swapRequest{Domain: ck.domain, Key: ck.key})
	}
}

// snapshot captures the active candidate identity per (domain,key) across
// every domain, used to detect what a manifest reload actually changed.
func (w *RemoteWatcher) snapshot() map[changedKey]registry.Candidate {
	out := make(map[changedKey]registry.Candidate)
	for _, domain := range identity.Domains {
		for _, c := range w.reg.ListActive(domain) {
			out[changedKey{domain: domain, key: c.Key}] = c
		}
	}
	return out
}

func diffSnapshots(before, after map[changedKey]registry.Candidate) map[changedKey]struct{} {
	changed := make(map[changedKey]struct{})
	for ck, c := range after {
		prev, existed := before[ck]
		if !existed || !prev.IdentityKeyEquals(c) {
			changed[ck] = struct{}{}
		}
	}
	for ck := range before {
		if _, stillActive := after[ck]; !stillActive {
			changed[ck] = struct{}{}
		}
	}
	return changed
}
