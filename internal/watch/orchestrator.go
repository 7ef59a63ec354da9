// Package watch implements the Watchers and Orchestrator component:
// local-file and remote-manifest watchers feed swap requests into a bounded
// queue, and an orchestrator drains that queue with bounded parallelism.
// The orchestrator is grounded on giantswarm-muster's hand-rolled
// internal/reconciler/queue.go (workQueue/delayedQueue with per-key dedup
// and AddAfter deferral) — but since the teacher already depends on
// k8s.io/client-go directly, this rewrite uses the real
// k8s.io/client-go/util/workqueue standalone (no API server involved)
// instead of re-deriving the same FIFO-plus-dedup structure by hand, and
// golang.org/x/sync/errgroup for the bounded-parallel worker pool.
package watch

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"k8s.io/client-go/util/workqueue"

	"github.com/corectl/corectl/internal/identity"
	"github.com/corectl/corectl/internal/lifecycle"
	"github.com/corectl/corectl/pkg/logging"
)

// swapRequest is the payload behind one queued key. The workqueue itself
// only tracks (and dedupes) string keys; pending carries the actual
// request data for the most recently enqueued occurrence of that key.
type swapRequest struct {
	Domain   identity.Domain
	Key      string
	Provider *string
	Force    bool
}

func keyFor(domain identity.Domain, key string) string {
	return string(domain) + "/" + key
}

// deferredRetryInterval is how long the orchestrator waits before retrying
// a swap whose target is currently paused or draining (spec.md §4.4).
const deferredRetryInterval = 5 * time.Second

// Orchestrator consumes swap requests from a bounded queue, running swaps
// for distinct keys in parallel while swaps for the same key serialize
// naturally (the per-key mutex lives in lifecycle.Manager.Swap itself).
type Orchestrator struct {
	queue   workqueue.TypedRateLimitingInterface[string]
	mgr     *lifecycle.Manager
	workers int

	mu      sync.Mutex
	pending map[string]swapRequest
}

// NewOrchestrator constructs an Orchestrator draining into mgr with the
// given worker concurrency.
func NewOrchestrator(mgr *lifecycle.Manager, workers int) *Orchestrator {
	if workers <= 0 {
		workers = 1
	}
	return &Orchestrator{
		queue:   workqueue.NewTypedRateLimitingQueue[string](workqueue.DefaultTypedControllerRateLimiter[string]()),
		mgr:     mgr,
		workers: workers,
		pending: make(map[string]swapRequest),
	}
}

// Enqueue submits a swap request. A request for a key already queued
// replaces the pending payload (last-enqueued wins) without creating a
// second queue entry, matching the workqueue's built-in dedup.
func (o *Orchestrator) Enqueue(req swapRequest) {
	key := keyFor(req.Domain, req.Key)
	o.mu.Lock()
	o.pending[key] = req
	o.mu.Unlock()
	o.queue.Add(key)
}

// Run drains the queue with o.workers concurrent goroutines until ctx is
// cancelled, then performs the graceful-shutdown sequence from spec.md
// §4.4: drain the queue, wait for in-flight swaps to settle, trigger
// cleanup_all.
func (o *Orchestrator) Run(ctx context.Context) {
	g, gctx := errgroup.WithContext(context.Background())
	for i := 0; i < o.workers; i++ {
		g.Go(func() error {
			o.worker(gctx)
			return nil
		})
	}

	<-ctx.Done()
	o.queue.ShutDown()
	g.Wait()
	o.mgr.CleanupAll(context.Background())
}

func (o *Orchestrator) worker(ctx context.Context) {
	for {
		key, shutdown := o.queue.Get()
		if shutdown {
			return
		}
		o.process(ctx, key)
		o.queue.Done(key)
	}
}

func (o *Orchestrator) process(ctx context.Context, key string) {
	o.mu.Lock()
	req, ok := o.pending[key]
	delete(o.pending, key)
	o.mu.Unlock()
	if !ok {
		return
	}

	if paused, err := o.mgr.IsPausedOrDraining(req.Domain, req.Key); err == nil && paused {
		logging.Debug("watch", "deferring swap for (%s,%s): target is paused or draining", req.Domain, req.Key)
		o.mu.Lock()
		o.pending[key] = req
		o.mu.Unlock()
		o.queue.AddAfter(key, deferredRetryInterval)
		return
	}

	if _, err := o.mgr.Swap(ctx, req.Domain, req.Key, req.Provider, req.Force); err != nil {
		logging.Warn("watch", "orchestrated swap failed for (%s,%s): %v", req.Domain, req.Key, err)
	}
}

// Len reports the number of distinct keys currently queued, for tests and
// diagnostics.
func (o *Orchestrator) Len() int {
	return o.queue.Len()
}
