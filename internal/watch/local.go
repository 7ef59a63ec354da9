package watch

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"

	"github.com/corectl/corectl/internal/identity"
	"github.com/corectl/corectl/internal/registry"
	"github.com/corectl/corectl/pkg/logging"
)

// debounceWindow coalesces bursts of filesystem events (editors often
// write-then-rename) into one reload, adapted from the debounce timer in
// giantswarm-muster/internal/reconciler/filesystem_detector.go.
const debounceWindow = 200 * time.Millisecond

// OverrideTable is the parsed form of the override-table file: explicit
// (domain,key) -> provider selections (spec.md §4.1 precedence rule 1).
type OverrideTable map[identity.Domain]map[string]string

func parseOverrideTable(raw []byte) (OverrideTable, error) {
	var generic map[string]map[string]string
	if err := yaml.Unmarshal(raw, &generic); err != nil {
		return nil, err
	}
	table := make(OverrideTable, len(generic))
	for domain, keys := range generic {
		table[identity.Domain(domain)] = keys
	}
	return table, nil
}

// LocalWatcher observes the override-table file and, on change, diffs it
// against the last known table, applying additions/changes/removals to the
// registry and enqueueing a swap for every affected (domain,key).
type LocalWatcher struct {
	path string
	reg  *registry.Registry
	orch *Orchestrator

	mu   sync.Mutex
	last OverrideTable
}

// NewLocalWatcher constructs a watcher for the override-table file at path.
func NewLocalWatcher(path string, reg *registry.Registry, orch *Orchestrator) *LocalWatcher {
	return &LocalWatcher{path: path, reg: reg, orch: orch, last: make(OverrideTable)}
}

// LoadInitial reads and applies the override table once at startup,
// without enqueueing swaps (the resolver simply starts with the override
// already in effect).
func (w *LocalWatcher) LoadInitial() error {
	raw, err := os.ReadFile(w.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	table, err := parseOverrideTable(raw)
	if err != nil {
		return err
	}
	w.mu.Lock()
	w.last = table
	w.mu.Unlock()
	w.applyDiff(nil, table)
	return nil
}

// Run watches w.path until ctx is cancelled, debouncing bursts of change
// events and reloading+diffing the table on each settled change.
func (w *LocalWatcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(w.path); err != nil {
		logging.Warn("watch", "could not watch override table %s: %v", w.path, err)
	}

	var timer *time.Timer
	reload := func() {
		if err := w.reload(); err != nil {
			logging.Warn("watch", "reload of override table %s failed: %v", w.path, err)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(debounceWindow, reload)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logging.Warn("watch", "override table watch error: %v", err)
		}
	}
}

func (w *LocalWatcher) reload() error {
	raw, err := os.ReadFile(w.path)
	if err != nil {
		return err
	}
	table, err := parseOverrideTable(raw)
	if err != nil {
		return err
	}

	w.mu.Lock()
	previous := w.last
	w.last = table
	w.mu.Unlock()

	changed := diffOverrideTables(previous, table)
	w.applyDiff(previous, table)

	for _, ck := range changed {
		w.orch.Enqueue(swapRequest{Domain: ck.domain, Key: ck.key})
	}
	return nil
}

type changedKey struct {
	domain identity.Domain
	key    string
}

// diffOverrideTables returns every (domain,key) whose override entry
// differs between previous and next (added, changed, or removed).
func diffOverrideTables(previous, next OverrideTable) []changedKey {
	seen := make(map[changedKey]struct{})
	var changed []changedKey

	mark := func(domain identity.Domain, key string) {
		ck := changedKey{domain: domain, key: key}
		if _, ok := seen[ck]; ok {
			return
		}
		seen[ck] = struct{}{}
		changed = append(changed, ck)
	}

	for domain, keys := range previous {
		for key, provider := range keys {
			if next[domain][key] != provider {
				mark(domain, key)
			}
		}
	}
	for domain, keys := range next {
		for key, provider := range keys {
			if previous[domain][key] != provider {
				mark(domain, key)
			}
		}
	}
	return changed
}

// applyDiff pushes next into the registry's override state, setting every
// entry present in next and clearing every entry that was present in
// previous but is now absent.
func (w *LocalWatcher) applyDiff(previous, next OverrideTable) {
	for domain, keys := range next {
		for key, provider := range keys {
			w.reg.SetOverride(domain, key, provider)
		}
	}
	for domain, keys := range previous {
		for key := range keys {
			if _, stillSet := next[domain][key]; !stillSet {
				w.reg.ClearOverride(domain, key)
			}
		}
	}
}
