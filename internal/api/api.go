// Package api exposes the registry/lifecycle/manifest operations over HTTP
// as JSON (one encoded value per response), mounted by "corectl serve" under /api and consumed
// by the other cmd/ subcommands as a thin client — the same
// client/daemon split the teacher uses between its aggregator server and
// its cmd/ commands (cli.DetectAggregatorEndpoint talking to a running
// muster aggregator), generalized from MCP tool calls to this control
// plane's register/resolve/explain/swap/pause operations.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/corectl/corectl/internal/identity"
	"github.com/corectl/corectl/internal/lifecycle"
	"github.com/corectl/corectl/internal/manifest"
	"github.com/corectl/corectl/internal/registry"
)

// Handler serves the admin API backed directly by the live registry,
// lifecycle manager, and manifest loader — no intermediate caching, since
// every request must observe current state.
type Handler struct {
	reg    *registry.Registry
	mgr    *lifecycle.Manager
	loader *manifest.Loader
}

// NewHandler constructs a Handler. loader may be nil if manifest endpoints
// are not needed (they respond 503 in that case).
func NewHandler(reg *registry.Registry, mgr *lifecycle.Manager, loader *manifest.Loader) *Handler {
	return &Handler{reg: reg, mgr: mgr, loader: loader}
}

// Routes registers every endpoint on mux under the given prefix (typically
// "/api").
func (h *Handler) Routes(mux *http.ServeMux, prefix string) {
	mux.HandleFunc(prefix+"/register", h.handleRegister)
	mux.HandleFunc(prefix+"/resolve", h.handleResolve)
	mux.HandleFunc(prefix+"/explain", h.handleExplain)
	mux.HandleFunc(prefix+"/list", h.handleList)
	mux.HandleFunc(prefix+"/swap", h.handleSwap)
	mux.HandleFunc(prefix+"/pause", h.handlePause)
	mux.HandleFunc(prefix+"/resume", h.handleResume)
	mux.HandleFunc(prefix+"/drain", h.handleDrain)
	mux.HandleFunc(prefix+"/undrain", h.handleUndrain)
	mux.HandleFunc(prefix+"/manifest/fetch", h.handleManifestFetch)
	mux.HandleFunc(prefix+"/manifest/status", h.handleManifestStatus)
	mux.HandleFunc(prefix+"/activity", h.handleActivity)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// RegisterRequest is the JSON body for POST /api/register.
type RegisterRequest struct {
	Domain       string                 `json:"domain"`
	Key          string                 `json:"key"`
	Provider     string                 `json:"provider"`
	Priority     *int                   `json:"priority,omitempty"`
	StackLevel   *int                   `json:"stack_level,omitempty"`
	Factory      string                 `json:"factory"`
	Source       string                 `json:"source"`
	Capabilities []string               `json:"capabilities,omitempty"`
	Metadata     map[string]interface{} `json:"metadata,omitempty"`
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	metadata := req.Metadata
	if len(req.Capabilities) > 0 {
		if metadata == nil {
			metadata = map[string]interface{}{}
		}
		metadata["capabilities"] = req.Capabilities
	}

	c := registry.Candidate{
		Domain:     identity.Domain(req.Domain),
		Key:        req.Key,
		Provider:   req.Provider,
		Priority:   req.Priority,
		StackLevel: req.StackLevel,
		Factory:    req.Factory,
		Metadata:   metadata,
		Source:     registry.Source(req.Source),
	}
	if c.Source == "" {
		c.Source = registry.SourceManual
	}
	if err := h.reg.Register(c); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *Handler) handleResolve(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	domain := identity.Domain(q.Get("domain"))
	key := q.Get("key")
	required := splitCSV(q.Get("require"))
	optional := splitCSV(q.Get("optional"))

	candidate, ok := h.reg.Resolve(domain, key, required, optional)
	if !ok {
		writeError(w, http.StatusNotFound, &lifecycle.ResolutionMissError{Domain: domain, Key: key})
		return
	}
	writeJSON(w, http.StatusOK, candidate)
}

func (h *Handler) handleExplain(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	domain := identity.Domain(q.Get("domain"))
	key := q.Get("key")
	writeJSON(w, http.StatusOK, h.reg.Explain(domain, key))
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	domain := identity.Domain(q.Get("domain"))
	switch q.Get("state") {
	case "shadowed":
		writeJSON(w, http.StatusOK, h.reg.ListShadowed(domain))
	default:
		writeJSON(w, http.StatusOK, h.reg.ListActive(domain))
	}
}

// ActivityEntry is the wire form of one live instance's current state,
// served by GET /api/activity for "corectl activity".
type ActivityEntry struct {
	Domain       identity.Domain `json:"domain"`
	Key          string          `json:"key"`
	Provider     string          `json:"provider"`
	State        lifecycle.State `json:"state"`
	Healthy      bool            `json:"healthy"`
	LastHealthAt time.Time       `json:"last_health_at"`
}

func (h *Handler) handleActivity(w http.ResponseWriter, r *http.Request) {
	filterDomain := identity.Domain(r.URL.Query().Get("domain"))
	instances := h.mgr.ListInstances()
	entries := make([]ActivityEntry, 0, len(instances))
	for _, li := range instances {
		if filterDomain != "" && li.Candidate.Domain != filterDomain {
			continue
		}
		healthy, at := li.LastHealth()
		entries = append(entries, ActivityEntry{
			Domain:       li.Candidate.Domain,
			Key:          li.Candidate.Key,
			Provider:     li.Candidate.Provider,
			State:        li.CurrentState(),
			Healthy:      healthy,
			LastHealthAt: at,
		})
	}
	writeJSON(w, http.StatusOK, entries)
}

// swapRequest is the JSON body for POST /api/swap.
type swapRequest struct {
	Domain   string  `json:"domain"`
	Key      string  `json:"key"`
	Provider *string `json:"provider,omitempty"`
	Force    bool    `json:"force"`
}

func (h *Handler) handleSwap(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req swapRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	instance, err := h.mgr.Swap(r.Context(), identity.Domain(req.Domain), req.Key, req.Provider, req.Force)
	if err != nil {
		writeError(w, http.StatusConflict, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"domain": req.Domain, "key": req.Key,
		"provider": instance.Candidate.Provider, "state": instance.CurrentState(),
	})
}

// transitionRequest is the JSON body for pause/resume/drain/undrain.
type transitionRequest struct {
	Domain string `json:"domain"`
	Key    string `json:"key"`
	Note   string `json:"note,omitempty"`
}

func (h *Handler) handleTransition(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, domain identity.Domain, key, note string) error) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req transitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := op(r.Context(), identity.Domain(req.Domain), req.Key, req.Note); err != nil {
		writeError(w, http.StatusConflict, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) handlePause(w http.ResponseWriter, r *http.Request) {
	h.handleTransition(w, r, h.mgr.Pause)
}

func (h *Handler) handleResume(w http.ResponseWriter, r *http.Request) {
	h.handleTransition(w, r, func(ctx context.Context, d identity.Domain, k, _ string) error { return h.mgr.Resume(ctx, d, k) })
}

func (h *Handler) handleDrain(w http.ResponseWriter, r *http.Request) {
	h.handleTransition(w, r, h.mgr.Drain)
}

func (h *Handler) handleUndrain(w http.ResponseWriter, r *http.Request) {
	h.handleTransition(w, r, func(ctx context.Context, d identity.Domain, k, _ string) error { return h.mgr.Undrain(ctx, d, k) })
}

// manifestFetchRequest is the JSON body for POST /api/manifest/fetch.
type manifestFetchRequest struct {
	URI string `json:"uri"`
}

func (h *Handler) handleManifestFetch(w http.ResponseWriter, r *http.Request) {
	if h.loader == nil {
		http.Error(w, "manifest loader not configured", http.StatusServiceUnavailable)
		return
	}
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req manifestFetchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 60*time.Second)
	defer cancel()
	n, err := h.loader.Load(ctx, req.URI)
	if err != nil {
		writeError(w, http.StatusBadGateway, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"registered": n})
}

func (h *Handler) handleManifestStatus(w http.ResponseWriter, r *http.Request) {
	if h.loader == nil {
		http.Error(w, "manifest loader not configured", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, http.StatusOK, h.loader.Status())
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	start := 0
	for i := 0; i <= len(s); i++ {
		if i == len(s) || s[i] == ',' {
			if i > start {
				out = append(out, s[start:i])
			}
			start = i + 1
		}
	}
	return out
}
