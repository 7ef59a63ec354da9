package app

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/corectl/corectl/internal/api"
	"github.com/corectl/corectl/internal/events"
	"github.com/corectl/corectl/internal/lifecycle"
	"github.com/corectl/corectl/internal/manifest"
	"github.com/corectl/corectl/internal/metrics"
	"github.com/corectl/corectl/internal/registry"
	"github.com/corectl/corectl/internal/security"
	"github.com/corectl/corectl/internal/watch"
	"github.com/corectl/corectl/pkg/logging"
)

// Services holds every initialized component of the running control plane.
// It is the corectl analogue of the teacher's app.Services: a single
// explicitly-constructed container (spec.md §9 decided against package-level
// singletons) instead of globals, owned by Application.
type Services struct {
	Registry      *registry.Registry
	Factories     *lifecycle.FactoryTable
	Manager       *lifecycle.Manager
	Orchestrator  *watch.Orchestrator
	Events        *events.Bus
	ActivityStore lifecycle.ActivityStore

	ManifestLoader *manifest.Loader
	LocalWatcher   *watch.LocalWatcher
	RemoteWatcher  *watch.RemoteWatcher
}

// Application bootstraps and runs the corectl control plane: it owns the
// Services container and the background goroutines (orchestrator workers,
// watchers, HTTP server) started by Run.
type Application struct {
	config   *Config
	services *Services
}

// NewApplication performs the full bootstrap sequence: logging, the
// security checker, the registry, the lifecycle manager (with its activity
// store), the manifest loader and artifact cache, and the watchers that feed
// swap requests to the orchestrator. It mirrors the teacher's
// NewApplication/InitializeServices split but collapses it into one function
// since corectl's component graph is a straight line, not a fan-out of
// independently-optional services.
func NewApplication(cfg *Config) (*Application, error) {
	level := logging.LevelInfo
	if cfg.Debug {
		level = logging.LevelDebug
	}
	var out io.Writer = os.Stderr
	if cfg.Silent {
		out = io.Discard
	}
	logging.Init(level, out)

	bus := events.NewBus(cfg.Silent)

	checker := security.NewChecker(nil, cfg.FactoryAllowlist)
	reg := registry.New(registry.WithChecker(checker), registry.WithEmitter(bus))

	activityPath := cfg.ActivityDBPath
	if activityPath == "" {
		activityPath = ".corectl/activity.db"
	}
	activityStore, err := lifecycle.NewSQLiteActivityStore(activityPath)
	if err != nil {
		logging.Error("bootstrap", err, "failed to open activity store at %s, falling back to in-memory", activityPath)
		activityStore = lifecycle.NewInMemoryActivityStore()
	}

	factories := lifecycle.NewFactoryTable()
	mgr := lifecycle.NewManager(reg, factories,
		lifecycle.WithEmitter(bus),
		lifecycle.WithActivityStore(activityStore),
	)

	orch := watch.NewOrchestrator(mgr, cfg.OrchestratorWorkers)

	services := &Services{
		Registry:      reg,
		Factories:     factories,
		Manager:       mgr,
		Orchestrator:  orch,
		Events:        bus,
		ActivityStore: activityStore,
	}

	if err := wireManifest(cfg, checker, reg, bus, services); err != nil {
		return nil, err
	}

	if cfg.OverrideTablePath != "" {
		services.LocalWatcher = watch.NewLocalWatcher(cfg.OverrideTablePath, reg, orch)
		if err := services.LocalWatcher.LoadInitial(); err != nil {
			logging.Error("bootstrap", err, "failed to load initial override table from %s", cfg.OverrideTablePath)
		}
	}

	return &Application{config: cfg, services: services}, nil
}

func wireManifest(cfg *Config, checker *security.Checker, reg *registry.Registry, bus *events.Bus, services *Services) error {
	cacheDir := cfg.CacheDir
	if cacheDir == "" {
		cacheDir = ".corectl/cache"
	}
	cache, err := manifest.NewArtifactCache(cacheDir, 1024)
	if err != nil {
		return fmt.Errorf("initialize artifact cache at %s: %w", cacheDir, err)
	}

	fetcher := manifest.NewFetcher(15*time.Second, manifest.DefaultCircuitBreaker())

	var trust manifest.TrustSet
	if cfg.TrustedSigners != "" {
		trust, err = manifest.ParseTrustSet(cfg.TrustedSigners)
		if err != nil {
			return fmt.Errorf("parse TRUSTED_SIGNERS: %w", err)
		}
	}

	loader := manifest.NewLoader(fetcher, cache, reg,
		manifest.WithEmitter(bus),
		manifest.WithTrustSet(trust),
		manifest.WithChecker(checker),
	)
	services.ManifestLoader = loader

	if cfg.ManifestURI != "" {
		interval := cfg.ManifestPollInterval
		if interval <= 0 {
			interval = 30 * time.Second
		}
		services.RemoteWatcher = watch.NewRemoteWatcher(cfg.ManifestURI, interval, loader, reg, services.Orchestrator)
	}
	return nil
}

// Run starts the background workers (orchestrator, watchers, optional HTTP
// server) and blocks until ctx is cancelled, then drains everything in
// reverse dependency order.
func (a *Application) Run(ctx context.Context) error {
	svc := a.services
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	orchDone := make(chan struct{})
	go func() {
		svc.Orchestrator.Run(ctx)
		close(orchDone)
	}()

	if svc.LocalWatcher != nil {
		go func() {
			if err := svc.LocalWatcher.Run(ctx); err != nil {
				logging.Error("bootstrap", err, "local watcher stopped")
			}
		}()
	}
	if svc.RemoteWatcher != nil {
		go svc.RemoteWatcher.Run(ctx)
	}

	var httpServer *http.Server
	if a.config.HTTPAddr != "" {
		mux := http.NewServeMux()
		mux.HandleFunc("/events", svc.Events.StreamHandler())
		mux.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))
		mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ok"))
		})
		api.NewHandler(svc.Registry, svc.Manager, svc.ManifestLoader).Routes(mux, "/api")
		httpServer = &http.Server{Addr: a.config.HTTPAddr, Handler: mux}
		go func() {
			if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logging.Error("bootstrap", err, "http server stopped")
			}
		}()
		logging.Info("bootstrap", "serving /events and /metrics on %s", a.config.HTTPAddr)
	}

	<-ctx.Done()
	<-orchDone

	if httpServer != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		_ = httpServer.Shutdown(shutdownCtx)
	}
	if err := svc.ActivityStore.Close(); err != nil {
		logging.Error("bootstrap", err, "failed to close activity store")
	}
	return nil
}

// Services exposes the bootstrap container for direct in-process access.
// cmd/ subcommands other than serve do not use it; they reach the daemon
// over the HTTP API.
func (a *Application) Services() *Services {
	return a.services
}
