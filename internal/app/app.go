// Package app wires all VoxRegister subsystems into a running server.
//
// The App struct owns the full lifecycle: New creates and connects all
// subsystems, Run serves the HTTP API until the context is cancelled, and
// Shutdown tears everything down in order.
//
// For testing, inject mock implementations via functional options
// (WithStore, WithTranscriber). When an option is not provided, New creates
// real implementations from the config.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/K-ALOHA/voxregister/internal/command"
	"github.com/K-ALOHA/voxregister/internal/config"
	"github.com/K-ALOHA/voxregister/internal/health"
	"github.com/K-ALOHA/voxregister/internal/httpapi"
	"github.com/K-ALOHA/voxregister/internal/observe"
	"github.com/K-ALOHA/voxregister/internal/roster"
	"github.com/K-ALOHA/voxregister/internal/store"
	"github.com/K-ALOHA/voxregister/pkg/provider/stt"
	"github.com/K-ALOHA/voxregister/pkg/provider/stt/whisper"
)

// Version is reported by /healthz. Overridden at build time via
// -ldflags "-X github.com/K-ALOHA/voxregister/internal/app.Version=v1.2.3".
var Version = "dev"

// shutdownGrace bounds the in-flight request drain when Run's context is
// cancelled.
const shutdownGrace = 10 * time.Second

// App owns all subsystem lifetimes and serves the VoxRegister HTTP API.
type App struct {
	cfg *config.Config

	store       store.Store
	transcriber stt.Transcriber
	pipeline    *command.Pipeline
	server      *http.Server
	registry    *prometheus.Registry

	// closers are called in order during Shutdown.
	closers []func() error

	// stopOnce guards the Shutdown path.
	stopOnce sync.Once
}

// Option is a functional option for New. Use these to inject test doubles.
type Option func(*App)

// WithStore injects a record store instead of creating one from config.
func WithStore(st store.Store) Option {
	return func(a *App) { a.store = st }
}

// WithTranscriber injects a transcriber instead of creating one from config.
func WithTranscriber(t stt.Transcriber) Option {
	return func(a *App) { a.transcriber = t }
}

// New creates an App by wiring all subsystems together: telemetry provider,
// record store, transcriber, command pipeline, and the HTTP API. Use Option
// functions to inject test doubles for any subsystem.
func New(ctx context.Context, cfg *config.Config, opts ...Option) (*App, error) {
	a := &App{cfg: cfg}
	for _, o := range opts {
		o(a)
	}

	// Telemetry first so every later subsystem records against the global
	// meter provider. Each App gets its own Prometheus registry so /metrics
	// only exposes this instance's collectors.
	a.registry = prometheus.NewRegistry()
	otelShutdown, err := observe.InitProvider(ctx, observe.ProviderConfig{
		ServiceVersion: Version,
		Registerer:     a.registry,
	})
	if err != nil {
		return nil, fmt.Errorf("app: init telemetry: %w", err)
	}
	a.closers = append(a.closers, func() error {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return otelShutdown(shutdownCtx)
	})

	if err := a.initStore(ctx); err != nil {
		return nil, fmt.Errorf("app: init store: %w", err)
	}
	if err := a.initTranscriber(); err != nil {
		return nil, fmt.Errorf("app: init transcriber: %w", err)
	}
	a.initPipeline()
	a.initServer()

	return a, nil
}

// initStore connects to PostgreSQL, or falls back to the in-memory store
// when no DSN is configured.
func (a *App) initStore(ctx context.Context) error {
	if a.store != nil {
		return nil // injected
	}

	dsn := a.cfg.Database.PostgresDSN
	if dsn == "" {
		slog.Warn("database.postgres_dsn not set, using in-memory store; records are lost on restart")
		a.store = store.NewMemStore()
		return nil
	}

	st, err := store.Open(ctx, dsn)
	if err != nil {
		return err
	}
	a.store = st
	a.closers = append(a.closers, func() error {
		st.Close()
		return nil
	})
	slog.Info("connected to postgres store")
	return nil
}

// initTranscriber builds the configured speech-to-text backend. An empty
// transcriber name means text-only mode: audio uploads are rejected with a
// transcription failure while typed commands keep working.
func (a *App) initTranscriber() error {
	if a.transcriber != nil {
		return nil // injected
	}

	tc := a.cfg.Transcriber
	switch tc.Name {
	case "":
		slog.Info("no transcriber configured, running in text-only mode")
		return nil

	case "whisper":
		var opts []whisper.Option
		if tc.Language != "" {
			opts = append(opts, whisper.WithLanguage(tc.Language))
		}
		client, err := whisper.New(tc.BaseURL, opts...)
		if err != nil {
			return err
		}
		a.transcriber = client
		slog.Info("using whisper server transcriber", "base_url", tc.BaseURL)
		return nil

	case "whisper-native":
		var opts []whisper.NativeOption
		if tc.Language != "" {
			opts = append(opts, whisper.WithNativeLanguage(tc.Language))
		}
		native, err := whisper.NewNative(tc.ModelPath, opts...)
		if err != nil {
			return err
		}
		a.transcriber = native
		a.closers = append(a.closers, native.Close)
		slog.Info("using native whisper transcriber", "model_path", tc.ModelPath)
		return nil

	default:
		return fmt.Errorf("unknown transcriber %q (valid: whisper, whisper-native)", tc.Name)
	}
}

// initPipeline assembles the command pipeline from the store, matcher, and
// transcriber.
func (a *App) initPipeline() {
	matcherOpts := []roster.Option{}
	if c := a.cfg.Roster.MatchCutoff; c > 0 {
		matcherOpts = append(matcherOpts, roster.WithCutoff(float64(c)))
	}

	pipelineOpts := []command.PipelineOption{
		command.WithMatcher(roster.NewMatcher(matcherOpts...)),
	}
	if a.transcriber != nil {
		pipelineOpts = append(pipelineOpts, command.WithTranscriber(a.transcriber))
	}
	if s := a.cfg.Transcriber.TimeoutSeconds; s > 0 {
		pipelineOpts = append(pipelineOpts, command.WithTranscribeTimeout(time.Duration(s)*time.Second))
	}

	a.pipeline = command.New(a.store, pipelineOpts...)
}

// initServer mounts the API, health, and metrics routes and builds the HTTP
// server.
func (a *App) initServer() {
	mux := http.NewServeMux()

	api := httpapi.New(a.pipeline, a.store,
		httpapi.WithDefaultUSNPrefix(a.cfg.Roster.USNPrefix),
	)
	api.Register(mux)

	health.New(Version, health.Checker{Name: "database", Check: a.store.Ping}).Register(mux)

	// The OTel meter provider bridges into this instance's Prometheus
	// registry; promhttp serves whatever was recorded through it.
	mux.Handle("GET /metrics", promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{}))

	a.server = &http.Server{
		Addr:              a.cfg.Server.ListenAddr,
		Handler:           observe.Middleware(observe.DefaultMetrics())(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// Run serves the HTTP API and blocks until ctx is cancelled or the listener
// fails. On cancellation in-flight requests get [shutdownGrace] to drain;
// the returned error is ctx's cause (usually context.Canceled).
func (a *App) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("http server listening", "addr", a.server.Addr)
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("app: http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		drainCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := a.server.Shutdown(drainCtx); err != nil {
			return fmt.Errorf("app: drain http server: %w", err)
		}
		return ctx.Err()
	})

	return g.Wait()
}

// Shutdown tears down all subsystems in order. It respects the context
// deadline: if ctx expires before all closers finish, remaining closers are
// skipped and the context error is returned.
func (a *App) Shutdown(ctx context.Context) error {
	var shutdownErr error
	a.stopOnce.Do(func() {
		slog.Info("shutting down", "closers", len(a.closers))

		for i, closer := range a.closers {
			select {
			case <-ctx.Done():
				slog.Warn("shutdown deadline exceeded", "remaining", len(a.closers)-i)
				shutdownErr = ctx.Err()
				return
			default:
			}
			if err := closer(); err != nil {
				slog.Warn("closer error", "index", i, "err", err)
			}
		}

		slog.Info("shutdown complete")
	})
	return shutdownErr
}
