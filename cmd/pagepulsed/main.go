package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/pagepulse/pagepulse/internal/api"
	"github.com/pagepulse/pagepulse/internal/budget"
	"github.com/pagepulse/pagepulse/internal/collector"
	"github.com/pagepulse/pagepulse/internal/config"
	"github.com/pagepulse/pagepulse/internal/export"
	"github.com/pagepulse/pagepulse/internal/hub"
	"github.com/pagepulse/pagepulse/internal/ingest"
	"github.com/pagepulse/pagepulse/internal/metrics"
	"github.com/pagepulse/pagepulse/internal/score"
	"github.com/pagepulse/pagepulse/internal/session"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	slog.Info("pagepulsed starting", "config", *configPath)

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}
	slog.Info("config loaded",
		"http_port", cfg.Listen.HTTPPort,
		"session_ttl", cfg.Session.TTL,
		"budget_rules", len(cfg.Budgets.Rules),
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Session registry with background TTL eviction.
	registry := session.New(cfg.Session.TTL, cfg.Session.SettleWindow, collector.Options{
		ConsoleLogging: cfg.Collector.ConsoleLogging,
		ResourceTiming: cfg.Collector.ResourceTiming,
	})

	// Budget engine — evaluated on every settled snapshot.
	budgets := budget.New(cfg.Budgets)
	registry.OnSettle(func(id string, snap metrics.Snapshot) {
		page := ""
		if s, ok := registry.Get(id); ok {
			page = s.Page
		}
		budgets.Evaluate(id, page, snap, score.Score(snap))
	})

	// Dashboard hub — coalesced push on session updates plus periodic refresh.
	stream := hub.New(registry, budgets, cfg.Session.BroadcastInterval)
	registry.OnUpdate(stream.Invalidate)

	go registry.Run(ctx)
	go stream.Run(ctx)

	// Hot-reload budget rules on config changes. Live sessions keep the
	// collector options they were created with.
	go func() {
		if err := config.Watch(ctx, *configPath, func(updated *config.Config) {
			budgets.Reload(updated.Budgets)
		}); err != nil {
			slog.Error("config watcher stopped", "err", err)
		}
	}()

	mux := http.NewServeMux()
	mux.Handle("/api/", api.New(registry, budgets))
	mux.Handle("/ws/stream", stream)
	mux.Handle("/ingest", ingest.New(registry))
	mux.Handle("/metrics", export.New(registry))

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Listen.HTTPPort),
		Handler: mux,
	}
	go func() {
		slog.Info("HTTP server listening", "port", cfg.Listen.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server stopped", "err", err)
		}
	}()

	<-ctx.Done()
	slog.Info("pagepulsed shutting down")
	srv.Shutdown(context.Background()) //nolint:errcheck
}
