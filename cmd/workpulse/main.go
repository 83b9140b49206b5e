package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"
	flag "github.com/spf13/pflag"
	"tailscale.com/tsnet"

	"github.com/claude/workpulse"
	"github.com/claude/workpulse/internal/access"
	"github.com/claude/workpulse/internal/activity"
	"github.com/claude/workpulse/internal/calendar"
	"github.com/claude/workpulse/internal/config"
	"github.com/claude/workpulse/internal/health"
	"github.com/claude/workpulse/internal/ingest/hae"
	"github.com/claude/workpulse/internal/mcp"
	"github.com/claude/workpulse/internal/server"
	"github.com/claude/workpulse/internal/storage"
	"github.com/claude/workpulse/internal/widget"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	configPath := flag.StringP("config", "c", "config.yaml", "path to config file")
	migrateOnly := flag.Bool("migrate-only", false, "run migrations and exit")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	log.Info("WorkPulse starting", "version", Version)

	// Load config
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Run migrations
	dsn := cfg.Database.DSN()
	if err := storage.RunMigrations(dsn, workpulse.MigrationsFS, "migrations"); err != nil {
		log.Error("migration failed", "error", err)
		os.Exit(1)
	}
	log.Info("migrations applied")

	if *migrateOnly {
		log.Info("migrate-only: exiting")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Connect database
	db, err := storage.New(ctx, dsn)
	if err != nil {
		log.Error("failed to connect database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	log.Info("database connected")

	loc, err := cfg.Calendar.Location()
	if err != nil {
		log.Error("invalid timezone", "error", err)
		os.Exit(1)
	}
	cal, err := calendar.ForLocale(cfg.Calendar.Locale, loc)
	if err != nil {
		log.Error("invalid locale", "locale", cfg.Calendar.Locale, "error", err)
		os.Exit(1)
	}
	log.Info("calendar configured", "locale", cfg.Calendar.Locale, "timezone", loc, "first_weekday", cal.FirstWeekday)

	policy := access.NewPolicy(
		access.Either{
			access.Static(cfg.Access.Unlocked),
			access.Stored{DB: db, Name: storage.EntitlementPro},
		},
		cal, log,
		access.WithLookback(cfg.Access.LookbackWeeks),
	)
	svc := activity.NewService(health.NewSource(db), db, policy, cal, log)

	srv := server.New(db, svc, hae.NewProvider(db, log), cfg.Auth.APIKey, log)

	mcpSrv := mcp.New(mcp.Local{Service: svc, DB: db}, Version, log)
	srv.Mount("/mcp", mcpserver.NewStreamableHTTPServer(mcpSrv))

	// Widget snapshot store
	widgetStore, err := widget.Open(cfg.Widget.StatePath)
	if err != nil {
		log.Error("failed to open widget store", "path", cfg.Widget.StatePath, "error", err)
		os.Exit(1)
	}
	defer widgetStore.Close()
	go widget.NewPublisher(svc, widgetStore, cfg.Widget.Interval, log).Run(ctx)

	// Listen on the tailnet, or plain TCP in dev mode
	var listener net.Listener

	if cfg.Tailscale.Enabled {
		tsServer := &tsnet.Server{
			Hostname: cfg.Tailscale.Hostname,
			Dir:      cfg.Tailscale.StateDir,
		}
		if err := tsServer.Start(); err != nil {
			log.Error("tsnet start failed", "error", err)
			os.Exit(1)
		}
		defer tsServer.Close()

		lc, err := tsServer.LocalClient()
		if err != nil {
			log.Error("tsnet local client failed", "error", err)
			os.Exit(1)
		}
		srv.SetTailscale(lc)

		listener, err = tsServer.Listen("tcp", ":80")
		if err != nil {
			log.Error("tsnet listen failed", "error", err)
			os.Exit(1)
		}
		log.Info("tsnet server starting", "hostname", cfg.Tailscale.Hostname)
	} else {
		addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		listener, err = net.Listen("tcp", addr)
		if err != nil {
			log.Error("listen failed", "addr", addr, "error", err)
			os.Exit(1)
		}
		log.Info("server starting", "addr", addr, "mode", "dev (no tailscale)")
	}

	// Warm the dashboard before the first request.
	svc.Refresher().Invalidate(ctx)

	httpSrv := &http.Server{Handler: srv}

	go func() {
		if err := httpSrv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", "error", err)
	}
	log.Info("server stopped")
}
