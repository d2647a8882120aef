package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/TomasB/proxylookup/internal/config"
	"github.com/TomasB/proxylookup/internal/data"
	grpchandler "github.com/TomasB/proxylookup/internal/handler/grpc"
	"github.com/TomasB/proxylookup/internal/listener"
	"github.com/TomasB/proxylookup/internal/lookup"
	"github.com/TomasB/proxylookup/internal/metrics"
	"github.com/TomasB/proxylookup/internal/server"
	"github.com/TomasB/proxylookup/internal/updater"
	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "proxylookup [db]",
		Short:         "Serve proxy and anonymizer IP lookups over HTTP",
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          run,
	}
	config.RegisterFlags(cmd)
	return cmd
}

func run(cmd *cobra.Command, args []string) error {
	// Initialize structured logging
	logLevel := config.LogLevel(os.Getenv("LOG_LEVEL"))
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	cfg, err := config.Load(cmd, args, os.LookupEnv)
	if err != nil {
		return err
	}

	slog.Info("service starting", "log_level", logLevel.String(), "bind", cfg.Bind, "db", cfg.DBPath)

	// Set Gin mode based on log level
	if logLevel == slog.LevelDebug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var (
		registry *prometheus.Registry
		inst     *metrics.Instrumentation
	)
	if cfg.Metrics {
		registry = prometheus.NewRegistry()
		inst = metrics.NewInstrumentation(registry)
	}

	schedule := updater.Disabled()
	if cfg.UpdateInterval > 0 {
		schedule = updater.Every(cfg.UpdateInterval)
	}
	updaterLogger := logger.With("component", "updater")
	handoff := updater.NewHandoff()
	controller := updater.NewController(
		schedule,
		updater.ExecProcedure{Path: cfg.Updater, Logger: updaterLogger},
		handoff,
		updaterLogger,
		updater.WithRunObserver(inst.ObserveUpdate),
	)

	// Make sure there is something to open, then open it once
	dbPath := data.ResolvePath(cfg.DBPath)
	if err := controller.Bootstrap(ctx, dbPath); err != nil {
		return err
	}
	db, err := data.OpenMmdb(dbPath)
	if err != nil {
		return fmt.Errorf("open database %s: %w", dbPath, err)
	}
	defer db.Close()

	meta := db.Metadata()
	inst.SetDatabaseBuilt(db.BuildTime())
	slog.Info("database loaded", "path", dbPath, "px", meta.PackageVersion,
		"rows_ipv4", meta.RowsIPv4, "rows_ipv6", meta.RowsIPv6)

	gateway := lookup.NewGateway(db)

	ln, err := listener.New(logger.With("component", "listener")).Acquire(cfg.Bind)
	if err != nil {
		return err
	}

	routerCfg := server.RouterConfig{
		Gateway:         gateway,
		Draining:        handoff,
		Instrumentation: inst,
	}
	if registry != nil {
		routerCfg.Gatherer = registry
	}
	httpLogger := logger.With("component", "http")
	httpServer := server.New(server.NewRouter(httpLogger, routerCfg), httpLogger)

	var grpcServer *grpchandler.Server
	var grpcListener net.Listener
	if cfg.GRPCBind != "" {
		grpcListener, err = net.Listen("tcp", cfg.GRPCBind)
		if err != nil {
			ln.Close()
			return fmt.Errorf("%w: listen on %s: %w", listener.ErrAcquisition, cfg.GRPCBind, err)
		}
		grpcServer = grpchandler.NewServer(grpchandler.NewHandler(gateway), logger.With("component", "grpc"))
	}

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		return httpServer.Serve(groupCtx, ln)
	})
	if grpcServer != nil {
		group.Go(func() error {
			return grpcServer.Serve(groupCtx, grpcListener)
		})
	}
	group.Go(func() error {
		return controller.Run(groupCtx)
	})
	if cfg.Watch {
		watcher := updater.NewWatcher(dbPath, handoff, updaterLogger, 0)
		group.Go(func() error {
			return watcher.Run(groupCtx)
		})
	}
	group.Go(func() error {
		select {
		case <-handoff.Done():
		case <-groupCtx.Done():
		}
		if handoff.Signalled() {
			slog.Info("handoff requested, draining", "reason", handoff.Reason())
			inst.SetHandoffPending()
			if grpcServer != nil {
				grpcServer.SetDraining()
			}
		}
		notify(daemon.SdNotifyStopping)
		return nil
	})

	notify(daemon.SdNotifyReady)

	err = group.Wait()
	switch {
	case errors.Is(err, updater.ErrHandoff):
		slog.Info("service stopped for restart", "reason", handoff.Reason())
		return nil
	case err != nil:
		return err
	}
	slog.Info("service stopped")
	return nil
}

// notify reports state to the service manager; it is a no-op outside systemd.
func notify(state string) {
	if _, err := daemon.SdNotify(false, state); err != nil {
		slog.Warn("service manager notification failed", "state", state, "error", err)
	}
}
