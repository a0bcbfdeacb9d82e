// Kunhua Huang 2026

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ecstasoy/echoadd/pkg/config"
	"github.com/ecstasoy/echoadd/pkg/interceptor"
	"github.com/ecstasoy/echoadd/pkg/log"
	"github.com/ecstasoy/echoadd/pkg/server"
	"github.com/ecstasoy/echoadd/pkg/telemetry"
)

const shutdownTimeout = 5 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], nil); err != nil {
		fmt.Fprintln(os.Stderr, "echoadd-server:", err)
		os.Exit(1)
	}
}

// run serves until ctx is done. ready, if set, receives the bound address.
func run(ctx context.Context, args []string, ready func(addr string)) error {
	fs := flag.NewFlagSet("echoadd-server", flag.ContinueOnError)
	configPath := fs.String("config", "", "path to a YAML config file")
	addr := fs.String("addr", "", "listen address, overrides config")
	logLevel := fs.String("log-level", "", "log level, overrides config")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	if *addr != "" {
		cfg.Server.Address = *addr
	}
	if *logLevel != "" {
		cfg.Log.Level = *logLevel
	}

	logger := log.Setup(cfg.Log.Level)

	shutdownTracing, err := telemetry.Setup(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.Endpoint, cfg.Telemetry.Enabled)
	if err != nil {
		return fmt.Errorf("setup telemetry: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdownTracing(sctx); err != nil {
			logger.Warn("telemetry shutdown failed", "error", err)
		}
	}()

	opts, err := cfg.ServerOptions()
	if err != nil {
		return err
	}

	srv := server.NewServer(opts...)
	srv.Use(
		interceptor.Recovery(),
		interceptor.Logging(logger),
		interceptor.Metrics(),
		interceptor.Tracing(),
	)

	if err := srv.Listen(ctx); err != nil {
		return err
	}
	logger.Info("server listening", "address", srv.Addr(), "codec", cfg.Server.Codec, "framing", cfg.Server.Framing)

	if cfg.Metrics.Address != "" {
		metricsSrv := serveMetrics(cfg.Metrics.Address)
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			_ = metricsSrv.Shutdown(sctx)
		}()
	}

	if ready != nil {
		ready(srv.Addr())
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		<-ctx.Done()
		logger.Info("shutting down")
		srv.Stop()
	}()

	if err := srv.Serve(); err != nil {
		return err
	}

	stats := srv.Stats()
	logger.Info("server stopped",
		"total_connections", stats.TotalConnections,
		"messages_handled", stats.MessagesHandled,
		"decode_errors", stats.DecodeErrors,
	)
	return nil
}

func serveMetrics(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Get().Error("metrics server failed", "address", addr, "error", err)
		}
	}()

	log.Get().Info("metrics listening", "address", addr)
	return srv
}
