package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/peermesh/signal-relay/internal/config"
	"github.com/peermesh/signal-relay/internal/delivery"
	"github.com/peermesh/signal-relay/internal/directory"
	"github.com/peermesh/signal-relay/internal/dispatch"
	"github.com/peermesh/signal-relay/internal/gateway"
	"github.com/peermesh/signal-relay/internal/httpserver"
	"github.com/peermesh/signal-relay/internal/metrics"
	"github.com/peermesh/signal-relay/internal/proof"
	"github.com/peermesh/signal-relay/internal/store/sqlite"
)

var (
	// Set via -ldflags at build time. Values may be empty in local/dev builds.
	buildCommit = ""
	buildTime   = ""
)

func main() {
	// An absent .env file is fine; the environment wins either way.
	_ = godotenv.Load()

	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	logger, err := config.NewLogger(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	slog.SetDefault(logger)

	logger.Info("starting signal-relay",
		"listen_addr", cfg.ListenAddr,
		"mode", cfg.Mode,
		"store_path", cfg.StorePath,
		"proofs_table", cfg.ProofsTable,
		"peers_table", cfg.PeersTable,
		"queue_url_set", cfg.QueueURL != "",
		"ice_server_count", len(cfg.ICEServers),
		"request_timeout", cfg.RequestTimeout,
	)

	store, err := sqlite.Open(cfg.StorePath, cfg.ProofsTable, cfg.PeersTable)
	if err != nil {
		logger.Error("failed to open store", "err", err)
		os.Exit(1)
	}
	defer func() { _ = store.Close() }()

	var channel delivery.Channel
	if cfg.QueueURL != "" {
		ws := delivery.NewWSChannel(cfg.QueueURL, logger)
		defer func() { _ = ws.Close() }()
		channel = ws
	} else {
		logger.Warn("no delivery channel configured, using in-memory channel")
		channel = delivery.NewMemoryChannel()
	}

	m := metrics.New()
	gw := gateway.New(gateway.Config{
		Verifier:   proof.NewVerifier(store, logger),
		Directory:  directory.New(store, logger, cfg.PeerTTL),
		Dispatcher: dispatch.New(channel, cfg.ICEServers, logger),
		Registry:   directory.NewRegistry(store, logger),
		Metrics:    m,
		Logger:     logger,
		Timeout:    cfg.RequestTimeout,
	})

	srv := httpserver.New(cfg, logger, httpserver.BuildInfo{Commit: buildCommit, BuildTime: buildTime})
	srv.SetMetrics(m)
	gw.Register(srv.Mux())

	ln, err := net.Listen("tcp", cfg.ListenAddr)
	if err != nil {
		logger.Error("failed to listen", "err", err)
		os.Exit(1)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stop:
		logger.Info("shutting down", "signal", sig.String())
		ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("shutdown failed", "err", err)
			os.Exit(1)
		}
	case err := <-errCh:
		if err != nil && !errors.Is(err, httpserver.ErrServerClosed) {
			logger.Error("server failed", "err", err)
			os.Exit(1)
		}
	}
}
