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
	"time"

	"github.com/relaygate/relaygate/internal/api"
	"github.com/relaygate/relaygate/internal/config"
	"github.com/relaygate/relaygate/internal/probe"
	"github.com/relaygate/relaygate/internal/relay"
	"github.com/relaygate/relaygate/internal/tunnel"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	slog.Info("relaygate starting", "config", *configPath)

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}
	gw := cfg.Gateway

	slog.Info("config loaded",
		"http_port", gw.HTTPPort,
		"backend_url", gw.Backend.URL,
		"relay_timeout", gw.Relay.Timeout,
		"base_dir", gw.BaseDir,
	)

	// One tunnel client, shared by the relay routes and the prober.
	client := tunnel.New(gw.Backend.URL, gw.Backend.Secret())
	if client.SecretLength() == 0 {
		slog.Warn("outbound secret is empty — forwarding to the backend unauthenticated",
			"secret_env", gw.Backend.SecretEnv)
	}

	prober := probe.New(client, gw.Probe)

	// Each protected prefix relays to the backend; the business logic of
	// files/chat/terminal lives behind the tunnel, not in the gateway.
	forward := relay.Handler(client, gw.Relay.Timeout)
	handler := api.New(gw.Auth.Token(), api.Routes{
		Files:    forward,
		File:     forward,
		Chat:     forward,
		Terminal: forward,
	}, prober)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", gw.HTTPPort),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		slog.Info("gateway listening", "port", gw.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server stopped", "err", err)
			cancel()
		}
	}()

	<-ctx.Done()
	slog.Info("relaygate shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	srv.Shutdown(shutdownCtx) //nolint:errcheck
}
