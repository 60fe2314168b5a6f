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

	"golang.org/x/sync/errgroup"

	"github.com/udisondev/somnuscape/internal/account"
	"github.com/udisondev/somnuscape/internal/broker"
	"github.com/udisondev/somnuscape/internal/config"
	"github.com/udisondev/somnuscape/internal/engine"
	"github.com/udisondev/somnuscape/internal/generation"
	"github.com/udisondev/somnuscape/internal/llm"
	"github.com/udisondev/somnuscape/internal/session"
	"github.com/udisondev/somnuscape/internal/world"
)

const (
	configPath    = "config.yaml"
	stateDir      = "somnustate"
	registryPath  = "somnustate/player-registry.yaml"
	worldSavePath = "somnustate/world.yaml"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("shutting down", "signal", sig)
		cancel()
	}()

	if err := run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("fatal", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	})))
	slog.Info("somnuscape starting", "address", cfg.ServerAddress, "log_level", cfg.LogLevel)

	if err := os.MkdirAll(stateDir, 0o755); err != nil {
		return fmt.Errorf("creating state directory: %w", err)
	}

	accounts, err := account.LoadOrNew(registryPath)
	if err != nil {
		return fmt.Errorf("loading player registry: %w", err)
	}
	slog.Info("player registry loaded", "accounts", accounts.Len())

	w, err := world.LoadOrNew(worldSavePath)
	if err != nil {
		return fmt.Errorf("loading world: %w", err)
	}
	slog.Info("world loaded", "places", len(w.Places), "tick", w.CurrentTick)

	gen := generation.New(llm.New(cfg))
	pb, eb := broker.New()
	eng := engine.New(cfg, w, accounts, eb, gen, worldSavePath)

	ln, err := net.Listen("tcp", cfg.ServerAddress)
	if err != nil {
		return fmt.Errorf("binding %s: %w", cfg.ServerAddress, err)
	}

	// The engine gets its own goroutine outside the group: it owns the
	// world and must never be scheduled behind session work.
	go func() {
		if err := eng.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			slog.Error("engine stopped", "err", err)
		}
	}()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		<-ctx.Done()
		ln.Close()
		return nil
	})
	g.Go(func() error { return gen.Run(ctx) })
	g.Go(func() error { return acceptLoop(ctx, ln, accounts, pb) })
	return g.Wait()
}

// acceptLoop hands every incoming connection to its own session task.
func acceptLoop(ctx context.Context, ln net.Listener, accounts *account.Store, pb *broker.PlayerBroker) error {
	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return ctx.Err()
			}
			slog.Error("accepting connection", "err", err)
			continue
		}
		slog.Info("client connected", "remote", conn.RemoteAddr())
		go session.Handle(conn, accounts, pb)
	}
}
