package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/udisondev/tttserver/internal/config"
	"github.com/udisondev/tttserver/internal/match"
)

func main() {
	portArg := flag.String("p", "", "TCP listen port (required)")
	configPath := flag.String("config", "", "optional YAML config file")
	flag.Parse()

	port, err := strconv.Atoi(*portArg)
	if err != nil || port <= 0 || strings.Trim(*portArg, "0123456789") != "" {
		fmt.Fprintln(os.Stderr, "usage: tttserver -p <port> [-config <path>]")
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGHUP)
	signal.Ignore(syscall.SIGPIPE)
	go func() {
		sig := <-sigCh
		slog.Info("shutting down", "signal", sig)
		cancel()
	}()

	if err := run(ctx, port, *configPath); err != nil {
		slog.Error("fatal", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, port int, configPath string) error {
	cfg := config.Default()
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		cfg = loaded
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: config.ParseLogLevel(cfg.LogLevel),
	})))

	slog.Info("tttserver starting",
		"port", port,
		"registry_capacity", cfg.RegistryCapacity,
		"read_timeout", cfg.ReadTimeoutDuration(),
		"write_timeout", cfg.WriteTimeoutDuration())

	srv := match.NewServer(cfg.RegistryCapacity, cfg.ReadTimeoutDuration(), cfg.WriteTimeoutDuration())

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Run(ctx, fmt.Sprintf(":%d", port))
	})

	if err := g.Wait(); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	slog.Info("shutdown complete")
	return nil
}
