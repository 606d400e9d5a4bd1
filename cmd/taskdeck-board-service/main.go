// Copyright 2026 The Taskdeck Authors
// SPDX-License-Identifier: Apache-2.0

// The taskdeck-board-service command serves one or more task boards
// over a Unix-socket CBOR protocol. Agents claim, complete, unclaim,
// and review tasks through it; every accepted transition is appended
// to the history journal.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/taskdeck/taskdeck/lib/clock"
	"github.com/taskdeck/taskdeck/lib/config"
	"github.com/taskdeck/taskdeck/lib/coordination"
	"github.com/taskdeck/taskdeck/lib/history"
	"github.com/taskdeck/taskdeck/lib/service"
	"github.com/taskdeck/taskdeck/lib/version"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configPath  string
		showVersion bool
	)
	pflag.StringVar(&configPath, "config", "", "path to taskdeck.yaml (default: $TASKDECK_CONFIG)")
	pflag.BoolVar(&showVersion, "version", false, "print version information and exit")
	pflag.Parse()

	if showVersion {
		fmt.Printf("taskdeck-board-service %s\n", version.Info())
		return nil
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	var cfg *config.Config
	var err error
	if configPath != "" {
		cfg, err = config.LoadFile(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration: %w", err)
	}
	if err := cfg.EnsurePaths(); err != nil {
		return err
	}
	claimTTL, err := cfg.ClaimTTL()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	journal, err := history.Open(filepath.Join(cfg.Paths.State, "journal.cbor.zst"))
	if err != nil {
		return fmt.Errorf("opening history journal: %w", err)
	}
	defer journal.Close()

	clk := clock.Real()
	store := coordination.NewMemStore()
	core := coordination.NewCore(store, clk, coordination.Options{
		ClaimTTL: claimTTL,
		Recorder: journal,
		Logger:   logger,
	})

	boardService := &BoardService{
		store:     store,
		core:      core,
		clock:     clk,
		startedAt: clk.Now(),
		logger:    logger,
	}
	if err := boardService.seedBoards(cfg.Boards); err != nil {
		return err
	}

	socketServer := service.NewSocketServer(cfg.Service.SocketPath, logger)
	boardService.registerActions(socketServer)

	socketDone := make(chan error, 1)
	go func() {
		socketDone <- socketServer.Serve(ctx)
	}()

	logger.Info("board service running",
		"socket", cfg.Service.SocketPath,
		"boards", len(cfg.Boards),
		"claim_ttl", claimTTL.String(),
	)

	<-ctx.Done()
	logger.Info("shutting down")
	if err := <-socketDone; err != nil {
		logger.Error("socket server error", "error", err)
	}
	return nil
}

// BoardService is the core service state shared by all socket
// handlers.
type BoardService struct {
	store     *coordination.MemStore
	core      *coordination.Core
	clock     clock.Clock
	startedAt time.Time
	logger    *slog.Logger
}
