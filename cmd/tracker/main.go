package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/samvad-hq/opennotify/internal/app"
	"github.com/samvad-hq/opennotify/internal/config"
	"github.com/samvad-hq/opennotify/internal/logger"
)

func main() {
	once := pflag.Bool("once", false, "run a single poll cycle and exit")
	pflag.Parse()

	if err := run(*once); err != nil {
		fmt.Fprintf(os.Stderr, "tracker: %v\n", err)
		os.Exit(1)
	}
}

func run(once bool) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logger.Init(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.InfoObj("tracker starting", "config", cfg)

	tracker, err := app.NewTracker(ctx, cfg, log)
	if err != nil {
		logger.ErrorObj("failed to initialize tracker", "error", err.Error())
		return fmt.Errorf("init tracker: %w", err)
	}

	started := time.Now()
	if once {
		err = tracker.Poll(ctx)
	} else {
		err = tracker.Run(ctx)
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.ErrorObj("tracker stopped with error", "error", err.Error())
		return err
	}

	logger.InfoObj("tracker stopped", "uptime", time.Since(started).Round(time.Second).String())
	return nil
}
