package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/nori266/hn-filtered/internal/app"
	"github.com/nori266/hn-filtered/internal/config"
	"github.com/nori266/hn-filtered/internal/logging"
)

func main() {
	history := flag.Bool("history", false, "print stored relevant items instead of running the pipeline")
	historyWindow := flag.Duration("history-window", 0, "restrict -history to items published within this window (0 = all)")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		logging.New("error", "text").Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	logger := logging.New(cfg.Logging.Level, cfg.Logging.Format)

	application, err := app.New(cfg, logger)
	if err != nil {
		logger.Error("startup failed", "error", err)
		os.Exit(1)
	}
	defer func() { _ = application.Close() }()

	if *history {
		if err := application.History(ctx, *historyWindow); err != nil {
			logger.Error("history failed", "error", err)
			os.Exit(1)
		}
		return
	}

	if err := application.Run(ctx); err != nil {
		logger.Error("application stopped", "error", err)
		os.Exit(1)
	}
}
