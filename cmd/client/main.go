package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/awnumar/memguard"
	"github.com/dmitrijs2005/gophsession/internal/client/cli"
	"github.com/dmitrijs2005/gophsession/internal/client/config"
)

func main() {
	// Wipe enclaves and locked buffers on every exit path.
	defer memguard.Purge()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.LoadConfig()

	logger, syncLog, err := cli.NewLogger(cfg.LogFormat, cfg.StorageMetrics, os.Stderr)
	if err != nil {
		log.Printf("%v", err)
		return
	}
	defer syncLog()

	program, err := cli.NewProgram(ctx, cfg, logger, os.Stdin, os.Stdout)
	if err != nil {
		logger.Error(ctx, "startup failed", "error", err)
		return
	}
	defer func() {
		if err := program.Close(); err != nil {
			logger.Warn(ctx, "shutdown incomplete", "error", err)
		}
	}()

	if err := program.Run(ctx); err != nil {
		logger.Error(ctx, "client stopped", "error", err)
	}
}
