package main

import (
	"errors"
	"os/signal"
	"syscall"

	"github.com/debanirmalya/hirebuddy/config"
	"github.com/debanirmalya/hirebuddy/internal/logger"
	"github.com/spf13/cobra"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Run pipeline workers on the Redis task stream",
	RunE:  runWorker,
}

func init() {
	rootCmd.AddCommand(workerCmd)
}

func runWorker(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if cfg.QueueBackend != "redis" {
		return errors.New("worker needs QUEUE_BACKEND=redis; the memory queue runs inside serve")
	}
	log := logger.New(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	d, err := buildDeps(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer d.Close()

	pool := newWorkerPool(d)
	if err := pool.Start(ctx); err != nil {
		return err
	}

	<-ctx.Done()
	log.Info("worker stopping")
	pool.Wait()
	return nil
}
