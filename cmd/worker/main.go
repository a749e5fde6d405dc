package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"trialbridge/internal/email"
	intakedomain "trialbridge/internal/intake/domain"
	"trialbridge/internal/scheduler"
	"trialbridge/platform/config"
	"trialbridge/platform/logger"

	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting worker", "env", cfg.Env, "queue", cfg.GetAsynqQueueName())

	if !cfg.IsRedisEnabled() {
		panic("REDIS_URL is required for the worker")
	}
	if !cfg.IsEmailEnabled() {
		log.Warn("SMTP not configured; notification emails are dropped")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	catalog, err := intakedomain.DefaultCatalog()
	if err != nil {
		log.Error("failed to load intake catalog", "error", err)
		panic("failed to load intake catalog: " + err.Error())
	}

	handlers := scheduler.NewHandlers(email.NewSender(cfg), catalog, cfg.GetIntakeNotifyEmail(), log)
	worker, err := scheduler.NewWorker(cfg, handlers, log)
	if err != nil {
		log.Error("failed to initialize scheduler worker", "error", err)
		panic("failed to initialize scheduler worker: " + err.Error())
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return worker.Run(gctx)
	})

	if err := g.Wait(); err != nil {
		log.Error("worker exited", "error", err)
		os.Exit(1)
	}
	log.Info("worker stopped")
}
