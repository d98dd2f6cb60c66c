package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/lifecode-app/lifecode-server/internal/pkg/logger"
	"github.com/lifecode-app/lifecode-server/internal/worker"
)

const appName = "lifecode_worker"

func main() {
	cfg, err := worker.NewEnvConfig(appName)
	if err != nil {
		panic(err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	log := logger.New(appName, cfg.Log)

	if err := worker.New(cfg, log).Run(ctx); err != nil {
		panic(err)
	}
}
