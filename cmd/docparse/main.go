package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"trialbridge/internal/cli"
	"trialbridge/platform/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	app := &cli.App{Log: logger.NewWithWriter(os.Getenv("APP_ENV"), os.Stderr)}
	if err := cli.NewDocparseCmd(app).ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
