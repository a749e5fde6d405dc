package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"trialbridge/internal/cli"
	"trialbridge/internal/intake/domain"

	"github.com/mattn/go-isatty"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	catalog, err := domain.DefaultCatalog()
	if err != nil {
		return fmt.Errorf("loading intake catalog: %w", err)
	}

	app := &cli.App{Catalog: catalog}
	app.IsInteractive = func() bool {
		return isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())
	}

	return cli.NewIntakeCmd(app).ExecuteContext(ctx)
}
