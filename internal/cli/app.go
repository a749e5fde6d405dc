// Package cli holds the cobra commands behind the docparse and intake
// binaries.
package cli

import (
	"encoding/json"
	"io"
	"os"

	"trialbridge/internal/docparse/client"
	intakedomain "trialbridge/internal/intake/domain"
	"trialbridge/platform/logger"
)

// App carries the dependencies the commands need. Zero fields fall back to
// the process defaults.
type App struct {
	Out io.Writer
	Err io.Writer
	Log *logger.Logger

	// Providers overrides the model providers built from flags.
	Providers []client.Provider

	Catalog       *intakedomain.Catalog
	Prompter      Prompter
	IsInteractive func() bool
}

func (a *App) out() io.Writer {
	if a.Out == nil {
		return os.Stdout
	}
	return a.Out
}

func (a *App) errOut() io.Writer {
	if a.Err == nil {
		return os.Stderr
	}
	return a.Err
}

func (a *App) logger() *logger.Logger {
	if a.Log == nil {
		return logger.Discard()
	}
	return a.Log
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
