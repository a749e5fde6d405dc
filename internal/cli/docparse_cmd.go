package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"trialbridge/internal/docparse/client"
	"trialbridge/internal/docparse/service"
	"trialbridge/internal/events"
	"trialbridge/platform/apperr"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

const apiKeyEnv = "DOCPARSE_API_KEY"

type parseFlags struct {
	apiKey    string
	provider  string
	model     string
	openAIURL string
	maxTokens int
}

// NewDocparseCmd returns the root command of the docparse binary.
func NewDocparseCmd(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:           "docparse",
		Short:         "Extract structured data from medical PDFs with an LLM",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newParseCmd(app))
	root.AddCommand(newPromptCmd(app))
	return root
}

func newParseCmd(app *App) *cobra.Command {
	var flags parseFlags

	cmd := &cobra.Command{
		Use:   "parse <file.pdf>",
		Short: "Parse one PDF and print the extracted JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runParse(cmd.Context(), app, flags, args[0])
		},
	}

	cmd.Flags().StringVar(&flags.apiKey, "api-key", "", "model provider API key (default $"+apiKeyEnv+")")
	cmd.Flags().StringVar(&flags.provider, "provider", client.ProviderOpenAI, "model provider: openai or gemini")
	cmd.Flags().StringVar(&flags.model, "model", "", "model name (provider default when empty)")
	cmd.Flags().StringVar(&flags.openAIURL, "openai-url", "", "chat completions endpoint override")
	cmd.Flags().IntVar(&flags.maxTokens, "max-tokens", 0, "reply token limit")
	return cmd
}

func newPromptCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "prompt",
		Short: "Print the extraction prompt sent with every document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc := service.New(service.Options{}, app.providers(parseFlags{}), nil, nil, app.logger())
			_, err := fmt.Fprintln(app.out(), svc.Prompt().Prompt)
			return err
		},
	}
}

func runParse(ctx context.Context, app *App, flags parseFlags, path string) error {
	if ctx == nil {
		ctx = context.Background()
	}

	apiKey := strings.TrimSpace(flags.apiKey)
	if apiKey == "" {
		apiKey = strings.TrimSpace(os.Getenv(apiKeyEnv))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	detected := mimetype.Detect(data)
	fmt.Fprintf(app.errOut(), "%s: %s, %d bytes\n", filepath.Base(path), detected.String(), len(data))

	log := app.logger()
	bus := events.NewInMemoryBus(log)
	svc := service.New(service.Options{DefaultProvider: flags.provider}, app.providers(flags), nil, bus, log)

	result, err := svc.Parse(ctx, service.Input{
		SessionID:    uuid.New(),
		FileName:     filepath.Base(path),
		ReportedType: detected.String(),
		Data:         data,
		APIKey:       apiKey,
		Provider:     flags.provider,
		Model:        flags.model,
	})
	if err != nil {
		return userError(err)
	}

	return writeJSON(app.out(), result)
}

func (a *App) providers(flags parseFlags) []client.Provider {
	if len(a.Providers) > 0 {
		return a.Providers
	}
	log := a.logger()
	return []client.Provider{
		client.NewOpenAI(client.OpenAIConfig{URL: flags.openAIURL, MaxTokens: flags.maxTokens}, log),
		client.NewGemini(client.GeminiConfig{MaxTokens: flags.maxTokens}, log),
	}
}

// userError reduces typed errors to the message a user should see.
func userError(err error) error {
	if appErr, ok := apperr.As(err); ok {
		return errors.New(appErr.Message)
	}
	return err
}
