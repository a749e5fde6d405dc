package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"trialbridge/platform/logger"

	"google.golang.org/genai"
)

const defaultGeminiModel = "gemini-2.5-flash"

// GeminiConfig configures the Gemini provider. BaseURL overrides the API
// endpoint and is empty in production.
type GeminiConfig struct {
	Model     string
	MaxTokens int
	BaseURL   string
}

// Gemini calls the Gemini API through the genai SDK. A client is built per
// request because every caller brings its own key.
type Gemini struct {
	config GeminiConfig
	log    *logger.Logger
}

// NewGemini creates the provider.
func NewGemini(cfg GeminiConfig, log *logger.Logger) *Gemini {
	if cfg.Model == "" {
		cfg.Model = defaultGeminiModel
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = defaultMaxTokens
	}
	return &Gemini{config: cfg, log: log}
}

func (g *Gemini) Name() string {
	return ProviderGemini
}

// Complete sends the prompt with the document as an inline blob.
func (g *Gemini) Complete(ctx context.Context, req Request) (string, error) {
	cc := &genai.ClientConfig{
		APIKey:  req.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if g.config.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: g.config.BaseURL}
	}

	cli, err := genai.NewClient(ctx, cc)
	if err != nil {
		return "", fmt.Errorf("create genai client: %w", err)
	}

	model := req.Model
	if model == "" {
		model = g.config.Model
	}

	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromText(req.Prompt),
			genai.NewPartFromBytes(req.Document, req.MIMEType),
		}, genai.RoleUser),
	}
	config := &genai.GenerateContentConfig{MaxOutputTokens: int32(g.config.MaxTokens)}

	resp, err := cli.Models.GenerateContent(ctx, model, contents, config)
	if err != nil {
		var apiErr genai.APIError
		if errors.As(err, &apiErr) {
			message := strings.TrimSpace(apiErr.Message)
			if message == "" {
				message = genericRemoteMessage
			}
			status := apiErr.Code
			if status == 0 {
				status = http.StatusBadGateway
			}
			remoteErr := &RemoteError{Provider: ProviderGemini, Status: status, Message: message}
			g.log.UpstreamError(ProviderGemini, status, remoteErr)
			return "", remoteErr
		}
		g.log.UpstreamError(ProviderGemini, 0, err)
		return "", &TransportError{Provider: ProviderGemini, Err: err}
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", ErrEmptyReply
	}
	return text, nil
}

var _ Provider = (*Gemini)(nil)
