package client

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"trialbridge/platform/logger"
)

const (
	defaultOpenAIURL   = "https://api.openai.com/v1/chat/completions"
	defaultOpenAIModel = "gpt-4o"
	defaultMaxTokens   = 4096

	genericRemoteMessage = "API request failed"
)

// OpenAIConfig configures the chat completions client.
type OpenAIConfig struct {
	URL       string
	Model     string
	MaxTokens int
	Timeout   time.Duration
}

// OpenAI calls an OpenAI-compatible chat completions endpoint.
type OpenAI struct {
	config OpenAIConfig
	client *http.Client
	log    *logger.Logger
}

// NewOpenAI creates the client, filling in defaults for empty settings.
func NewOpenAI(cfg OpenAIConfig, log *logger.Logger) *OpenAI {
	if cfg.URL == "" {
		cfg.URL = defaultOpenAIURL
	}
	if cfg.Model == "" {
		cfg.Model = defaultOpenAIModel
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = defaultMaxTokens
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 2 * time.Minute
	}
	return &OpenAI{
		config: cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		log:    log,
	}
}

func (o *OpenAI) Name() string {
	return ProviderOpenAI
}

type chatContentPart struct {
	Type     string        `json:"type"`
	Text     string        `json:"text,omitempty"`
	ImageURL *chatImageURL `json:"image_url,omitempty"`
}

type chatImageURL struct {
	URL string `json:"url"`
}

type chatMessage struct {
	Role    string            `json:"role"`
	Content []chatContentPart `json:"content"`
}

type chatRequest struct {
	Model     string        `json:"model"`
	Messages  []chatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Complete sends one user message holding the prompt and the document as a
// base64 data URI. There is no retry.
func (o *OpenAI) Complete(ctx context.Context, req Request) (string, error) {
	model := req.Model
	if model == "" {
		model = o.config.Model
	}

	payload := chatRequest{
		Model: model,
		Messages: []chatMessage{{
			Role: "user",
			Content: []chatContentPart{
				{Type: "text", Text: req.Prompt},
				{Type: "image_url", ImageURL: &chatImageURL{URL: dataURI(req.MIMEType, req.Document)}},
			},
		}},
		MaxTokens: o.config.MaxTokens,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, o.config.URL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+req.APIKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(httpReq)
	if err != nil {
		o.log.UpstreamError(ProviderOpenAI, 0, err)
		return "", &TransportError{Provider: ProviderOpenAI, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &TransportError{Provider: ProviderOpenAI, Err: err}
	}

	var result chatResponse
	decodeErr := json.Unmarshal(raw, &result)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		message := genericRemoteMessage
		if decodeErr == nil && result.Error != nil && strings.TrimSpace(result.Error.Message) != "" {
			message = result.Error.Message
		}
		remoteErr := &RemoteError{Provider: ProviderOpenAI, Status: resp.StatusCode, Message: message}
		o.log.UpstreamError(ProviderOpenAI, resp.StatusCode, remoteErr)
		return "", remoteErr
	}

	if decodeErr != nil {
		return "", &RemoteError{Provider: ProviderOpenAI, Status: resp.StatusCode, Message: "malformed response body"}
	}
	if len(result.Choices) == 0 || strings.TrimSpace(result.Choices[0].Message.Content) == "" {
		return "", ErrEmptyReply
	}
	return result.Choices[0].Message.Content, nil
}

func dataURI(mimeType string, data []byte) string {
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

var _ Provider = (*OpenAI)(nil)
