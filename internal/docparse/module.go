// Package docparse provides the medical document parser bounded context module.
package docparse

import (
	"trialbridge/internal/docparse/client"
	"trialbridge/internal/docparse/handler"
	"trialbridge/internal/docparse/service"
	"trialbridge/internal/events"
	apphttp "trialbridge/internal/http"
	"trialbridge/internal/storage"
	"trialbridge/platform/config"
	"trialbridge/platform/httpkit"
	"trialbridge/platform/logger"
)

// Module is the document parser module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	limiter *httpkit.IPRateLimiter
}

// NewModule wires the OpenAI and Gemini providers from cfg. archive may be nil.
func NewModule(cfg config.DocParserConfig, archive storage.Archiver, bus events.Bus, log *logger.Logger) *Module {
	providers := []client.Provider{
		client.NewOpenAI(client.OpenAIConfig{
			URL:       cfg.GetDocParseOpenAIURL(),
			Model:     cfg.GetDocParseOpenAIModel(),
			MaxTokens: cfg.GetDocParseMaxTokens(),
		}, log),
		client.NewGemini(client.GeminiConfig{
			Model:     cfg.GetDocParseGeminiModel(),
			MaxTokens: cfg.GetDocParseMaxTokens(),
		}, log),
	}
	return NewModuleWithProviders(cfg, providers, archive, bus, log)
}

// NewModuleWithProviders builds the module over explicit providers.
func NewModuleWithProviders(cfg config.DocParserConfig, providers []client.Provider, archive storage.Archiver, bus events.Bus, log *logger.Logger) *Module {
	svc := service.New(service.Options{
		DefaultProvider: cfg.GetDocParseProvider(),
		MaxFileSize:     cfg.GetDocParseMaxFileSize(),
	}, providers, archive, bus, log)

	return &Module{
		handler: handler.New(svc),
		service: svc,
		limiter: httpkit.NewPerMinuteLimiter(cfg.GetDocParseRatePerMinute(), log),
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "docparse"
}

// Service returns the service layer for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts document routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.V1.GET("/documents/prompt", m.handler.Prompt)
	ctx.Session.POST("/documents/parse", m.limiter.RateLimit(), m.handler.Parse)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
