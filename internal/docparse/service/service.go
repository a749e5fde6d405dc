// Package service validates uploads and runs one extraction per request
// against the selected model provider.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strings"
	"sync"

	"trialbridge/internal/docparse/client"
	"trialbridge/internal/docparse/domain"
	"trialbridge/internal/docparse/transport"
	"trialbridge/internal/events"
	"trialbridge/internal/storage"
	"trialbridge/platform/apperr"
	"trialbridge/platform/logger"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

const (
	// DefaultMaxFileSize bounds uploads when no limit is configured.
	DefaultMaxFileSize int64 = 20 << 20

	msgMissingInput   = "please provide both a PDF file and API key"
	msgNotPDF         = "please select a valid PDF file"
	msgTooLarge       = "file exceeds the maximum upload size"
	msgBusy           = "a document is already being parsed for this session"
	msgParseFailed    = "failed to parse model response"
	msgUnknownVendor  = "unknown provider"
	msgProviderFailed = "could not reach the model provider"
)

// Input is one parse request.
type Input struct {
	SessionID    uuid.UUID
	FileName     string
	ReportedType string
	Data         []byte
	APIKey       string
	Provider     string
	Model        string
}

// Options configures the service.
type Options struct {
	DefaultProvider string
	MaxFileSize     int64
}

// Service runs document extractions.
type Service struct {
	providers       map[string]client.Provider
	defaultProvider string
	maxFileSize     int64
	archive         storage.Archiver
	bus             events.Bus
	log             *logger.Logger
	inflight        sync.Map
}

// New creates the service. archive may be nil, in which case results are not stored.
func New(opts Options, providers []client.Provider, archive storage.Archiver, bus events.Bus, log *logger.Logger) *Service {
	byName := make(map[string]client.Provider, len(providers))
	for _, p := range providers {
		byName[p.Name()] = p
	}
	if opts.DefaultProvider == "" {
		opts.DefaultProvider = client.ProviderOpenAI
	}
	if opts.MaxFileSize <= 0 {
		opts.MaxFileSize = DefaultMaxFileSize
	}
	return &Service{
		providers:       byName,
		defaultProvider: opts.DefaultProvider,
		maxFileSize:     opts.MaxFileSize,
		archive:         archive,
		bus:             bus,
		log:             log,
	}
}

// MaxFileSize returns the upload limit in bytes.
func (s *Service) MaxFileSize() int64 {
	return s.maxFileSize
}

// Prompt describes the extraction prompt and the available providers.
func (s *Service) Prompt() transport.PromptResponse {
	names := make([]string, 0, len(s.providers))
	for name := range s.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return transport.PromptResponse{Prompt: domain.ExtractionPrompt, Providers: names}
}

// Validate checks an input without side effects.
func (s *Service) Validate(in Input) error {
	if len(in.Data) == 0 || strings.TrimSpace(in.APIKey) == "" {
		return apperr.Validation(msgMissingInput)
	}
	if !isPDFType(in.ReportedType) {
		return apperr.Validation(msgNotPDF)
	}
	if int64(len(in.Data)) > s.maxFileSize {
		return apperr.Validation(msgTooLarge)
	}
	if !mimetype.Detect(in.Data).Is(domain.PDFMIMEType) {
		return apperr.Validation(msgNotPDF)
	}
	if _, err := s.provider(in.Provider); err != nil {
		return err
	}
	return nil
}

// Parse validates the input, calls the provider once and decodes its reply.
func (s *Service) Parse(ctx context.Context, in Input) (transport.ParseResponse, error) {
	if err := s.Validate(in); err != nil {
		return transport.ParseResponse{}, err
	}
	provider, _ := s.provider(in.Provider)

	if _, busy := s.inflight.LoadOrStore(in.SessionID, struct{}{}); busy {
		return transport.ParseResponse{}, apperr.Conflict(msgBusy)
	}
	defer s.inflight.Delete(in.SessionID)

	log := s.log.WithContext(ctx)
	reply, err := provider.Complete(ctx, client.Request{
		APIKey:   strings.TrimSpace(in.APIKey),
		Model:    in.Model,
		Prompt:   domain.ExtractionPrompt,
		Document: in.Data,
		MIMEType: domain.PDFMIMEType,
	})
	if err != nil {
		return transport.ParseResponse{}, mapProviderError(err)
	}

	result, err := domain.ParseReply(reply)
	if err != nil {
		log.Warn("model reply could not be parsed", "provider", provider.Name(), "error", err)
		return transport.ParseResponse{}, apperr.Unprocessable(msgParseFailed, err)
	}

	resp := transport.ParseResponse{
		DocumentType:  result.DocumentType,
		Metadata:      result.Metadata,
		KeyParameters: result.KeyParameters,
		Summary:       result.Summary,
		Raw:           result.Raw,
		Provider:      provider.Name(),
	}

	if s.archive != nil {
		resp.ArchiveKey = s.store(ctx, in.SessionID, resp)
	}

	s.bus.Publish(ctx, events.DocumentParsed{
		BaseEvent:    events.NewBaseEvent(),
		SessionID:    in.SessionID,
		Provider:     provider.Name(),
		DocumentType: result.DocumentType,
		ArchiveKey:   resp.ArchiveKey,
	})
	log.Info("document parsed", "provider", provider.Name(), "documentType", result.DocumentType, "bytes", len(in.Data))

	return resp, nil
}

// Busy reports whether a parse is in flight for the session.
func (s *Service) Busy(sessionID uuid.UUID) bool {
	_, ok := s.inflight.Load(sessionID)
	return ok
}

func (s *Service) provider(name string) (client.Provider, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		name = s.defaultProvider
	}
	p, ok := s.providers[name]
	if !ok {
		return nil, apperr.Validation(msgUnknownVendor)
	}
	return p, nil
}

// store archives the result and returns its key, or "" when archiving failed.
func (s *Service) store(ctx context.Context, sessionID uuid.UUID, resp transport.ParseResponse) string {
	data, err := json.Marshal(resp)
	if err != nil {
		s.log.Error("failed to encode parse result for archive", "error", err)
		return ""
	}
	key := storage.DocumentKey(sessionID)
	if err := s.archive.Put(ctx, key, "application/json", data); err != nil {
		s.log.WithContext(ctx).Error("failed to archive parse result", "key", key, "error", err)
		return ""
	}
	return key
}

func mapProviderError(err error) error {
	var remote *client.RemoteError
	if errors.As(err, &remote) {
		return apperr.Upstream(remote.Message, err)
	}
	if errors.Is(err, client.ErrEmptyReply) {
		return apperr.Unprocessable(msgParseFailed, err)
	}
	return apperr.Upstream(msgProviderFailed, err)
}

func isPDFType(reported string) bool {
	mediaType := strings.TrimSpace(strings.ToLower(strings.Split(reported, ";")[0]))
	return mediaType == domain.PDFMIMEType
}
