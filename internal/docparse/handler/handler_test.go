package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"trialbridge/internal/docparse"
	"trialbridge/internal/docparse/client"
	"trialbridge/internal/docparse/transport"
	"trialbridge/internal/events"
	apphttp "trialbridge/internal/http"
	"trialbridge/platform/config"
	"trialbridge/platform/httpkit"
	"trialbridge/platform/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var samplePDF = []byte("%PDF-1.4\n1 0 obj\n<< /Type /Catalog >>\nendobj\ntrailer\n<< /Root 1 0 R >>\n%%EOF\n")

type stubProvider struct {
	reply string
	err   error
	keys  []string
}

func (s *stubProvider) Name() string { return client.ProviderOpenAI }

func (s *stubProvider) Complete(_ context.Context, req client.Request) (string, error) {
	s.keys = append(s.keys, req.APIKey)
	return s.reply, s.err
}

func newEngine(t *testing.T, provider client.Provider, perMinute int) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{DocParseMaxFileSize: 1 << 20, DocParseRatePerMinute: perMinute}
	module := docparse.NewModuleWithProviders(cfg, []client.Provider{provider}, nil, events.NewInMemoryBus(logger.Discard()), logger.Discard())

	engine := gin.New()
	v1 := engine.Group("/api/v1")
	sessionGroup := v1.Group("")
	sessionGroup.Use(func(c *gin.Context) {
		httpkit.SetSessionID(c, uuid.New())
		c.Next()
	})
	module.RegisterRoutes(&apphttp.RouterContext{Engine: engine, V1: v1, Session: sessionGroup})
	return engine
}

type upload struct {
	fileType string
	data     []byte
	fields   map[string]string
	bearer   string
}

func (u upload) request(t *testing.T) *http.Request {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	if u.data != nil {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", `form-data; name="file"; filename="report.pdf"`)
		header.Set("Content-Type", u.fileType)
		part, err := w.CreatePart(header)
		require.NoError(t, err)
		_, err = part.Write(u.data)
		require.NoError(t, err)
	}
	for k, v := range u.fields {
		require.NoError(t, w.WriteField(k, v))
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents/parse", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	if u.bearer != "" {
		req.Header.Set("Authorization", "Bearer "+u.bearer)
	}
	return req
}

func serve(engine *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	return rec
}

func TestParseReturnsStructuredResult(t *testing.T) {
	provider := &stubProvider{reply: "```json\n{\"document_type\":\"oncology report\",\"metadata\":{\"date\":\"2024-01-05\"},\"key_parameters\":{\"stage\":\"II\"},\"summary\":\"Stage II.\"}\n```"}
	engine := newEngine(t, provider, 0)

	rec := serve(engine, upload{fileType: "application/pdf", data: samplePDF, fields: map[string]string{"apiKey": "sk-form"}}.request(t))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp transport.ParseResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "oncology report", resp.DocumentType)
	assert.Equal(t, "II", resp.KeyParameters["stage"])
	assert.Equal(t, "2024-01-05", resp.Metadata["date"])
	assert.Equal(t, []string{"sk-form"}, provider.keys)
}

func TestParseAcceptsBearerCredential(t *testing.T) {
	provider := &stubProvider{reply: `{"summary":"ok"}`}
	engine := newEngine(t, provider, 0)

	rec := serve(engine, upload{fileType: "application/pdf", data: samplePDF, bearer: "sk-header"}.request(t))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"sk-header"}, provider.keys)
}

func TestParseValidationFailures(t *testing.T) {
	cases := map[string]upload{
		"no file":      {fields: map[string]string{"apiKey": "k"}},
		"no key":       {fileType: "application/pdf", data: samplePDF},
		"wrong type":   {fileType: "image/png", data: samplePDF, fields: map[string]string{"apiKey": "k"}},
		"fake pdf":     {fileType: "application/pdf", data: []byte("just text"), fields: map[string]string{"apiKey": "k"}},
		"bad provider": {fileType: "application/pdf", data: samplePDF, fields: map[string]string{"apiKey": "k", "provider": "other"}},
	}
	for name, u := range cases {
		t.Run(name, func(t *testing.T) {
			provider := &stubProvider{reply: "{}"}
			engine := newEngine(t, provider, 0)

			rec := serve(engine, u.request(t))
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Empty(t, provider.keys, "no outbound call")
		})
	}
}

func TestParseErrorStatuses(t *testing.T) {
	cases := []struct {
		provider *stubProvider
		status   int
		message  string
	}{
		{&stubProvider{err: &client.RemoteError{Provider: "openai", Status: 429, Message: "Rate limit reached"}}, http.StatusBadGateway, "Rate limit reached"},
		{&stubProvider{reply: "Sorry, I can't help with that."}, http.StatusUnprocessableEntity, "failed to parse model response"},
	}
	for i, tc := range cases {
		t.Run(fmt.Sprint(i), func(t *testing.T) {
			engine := newEngine(t, tc.provider, 0)
			rec := serve(engine, upload{fileType: "application/pdf", data: samplePDF, fields: map[string]string{"apiKey": "k"}}.request(t))

			assert.Equal(t, tc.status, rec.Code)
			var body httpkit.ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tc.message, body.Error)
		})
	}
}

func TestParseRateLimited(t *testing.T) {
	engine := newEngine(t, &stubProvider{reply: `{"summary":"ok"}`}, 1)

	first := serve(engine, upload{fileType: "application/pdf", data: samplePDF, fields: map[string]string{"apiKey": "k"}}.request(t))
	second := serve(engine, upload{fileType: "application/pdf", data: samplePDF, fields: map[string]string{"apiKey": "k"}}.request(t))

	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
}

func TestPromptEndpoint(t *testing.T) {
	engine := newEngine(t, &stubProvider{}, 0)
	rec := serve(engine, httptest.NewRequest(http.MethodGet, "/api/v1/documents/prompt", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp transport.PromptResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp.Prompt, "Return ONLY the JSON object")
	assert.Equal(t, []string{"openai"}, resp.Providers)
}
