package client

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"trialbridge/platform/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeminiReturnsReplyText(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.Contains(r.URL.Path, "gemini-test:generateContent"), r.URL.Path)
		body, _ := io.ReadAll(r.Body)
		assert.Contains(t, string(body), "inlineData")
		assert.Contains(t, string(body), "application/pdf")

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":"{\"summary\":\"ok\"}"}]}}]}`))
	}))
	defer server.Close()

	g := NewGemini(GeminiConfig{Model: "gemini-test", BaseURL: server.URL}, logger.Discard())
	reply, err := g.Complete(context.Background(), Request{
		APIKey: "key", Prompt: "prompt", Document: []byte("%PDF-1.4"), MIMEType: "application/pdf",
	})
	require.NoError(t, err)
	assert.Equal(t, `{"summary":"ok"}`, reply)
}

func TestGeminiSurfacesAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"code":400,"message":"API key not valid","status":"INVALID_ARGUMENT"}}`))
	}))
	defer server.Close()

	g := NewGemini(GeminiConfig{Model: "gemini-test", BaseURL: server.URL}, logger.Discard())
	_, err := g.Complete(context.Background(), Request{APIKey: "bad", Prompt: "p", MIMEType: "application/pdf"})

	var remote *RemoteError
	require.True(t, errors.As(err, &remote))
	assert.Equal(t, http.StatusBadRequest, remote.Status)
	assert.Equal(t, "API key not valid", remote.Message)
}
