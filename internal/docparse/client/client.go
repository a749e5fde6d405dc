// Package client provides the model providers the document parser calls.
package client

import (
	"context"
	"errors"
	"fmt"
)

const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

// Request is one extraction call. The credential belongs to the caller and
// is used for this request only.
type Request struct {
	APIKey   string
	Model    string
	Prompt   string
	Document []byte
	MIMEType string
}

// Provider sends a document with a prompt to a model and returns the reply text.
type Provider interface {
	Name() string
	Complete(ctx context.Context, req Request) (string, error)
}

// ErrEmptyReply is returned when the model answered without any text.
var ErrEmptyReply = errors.New("model returned an empty reply")

// RemoteError is a non-success answer from the provider.
type RemoteError struct {
	Provider string
	Status   int
	Message  string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("%s: status %d: %s", e.Provider, e.Status, e.Message)
}

// TransportError wraps a failure to reach the provider at all.
type TransportError struct {
	Provider string
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: request failed: %v", e.Provider, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
