// Package session tracks anonymous browser sessions and the per-session
// state documents the wizard, the trial browser and the parser keep.
package session

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// Kinds of state kept per session.
const (
	KindIntake  = "intake"
	KindBrowser = "browser"
)

// Store keeps opaque per-session state documents with an expiry.
type Store interface {
	// Get returns the document, or ok=false when none exists.
	Get(ctx context.Context, id uuid.UUID, kind string) (data []byte, ok bool, err error)
	// Update atomically replaces the document with fn's result. fn receives
	// nil when no document exists. Errors from fn are returned unchanged and
	// leave the stored document untouched.
	Update(ctx context.Context, id uuid.UUID, kind string, fn func(current []byte) ([]byte, error)) ([]byte, error)
	// Delete removes the given kinds for the session.
	Delete(ctx context.Context, id uuid.UUID, kinds ...string) error
}

// Load decodes the document of the given kind, falling back to initial().
func Load[T any](ctx context.Context, store Store, id uuid.UUID, kind string, initial func() T) (T, error) {
	data, ok, err := store.Get(ctx, id, kind)
	if err != nil {
		var zero T
		return zero, err
	}
	if !ok {
		return initial(), nil
	}
	return decode(data, kind, initial)
}

// Mutate applies fn to the decoded document and stores the result atomically.
func Mutate[T any](ctx context.Context, store Store, id uuid.UUID, kind string, initial func() T, fn func(T) (T, error)) (T, error) {
	var result T
	_, err := store.Update(ctx, id, kind, func(current []byte) ([]byte, error) {
		state := initial()
		if current != nil {
			decoded, err := decode(current, kind, initial)
			if err != nil {
				return nil, err
			}
			state = decoded
		}

		next, err := fn(state)
		if err != nil {
			return nil, err
		}
		result = next
		return json.Marshal(next)
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return result, nil
}

func decode[T any](data []byte, kind string, initial func() T) (T, error) {
	state := initial()
	if err := json.Unmarshal(data, &state); err != nil {
		var zero T
		return zero, fmt.Errorf("decode %s state: %w", kind, err)
	}
	return state, nil
}

func stateKey(id uuid.UUID, kind string) string {
	return "trialbridge:session:" + id.String() + ":" + kind
}
