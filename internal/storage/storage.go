// Package storage archives parse results in S3-compatible object storage.
package storage

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/google/uuid"
)

// Archiver stores one object under key.
type Archiver interface {
	Put(ctx context.Context, key, contentType string, data []byte) error
}

// DocumentKey returns the object key for a parse result of a session:
// documents/<session>/<uuid>.json.
func DocumentKey(sessionID uuid.UUID) string {
	return path.Join("documents", sessionID.String(), uuid.NewString()+".json")
}

// ValidateKey rejects keys that would escape their prefix.
func ValidateKey(key string) error {
	if key == "" || strings.HasPrefix(key, "/") || strings.Contains(key, "..") {
		return fmt.Errorf("invalid object key %q", key)
	}
	return nil
}
