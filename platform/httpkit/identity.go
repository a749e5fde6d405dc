// Package httpkit provides HTTP utilities including session identity abstraction.
package httpkit

import (
	"context"
	"net/http"

	"trialbridge/platform/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ContextSessionIDKey is the gin context key for the anonymous session ID.
const ContextSessionIDKey = "sessionID"

// SetSessionID stores the session ID on the gin context and the request context.
func SetSessionID(c *gin.Context, id uuid.UUID) {
	c.Set(ContextSessionIDKey, id)
	ctx := context.WithValue(c.Request.Context(), logger.SessionIDKey, id.String())
	c.Request = c.Request.WithContext(ctx)
}

// GetSessionID extracts the anonymous session ID from a Gin context.
func GetSessionID(c *gin.Context) (uuid.UUID, bool) {
	value, ok := c.Get(ContextSessionIDKey)
	if !ok {
		return uuid.Nil, false
	}
	id, ok := value.(uuid.UUID)
	if !ok || id == uuid.Nil {
		return uuid.Nil, false
	}
	return id, true
}

// MustGetSessionID extracts the session ID or aborts with 500, since every
// session route runs behind the session middleware.
func MustGetSessionID(c *gin.Context) (uuid.UUID, bool) {
	id, ok := GetSessionID(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{Error: "session unavailable"})
		return uuid.Nil, false
	}
	return id, true
}
