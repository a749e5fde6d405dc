package session

import (
	"net/http"

	"trialbridge/platform/httpkit"

	"github.com/gin-gonic/gin"
)

// Handler exposes explicit session lifecycle endpoints.
type Handler struct {
	manager *Manager
}

// NewHandler creates a session handler.
func NewHandler(manager *Manager) *Handler {
	return &Handler{manager: manager}
}

// Start issues a fresh session and token.
// POST /api/v1/session
func (h *Handler) Start(c *gin.Context) {
	issued, err := h.manager.Start(c)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, issued)
}

// Clear discards all state of the current session.
// DELETE /api/v1/session
func (h *Handler) Clear(c *gin.Context) {
	id, ok := httpkit.MustGetSessionID(c)
	if !ok {
		return
	}
	if httpkit.HandleError(c, h.manager.Clear(c.Request.Context(), id)) {
		return
	}
	httpkit.OK(c, httpkit.MessageResponse{Message: "session state cleared"})
}
