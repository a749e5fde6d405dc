package handler

import (
	"errors"
	"io"
	"net/http"

	"trialbridge/internal/trials/service"
	"trialbridge/internal/trials/transport"
	"trialbridge/platform/httpkit"
	"trialbridge/platform/validator"

	"github.com/gin-gonic/gin"
)

// Handler handles HTTP requests for the trial browser.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
)

// New creates a new trials handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// List returns the catalog with the session's marks and header counts.
// GET /api/v1/trials
func (h *Handler) List(c *gin.Context) {
	sessionID, ok := httpkit.MustGetSessionID(c)
	if !ok {
		return
	}

	result, err := h.svc.List(c.Request.Context(), sessionID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// Get returns one trial.
// GET /api/v1/trials/:id
func (h *Handler) Get(c *gin.Context) {
	sessionID, ok := httpkit.MustGetSessionID(c)
	if !ok {
		return
	}

	result, err := h.svc.Get(c.Request.Context(), sessionID, c.Param("id"))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// GetBrowser returns the browser state.
// GET /api/v1/trials/browser
func (h *Handler) GetBrowser(c *gin.Context) {
	sessionID, ok := httpkit.MustGetSessionID(c)
	if !ok {
		return
	}

	result, err := h.svc.Browser(c.Request.Context(), sessionID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// SelectTrial jumps to a trial.
// PUT /api/v1/trials/browser/selection
func (h *Handler) SelectTrial(c *gin.Context) {
	var req transport.SelectTrialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}
	sessionID, ok := httpkit.MustGetSessionID(c)
	if !ok {
		return
	}

	result, err := h.svc.SelectTrial(c.Request.Context(), sessionID, *req.Index)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// Next moves to the following trial.
// POST /api/v1/trials/browser/next
func (h *Handler) Next(c *gin.Context) {
	sessionID, ok := httpkit.MustGetSessionID(c)
	if !ok {
		return
	}

	result, err := h.svc.Next(c.Request.Context(), sessionID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// Previous moves to the preceding trial.
// POST /api/v1/trials/browser/previous
func (h *Handler) Previous(c *gin.Context) {
	sessionID, ok := httpkit.MustGetSessionID(c)
	if !ok {
		return
	}

	result, err := h.svc.Previous(c.Request.Context(), sessionID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// SelectTab switches the detail tab.
// PUT /api/v1/trials/browser/tab
func (h *Handler) SelectTab(c *gin.Context) {
	var req transport.SelectTabRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}
	sessionID, ok := httpkit.MustGetSessionID(c)
	if !ok {
		return
	}

	result, err := h.svc.SelectTab(c.Request.Context(), sessionID, req.Tab)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// ToggleSave flips the saved mark of a trial.
// POST /api/v1/trials/:id/save
func (h *Handler) ToggleSave(c *gin.Context) {
	sessionID, ok := httpkit.MustGetSessionID(c)
	if !ok {
		return
	}

	result, err := h.svc.ToggleSave(c.Request.Context(), sessionID, c.Param("id"))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// Apply records an application, optionally with contact details.
// POST /api/v1/trials/:id/apply
func (h *Handler) Apply(c *gin.Context) {
	var req transport.ApplyRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}
	sessionID, ok := httpkit.MustGetSessionID(c)
	if !ok {
		return
	}

	result, err := h.svc.Apply(c.Request.Context(), sessionID, c.Param("id"), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// Saved lists the saved trials.
// GET /api/v1/trials/saved
func (h *Handler) Saved(c *gin.Context) {
	sessionID, ok := httpkit.MustGetSessionID(c)
	if !ok {
		return
	}

	result, err := h.svc.Saved(c.Request.Context(), sessionID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// Applications lists the trials the session applied to.
// GET /api/v1/trials/applications
func (h *Handler) Applications(c *gin.Context) {
	sessionID, ok := httpkit.MustGetSessionID(c)
	if !ok {
		return
	}

	result, err := h.svc.Applications(c.Request.Context(), sessionID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// Eligibility checks the session's intake answers against a trial.
// GET /api/v1/trials/:id/eligibility
func (h *Handler) Eligibility(c *gin.Context) {
	sessionID, ok := httpkit.MustGetSessionID(c)
	if !ok {
		return
	}

	result, err := h.svc.Eligibility(c.Request.Context(), sessionID, c.Param("id"))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}
