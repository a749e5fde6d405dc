package handler

import (
	"net/http"

	"trialbridge/internal/intake/service"
	"trialbridge/internal/intake/transport"
	"trialbridge/platform/httpkit"
	"trialbridge/platform/validator"

	"github.com/gin-gonic/gin"
)

// Handler handles HTTP requests for the eligibility intake wizard.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
)

// New creates a new intake handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// GetForm returns the categories and their fields.
// GET /api/v1/intake/form
func (h *Handler) GetForm(c *gin.Context) {
	httpkit.OK(c, h.svc.Form())
}

// GetState returns the session's wizard state.
// GET /api/v1/intake/state
func (h *Handler) GetState(c *gin.Context) {
	sessionID, ok := httpkit.MustGetSessionID(c)
	if !ok {
		return
	}

	result, err := h.svc.State(c.Request.Context(), sessionID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// SelectStep jumps to a category.
// PUT /api/v1/intake/step
func (h *Handler) SelectStep(c *gin.Context) {
	var req transport.SelectStepRequest
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

	result, err := h.svc.SelectStep(c.Request.Context(), sessionID, *req.Index)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// SetAnswer records a field value.
// PUT /api/v1/intake/answers
func (h *Handler) SetAnswer(c *gin.Context) {
	var req transport.SetAnswerRequest
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

	result, err := h.svc.SetAnswer(c.Request.Context(), sessionID, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// Advance completes the current category and moves to the next.
// POST /api/v1/intake/advance
func (h *Handler) Advance(c *gin.Context) {
	sessionID, ok := httpkit.MustGetSessionID(c)
	if !ok {
		return
	}

	result, err := h.svc.Advance(c.Request.Context(), sessionID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// Retreat moves to the previous category.
// POST /api/v1/intake/retreat
func (h *Handler) Retreat(c *gin.Context) {
	sessionID, ok := httpkit.MustGetSessionID(c)
	if !ok {
		return
	}

	result, err := h.svc.Retreat(c.Request.Context(), sessionID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// Submit submits the form from the final category.
// POST /api/v1/intake/submit
func (h *Handler) Submit(c *gin.Context) {
	sessionID, ok := httpkit.MustGetSessionID(c)
	if !ok {
		return
	}

	result, err := h.svc.Submit(c.Request.Context(), sessionID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// Review returns advisory findings about the answers.
// GET /api/v1/intake/review
func (h *Handler) Review(c *gin.Context) {
	sessionID, ok := httpkit.MustGetSessionID(c)
	if !ok {
		return
	}

	result, err := h.svc.Review(c.Request.Context(), sessionID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// Reset discards the wizard state.
// DELETE /api/v1/intake/state
func (h *Handler) Reset(c *gin.Context) {
	sessionID, ok := httpkit.MustGetSessionID(c)
	if !ok {
		return
	}

	result, err := h.svc.Reset(c.Request.Context(), sessionID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}
