package handler

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"trialbridge/internal/docparse/service"
	"trialbridge/platform/apperr"
	"trialbridge/platform/httpkit"

	"github.com/gin-gonic/gin"
)

// Handler handles HTTP requests for the document parser.
type Handler struct {
	svc *service.Service
}

const (
	msgInvalidRequest = "invalid request"
	multipartOverhead = 1 << 20
)

// New creates a new document parser handler.
func New(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// Parse extracts structured data from an uploaded PDF.
// POST /api/v1/documents/parse
func (h *Handler) Parse(c *gin.Context) {
	limit := h.svc.MaxFileSize()
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit+multipartOverhead)

	var in service.Input
	fileHeader, err := c.FormFile("file")
	switch {
	case errors.Is(err, http.ErrMissingFile):
	case err != nil:
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			httpkit.HandleError(c, apperr.Validation("file exceeds the maximum upload size"))
			return
		}
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	default:
		file, err := fileHeader.Open()
		if err != nil {
			httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
			return
		}
		data, err := io.ReadAll(io.LimitReader(file, limit+1))
		_ = file.Close()
		if err != nil {
			httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
			return
		}
		in.FileName = fileHeader.Filename
		in.ReportedType = fileHeader.Header.Get("Content-Type")
		in.Data = data
	}

	in.APIKey = strings.TrimSpace(c.PostForm("apiKey"))
	if in.APIKey == "" {
		if token, ok := httpkit.ExtractBearerToken(c.GetHeader("Authorization")); ok {
			in.APIKey = token
		}
	}
	in.Provider = c.PostForm("provider")
	in.Model = strings.TrimSpace(c.PostForm("model"))

	sessionID, ok := httpkit.MustGetSessionID(c)
	if !ok {
		return
	}
	in.SessionID = sessionID

	result, err := h.svc.Parse(c.Request.Context(), in)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// Prompt returns the extraction prompt and the available providers.
// GET /api/v1/documents/prompt
func (h *Handler) Prompt(c *gin.Context) {
	httpkit.OK(c, h.svc.Prompt())
}
