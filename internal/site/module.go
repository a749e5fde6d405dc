package site

import (
	apphttp "trialbridge/internal/http"
	"trialbridge/platform/apperr"
	"trialbridge/platform/httpkit"

	"github.com/gin-gonic/gin"
)

// Module serves the navigation shell.
type Module struct {
	nav Navigation
}

// NewModule creates the site module.
func NewModule() *Module {
	return &Module{nav: DefaultNavigation()}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "site"
}

// RegisterRoutes mounts site routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.V1.GET("/navigation", m.getNavigation)
	ctx.V1.GET("/navigation/resolve", m.resolve)
}

// GET /api/v1/navigation
func (m *Module) getNavigation(c *gin.Context) {
	httpkit.OK(c, m.nav)
}

// GET /api/v1/navigation/resolve?href=/about
func (m *Module) resolve(c *gin.Context) {
	link, ok := m.nav.Lookup(c.Query("href"))
	if !ok {
		httpkit.HandleError(c, apperr.NotFound("page not found"))
		return
	}
	httpkit.OK(c, link)
}

var _ apphttp.Module = (*Module)(nil)
