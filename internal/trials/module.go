// Package trials provides the trial browser bounded context module.
package trials

import (
	"trialbridge/internal/events"
	apphttp "trialbridge/internal/http"
	"trialbridge/internal/session"
	"trialbridge/internal/trials/domain"
	"trialbridge/internal/trials/handler"
	"trialbridge/internal/trials/service"
	"trialbridge/platform/config"
	"trialbridge/platform/logger"
	"trialbridge/platform/validator"
)

// Module is the trials bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates and initializes the trials module with all its dependencies.
func NewModule(catalog *domain.Catalog, store session.Store, bus events.Bus, cfg config.ContactConfig, val *validator.Validator, log *logger.Logger) *Module {
	svc := service.New(catalog, store, bus, cfg, log)
	return &Module{
		handler: handler.New(svc, val),
		service: svc,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "trials"
}

// Service returns the service layer for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts trial routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.Session.Group("/trials")
	group.GET("", m.handler.List)
	group.GET("/saved", m.handler.Saved)
	group.GET("/applications", m.handler.Applications)

	group.GET("/browser", m.handler.GetBrowser)
	group.PUT("/browser/selection", m.handler.SelectTrial)
	group.POST("/browser/next", m.handler.Next)
	group.POST("/browser/previous", m.handler.Previous)
	group.PUT("/browser/tab", m.handler.SelectTab)

	group.GET("/:id", m.handler.Get)
	group.POST("/:id/save", m.handler.ToggleSave)
	group.POST("/:id/apply", m.handler.Apply)
	group.GET("/:id/eligibility", m.handler.Eligibility)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
