// Package intake provides the eligibility intake wizard bounded context module.
package intake

import (
	"trialbridge/internal/events"
	apphttp "trialbridge/internal/http"
	"trialbridge/internal/intake/domain"
	"trialbridge/internal/intake/handler"
	"trialbridge/internal/intake/service"
	"trialbridge/internal/session"
	"trialbridge/platform/logger"
	"trialbridge/platform/validator"
)

// Module is the intake bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates and initializes the intake module with all its dependencies.
func NewModule(catalog *domain.Catalog, store session.Store, bus events.Bus, val *validator.Validator, log *logger.Logger) *Module {
	svc := service.New(catalog, store, bus, log)
	return &Module{
		handler: handler.New(svc, val),
		service: svc,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "intake"
}

// Service returns the service layer for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts intake routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.V1.GET("/intake/form", m.handler.GetForm)

	group := ctx.Session.Group("/intake")
	group.GET("/state", m.handler.GetState)
	group.DELETE("/state", m.handler.Reset)
	group.PUT("/step", m.handler.SelectStep)
	group.PUT("/answers", m.handler.SetAnswer)
	group.POST("/advance", m.handler.Advance)
	group.POST("/retreat", m.handler.Retreat)
	group.POST("/submit", m.handler.Submit)
	group.GET("/review", m.handler.Review)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
