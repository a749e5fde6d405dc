package session

import (
	apphttp "trialbridge/internal/http"
)

// Module registers the session lifecycle routes.
type Module struct {
	manager *Manager
	handler *Handler
}

// NewModule creates the session module around manager.
func NewModule(manager *Manager) *Module {
	return &Module{manager: manager, handler: NewHandler(manager)}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "session"
}

// Manager returns the session manager.
func (m *Module) Manager() *Manager {
	return m.manager
}

// RegisterRoutes mounts the session routes.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.V1.POST("/session", m.handler.Start)
	ctx.Session.DELETE("/session", m.handler.Clear)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
