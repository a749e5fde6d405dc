// Package http defines what the router needs from the composition root and
// from each bounded context.
package http

import (
	"context"

	"trialbridge/platform/config"
	"trialbridge/platform/events"
	"trialbridge/platform/logger"

	"github.com/gin-gonic/gin"
)

// RouterConfig is the configuration the router reads.
type RouterConfig interface {
	config.HTTPConfig
}

// HealthChecker backs /api/ready.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// App is assembled in cmd/api and handed to router.New.
type App struct {
	Config RouterConfig
	Logger *logger.Logger
	// Health is nil when no backing service is configured; the API is then always ready.
	Health   HealthChecker
	EventBus events.Bus
	// SessionMiddleware resolves or issues the anonymous session for the Session group.
	SessionMiddleware gin.HandlerFunc
	Modules           []Module
}

// Module is a bounded context that mounts its own routes.
type Module interface {
	Name() string
	RegisterRoutes(ctx *RouterContext)
}

// RouterContext exposes the route groups a module may mount on.
type RouterContext struct {
	Engine *gin.Engine
	// V1 is /api/v1 without a session.
	V1 *gin.RouterGroup
	// Session is /api/v1 behind the session middleware. Handlers on it can
	// rely on httpkit.GetSessionID.
	Session *gin.RouterGroup
}
