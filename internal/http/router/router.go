// Package router assembles the gin engine from the registered modules.
package router

import (
	"context"
	"net/http"
	"time"

	apphttp "trialbridge/internal/http"
	"trialbridge/platform/httpkit"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// New builds the HTTP engine: global middleware, health endpoints and every
// module's routes.
func New(app *apphttp.App) *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(httpkit.RequestID())
	engine.Use(httpkit.RequestLogger(app.Logger))
	engine.Use(httpkit.SecurityHeaders())
	engine.Use(cors.New(corsConfig(app.Config)))

	engine.GET("/api/health", func(c *gin.Context) {
		httpkit.OK(c, gin.H{"status": "ok"})
	})
	engine.GET("/api/ready", func(c *gin.Context) {
		if app.Health != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if err := app.Health.Ping(ctx); err != nil {
				app.Logger.Error("readiness check failed", "error", err)
				httpkit.JSON(c, http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
				return
			}
		}
		httpkit.OK(c, gin.H{"status": "ready"})
	})

	v1 := engine.Group("/api/v1")
	sessionGroup := v1.Group("")
	if app.SessionMiddleware != nil {
		sessionGroup.Use(app.SessionMiddleware)
	}

	routerCtx := &apphttp.RouterContext{
		Engine:  engine,
		V1:      v1,
		Session: sessionGroup,
	}

	for _, module := range app.Modules {
		module.RegisterRoutes(routerCtx)
		app.Logger.Debug("module routes registered", "module", module.Name())
	}

	return engine
}

func corsConfig(cfg apphttp.RouterConfig) cors.Config {
	corsCfg := cors.Config{
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Session-Token", httpkit.HeaderRequestID},
		ExposeHeaders:    []string{"X-Session-Token", httpkit.HeaderRequestID},
		AllowCredentials: cfg.GetCORSAllowCreds(),
		MaxAge:           12 * time.Hour,
	}
	if cfg.GetCORSAllowAll() {
		corsCfg.AllowAllOrigins = true
	} else if origins := cfg.GetCORSOrigins(); len(origins) > 0 {
		corsCfg.AllowOrigins = origins
	} else {
		corsCfg.AllowOriginFunc = func(string) bool { return false }
	}
	return corsCfg
}
