package app

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/memloc/core/internal/middleware"
	"github.com/memloc/core/internal/modules/account"
	"github.com/memloc/core/internal/modules/follow"
	"github.com/memloc/core/internal/modules/health"
	"github.com/memloc/core/internal/modules/journey"
	"github.com/memloc/core/internal/modules/memory"
	"github.com/memloc/core/internal/modules/storage/file"
	pkgredis "github.com/memloc/core/internal/pkg/redis"
	"github.com/memloc/core/internal/pkg/response"
)

const apiPrefix = "/api/v1"

func (a *App) registerRoutes(rc *pkgredis.Client, memSvc *memory.Service) {
	r := a.router
	db := a.db
	authMW := middleware.Auth(db)

	r.NoRoute(func(c *gin.Context) {
		response.NotFound(c)
	})
	r.NoMethod(func(c *gin.Context) {
		response.MethodNotAllowed(c)
	})

	appInfo := gin.H{
		"name":    "memloc-core",
		"version": "1.0.0",
	}

	api := r.Group(apiPrefix)
	api.Use(middleware.OptionalAuth(db))
	// After OptionalAuth so authenticated traffic is exempt from the
	// anonymous rate limit.
	api.Use(middleware.RateLimit(rc.Raw()))
	api.Use(middleware.Idempotence(rc.Raw()))

	// Infrastructure
	health.RegisterRoutes(api, db, rc, a.sched, authMW)
	api.GET("", func(c *gin.Context) { c.PureJSON(http.StatusOK, appInfo) })
	api.GET("/info", func(c *gin.Context) { c.PureJSON(http.StatusOK, appInfo) })
	api.GET("/ping", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"data": "pong"}) })
	api.GET("/uptime", func(c *gin.Context) {
		uptimeMs := time.Since(processStart).Milliseconds()
		c.JSON(http.StatusOK, gin.H{
			"timestamp": uptimeMs,
			"humanize":  humanizeDuration(time.Duration(uptimeMs) * time.Millisecond),
		})
	})

	// Accounts & social graph
	followSvc := follow.NewService(db)
	account.NewHandler(account.NewService(db), followSvc, memSvc).RegisterRoutes(api, authMW)
	follow.NewHandler(followSvc).RegisterRoutes(api, authMW)

	// Memories & journeys
	memory.NewHandler(memSvc).RegisterRoutes(api, authMW)
	journey.NewHandler(journey.NewService(db, memSvc)).RegisterRoutes(api, authMW)

	// Media assets
	file.NewHandler(db, a.cfg, a.logger).RegisterRoutes(api, authMW)
}
