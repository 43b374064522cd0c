package health

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/memloc/core/internal/pkg/cron"
	pkgredis "github.com/memloc/core/internal/pkg/redis"
	"github.com/memloc/core/internal/pkg/response"
	"gorm.io/gorm"
)

// RegisterRoutes exposes the liveness probe and an authed view of the
// background job states.
func RegisterRoutes(rg *gin.RouterGroup, db *gorm.DB, rc *pkgredis.Client, sched *cron.Scheduler, authMW gin.HandlerFunc) {
	rg.GET("/health", func(c *gin.Context) {
		sqlDB, err := db.DB()
		dbOK := err == nil && sqlDB.PingContext(c.Request.Context()) == nil
		redisOK := rc.Ping(c.Request.Context()) == nil

		status := "ok"
		code := http.StatusOK
		if !dbOK || !redisOK {
			status = "degraded"
			code = http.StatusServiceUnavailable
		}

		c.JSON(code, gin.H{
			"status":   status,
			"database": dbOK,
			"redis":    redisOK,
		})
	})

	rg.GET("/health/cron", authMW, func(c *gin.Context) {
		states := sched.States()
		items := make([]gin.H, 0, len(states))
		for _, st := range states {
			items = append(items, gin.H{
				"name":       st.Name,
				"interval":   st.Interval.String(),
				"last_run":   st.LastRun,
				"last_error": st.LastError,
			})
		}
		response.OK(c, items)
	})
}
