package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

// A nil Redis client stands in here: the middleware must not touch Redis at
// all for requests that are not keyed, so a repeated plain POST reaches the
// handler every time.
func TestIdempotencePassThrough(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("post without header runs the handler every time", func(t *testing.T) {
		calls := 0
		r := gin.New()
		r.Use(Idempotence(nil))
		r.POST("/memories/:id/unlock", func(c *gin.Context) {
			calls++
			c.JSON(http.StatusOK, gin.H{"unlocked": true})
		})

		body := `{"latitude":48.85,"longitude":2.35}`
		for i := 0; i < 2; i++ {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/memories/abc/unlock", strings.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
			r.ServeHTTP(w, req)
			assert.Equal(t, http.StatusOK, w.Code)
		}
		assert.Equal(t, 2, calls)
	})

	t.Run("get is never keyed", func(t *testing.T) {
		calls := 0
		r := gin.New()
		r.Use(Idempotence(nil))
		r.GET("/memories/abc", func(c *gin.Context) {
			calls++
			c.Status(http.StatusOK)
		})

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/memories/abc", nil)
		req.Header.Set("x-idempotence", "abc-123")
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, 1, calls)
	})
}
