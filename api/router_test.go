package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/beka-birhanu/maze-arcade/api/i"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

type pingController struct{}

func (pingController) RegisterPublic(r *gin.RouterGroup) {
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })
}

func (pingController) RegisterProtected(r *gin.RouterGroup) {
	r.GET("/secret", func(c *gin.Context) { c.String(http.StatusOK, "secret") })
}

func TestRouterHandler(t *testing.T) {
	deny := func(c *gin.Context) { c.AbortWithStatus(http.StatusUnauthorized) }
	metrics := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte("maze_arcade_attempts_started_total 0")) })

	h := NewRouter(Config{
		BaseURL:                 "/api",
		Mode:                    gin.TestMode,
		Controllers:             []i.Controller{pingController{}},
		AuthorizationMiddleware: deny,
		MetricsHandler:          metrics,
	}).Handler()

	cases := map[string]int{
		"/api/v1/ping":   http.StatusOK,
		"/api/v1/secret": http.StatusUnauthorized,
		"/metrics":       http.StatusOK,
		"/api/v1/none":   http.StatusNotFound,
	}
	for path, status := range cases {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, status, rec.Code, path)
	}
}
