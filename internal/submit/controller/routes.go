package controller

import (
	"context"
	"net/http"
	"time"

	appErr "codepractice/pkg/errors"
	"codepractice/pkg/utils/response"

	"github.com/gin-gonic/gin"
)

// RouteMiddleware groups the per-route middleware chains.
type RouteMiddleware struct {
	Auth        gin.HandlerFunc
	ExecuteRate gin.HandlerFunc
	SubmitRate  gin.HandlerFunc
}

// RegisterRoutes mounts the API on router.
func RegisterRoutes(router gin.IRouter, ctrl *SubmitController, mw RouteMiddleware) {
	api := router.Group("/api/v1")
	api.POST("/execute", chain(mw.ExecuteRate, ctrl.Execute)...)

	submissions := api.Group("/submissions")
	submissions.POST("", chain(mw.Auth, mw.SubmitRate, ctrl.Create)...)
	submissions.GET("/:id", chain(mw.Auth, ctrl.Get)...)
}

func chain(handlers ...gin.HandlerFunc) []gin.HandlerFunc {
	out := make([]gin.HandlerFunc, 0, len(handlers))
	for _, h := range handlers {
		if h != nil {
			out = append(out, h)
		}
	}
	return out
}

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler answers 200 when every dependency pings, 503 otherwise.
func HealthHandler(deps map[string]Pinger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		status := make(map[string]string, len(deps))
		healthy := true
		for name, dep := range deps {
			if dep == nil {
				continue
			}
			if err := dep.Ping(ctx); err != nil {
				status[name] = err.Error()
				healthy = false
				continue
			}
			status[name] = "ok"
		}
		if !healthy {
			c.JSON(http.StatusServiceUnavailable, response.Response{Code: appErr.ServiceUnavailable, Message: "unhealthy", Data: status})
			return
		}
		response.Success(c, status)
	}
}
