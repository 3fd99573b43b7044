package middleware

import (
	"fmt"
	"time"

	"codepractice/internal/gateway/service"
	"codepractice/pkg/utils/response"

	"github.com/gin-gonic/gin"
)

type RateLimitPolicy struct {
	Window  time.Duration `yaml:"window"`
	UserMax int           `yaml:"userMax"`
	IPMax   int           `yaml:"ipMax"`
}

// DefaultRateLimitPolicy allows ten requests per minute per client address.
func DefaultRateLimitPolicy() RateLimitPolicy {
	return RateLimitPolicy{Window: time.Minute, IPMax: 10}
}

// RateLimitMiddleware enforces per-route rate limiting.
func RateLimitMiddleware(rateService *service.RateLimitService, routeKey string, policy RateLimitPolicy) gin.HandlerFunc {
	return func(c *gin.Context) {
		if rateService == nil {
			c.Next()
			return
		}
		if policy.IPMax > 0 {
			key := fmt.Sprintf("api:rate:ip:%s:%s", c.ClientIP(), routeKey)
			if err := rateService.Allow(c.Request.Context(), key, policy.IPMax, policy.Window); err != nil {
				response.AbortWithError(c, err)
				return
			}
		}

		if policy.UserMax > 0 {
			if userID := CurrentUserID(c); userID != "" {
				key := fmt.Sprintf("api:rate:user:%s:%s", userID, routeKey)
				if err := rateService.Allow(c.Request.Context(), key, policy.UserMax, policy.Window); err != nil {
					response.AbortWithError(c, err)
					return
				}
			}
		}

		c.Next()
	}
}
