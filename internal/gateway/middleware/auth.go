package middleware

import (
	"context"
	"strings"

	"codepractice/internal/gateway/service"
	pkgerrors "codepractice/pkg/errors"
	"codepractice/pkg/utils/contextkey"
	"codepractice/pkg/utils/response"

	"github.com/gin-gonic/gin"
)

// UserIDKey is the gin context key holding the authenticated user id.
const UserIDKey = "user_id"

type AuthPolicy struct {
	// Mode "public" lets requests through without a token. "optional"
	// authenticates when a token is present.
	Mode  string
	Roles []string
}

// AuthMiddleware enforces JWT validation and role checks for protected routes.
func AuthMiddleware(authService *service.AuthService, policy AuthPolicy) gin.HandlerFunc {
	mode := strings.ToLower(policy.Mode)
	return func(c *gin.Context) {
		if mode == "public" {
			c.Next()
			return
		}
		if authService == nil {
			response.AbortWithErrorCode(c, pkgerrors.ServiceUnavailable, "auth service unavailable")
			return
		}

		token := extractBearerToken(c.GetHeader("Authorization"))
		if token == "" && mode == "optional" {
			c.Next()
			return
		}
		info, err := authService.Authenticate(c.Request.Context(), token)
		if err != nil {
			response.AbortWithError(c, err)
			return
		}

		if len(policy.Roles) > 0 && !hasRole(info.Role, policy.Roles) {
			response.AbortWithErrorCode(c, pkgerrors.Forbidden, "insufficient role")
			return
		}

		c.Set(UserIDKey, info.ID)
		c.Set("user_role", info.Role)
		ctx := context.WithValue(c.Request.Context(), contextkey.UserID, info.ID)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// CurrentUserID returns the authenticated user id, or "" for anonymous requests.
func CurrentUserID(c *gin.Context) string {
	return c.GetString(UserIDKey)
}

func extractBearerToken(authHeader string) string {
	if authHeader == "" {
		return ""
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 {
		return ""
	}
	if !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func hasRole(role string, allowed []string) bool {
	for _, item := range allowed {
		if strings.EqualFold(role, item) {
			return true
		}
	}
	return false
}
