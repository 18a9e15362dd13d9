package middleware

import (
	"net/http"
	"strings"

	"whatstrumps/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Context keys set for authenticated requests.
const (
	ContextUserID      = "user_id"
	ContextIsSuperuser = "is_superuser"
	ContextTokenID     = "token_id"
)

// AuthMiddleware accepts a bearer token in the Authorization header, or in
// the token query parameter for websocket upgrades.
func AuthMiddleware(authService *services.AuthService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := strings.TrimSpace(strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer "))
		if token == "" {
			token = c.Query("token")
		}
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization required"})
			return
		}

		claims, err := authService.ValidateToken(token)
		if err != nil {
			logger.Debug("rejected token", zap.String("path", c.Request.URL.Path), zap.Error(err))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}

		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextIsSuperuser, claims.IsSuperuser)
		c.Set(ContextTokenID, claims.ID)
		c.Next()
	}
}

// ActorFrom returns the authenticated user of a request.
func ActorFrom(c *gin.Context) (services.Actor, bool) {
	userID, ok := c.Get(ContextUserID)
	if !ok {
		return services.Actor{}, false
	}
	id, ok := userID.(uint)
	if !ok {
		return services.Actor{}, false
	}
	return services.Actor{UserID: id, IsSuperuser: c.GetBool(ContextIsSuperuser)}, true
}
