package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/pressroomhq/pressroom-go/internal/infrastructure/security"
	"github.com/pressroomhq/pressroom-go/pkg/config"
)

// AdminAuthMiddleware guards the admin API. Requests must carry a bearer
// token issued by the login endpoint.
func AdminAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}

		token := strings.TrimPrefix(header, "Bearer ")
		claims, err := security.ValidateJWT(token, config.JWTSecret)
		if err != nil || !security.IsAdmin(claims) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Next()
	}
}
