package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/saxenaaman628/badenya/internal/utils"
)

// Context keys set by JWTAuthMiddleware.
const (
	UserIDKey   = "userID"
	UsernameKey = "username"
)

// JWTAuthMiddleware requires a valid "Authorization: Bearer <token>" header
// and stores the caller's identity on the gin context.
func JWTAuthMiddleware(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.GetHeader("Authorization")
		if !strings.HasPrefix(h, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token", "kind": "unauthorized"})
			return
		}
		claims, err := utils.ParseJWTToken(secret, strings.TrimPrefix(h, "Bearer "))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token", "kind": "unauthorized"})
			return
		}
		c.Set(UserIDKey, claims.Subject)
		c.Set(UsernameKey, claims.Username)
		c.Next()
	}
}
