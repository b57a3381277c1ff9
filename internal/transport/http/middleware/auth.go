package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dmhouse/user-service/internal/service/session"
	"github.com/dmhouse/user-service/pkg/httputil"
)

// AuthMiddleware validates the JWT signature (stateless check) and then the
// server-side session record by token fingerprint (stateful check), so a
// logged-out or expired session is rejected even while its JWT is still
// cryptographically valid.
func AuthMiddleware(registry *session.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, err := httputil.GetTokenFromRequest(c.Request)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		claims, sess, err := registry.ValidateToken(c.Request.Context(), tokenString)
		if err != nil {
			httputil.ClearAuthCookie(c.Writer)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		c.Set("user_id", claims.UserID)
		c.Set("email", claims.Email)
		c.Set("session", sess)
		c.Next()
	}
}
