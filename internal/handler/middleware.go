package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/taskhub/chat-service/internal/access"
	"github.com/taskhub/chat-service/internal/auth"
	"github.com/taskhub/chat-service/pkg/response"
)

const (
	ctxUserIDKey   = "user_id"
	ctxUserNameKey = "user_name"
)

// RequireAuth validates the bearer token on every request (the REST path is
// stateless, unlike the socket path which authenticates once per connection)
// and resolves the subject to a user.
func RequireAuth(verifier *auth.Verifier, accessCtl access.Control) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := auth.ExtractToken(c.GetHeader("Authorization"))
		if token == "" {
			response.Unauthorized(c, "missing authorization header")
			c.Abort()
			return
		}

		claims, err := verifier.Verify(token)
		if err != nil {
			response.Unauthorized(c, "invalid or expired token")
			c.Abort()
			return
		}

		user, err := accessCtl.FindUser(c.Request.Context(), claims.Subject)
		if err != nil {
			response.Unauthorized(c, "unknown user")
			c.Abort()
			return
		}

		c.Set(ctxUserIDKey, user.ID)
		c.Set(ctxUserNameKey, user.Name)

		c.Next()
	}
}

// CurrentUserID extracts the authenticated user id from the Gin context.
func CurrentUserID(c *gin.Context) string {
	if id, ok := c.Get(ctxUserIDKey); ok {
		return id.(string)
	}
	return ""
}
