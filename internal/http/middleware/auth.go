package middleware

import (
	"net/http"
	"strings"

	"github.com/chancov/WebAppMiningGameTG/internal/service"

	"github.com/gin-gonic/gin"
)

// IdentityKey is where the token's telegram id is stored on the gin context.
const IdentityKey = "identity"

// Identity reads an optional "Authorization: Bearer <jwt>" header. A valid
// token pins the caller's identity for the handlers; an invalid one is
// rejected outright. When required is set, requests without a token get 401.
func Identity(required bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c.GetHeader("Authorization"))
		if token == "" {
			if required {
				abortUnauthorized(c, "token required")
				return
			}
			c.Next()
			return
		}

		identity, err := service.ParseJWT(token)
		if err != nil {
			abortUnauthorized(c, "invalid token")
			return
		}
		c.Set(IdentityKey, identity)
		c.Next()
	}
}

// TokenIdentity returns the identity established by Identity, if any.
func TokenIdentity(c *gin.Context) (string, bool) {
	v, ok := c.Get(IdentityKey)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok && s != ""
}

func bearerToken(header string) string {
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}

func abortUnauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"ok":      false,
		"error":   "unauthorized",
		"message": msg,
	})
}
