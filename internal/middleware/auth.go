package middleware

import (
	"net/http"
	"strings"

	"Title_Vote/internal/pkg"

	"github.com/gin-gonic/gin"
)

const ContextIdentityKey = "identity"

// Authenticate parses a bearer token when one is sent. Requests without a
// token pass through anonymously; a token that does not verify is rejected.
func Authenticate(verifier *pkg.TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.Next()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"code": "UNAUTHENTICATED", "msg": "invalid authorization format"})
			return
		}

		id, err := verifier.Parse(parts[1])
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"code": "UNAUTHENTICATED", "msg": "invalid or expired token"})
			return
		}
		c.Set(ContextIdentityKey, id)
		c.Next()
	}
}

// RequireAuth rejects anonymous requests. It must run after Authenticate.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if IdentityFrom(c) == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"code": "UNAUTHENTICATED", "msg": "missing authorization header"})
			return
		}
		c.Next()
	}
}

// IdentityFrom returns the caller's verified identity, or nil.
func IdentityFrom(c *gin.Context) *pkg.Identity {
	v, ok := c.Get(ContextIdentityKey)
	if !ok {
		return nil
	}
	id, _ := v.(*pkg.Identity)
	return id
}
