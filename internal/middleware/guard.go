package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"tutoria/auth/internal/access"
)

const claimsKey = "access_claims"

// Guard enforces the authorization decision for every route it wraps.
// Public descriptors pass everything through untouched, including requests
// carrying garbage tokens.
func Guard(tokens access.TokenValidator, d access.Descriptor) gin.HandlerFunc {
	return func(c *gin.Context) {
		decision := access.Decide(d, bearerToken(c), tokens)

		if decision.Allow {
			if decision.Claims != nil {
				c.Set(claimsKey, decision.Claims)
			}
			c.Next()
			return
		}

		switch decision.Reason {
		case access.ReasonForbidden:
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error":         "forbidden",
				"requiredRoles": decision.Required,
			})
		default:
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		}
	}
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimPrefix(header, "Bearer ")
}
