package middleware

import (
	"github.com/gin-gonic/gin"

	"tutoria/auth/internal/security"
)

// CurrentClaims returns the authenticated principal set by Guard.
func CurrentClaims(c *gin.Context) (*security.Claims, bool) {
	val, exists := c.Get(claimsKey)
	if !exists {
		return nil, false
	}
	claims, ok := val.(*security.Claims)
	return claims, ok
}
