package middleware

import (
	"net/http"
	"strings"

	"github.com/01moynul/farmers-market-api/internal/auth"
	"github.com/gin-gonic/gin"
)

// Context keys set by Auth.
const (
	ContextUserID   = "userID"
	ContextUserRole = "userRole"
	ContextClaims   = "claims"
)

// TokenValidator verifies a raw bearer token.
type TokenValidator interface {
	ValidateToken(tokenString string) (*auth.Claims, error)
}

// Auth is the bearer-token guard. It keeps no state between requests.
func Auth(tokens TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		// 1. --- Get Authorization Header ---
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Access Denied. No token provided."})
			return
		}

		parts := strings.Fields(authHeader)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Invalid token format (must be Bearer)."})
			return
		}

		// 2. --- Validate Token ---
		claims, err := tokens.ValidateToken(parts[1])
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Invalid or expired token."})
			return
		}
		userID, _ := claims.UserID()

		// 3. --- Success ---
		c.Set(ContextClaims, claims)
		c.Set(ContextUserID, userID)
		c.Set(ContextUserRole, claims.Role)
		c.Next()
	}
}

// Admin must run after Auth. It rejects callers whose token lacks the admin role.
func Admin() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := ClaimsFrom(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"message": "Forbidden. User details not found."})
			return
		}
		if !claims.IsAdmin() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"message": "Access Denied. Admin privileges required."})
			return
		}
		c.Next()
	}
}

// ClaimsFrom returns the claims Auth attached to the request, if any.
func ClaimsFrom(c *gin.Context) (*auth.Claims, bool) {
	raw, exists := c.Get(ContextClaims)
	if !exists {
		return nil, false
	}
	claims, ok := raw.(*auth.Claims)
	return claims, ok
}
