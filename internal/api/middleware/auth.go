package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"marketplace/sellerhub/internal/auth"
)

const (
	// ContextKeySellerID holds the key for the authenticated seller id in Gin context.
	ContextKeySellerID = "sellerID"
	// ContextKeySellerEmail holds the key for the seller's login email.
	ContextKeySellerEmail = "sellerEmail"
)

// AuthMiddleware creates a Gin middleware for seller JWT authentication.
func AuthMiddleware(jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header format must be Bearer {token}"})
			return
		}

		claims, err := auth.ValidateJWT(parts[1], jwtSecret)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}

		c.Set(ContextKeySellerID, claims.SellerID)
		c.Set(ContextKeySellerEmail, claims.Email)
		c.Next()
	}
}

// SellerID returns the authenticated seller id set by AuthMiddleware.
func SellerID(c *gin.Context) string {
	return c.GetString(ContextKeySellerID)
}
