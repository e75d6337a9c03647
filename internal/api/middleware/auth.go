package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// AdminAuthMiddleware guards the admin fulfillment endpoints with a
// single bcrypt-hashed API key supplied via configuration
func AdminAuthMiddleware(adminKeyHash string, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if adminKeyHash == "" {
			logger.Error("Admin API key hash is not configured")
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "admin access is not configured"})
			return
		}

		header := c.GetHeader("Authorization")
		apiKey := strings.TrimPrefix(header, "Bearer ")
		if apiKey == "" || apiKey == header {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		if err := bcrypt.CompareHashAndPassword([]byte(adminKeyHash), []byte(apiKey)); err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid API key"})
			return
		}

		c.Next()
	}
}
