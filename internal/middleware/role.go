package middleware

import (
	"net/http"

	"github.com/franciscosanchezn/gin-foodgram-api/internal/models"
	"github.com/gin-gonic/gin"
)

// RequireRole is a middleware that checks if the user has the required role.
// It must run after JWTAuth.
func RequireRole(requiredRole string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := c.Get(UserIDKey)
		if !exists {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				models.NewAPIError(models.CodeUnauthorized, "User not authenticated"))
			return
		}

		userRole := c.GetString(UserRoleKey)
		if userRole == "" {
			c.AbortWithStatusJSON(http.StatusForbidden,
				models.NewAPIError(models.CodeForbidden, "User role not found in token"))
			return
		}

		if userRole != requiredRole {
			c.AbortWithStatusJSON(http.StatusForbidden, models.NewAPIError(models.CodeForbidden,
				"Insufficient permissions", map[string]interface{}{
					"required_role": requiredRole,
					"user_role":     userRole,
					"user_id":       userID,
				}))
			return
		}

		c.Next()
	}
}
