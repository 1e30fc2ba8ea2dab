package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/music-lessons-api/internal/models"
	appErrors "github.com/noah-isme/music-lessons-api/pkg/errors"
	"github.com/noah-isme/music-lessons-api/pkg/response"
)

// Authorize lets the request through only when the caller's role holds perm.
// It must run after JWT.
func Authorize(perm models.Permission) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := CurrentUser(c)
		if !ok {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		if !models.Can(claims.Role, perm) {
			response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "your role cannot access this resource"))
			c.Abort()
			return
		}
		c.Next()
	}
}
