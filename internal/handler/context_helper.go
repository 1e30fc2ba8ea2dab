package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/music-lessons-api/internal/middleware"
	"github.com/noah-isme/music-lessons-api/internal/models"
	appErrors "github.com/noah-isme/music-lessons-api/pkg/errors"
	"github.com/noah-isme/music-lessons-api/pkg/response"
)

// claimsFromContext returns the caller's claims or writes a 401 and returns nil.
func claimsFromContext(c *gin.Context) *models.JWTClaims {
	claims, ok := middleware.CurrentUser(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return nil
	}
	return claims
}

// bindJSON decodes the request body into dest or writes a 400 naming subject.
func bindJSON(c *gin.Context, dest interface{}, subject string) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid "+subject+" payload"))
		return false
	}
	return true
}

// withCacheMeta marks the response as served from cache or not and returns its meta.
func withCacheMeta(c *gin.Context, hit bool) map[string]interface{} {
	middleware.SetCacheHit(c, hit)
	return middleware.ExtractMeta(c)
}
