package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/campusops/submission-restrict-api/internal/middleware"
	"github.com/campusops/submission-restrict-api/internal/mod"
	"github.com/campusops/submission-restrict-api/internal/models"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok {
		return nil
	}
	return claims
}

// actorFromContext derives the explicit permission context of the current
// request. An unauthenticated request yields a zero actor.
func actorFromContext(c *gin.Context) mod.Actor {
	claims := claimsFromContext(c)
	if claims == nil {
		return mod.Actor{}
	}
	return mod.Actor{UserID: claims.UserID, CanOverride: claims.Role.CanOverride()}
}
