package handler

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/castaway-league-api/internal/middleware"
	"github.com/noah-isme/castaway-league-api/internal/models"
	appErrors "github.com/noah-isme/castaway-league-api/pkg/errors"
	"github.com/noah-isme/castaway-league-api/pkg/response"
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

// requireClaims writes 401 and returns nil when the request is anonymous.
func requireClaims(c *gin.Context) *models.JWTClaims {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
	}
	return claims
}

func parseQueryInt(c *gin.Context, key string, def int) int {
	raw := c.Query(key)
	if raw == "" {
		return def
	}
	val, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return val
}

func withBoardMeta(c *gin.Context, hit bool, generatedAt time.Time) map[string]interface{} {
	middleware.SetBoardFreshness(c, hit, generatedAt)
	meta := middleware.Meta(c)
	if meta == nil {
		meta = map[string]interface{}{}
	}
	return meta
}
