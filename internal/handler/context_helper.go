package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/club-portal/internal/dto"
	"github.com/noah-isme/club-portal/internal/middleware"
	"github.com/noah-isme/club-portal/internal/models"
	"github.com/noah-isme/club-portal/internal/service"
	appErrors "github.com/noah-isme/club-portal/pkg/errors"
	"github.com/noah-isme/club-portal/pkg/response"
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

func ownerFromContext(c *gin.Context) string {
	if claims := claimsFromContext(c); claims != nil {
		return claims.UserID
	}
	return ""
}

// screenFromContext resolves the :id path parameter for the caller. It writes
// the error response itself and reports false when the screen is unknown.
func screenFromContext[S any](c *gin.Context, registry *service.ScreenRegistry[S]) (S, bool) {
	screen, err := registry.Get(ownerFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		var zero S
		return zero, false
	}
	return screen, true
}

func mounted(c *gin.Context, id string, view interface{}, pagination *models.Pagination, err error) {
	snapshot := dto.MountedScreen{ID: id, View: view}
	if err != nil {
		response.Screen(c, snapshot, pagination, err)
		return
	}
	response.JSON(c, http.StatusCreated, snapshot, pagination)
}

func unmount[S any](c *gin.Context, registry *service.ScreenRegistry[S]) {
	registry.Remove(ownerFromContext(c), c.Param("id"))
	response.NoContent(c)
}

func bindJSON(c *gin.Context, dest interface{}, message string) error {
	if err := c.ShouldBindJSON(dest); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, message)
	}
	return nil
}

func intParam(c *gin.Context, name string) (int, error) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil || id <= 0 {
		return 0, appErrors.Clone(appErrors.ErrValidation, "invalid "+name)
	}
	return id, nil
}
