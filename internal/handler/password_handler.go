package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/club-portal/internal/dto"
	"github.com/noah-isme/club-portal/internal/service"
	"github.com/noah-isme/club-portal/pkg/response"
)

// PasswordHandler serves the change password screen.
type PasswordHandler struct {
	screens   *service.ScreenRegistry[*service.PasswordScreen]
	newScreen func() *service.PasswordScreen
}

// NewPasswordHandler constructs the handler. newScreen builds a fresh screen per mount.
func NewPasswordHandler(screens *service.ScreenRegistry[*service.PasswordScreen], newScreen func() *service.PasswordScreen) *PasswordHandler {
	return &PasswordHandler{screens: screens, newScreen: newScreen}
}

// Mount godoc
// @Summary Mount the change password screen
// @Tags Password
// @Produce json
// @Success 201 {object} response.Envelope
// @Router /screens/password [post]
func (h *PasswordHandler) Mount(c *gin.Context) {
	screen := h.newScreen()
	id := h.screens.Mount(ownerFromContext(c), screen)
	mounted(c, id, screen.View(), nil, nil)
}

// Get godoc
// @Summary Current state of the change password screen
// @Tags Password
// @Produce json
// @Param id path string true "Screen ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /screens/password/{id} [get]
func (h *PasswordHandler) Get(c *gin.Context) {
	screen, ok := screenFromContext(c, h.screens)
	if !ok {
		return
	}
	response.Screen(c, screen.View(), nil, nil)
}

// Submit godoc
// @Summary Submit the change password form
// @Tags Password
// @Accept json
// @Produce json
// @Param id path string true "Screen ID"
// @Param payload body dto.PasswordForm true "Password fields"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /screens/password/{id}/submit [post]
func (h *PasswordHandler) Submit(c *gin.Context) {
	screen, ok := screenFromContext(c, h.screens)
	if !ok {
		return
	}
	var form dto.PasswordForm
	if err := bindJSON(c, &form, "invalid password payload"); err != nil {
		response.Screen(c, screen.View(), nil, err)
		return
	}
	err := screen.Submit(c.Request.Context(), form)
	response.Screen(c, screen.View(), nil, err)
}

// Unmount godoc
// @Summary Discard the change password screen
// @Tags Password
// @Param id path string true "Screen ID"
// @Success 204
// @Router /screens/password/{id} [delete]
func (h *PasswordHandler) Unmount(c *gin.Context) {
	unmount(c, h.screens)
}
