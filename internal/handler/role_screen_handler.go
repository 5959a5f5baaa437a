package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/club-portal/internal/dto"
	"github.com/noah-isme/club-portal/internal/service"
	"github.com/noah-isme/club-portal/pkg/response"
)

// RoleScreenHandler serves the administrator roles screen.
type RoleScreenHandler struct {
	screens   *service.ScreenRegistry[*service.RoleScreen]
	newScreen func() *service.RoleScreen
}

// NewRoleScreenHandler constructs the handler.
func NewRoleScreenHandler(screens *service.ScreenRegistry[*service.RoleScreen], newScreen func() *service.RoleScreen) *RoleScreenHandler {
	return &RoleScreenHandler{screens: screens, newScreen: newScreen}
}

// Mount godoc
// @Summary Mount the roles screen
// @Tags Roles
// @Produce json
// @Success 201 {object} response.Envelope
// @Router /screens/roles [post]
func (h *RoleScreenHandler) Mount(c *gin.Context) {
	screen := h.newScreen()
	id := h.screens.Mount(ownerFromContext(c), screen)
	err := screen.Mount(c.Request.Context())
	mounted(c, id, screen.View(), nil, err)
}

// Get godoc
// @Summary Current state of the roles screen
// @Tags Roles
// @Produce json
// @Param id path string true "Screen ID"
// @Success 200 {object} response.Envelope
// @Router /screens/roles/{id} [get]
func (h *RoleScreenHandler) Get(c *gin.Context) {
	h.do(c, func(*service.RoleScreen) error { return nil })
}

// Refresh godoc
// @Summary Reload the roles
// @Tags Roles
// @Produce json
// @Param id path string true "Screen ID"
// @Success 200 {object} response.Envelope
// @Router /screens/roles/{id}/refresh [post]
func (h *RoleScreenHandler) Refresh(c *gin.Context) {
	h.do(c, func(s *service.RoleScreen) error { return s.Refetch(c.Request.Context()) })
}

// OpenCreate godoc
// @Summary Open an empty role form
// @Tags Roles
// @Produce json
// @Param id path string true "Screen ID"
// @Success 200 {object} response.Envelope
// @Router /screens/roles/{id}/form [post]
func (h *RoleScreenHandler) OpenCreate(c *gin.Context) {
	h.do(c, func(s *service.RoleScreen) error { return s.OpenCreate() })
}

// OpenEdit godoc
// @Summary Open the role form for a loaded role
// @Tags Roles
// @Produce json
// @Param id path string true "Screen ID"
// @Param roleId path int true "Role ID"
// @Success 200 {object} response.Envelope
// @Router /screens/roles/{id}/edit/{roleId} [post]
func (h *RoleScreenHandler) OpenEdit(c *gin.Context) {
	h.do(c, func(s *service.RoleScreen) error {
		roleID, err := intParam(c, "roleId")
		if err != nil {
			return err
		}
		return s.OpenEdit(roleID)
	})
}

// CloseForm godoc
// @Summary Close the role form
// @Tags Roles
// @Produce json
// @Param id path string true "Screen ID"
// @Success 200 {object} response.Envelope
// @Router /screens/roles/{id}/form [delete]
func (h *RoleScreenHandler) CloseForm(c *gin.Context) {
	h.do(c, func(s *service.RoleScreen) error { return s.CloseForm() })
}

// SubmitForm godoc
// @Summary Create or update the role in the form
// @Tags Roles
// @Accept json
// @Produce json
// @Param id path string true "Screen ID"
// @Param payload body dto.RoleForm true "Role fields"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /screens/roles/{id}/form/submit [post]
func (h *RoleScreenHandler) SubmitForm(c *gin.Context) {
	h.do(c, func(s *service.RoleScreen) error {
		var form dto.RoleForm
		if err := bindJSON(c, &form, "invalid role payload"); err != nil {
			return err
		}
		return s.SubmitForm(c.Request.Context(), form)
	})
}

// AskDelete godoc
// @Summary Ask for delete confirmation
// @Tags Roles
// @Produce json
// @Param id path string true "Screen ID"
// @Param roleId path int true "Role ID"
// @Success 200 {object} response.Envelope
// @Router /screens/roles/{id}/delete/{roleId} [post]
func (h *RoleScreenHandler) AskDelete(c *gin.Context) {
	h.do(c, func(s *service.RoleScreen) error {
		roleID, err := intParam(c, "roleId")
		if err != nil {
			return err
		}
		return s.AskDelete(roleID)
	})
}

// CancelDelete godoc
// @Summary Dismiss the delete confirmation
// @Tags Roles
// @Produce json
// @Param id path string true "Screen ID"
// @Success 200 {object} response.Envelope
// @Router /screens/roles/{id}/delete [delete]
func (h *RoleScreenHandler) CancelDelete(c *gin.Context) {
	h.do(c, func(s *service.RoleScreen) error { return s.CancelDelete() })
}

// ConfirmDelete godoc
// @Summary Delete the role pending confirmation
// @Tags Roles
// @Produce json
// @Param id path string true "Screen ID"
// @Success 200 {object} response.Envelope
// @Router /screens/roles/{id}/confirm-delete [post]
func (h *RoleScreenHandler) ConfirmDelete(c *gin.Context) {
	h.do(c, func(s *service.RoleScreen) error { return s.ConfirmDelete(c.Request.Context()) })
}

// Unmount godoc
// @Summary Discard the roles screen
// @Tags Roles
// @Param id path string true "Screen ID"
// @Success 204
// @Router /screens/roles/{id} [delete]
func (h *RoleScreenHandler) Unmount(c *gin.Context) {
	unmount(c, h.screens)
}

func (h *RoleScreenHandler) do(c *gin.Context, action func(*service.RoleScreen) error) {
	screen, ok := screenFromContext(c, h.screens)
	if !ok {
		return
	}
	err := action(screen)
	response.Screen(c, screen.View(), nil, err)
}
