package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/club-portal/internal/dto"
	"github.com/noah-isme/club-portal/internal/service"
	"github.com/noah-isme/club-portal/pkg/response"
)

// UserScreenHandler serves the administrator users screen.
type UserScreenHandler struct {
	screens   *service.ScreenRegistry[*service.UserScreen]
	newScreen func() *service.UserScreen
}

// NewUserScreenHandler constructs the handler.
func NewUserScreenHandler(screens *service.ScreenRegistry[*service.UserScreen], newScreen func() *service.UserScreen) *UserScreenHandler {
	return &UserScreenHandler{screens: screens, newScreen: newScreen}
}

// Mount godoc
// @Summary Mount the users screen
// @Description Loads the role dropdown and the first page of users.
// @Tags Users
// @Produce json
// @Success 201 {object} response.Envelope
// @Router /screens/users [post]
func (h *UserScreenHandler) Mount(c *gin.Context) {
	screen := h.newScreen()
	id := h.screens.Mount(ownerFromContext(c), screen)
	err := screen.Mount(c.Request.Context())
	mounted(c, id, screen.View(), screen.Pagination(), err)
}

// Get godoc
// @Summary Current state of the users screen
// @Tags Users
// @Produce json
// @Param id path string true "Screen ID"
// @Success 200 {object} response.Envelope
// @Router /screens/users/{id} [get]
func (h *UserScreenHandler) Get(c *gin.Context) {
	h.do(c, func(*service.UserScreen) error { return nil })
}

// Page godoc
// @Summary Go to a page
// @Tags Users
// @Accept json
// @Produce json
// @Param id path string true "Screen ID"
// @Param payload body dto.PageRequest true "Page"
// @Success 200 {object} response.Envelope
// @Router /screens/users/{id}/page [post]
func (h *UserScreenHandler) Page(c *gin.Context) {
	var req dto.PageRequest
	h.doWithBody(c, &req, func(s *service.UserScreen) error {
		return s.GoToPage(c.Request.Context(), req.Page)
	})
}

// PerPage godoc
// @Summary Change the page size
// @Tags Users
// @Accept json
// @Produce json
// @Param id path string true "Screen ID"
// @Param payload body dto.PerPageRequest true "Page size"
// @Success 200 {object} response.Envelope
// @Router /screens/users/{id}/per-page [post]
func (h *UserScreenHandler) PerPage(c *gin.Context) {
	var req dto.PerPageRequest
	h.doWithBody(c, &req, func(s *service.UserScreen) error {
		return s.ChangePerPage(c.Request.Context(), req.PerPage)
	})
}

// Search godoc
// @Summary Search users
// @Tags Users
// @Accept json
// @Produce json
// @Param id path string true "Screen ID"
// @Param payload body dto.SearchRequest true "Search"
// @Success 200 {object} response.Envelope
// @Router /screens/users/{id}/search [post]
func (h *UserScreenHandler) Search(c *gin.Context) {
	var req dto.SearchRequest
	h.doWithBody(c, &req, func(s *service.UserScreen) error {
		return s.SetSearch(c.Request.Context(), req.Search)
	})
}

// Sort godoc
// @Summary Sort users
// @Tags Users
// @Accept json
// @Produce json
// @Param id path string true "Screen ID"
// @Param payload body dto.SortRequest true "Sort"
// @Success 200 {object} response.Envelope
// @Router /screens/users/{id}/sort [post]
func (h *UserScreenHandler) Sort(c *gin.Context) {
	var req dto.SortRequest
	h.doWithBody(c, &req, func(s *service.UserScreen) error {
		return s.SetSort(c.Request.Context(), req.Column, req.Direction)
	})
}

// Filters godoc
// @Summary Filter users by status and role
// @Tags Users
// @Accept json
// @Produce json
// @Param id path string true "Screen ID"
// @Param payload body dto.FiltersRequest true "Filters"
// @Success 200 {object} response.Envelope
// @Router /screens/users/{id}/filters [post]
func (h *UserScreenHandler) Filters(c *gin.Context) {
	var req dto.FiltersRequest
	h.doWithBody(c, &req, func(s *service.UserScreen) error {
		return s.SetFilters(c.Request.Context(), req.Filters)
	})
}

// Refresh godoc
// @Summary Reload the current page
// @Tags Users
// @Produce json
// @Param id path string true "Screen ID"
// @Success 200 {object} response.Envelope
// @Router /screens/users/{id}/refresh [post]
func (h *UserScreenHandler) Refresh(c *gin.Context) {
	h.do(c, func(s *service.UserScreen) error { return s.Refetch(c.Request.Context()) })
}

// OpenCreate godoc
// @Summary Open an empty user form
// @Tags Users
// @Produce json
// @Param id path string true "Screen ID"
// @Success 200 {object} response.Envelope
// @Router /screens/users/{id}/form [post]
func (h *UserScreenHandler) OpenCreate(c *gin.Context) {
	h.do(c, func(s *service.UserScreen) error { return s.OpenCreate() })
}

// OpenEdit godoc
// @Summary Open the user form for a loaded user
// @Tags Users
// @Produce json
// @Param id path string true "Screen ID"
// @Param userId path int true "User ID"
// @Success 200 {object} response.Envelope
// @Router /screens/users/{id}/edit/{userId} [post]
func (h *UserScreenHandler) OpenEdit(c *gin.Context) {
	h.do(c, func(s *service.UserScreen) error {
		userID, err := intParam(c, "userId")
		if err != nil {
			return err
		}
		return s.OpenEdit(userID)
	})
}

// CloseForm godoc
// @Summary Close the user form
// @Tags Users
// @Produce json
// @Param id path string true "Screen ID"
// @Success 200 {object} response.Envelope
// @Router /screens/users/{id}/form [delete]
func (h *UserScreenHandler) CloseForm(c *gin.Context) {
	h.do(c, func(s *service.UserScreen) error { return s.CloseForm() })
}

// SubmitForm godoc
// @Summary Create or update the user in the form
// @Tags Users
// @Accept json
// @Produce json
// @Param id path string true "Screen ID"
// @Param payload body dto.UserForm true "User fields"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /screens/users/{id}/form/submit [post]
func (h *UserScreenHandler) SubmitForm(c *gin.Context) {
	var form dto.UserForm
	h.doWithBody(c, &form, func(s *service.UserScreen) error {
		return s.SubmitForm(c.Request.Context(), form)
	})
}

// ViewDetail godoc
// @Summary Open the detail of a loaded user
// @Tags Users
// @Produce json
// @Param id path string true "Screen ID"
// @Param userId path int true "User ID"
// @Success 200 {object} response.Envelope
// @Router /screens/users/{id}/detail/{userId} [post]
func (h *UserScreenHandler) ViewDetail(c *gin.Context) {
	h.do(c, func(s *service.UserScreen) error {
		userID, err := intParam(c, "userId")
		if err != nil {
			return err
		}
		return s.ViewDetail(userID)
	})
}

// CloseDetail godoc
// @Summary Close the user detail
// @Tags Users
// @Produce json
// @Param id path string true "Screen ID"
// @Success 200 {object} response.Envelope
// @Router /screens/users/{id}/detail [delete]
func (h *UserScreenHandler) CloseDetail(c *gin.Context) {
	h.do(c, func(s *service.UserScreen) error {
		s.CloseDetail()
		return nil
	})
}

// ChangeStatus godoc
// @Summary Change the status of a loaded user
// @Tags Users
// @Accept json
// @Produce json
// @Param id path string true "Screen ID"
// @Param payload body dto.UserStatusChange true "Status"
// @Success 200 {object} response.Envelope
// @Router /screens/users/{id}/status [post]
func (h *UserScreenHandler) ChangeStatus(c *gin.Context) {
	var req dto.UserStatusChange
	h.doWithBody(c, &req, func(s *service.UserScreen) error {
		return s.ChangeStatus(c.Request.Context(), req.UserID, req.Status)
	})
}

// AskDelete godoc
// @Summary Ask for delete confirmation
// @Tags Users
// @Produce json
// @Param id path string true "Screen ID"
// @Param userId path int true "User ID"
// @Success 200 {object} response.Envelope
// @Router /screens/users/{id}/delete/{userId} [post]
func (h *UserScreenHandler) AskDelete(c *gin.Context) {
	h.do(c, func(s *service.UserScreen) error {
		userID, err := intParam(c, "userId")
		if err != nil {
			return err
		}
		return s.AskDelete(userID)
	})
}

// CancelDelete godoc
// @Summary Dismiss the delete confirmation
// @Tags Users
// @Produce json
// @Param id path string true "Screen ID"
// @Success 200 {object} response.Envelope
// @Router /screens/users/{id}/delete [delete]
func (h *UserScreenHandler) CancelDelete(c *gin.Context) {
	h.do(c, func(s *service.UserScreen) error { return s.CancelDelete() })
}

// ConfirmDelete godoc
// @Summary Delete the user pending confirmation
// @Tags Users
// @Produce json
// @Param id path string true "Screen ID"
// @Success 200 {object} response.Envelope
// @Router /screens/users/{id}/confirm-delete [post]
func (h *UserScreenHandler) ConfirmDelete(c *gin.Context) {
	h.do(c, func(s *service.UserScreen) error { return s.ConfirmDelete(c.Request.Context()) })
}

// ExportCSV godoc
// @Summary Export the loaded users as CSV
// @Tags Users
// @Produce text/csv
// @Param id path string true "Screen ID"
// @Success 200 {file} file
// @Router /screens/users/{id}/export.csv [get]
func (h *UserScreenHandler) ExportCSV(c *gin.Context) {
	screen, ok := screenFromContext(c, h.screens)
	if !ok {
		return
	}
	out, err := screen.ExportCSV()
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="usuarios.csv"`)
	c.Data(http.StatusOK, "text/csv; charset=utf-8", out)
}

// Unmount godoc
// @Summary Discard the users screen
// @Tags Users
// @Param id path string true "Screen ID"
// @Success 204
// @Router /screens/users/{id} [delete]
func (h *UserScreenHandler) Unmount(c *gin.Context) {
	unmount(c, h.screens)
}

func (h *UserScreenHandler) do(c *gin.Context, action func(*service.UserScreen) error) {
	screen, ok := screenFromContext(c, h.screens)
	if !ok {
		return
	}
	err := action(screen)
	response.Screen(c, screen.View(), screen.Pagination(), err)
}

func (h *UserScreenHandler) doWithBody(c *gin.Context, body interface{}, action func(*service.UserScreen) error) {
	h.do(c, func(s *service.UserScreen) error {
		if err := bindJSON(c, body, "invalid request payload"); err != nil {
			return err
		}
		return action(s)
	})
}
