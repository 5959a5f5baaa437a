package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/club-portal/internal/dto"
	"github.com/noah-isme/club-portal/internal/service"
	"github.com/noah-isme/club-portal/pkg/response"
)

// EnrollmentHandler serves the enrollment wizard.
type EnrollmentHandler struct {
	screens   *service.ScreenRegistry[*service.EnrollmentWizard]
	newWizard func(owner string) *service.EnrollmentWizard
}

// NewEnrollmentHandler constructs the handler. newWizard builds a fresh wizard per mount.
func NewEnrollmentHandler(screens *service.ScreenRegistry[*service.EnrollmentWizard], newWizard func(owner string) *service.EnrollmentWizard) *EnrollmentHandler {
	return &EnrollmentHandler{screens: screens, newWizard: newWizard}
}

// Mount godoc
// @Summary Mount the enrollment wizard
// @Description Loads participants and open courses. curso and grupo pre-select a course and group when they are valid.
// @Tags Enrollment
// @Produce json
// @Param curso query int false "Course to pre-select"
// @Param grupo query int false "Group to pre-select"
// @Success 201 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Router /screens/enrollment [post]
func (h *EnrollmentHandler) Mount(c *gin.Context) {
	var link dto.EnrollmentDeepLink
	if err := c.ShouldBindQuery(&link); err != nil {
		link = dto.EnrollmentDeepLink{}
	}
	owner := ownerFromContext(c)
	wizard := h.newWizard(owner)
	id := h.screens.Mount(owner, wizard)
	err := wizard.Mount(c.Request.Context(), link)
	mounted(c, id, wizard.View(), nil, err)
}

// Get godoc
// @Summary Current state of the enrollment wizard
// @Tags Enrollment
// @Produce json
// @Param id path string true "Screen ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /screens/enrollment/{id} [get]
func (h *EnrollmentHandler) Get(c *gin.Context) {
	wizard, ok := screenFromContext(c, h.screens)
	if !ok {
		return
	}
	response.Screen(c, wizard.View(), nil, nil)
}

// SelectParticipant godoc
// @Summary Pick the participant to enroll
// @Tags Enrollment
// @Accept json
// @Produce json
// @Param id path string true "Screen ID"
// @Param payload body dto.SelectRequest true "Participant"
// @Success 200 {object} response.Envelope
// @Router /screens/enrollment/{id}/participant [post]
func (h *EnrollmentHandler) SelectParticipant(c *gin.Context) {
	h.withSelection(c, func(wizard *service.EnrollmentWizard, id int) error {
		return wizard.SelectParticipant(id)
	})
}

// SelectCourse godoc
// @Summary Pick a course and load its groups
// @Tags Enrollment
// @Accept json
// @Produce json
// @Param id path string true "Screen ID"
// @Param payload body dto.SelectRequest true "Course"
// @Success 200 {object} response.Envelope
// @Router /screens/enrollment/{id}/course [post]
func (h *EnrollmentHandler) SelectCourse(c *gin.Context) {
	h.withSelection(c, func(wizard *service.EnrollmentWizard, id int) error {
		return wizard.SelectCourse(c.Request.Context(), id)
	})
}

// SelectGroup godoc
// @Summary Pick a group with free slots
// @Tags Enrollment
// @Accept json
// @Produce json
// @Param id path string true "Screen ID"
// @Param payload body dto.SelectRequest true "Group"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /screens/enrollment/{id}/group [post]
func (h *EnrollmentHandler) SelectGroup(c *gin.Context) {
	h.withSelection(c, func(wizard *service.EnrollmentWizard, id int) error {
		return wizard.SelectGroup(id)
	})
}

// Continue godoc
// @Summary Advance to the next step
// @Tags Enrollment
// @Produce json
// @Param id path string true "Screen ID"
// @Success 200 {object} response.Envelope
// @Router /screens/enrollment/{id}/continue [post]
func (h *EnrollmentHandler) Continue(c *gin.Context) {
	wizard, ok := screenFromContext(c, h.screens)
	if !ok {
		return
	}
	err := wizard.Continue()
	response.Screen(c, wizard.View(), nil, err)
}

// Back godoc
// @Summary Return to the previous step
// @Tags Enrollment
// @Produce json
// @Param id path string true "Screen ID"
// @Success 200 {object} response.Envelope
// @Router /screens/enrollment/{id}/back [post]
func (h *EnrollmentHandler) Back(c *gin.Context) {
	wizard, ok := screenFromContext(c, h.screens)
	if !ok {
		return
	}
	err := wizard.Back()
	response.Screen(c, wizard.View(), nil, err)
}

// SetPayment godoc
// @Summary Update the payment step
// @Tags Enrollment
// @Accept json
// @Produce json
// @Param id path string true "Screen ID"
// @Param payload body dto.PaymentRequest true "Payment"
// @Success 200 {object} response.Envelope
// @Router /screens/enrollment/{id}/payment [put]
func (h *EnrollmentHandler) SetPayment(c *gin.Context) {
	wizard, ok := screenFromContext(c, h.screens)
	if !ok {
		return
	}
	var req dto.PaymentRequest
	if err := bindJSON(c, &req, "invalid payment payload"); err != nil {
		response.Screen(c, wizard.View(), nil, err)
		return
	}
	err := wizard.SetPayment(req)
	response.Screen(c, wizard.View(), nil, err)
}

// Submit godoc
// @Summary Create the enrollment
// @Tags Enrollment
// @Produce json
// @Param id path string true "Screen ID"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /screens/enrollment/{id}/submit [post]
func (h *EnrollmentHandler) Submit(c *gin.Context) {
	wizard, ok := screenFromContext(c, h.screens)
	if !ok {
		return
	}
	err := wizard.Submit(c.Request.Context())
	response.Screen(c, wizard.View(), nil, err)
}

// Unmount godoc
// @Summary Discard the enrollment wizard
// @Tags Enrollment
// @Param id path string true "Screen ID"
// @Success 204
// @Router /screens/enrollment/{id} [delete]
func (h *EnrollmentHandler) Unmount(c *gin.Context) {
	unmount(c, h.screens)
}

func (h *EnrollmentHandler) withSelection(c *gin.Context, apply func(*service.EnrollmentWizard, int) error) {
	wizard, ok := screenFromContext(c, h.screens)
	if !ok {
		return
	}
	var req dto.SelectRequest
	if err := bindJSON(c, &req, "invalid selection payload"); err != nil {
		response.Screen(c, wizard.View(), nil, err)
		return
	}
	err := apply(wizard, req.ID)
	response.Screen(c, wizard.View(), nil, err)
}
