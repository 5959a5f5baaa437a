package service

import (
	"context"
	"strconv"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/club-portal/internal/dto"
	"github.com/noah-isme/club-portal/internal/models"
	appErrors "github.com/noah-isme/club-portal/pkg/errors"
)

var roleFormMessages = map[string]string{
	"nombre.required": "El nombre del rol es obligatorio",
}

const (
	roleLoadFailed   = "Error al cargar datos"
	roleSaveFailed   = "Error al guardar el rol"
	roleDeleteFailed = "Error al eliminar el rol"
)

type roleClient interface {
	ListRoles(ctx context.Context) ([]models.Role, error)
	CreateRole(ctx context.Context, payload models.RolePayload) (*models.Role, error)
	UpdateRole(ctx context.Context, id int, payload models.RolePayload) (*models.Role, error)
	DeleteRole(ctx context.Context, id int) error
}

type roleInvalidator interface {
	Invalidate(ctx context.Context)
}

type roleFormState struct {
	mode       dto.FormMode
	roleID     int
	values     dto.RoleForm
	submitting bool
	errMessage string
}

// RoleScreen lists every role with create, edit and delete. It always reads
// the club API directly and drops the cached dropdown after each change.
type RoleScreen struct {
	client   roleClient
	dropdown roleInvalidator
	audit    auditRecorder
	validate *validator.Validate
	logger   *zap.Logger

	mu         sync.Mutex
	roles      []models.Role
	loading    bool
	generation uint64
	form       *roleFormState
	deleteRole *models.Role
	deleting   bool
	success    string
	errMessage string
}

// NewRoleScreen constructs an unmounted roles screen.
func NewRoleScreen(client roleClient, dropdown roleInvalidator, audit auditRecorder, logger *zap.Logger) *RoleScreen {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RoleScreen{
		client:   client,
		dropdown: dropdown,
		audit:    audit,
		validate: newFormValidator(),
		logger:   logger,
		roles:    []models.Role{},
	}
}

// Mount loads all roles.
func (s *RoleScreen) Mount(ctx context.Context) error {
	return s.Refetch(ctx)
}

// Refetch reloads the role list. Only the latest load may update the screen.
func (s *RoleScreen) Refetch(ctx context.Context) error {
	s.mu.Lock()
	s.generation++
	gen := s.generation
	s.loading = true
	s.mu.Unlock()

	roles, err := s.client.ListRoles(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation {
		return nil
	}
	s.loading = false
	if err != nil {
		s.errMessage = appErrors.MessageOr(err, roleLoadFailed)
		s.logger.Warn("role list fetch failed", zap.Error(err))
		return err
	}
	s.roles = nonNil(roles)
	s.errMessage = ""
	return nil
}

// OpenCreate opens an empty form.
func (s *RoleScreen) OpenCreate() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.form != nil && s.form.submitting {
		return appErrors.ErrRequestInFlight
	}
	s.form = &roleFormState{mode: dto.FormCreate}
	return nil
}

// OpenEdit opens the form pre-filled from a loaded role.
func (s *RoleScreen) OpenEdit(id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.form != nil && s.form.submitting {
		return appErrors.ErrRequestInFlight
	}
	role, ok := s.findRole(id)
	if !ok {
		return appErrors.Clone(appErrors.ErrNotFound, "role not found")
	}
	s.form = &roleFormState{
		mode:   dto.FormEdit,
		roleID: id,
		values: dto.RoleForm{Name: role.Name, Description: role.Description},
	}
	return nil
}

// CloseForm discards the form.
func (s *RoleScreen) CloseForm() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.form != nil && s.form.submitting {
		return appErrors.ErrRequestInFlight
	}
	s.form = nil
	return nil
}

// SubmitForm creates or updates the role being edited.
func (s *RoleScreen) SubmitForm(ctx context.Context, values dto.RoleForm) error {
	s.mu.Lock()
	if s.form == nil {
		s.mu.Unlock()
		return appErrors.ErrInvalidStep
	}
	if s.form.submitting {
		s.mu.Unlock()
		return appErrors.ErrRequestInFlight
	}
	form := s.form
	values.Name = strings.TrimSpace(values.Name)
	values.Description = strings.TrimSpace(values.Description)
	form.values = values
	form.errMessage = ""
	s.success, s.errMessage = "", ""
	if err := s.validate.Struct(values); err != nil {
		verr := validationError(err, roleFormMessages)
		form.errMessage = verr.Message
		s.mu.Unlock()
		return verr
	}
	payload := models.RolePayload{Name: values.Name, Description: values.Description}
	mode, roleID := form.mode, form.roleID
	form.submitting = true
	s.mu.Unlock()

	var (
		saved *models.Role
		err   error
	)
	if mode == dto.FormEdit {
		saved, err = s.client.UpdateRole(ctx, roleID, payload)
	} else {
		saved, err = s.client.CreateRole(ctx, payload)
	}

	s.mu.Lock()
	form.submitting = false
	if err != nil {
		shown := displayError(err, roleSaveFailed)
		form.errMessage = shown.Message
		s.mu.Unlock()
		return shown
	}
	if s.form == form {
		s.form = nil
	}
	action := models.AuditActionRoleCreate
	s.success = "Rol creado"
	if mode == dto.FormEdit {
		action = models.AuditActionRoleUpdate
		s.success = "Rol actualizado"
	}
	s.mu.Unlock()

	if saved != nil && saved.ID != 0 {
		roleID = saved.ID
	}
	s.changed(ctx, action, roleID, payload)
	return s.Refetch(ctx)
}

// AskDelete opens the delete confirmation for a loaded role.
func (s *RoleScreen) AskDelete(id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.deleting {
		return appErrors.ErrRequestInFlight
	}
	role, ok := s.findRole(id)
	if !ok {
		return appErrors.Clone(appErrors.ErrNotFound, "role not found")
	}
	s.deleteRole = &role
	return nil
}

// CancelDelete closes the confirmation.
func (s *RoleScreen) CancelDelete() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.deleting {
		return appErrors.ErrRequestInFlight
	}
	s.deleteRole = nil
	return nil
}

// ConfirmDelete deletes the pending role. The dialog closes whatever the outcome.
func (s *RoleScreen) ConfirmDelete(ctx context.Context) error {
	s.mu.Lock()
	if s.deleteRole == nil {
		s.mu.Unlock()
		return appErrors.ErrInvalidStep
	}
	if s.deleting {
		s.mu.Unlock()
		return appErrors.ErrRequestInFlight
	}
	s.deleting = true
	s.success, s.errMessage = "", ""
	id := s.deleteRole.ID
	s.mu.Unlock()

	err := s.client.DeleteRole(ctx, id)

	s.mu.Lock()
	s.deleting = false
	s.deleteRole = nil
	if err != nil {
		shown := displayError(err, roleDeleteFailed)
		s.errMessage = shown.Message
		s.mu.Unlock()
		return shown
	}
	s.success = "Rol eliminado"
	s.mu.Unlock()

	s.changed(ctx, models.AuditActionRoleDelete, id, nil)
	return s.Refetch(ctx)
}

// View renders the screen.
func (s *RoleScreen) View() dto.RolesView {
	s.mu.Lock()
	defer s.mu.Unlock()
	view := dto.RolesView{
		Items:   append([]models.Role{}, s.roles...),
		Count:   len(s.roles),
		Loading: s.loading,
		Error:   s.errMessage,
		Success: s.success,
	}
	if s.form != nil {
		view.Form = &dto.RoleFormView{
			Mode:       s.form.mode,
			RoleID:     s.form.roleID,
			Values:     s.form.values,
			Submitting: s.form.submitting,
			Error:      s.form.errMessage,
		}
	}
	if s.deleteRole != nil {
		view.Delete = &dto.DeleteDialog{
			ID:       s.deleteRole.ID,
			Name:     s.deleteRole.Name,
			Title:    "¿Eliminar rol?",
			Message:  deleteDialogMessage,
			Deleting: s.deleting,
		}
	}
	return view
}

func (s *RoleScreen) findRole(id int) (models.Role, bool) {
	for _, r := range s.roles {
		if r.ID == id {
			return r, true
		}
	}
	return models.Role{}, false
}

func (s *RoleScreen) changed(ctx context.Context, action string, id int, values interface{}) {
	if s.dropdown != nil {
		s.dropdown.Invalidate(ctx)
	}
	if s.audit != nil {
		s.audit.Record(ctx, AuditEntry{Action: action, Resource: "role", ResourceID: strconv.Itoa(id), Values: values})
	}
}
