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
	"github.com/noah-isme/club-portal/pkg/export"
	"github.com/noah-isme/club-portal/pkg/format"
)

// UserSortColumns are the columns the users list can be ordered by.
var UserSortColumns = []string{"nombre", "apellido", "email", "created_at"}

var userStatusLabels = []dto.StatusOption{
	{Value: models.UserStatusActive, Label: "Activo"},
	{Value: models.UserStatusInactive, Label: "Inactivo"},
	{Value: models.UserStatusSuspended, Label: "Suspendido"},
}

var userFormMessages = map[string]string{
	"nombre.required":   "El nombre es obligatorio",
	"apellido.required": "El apellido es obligatorio",
	"email.required":    "El email es obligatorio",
	"email.email":       "El email no es válido",
	"password.min":      "La contraseña debe tener al menos 6 caracteres",
	"id_rol.gt":         "Selecciona un rol válido",
}

const (
	userPasswordRequired = "La contraseña es obligatoria"
	userSaveFailed       = "Error al guardar el usuario"
	userStatusFailed     = "Error al cambiar el estado"
	userDeleteFailed     = "Error al eliminar el usuario"
	noRoleLabel          = "Sin rol"
	deleteDialogMessage  = "Esta acción no se puede deshacer."
)

type userClient interface {
	ListUsers(ctx context.Context, query models.ListQuery) (models.ListResult[models.User], error)
	CreateUser(ctx context.Context, payload models.UserPayload) (*models.User, error)
	UpdateUser(ctx context.Context, id int, payload models.UserPayload) (*models.User, error)
	DeleteUser(ctx context.Context, id int) error
	SetUserStatus(ctx context.Context, id int, status models.UserStatus) error
}

type roleProvider interface {
	Roles(ctx context.Context) ([]models.Role, error)
}

type userFormState struct {
	mode       dto.FormMode
	userID     int
	values     dto.UserForm
	submitting bool
	errMessage string
}

// UserScreen is the administrator's users list with its form, detail and
// delete dialogs.
type UserScreen struct {
	client    userClient
	roles     roleProvider
	audit     auditRecorder
	validate  *validator.Validate
	exporter  *export.CSVExporter
	formatter *format.Formatter
	logger    *zap.Logger
	list      *ListController[models.User]

	mu             sync.Mutex
	roleOptions    []models.Role
	form           *userFormState
	detail         *models.User
	deleteUser     *models.User
	deleting       bool
	changingStatus bool
	success        string
	errMessage     string
}

// NewUserScreen constructs an unmounted users screen.
func NewUserScreen(client userClient, roles roleProvider, audit auditRecorder, formatter *format.Formatter, perPage int, logger *zap.Logger) *UserScreen {
	if formatter == nil {
		formatter = format.New(format.DefaultLocale, format.DefaultCurrency)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &UserScreen{
		client:      client,
		roles:       roles,
		audit:       audit,
		validate:    newFormValidator(),
		exporter:    export.NewCSVExporter(),
		formatter:   formatter,
		logger:      logger,
		roleOptions: []models.Role{},
	}
	s.list = NewListController[models.User](client.ListUsers, ListOptions{PerPage: perPage, SortColumns: UserSortColumns}, logger)
	return s
}

// Mount loads the role dropdown and the first page. A role failure only
// leaves the dropdown empty.
func (s *UserScreen) Mount(ctx context.Context) error {
	if s.roles != nil {
		roles, err := s.roles.Roles(ctx)
		if err != nil {
			s.logger.Warn("role dropdown unavailable", zap.Error(err))
		} else {
			s.mu.Lock()
			s.roleOptions = nonNil(roles)
			s.mu.Unlock()
		}
	}
	return s.list.Refetch(ctx)
}

// GoToPage moves the list to page n.
func (s *UserScreen) GoToPage(ctx context.Context, n int) error {
	s.clearNotice()
	return s.list.GoToPage(ctx, n)
}

// ChangePerPage changes the page size.
func (s *UserScreen) ChangePerPage(ctx context.Context, n int) error {
	s.clearNotice()
	return s.list.ChangePerPage(ctx, n)
}

// SetSearch searches by free text.
func (s *UserScreen) SetSearch(ctx context.Context, text string) error {
	s.clearNotice()
	return s.list.SetSearch(ctx, text)
}

// SetSort orders the list.
func (s *UserScreen) SetSort(ctx context.Context, column, direction string) error {
	s.clearNotice()
	return s.list.SetSort(ctx, column, direction)
}

// SetFilters applies the status and role filters. Other keys are rejected.
func (s *UserScreen) SetFilters(ctx context.Context, filters map[string]string) error {
	for key, value := range filters {
		value = strings.TrimSpace(value)
		switch key {
		case "status":
			if value != "" && !models.UserStatus(value).Valid() {
				return appErrors.Clone(appErrors.ErrValidation, "unknown status filter")
			}
		case "id_rol":
			if value != "" {
				if id, err := strconv.Atoi(value); err != nil || id <= 0 {
					return appErrors.Clone(appErrors.ErrValidation, "invalid role filter")
				}
			}
		default:
			return appErrors.Clone(appErrors.ErrValidation, "unsupported filter "+key)
		}
	}
	s.clearNotice()
	return s.list.SetFilters(ctx, filters)
}

// Refetch reloads the current page.
func (s *UserScreen) Refetch(ctx context.Context) error {
	return s.list.Refetch(ctx)
}

// OpenCreate opens an empty form.
func (s *UserScreen) OpenCreate() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.form != nil && s.form.submitting {
		return appErrors.ErrRequestInFlight
	}
	s.form = &userFormState{mode: dto.FormCreate}
	return nil
}

// OpenEdit opens the form pre-filled from a loaded user. The password stays blank.
func (s *UserScreen) OpenEdit(id int) error {
	user, ok := s.findUser(id)
	if !ok {
		return appErrors.Clone(appErrors.ErrNotFound, "user not found")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.form != nil && s.form.submitting {
		return appErrors.ErrRequestInFlight
	}
	values := dto.UserForm{
		FirstName:  user.FirstName,
		LastName:   user.LastName,
		Email:      user.Email,
		NationalID: user.NationalID,
		Phone:      user.Phone,
	}
	if user.RoleID != nil {
		roleID := *user.RoleID
		values.RoleID = &roleID
	}
	s.form = &userFormState{mode: dto.FormEdit, userID: id, values: values}
	return nil
}

// CloseForm discards the form.
func (s *UserScreen) CloseForm() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.form != nil && s.form.submitting {
		return appErrors.ErrRequestInFlight
	}
	s.form = nil
	return nil
}

// SubmitForm validates the fields and creates or updates the user. On success
// the form closes and the list reloads; on failure the form stays open.
func (s *UserScreen) SubmitForm(ctx context.Context, values dto.UserForm) error {
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
	values = normalizeUserForm(values)
	form.values = values
	form.errMessage = ""
	s.success, s.errMessage = "", ""

	if err := s.validate.Struct(values); err != nil {
		verr := validationError(err, userFormMessages)
		form.errMessage = verr.Message
		s.mu.Unlock()
		return verr
	}
	if form.mode == dto.FormCreate && values.Password == "" {
		form.errMessage = userPasswordRequired
		s.mu.Unlock()
		return appErrors.Clone(appErrors.ErrValidation, userPasswordRequired)
	}

	payload := models.UserPayload{
		FirstName:  values.FirstName,
		LastName:   values.LastName,
		Email:      values.Email,
		NationalID: values.NationalID,
		Phone:      values.Phone,
		RoleID:     values.RoleID,
		Password:   values.Password,
	}
	mode, userID := form.mode, form.userID
	form.submitting = true
	s.mu.Unlock()

	var (
		saved *models.User
		err   error
	)
	if mode == dto.FormEdit {
		saved, err = s.client.UpdateUser(ctx, userID, payload)
	} else {
		saved, err = s.client.CreateUser(ctx, payload)
	}

	s.mu.Lock()
	form.submitting = false
	if err != nil {
		shown := displayError(err, userSaveFailed)
		form.errMessage = shown.Message
		s.mu.Unlock()
		return shown
	}
	if s.form == form {
		s.form = nil
	}
	action := models.AuditActionUserCreate
	s.success = "Usuario creado"
	if mode == dto.FormEdit {
		action = models.AuditActionUserUpdate
		s.success = "Usuario actualizado"
	}
	s.mu.Unlock()

	if saved != nil && saved.ID != 0 {
		userID = saved.ID
	}
	payload.Password = ""
	s.record(ctx, action, userID, payload)
	return s.list.Refetch(ctx)
}

// ViewDetail opens the detail dialog for a loaded user.
func (s *UserScreen) ViewDetail(id int) error {
	user, ok := s.findUser(id)
	if !ok {
		return appErrors.Clone(appErrors.ErrNotFound, "user not found")
	}
	s.mu.Lock()
	s.detail = &user
	s.mu.Unlock()
	return nil
}

// CloseDetail closes the detail dialog.
func (s *UserScreen) CloseDetail() {
	s.mu.Lock()
	s.detail = nil
	s.mu.Unlock()
}

// ChangeStatus sets the status of a loaded user and reloads the list. An open
// detail for that user shows the new status.
func (s *UserScreen) ChangeStatus(ctx context.Context, id int, status models.UserStatus) error {
	if !status.Valid() {
		return appErrors.Clone(appErrors.ErrValidation, "unknown status")
	}
	if _, ok := s.findUser(id); !ok {
		return appErrors.Clone(appErrors.ErrNotFound, "user not found")
	}
	s.mu.Lock()
	if s.changingStatus {
		s.mu.Unlock()
		return appErrors.ErrRequestInFlight
	}
	s.changingStatus = true
	s.success, s.errMessage = "", ""
	s.mu.Unlock()

	err := s.client.SetUserStatus(ctx, id, status)

	s.mu.Lock()
	s.changingStatus = false
	if err != nil {
		shown := displayError(err, userStatusFailed)
		s.errMessage = shown.Message
		s.mu.Unlock()
		return shown
	}
	if s.detail != nil && s.detail.ID == id {
		s.detail.Status = status
	}
	s.success = "Estado actualizado"
	s.mu.Unlock()

	s.record(ctx, models.AuditActionUserStatus, id, models.UserStatusRequest{Status: status})
	err = s.list.Refetch(ctx)

	if user, ok := s.findUser(id); ok {
		s.mu.Lock()
		if s.detail != nil && s.detail.ID == id {
			s.detail = &user
		}
		s.mu.Unlock()
	}
	return err
}

// AskDelete opens the delete confirmation for a loaded user.
func (s *UserScreen) AskDelete(id int) error {
	user, ok := s.findUser(id)
	if !ok {
		return appErrors.Clone(appErrors.ErrNotFound, "user not found")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.deleting {
		return appErrors.ErrRequestInFlight
	}
	s.deleteUser = &user
	return nil
}

// CancelDelete closes the confirmation without deleting.
func (s *UserScreen) CancelDelete() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.deleting {
		return appErrors.ErrRequestInFlight
	}
	s.deleteUser = nil
	return nil
}

// ConfirmDelete deletes the pending user. The dialog closes whatever the outcome.
func (s *UserScreen) ConfirmDelete(ctx context.Context) error {
	s.mu.Lock()
	if s.deleteUser == nil {
		s.mu.Unlock()
		return appErrors.ErrInvalidStep
	}
	if s.deleting {
		s.mu.Unlock()
		return appErrors.ErrRequestInFlight
	}
	s.deleting = true
	s.success, s.errMessage = "", ""
	id := s.deleteUser.ID
	s.mu.Unlock()

	err := s.client.DeleteUser(ctx, id)

	s.mu.Lock()
	s.deleting = false
	s.deleteUser = nil
	if err != nil {
		shown := displayError(err, userDeleteFailed)
		s.errMessage = shown.Message
		s.mu.Unlock()
		s.logger.Info("user delete rejected", zap.Int("user_id", id), zap.Error(err))
		return shown
	}
	if s.detail != nil && s.detail.ID == id {
		s.detail = nil
	}
	s.success = "Usuario eliminado"
	s.mu.Unlock()

	s.record(ctx, models.AuditActionUserDelete, id, nil)
	return s.list.Refetch(ctx)
}

// ExportCSV renders the rows currently loaded.
func (s *UserScreen) ExportCSV() ([]byte, error) {
	state := s.list.State()
	headers := []string{"ID", "Nombre", "Apellido", "Email", "Cédula", "Teléfono", "Rol", "Estado", "Creado"}
	rows := make([]map[string]string, 0, len(state.Items))
	for _, u := range state.Items {
		row := s.row(u)
		rows = append(rows, map[string]string{
			"ID":       strconv.Itoa(u.ID),
			"Nombre":   u.FirstName,
			"Apellido": u.LastName,
			"Email":    u.Email,
			"Cédula":   u.NationalID,
			"Teléfono": u.Phone,
			"Rol":      row.RoleLabel,
			"Estado":   row.StatusLabel,
			"Creado":   s.formatter.Date(u.CreatedAt),
		})
	}
	return s.exporter.Render(export.Dataset{Headers: headers, Rows: rows})
}

// Pagination reports the list position for the response envelope.
func (s *UserScreen) Pagination() *models.Pagination {
	return s.list.State().Pagination()
}

// View renders the screen.
func (s *UserScreen) View() dto.UsersView {
	state := s.list.State()

	s.mu.Lock()
	defer s.mu.Unlock()

	view := dto.UsersView{
		Items:          make([]dto.UserRow, 0, len(state.Items)),
		Query:          state.Query,
		Total:          state.Total,
		LastPage:       state.LastPage,
		PerPageOptions: state.PerPageOptions,
		Loading:        state.Loading,
		Error:          state.Error,
		Roles:          append([]models.Role{}, s.roleOptions...),
		Statuses:       append([]dto.StatusOption{}, userStatusLabels...),
		Success:        s.success,
		ChangingStatus: s.changingStatus,
	}
	if s.errMessage != "" {
		view.Error = s.errMessage
	}
	for _, u := range state.Items {
		view.Items = append(view.Items, s.row(u))
	}
	if s.form != nil {
		values := s.form.values
		values.Password = ""
		view.Form = &dto.UserFormView{
			Mode:       s.form.mode,
			UserID:     s.form.userID,
			Values:     values,
			Submitting: s.form.submitting,
			Error:      s.form.errMessage,
		}
	}
	if s.detail != nil {
		row := s.row(*s.detail)
		view.Detail = &row
	}
	if s.deleteUser != nil {
		view.Delete = &dto.DeleteDialog{
			ID:       s.deleteUser.ID,
			Name:     s.deleteUser.FullName(),
			Title:    "¿Eliminar usuario?",
			Message:  deleteDialogMessage,
			Deleting: s.deleting,
		}
	}
	return view
}

func (s *UserScreen) row(u models.User) dto.UserRow {
	roleLabel := u.RoleName()
	if roleLabel == "" {
		roleLabel = noRoleLabel
	}
	return dto.UserRow{
		User:        u,
		DisplayName: u.FullName(),
		RoleLabel:   roleLabel,
		StatusLabel: statusLabel(u.Status),
	}
}

func (s *UserScreen) findUser(id int) (models.User, bool) {
	return s.list.Find(func(u models.User) bool { return u.ID == id })
}

func (s *UserScreen) clearNotice() {
	s.mu.Lock()
	s.success, s.errMessage = "", ""
	s.mu.Unlock()
}

func (s *UserScreen) record(ctx context.Context, action string, id int, values interface{}) {
	if s.audit == nil {
		return
	}
	s.audit.Record(ctx, AuditEntry{Action: action, Resource: "user", ResourceID: strconv.Itoa(id), Values: values})
}

// statusLabel falls back to Inactivo for unknown values.
func statusLabel(status models.UserStatus) string {
	for _, option := range userStatusLabels {
		if option.Value == status {
			return option.Label
		}
	}
	return "Inactivo"
}

func normalizeUserForm(values dto.UserForm) dto.UserForm {
	values.FirstName = strings.TrimSpace(values.FirstName)
	values.LastName = strings.TrimSpace(values.LastName)
	values.Email = strings.TrimSpace(values.Email)
	values.NationalID = strings.TrimSpace(values.NationalID)
	values.Phone = strings.TrimSpace(values.Phone)
	if values.RoleID != nil && *values.RoleID == 0 {
		values.RoleID = nil
	}
	return values
}
