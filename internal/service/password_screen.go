package service

import (
	"context"
	"sync"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/noah-isme/club-portal/internal/dto"
	"github.com/noah-isme/club-portal/internal/models"
	appErrors "github.com/noah-isme/club-portal/pkg/errors"
)

const (
	// MinPasswordLength is counted in characters, not bytes.
	MinPasswordLength = 6

	passwordChanged      = "Contraseña actualizada correctamente"
	passwordChangeFailed = "Error al cambiar la contraseña"
)

type passwordChanger interface {
	ChangePassword(ctx context.Context, current, next, confirm string) error
}

type auditRecorder interface {
	Record(ctx context.Context, entry AuditEntry)
}

// PasswordScreen is the credential change form for the signed-in account.
type PasswordScreen struct {
	changer passwordChanger
	audit   auditRecorder
	logger  *zap.Logger

	mu         sync.Mutex
	form       dto.PasswordForm
	submitting bool
	success    string
	errMessage string
}

// NewPasswordScreen mounts an empty form.
func NewPasswordScreen(changer passwordChanger, audit auditRecorder, logger *zap.Logger) *PasswordScreen {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PasswordScreen{changer: changer, audit: audit, logger: logger}
}

// Submit validates the form locally and, when it passes, asks the club API to
// change the password. Previous success and error messages are cleared first.
func (s *PasswordScreen) Submit(ctx context.Context, form dto.PasswordForm) error {
	s.mu.Lock()
	if s.submitting {
		s.mu.Unlock()
		return appErrors.ErrRequestInFlight
	}
	s.success, s.errMessage = "", ""
	s.form = form

	if form.NewPassword != form.ConfirmPassword {
		s.errMessage = appErrors.ErrPasswordMismatch.Message
		s.mu.Unlock()
		return appErrors.ErrPasswordMismatch
	}
	if utf8.RuneCountInString(form.NewPassword) < MinPasswordLength {
		s.errMessage = appErrors.ErrPasswordTooShort.Message
		s.mu.Unlock()
		return appErrors.ErrPasswordTooShort
	}
	s.submitting = true
	s.mu.Unlock()

	err := s.changer.ChangePassword(ctx, form.CurrentPassword, form.NewPassword, form.ConfirmPassword)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.submitting = false
	if err != nil {
		shown := displayError(err, passwordChangeFailed)
		s.errMessage = shown.Message
		s.logger.Info("password change rejected", zap.Error(err))
		return shown
	}
	s.form = dto.PasswordForm{}
	s.success = passwordChanged
	if s.audit != nil {
		s.audit.Record(ctx, AuditEntry{Action: models.AuditActionPasswordChange, Resource: "account"})
	}
	return nil
}

// View returns the current screen state.
func (s *PasswordScreen) View() dto.PasswordView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return dto.PasswordView{
		Submitting: s.submitting,
		Success:    s.success,
		Error:      s.errMessage,
		Filled:     s.form != (dto.PasswordForm{}),
		MinLength:  MinPasswordLength,
	}
}
