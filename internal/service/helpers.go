package service

import (
	"errors"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	appErrors "github.com/noah-isme/club-portal/pkg/errors"
)

const invalidFormMessage = "Revisa los datos del formulario"

func observeDB(metrics *MetricsService, label string, fn func() error) error {
	start := time.Now()
	err := fn()
	metrics.ObserveDBQuery(label, time.Since(start))
	return err
}

// displayError keeps the code and status of err and replaces its message with
// the one the screen shows.
func displayError(err error, fallback string) *appErrors.Error {
	message := appErrors.MessageOr(err, fallback)
	return appErrors.Clone(appErrors.FromError(err), message)
}

// newFormValidator reports fields by their JSON name.
func newFormValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validationError maps the first failed rule to a message keyed "field.tag".
func validationError(err error, messages map[string]string) *appErrors.Error {
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		if msg, ok := messages[fe.Field()+"."+fe.Tag()]; ok {
			return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, msg)
		}
	}
	return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, invalidFormMessage)
}
