package handler

import (
	"errors"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/yamdb/yamdb-api/internal/core/domain"
)

var (
	usernameTag = regexp.MustCompile(`^[\w.@+-]+$`)
	slugTag     = regexp.MustCompile(`^[-a-zA-Z0-9_]+$`)
)

// echoValidator wraps go-playground/validator so Echo can call c.Validate(req).
type echoValidator struct {
	v *validator.Validate
}

// NewValidator returns an echoValidator ready to be assigned to echo.Echo.Validator.
// Field names in messages are the JSON names the client sent.
func NewValidator() *echoValidator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return usernameTag.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("slug", func(fl validator.FieldLevel) bool {
		return slugTag.MatchString(fl.Field().String())
	})
	return &echoValidator{v: v}
}

// Validate satisfies the echo.Validator interface. The first failing field
// comes back as a *domain.FieldError.
func (ev *echoValidator) Validate(i any) error {
	if err := ev.v.Struct(i); err != nil {
		var ve validator.ValidationErrors
		if errors.As(err, &ve) && len(ve) > 0 {
			return fieldError(ve[0])
		}
		return err
	}
	return nil
}

// fieldError converts a single ValidationError into a human-readable message.
func fieldError(fe validator.FieldError) *domain.FieldError {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return domain.NewFieldError(field, "is required")
	case "email":
		return domain.NewFieldError(field, "must be a valid email")
	case "username":
		return domain.NewFieldError(field, "may contain only letters, digits and @/./+/-/_")
	case "slug":
		return domain.NewFieldError(field, "may contain only letters, digits, - and _")
	case "min":
		return domain.NewFieldError(field, "must be at least %s", fe.Param())
	case "max":
		return domain.NewFieldError(field, "must be at most %s", fe.Param())
	case "oneof":
		return domain.NewFieldError(field, "must be one of: %s", fe.Param())
	default:
		return domain.NewFieldError(field, "failed validation (%s)", fe.Tag())
	}
}
