package domain

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by the core wraps exactly one of these so
// the transport layer can map it to a status code with errors.Is.
var (
	ErrValidation             = errors.New("validation failed")
	ErrPermissionDenied       = errors.New("permission denied")
	ErrAuthenticationRejected = errors.New("authentication rejected")
	ErrConflict               = errors.New("conflict")
	ErrNotFound               = errors.New("not found")
)

var (
	ErrReservedUsername = kind(ErrValidation, `username "me" is reserved`)
	ErrInvalidUsername  = kind(ErrValidation, "username may contain only letters, digits and @/./+/-/_")
	ErrInvalidEmail     = kind(ErrValidation, "email must be a valid address")
	ErrInvalidRole      = kind(ErrValidation, "role must be one of: user, moderator, admin")
	ErrInvalidScore     = kind(ErrValidation, "score must be between 1 and 10")
	ErrInvalidYear      = kind(ErrValidation, "year is out of range")
	ErrInvalidSlug      = kind(ErrValidation, "slug may contain only letters, digits, - and _")
	ErrEmptyText        = kind(ErrValidation, "text is required")

	ErrAuthenticationRequired  = kind(ErrAuthenticationRejected, "authentication credentials were not provided or are invalid")
	ErrInvalidConfirmationCode = kind(ErrAuthenticationRejected, "invalid confirmation code")

	ErrUsernameTaken = kind(ErrConflict, "username is already taken")
	ErrEmailTaken    = kind(ErrConflict, "email is already taken")
	ErrUserExists    = kind(ErrConflict, "user already exists")
	ErrReviewExists  = kind(ErrConflict, "you have already reviewed this title")
	ErrSlugExists    = kind(ErrConflict, "slug already exists")

	ErrUserNotFound     = kind(ErrNotFound, "user not found")
	ErrTitleNotFound    = kind(ErrNotFound, "title not found")
	ErrReviewNotFound   = kind(ErrNotFound, "review not found")
	ErrCommentNotFound  = kind(ErrNotFound, "comment not found")
	ErrCategoryNotFound = kind(ErrNotFound, "category not found")
	ErrGenreNotFound    = kind(ErrNotFound, "genre not found")
)

// kindError is a message that classifies as one of the error kinds.
type kindError struct {
	kind error
	msg  string
}

func kind(k error, msg string) error { return &kindError{kind: k, msg: msg} }

func (e *kindError) Error() string { return e.msg }

func (e *kindError) Unwrap() error { return e.kind }

// FieldError is a validation failure attached to a single input field.
type FieldError struct {
	Field   string
	Message string
}

// NewFieldError builds a FieldError; the message is formatted like fmt.Sprintf.
func NewFieldError(field, format string, args ...any) *FieldError {
	return &FieldError{Field: field, Message: fmt.Sprintf(format, args...)}
}

func (e *FieldError) Error() string { return e.Field + ": " + e.Message }

func (e *FieldError) Unwrap() error { return ErrValidation }
