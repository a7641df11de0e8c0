package domain

import (
	"net/mail"
	"regexp"
	"strings"
	"time"
)

// Role is the capability level of a user. It is plain data: every
// permission decision goes through the predicates below.
type Role string

const (
	RoleUser      Role = "user"
	RoleModerator Role = "moderator"
	RoleAdmin     Role = "admin"
)

// ReservedUsername addresses the caller's own profile (/users/me) and can
// never belong to a real account.
const ReservedUsername = "me"

const (
	MaxUsernameLength = 150
	MaxEmailLength    = 254
)

var usernamePattern = regexp.MustCompile(`^[\w.@+-]+$`)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleModerator, RoleAdmin:
		return true
	}
	return false
}

// User models an account. Username and Email are each globally unique.
type User struct {
	ID         string     `json:"id"`
	Username   string     `json:"username"`
	Email      string     `json:"email"`
	Role       Role       `json:"role"`
	IsStaff    bool       `json:"-"`
	FirstName  string     `json:"first_name"`
	LastName   string     `json:"last_name"`
	Bio        string     `json:"bio"`
	LastLogin  *time.Time `json:"-"`
	DateJoined time.Time  `json:"-"`
}

// IsAdmin reports whether u may manage catalog and user records. The admin
// role and the staff flag are independent ways to get there.
func (u *User) IsAdmin() bool {
	if u == nil {
		return false
	}
	return u.Role == RoleAdmin || u.IsStaff
}

// IsModerator reports whether u may moderate any review or comment.
func (u *User) IsModerator() bool {
	if u == nil {
		return false
	}
	return u.Role == RoleModerator
}

// ValidateUsername checks the username format, including the reserved name.
func ValidateUsername(username string) error {
	if username == ReservedUsername {
		return ErrReservedUsername
	}
	if username == "" {
		return NewFieldError("username", "is required")
	}
	if len(username) > MaxUsernameLength {
		return NewFieldError("username", "must be at most %d characters", MaxUsernameLength)
	}
	if !usernamePattern.MatchString(username) {
		return ErrInvalidUsername
	}
	return nil
}

// NormalizeEmail trims and validates an address. The domain part is
// lower-cased; the local part is kept as given.
func NormalizeEmail(email string) (string, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return "", NewFieldError("email", "is required")
	}
	if len(email) > MaxEmailLength {
		return "", NewFieldError("email", "must be at most %d characters", MaxEmailLength)
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", ErrInvalidEmail
	}
	at := strings.LastIndex(email, "@")
	return email[:at] + strings.ToLower(email[at:]), nil
}
