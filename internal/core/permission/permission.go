// Package permission decides whether a caller may perform an action.
//
// Policies are stateless and evaluated on every request against the caller
// as currently stored. A nil caller is anonymous: it has no role and owns
// nothing.
package permission

import (
	"net/http"

	"github.com/yamdb/yamdb-api/internal/core/domain"
)

// Action is the kind of operation a request performs.
type Action int

const (
	ActionRead Action = iota
	ActionCreate
	ActionUpdate
	ActionDelete
)

// Safe reports whether the action leaves state untouched.
func (a Action) Safe() bool { return a == ActionRead }

func (a Action) String() string {
	switch a {
	case ActionRead:
		return "read"
	case ActionCreate:
		return "create"
	case ActionUpdate:
		return "update"
	case ActionDelete:
		return "delete"
	}
	return "unknown"
}

// ActionFromMethod maps an HTTP method to an Action. Unknown methods are
// treated as updates so they never pass as safe.
func ActionFromMethod(method string) Action {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return ActionRead
	case http.MethodPost:
		return ActionCreate
	case http.MethodDelete:
		return ActionDelete
	default:
		return ActionUpdate
	}
}

// Policy is a fixed authorization rule.
type Policy interface {
	// Allow is the collection-level gate, run for every request.
	Allow(caller *domain.User, a Action) bool
	// AllowObject is the object-level gate, run only after Allow passed and
	// only for operations on a single existing record owned by ownerID.
	AllowObject(caller *domain.User, a Action, ownerID string) bool
}

// ReadOnlyOrAdmin lets anyone read and only admins write.
type ReadOnlyOrAdmin struct{}

func (ReadOnlyOrAdmin) Allow(caller *domain.User, a Action) bool {
	return a.Safe() || caller.IsAdmin()
}

func (p ReadOnlyOrAdmin) AllowObject(caller *domain.User, a Action, _ string) bool {
	return p.Allow(caller, a)
}

// AdminOnly requires an admin for every action, reads included.
type AdminOnly struct{}

func (AdminOnly) Allow(caller *domain.User, _ Action) bool { return caller.IsAdmin() }

func (AdminOnly) AllowObject(caller *domain.User, _ Action, _ string) bool { return caller.IsAdmin() }

// Authenticated admits any signed-in caller.
type Authenticated struct{}

func (Authenticated) Allow(caller *domain.User, _ Action) bool { return caller != nil }

func (Authenticated) AllowObject(caller *domain.User, _ Action, _ string) bool { return caller != nil }

// AuthorModeratorAdmin guards reviews and comments: anyone reads, any
// signed-in caller creates, and only the author, a moderator or an admin
// changes an existing record.
type AuthorModeratorAdmin struct{}

func (AuthorModeratorAdmin) Allow(caller *domain.User, a Action) bool {
	return a.Safe() || caller != nil
}

func (AuthorModeratorAdmin) AllowObject(caller *domain.User, a Action, ownerID string) bool {
	if a.Safe() {
		return true
	}
	if caller == nil {
		return false
	}
	return caller.ID == ownerID || caller.IsModerator() || caller.IsAdmin()
}

// Check runs the collection-level gate and returns the error to surface.
func Check(p Policy, caller *domain.User, a Action) error {
	if p.Allow(caller, a) {
		return nil
	}
	return denied(caller)
}

// CheckObject runs both gates in order for an operation on one record.
func CheckObject(p Policy, caller *domain.User, a Action, ownerID string) error {
	if err := Check(p, caller, a); err != nil {
		return err
	}
	if p.AllowObject(caller, a, ownerID) {
		return nil
	}
	return denied(caller)
}

func denied(caller *domain.User) error {
	if caller == nil {
		return domain.ErrAuthenticationRequired
	}
	return domain.ErrPermissionDenied
}
