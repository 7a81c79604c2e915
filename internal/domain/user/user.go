package user

import (
	"errors"
	"strings"
	"time"
)

type Role string

const (
	RoleUnassigned Role = "unassigned"
	RoleStudent    Role = "Student"
	RoleInstructor Role = "Instructor"
	RoleAdmin      Role = "Admin"
)

var (
	ErrAlreadyExists = errors.New("user already exists")
	ErrNotFound      = errors.New("user not found")
	ErrInvalidRole   = errors.New("invalid role")
)

type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	PhotoURL  string    `json:"photoURL,omitempty"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// UpsertRequest is the sign-in profile posted by the client. Role is never
// taken from the payload.
type UpsertRequest struct {
	Name     string `json:"name" binding:"omitempty,max=120"`
	Email    string `json:"email" binding:"required,email"`
	PhotoURL string `json:"photoURL" binding:"omitempty,max=2048"`
}

func NewFromUpsertRequest(req UpsertRequest) User {
	now := time.Now().UTC()

	return User{
		Name:      strings.TrimSpace(req.Name),
		Email:     NormalizeEmail(req.Email),
		PhotoURL:  req.PhotoURL,
		Role:      RoleUnassigned,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ParseRole accepts any casing of a known role.
func ParseRole(raw string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "unassigned":
		return RoleUnassigned, nil
	case "student":
		return RoleStudent, nil
	case "instructor":
		return RoleInstructor, nil
	case "admin":
		return RoleAdmin, nil
	default:
		return "", ErrInvalidRole
	}
}

// Assignable reports whether r can be set through a role-assignment action.
// Unassigned is only ever the creation default.
func (r Role) Assignable() bool {
	switch r {
	case RoleStudent, RoleInstructor, RoleAdmin:
		return true
	default:
		return false
	}
}
