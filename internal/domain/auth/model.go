// Package auth provides authentication, user administration and the
// manager hierarchy.
package auth

import (
	"context"
	"net/mail"
	"strings"
	"time"

	"github.com/abbakari/works/internal/core/apperror"
	"github.com/abbakari/works/internal/core/id"
	"github.com/abbakari/works/internal/core/security"
)

// User represents a system user.
type User struct {
	ID                  id.ID         `db:"id" json:"id"`
	Email               string        `db:"email" json:"email"`
	Username            string        `db:"username" json:"username"`
	PasswordHash        string        `db:"password_hash" json:"-"`
	FirstName           string        `db:"first_name" json:"firstName,omitempty"`
	LastName            string        `db:"last_name" json:"lastName,omitempty"`
	Role                security.Role `db:"role" json:"role"`
	ManagerID           *id.ID        `db:"manager_id" json:"managerId,omitempty"`
	Department          string        `db:"department" json:"department,omitempty"`
	Phone               string        `db:"phone" json:"phone,omitempty"`
	IsActive            bool          `db:"is_active" json:"isActive"`
	LastLoginAt         *time.Time    `db:"last_login_at" json:"lastLoginAt,omitempty"`
	FailedLoginAttempts int           `db:"failed_login_attempts" json:"-"`
	LockedUntil         *time.Time    `db:"locked_until" json:"-"`
	CreatedAt           time.Time     `db:"created_at" json:"createdAt"`
	UpdatedAt           time.Time     `db:"updated_at" json:"updatedAt"`
	Version             int           `db:"version" json:"version"`
}

// NewUser creates a new active user.
func NewUser(email, passwordHash string, role security.Role) *User {
	now := time.Now().UTC()
	return &User{
		ID:           id.New(),
		Email:        strings.ToLower(strings.TrimSpace(email)),
		PasswordHash: passwordHash,
		Role:         role,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
		Version:      1,
	}
}

// Validate validates user data.
func (u *User) Validate(_ context.Context) error {
	if u.Email == "" {
		return apperror.NewValidation("email is required").WithDetail("field", "email")
	}
	if _, err := mail.ParseAddress(u.Email); err != nil {
		return apperror.NewValidation("email is malformed").WithDetail("field", "email")
	}
	if !u.Role.Valid() {
		return apperror.NewValidation("unknown role").WithDetail("field", "role").WithDetail("value", u.Role)
	}
	if u.ManagerID != nil && *u.ManagerID == u.ID {
		return apperror.NewValidation("a user can not be their own manager").WithDetail("field", "managerId")
	}
	return nil
}

// Actor returns the security view of the user.
func (u *User) Actor() security.Actor {
	return security.Actor{ID: u.ID, Role: u.Role, ManagerID: u.ManagerID}
}

// IsLocked returns true if account is locked.
func (u *User) IsLocked() bool {
	if u.LockedUntil == nil {
		return false
	}
	return time.Now().Before(*u.LockedUntil)
}

// CanLogin checks if user can login.
func (u *User) CanLogin() error {
	if !u.IsActive {
		return apperror.NewForbidden("account is disabled")
	}
	if u.IsLocked() {
		return apperror.NewForbidden("account is temporarily locked")
	}
	return nil
}

// RecordFailedLogin increments failed login counter.
func (u *User) RecordFailedLogin(maxAttempts int, lockDuration time.Duration) {
	u.FailedLoginAttempts++
	if u.FailedLoginAttempts >= maxAttempts {
		lockUntil := time.Now().Add(lockDuration)
		u.LockedUntil = &lockUntil
	}
}

// RecordSuccessfulLogin resets failed login counter.
func (u *User) RecordSuccessfulLogin() {
	u.FailedLoginAttempts = 0
	u.LockedUntil = nil
	now := time.Now().UTC()
	u.LastLoginAt = &now
}

// FullName returns user's full name.
func (u *User) FullName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.Email
	}
	return name
}

// RefreshToken represents a refresh token for JWT refresh.
type RefreshToken struct {
	ID            id.ID      `db:"id"`
	UserID        id.ID      `db:"user_id"`
	TokenHash     string     `db:"token_hash"`
	ExpiresAt     time.Time  `db:"expires_at"`
	CreatedAt     time.Time  `db:"created_at"`
	RevokedAt     *time.Time `db:"revoked_at"`
	RevokedReason *string    `db:"revoked_reason"`
}

// IsValid checks if refresh token is valid.
func (t *RefreshToken) IsValid() bool {
	if t.RevokedAt != nil {
		return false
	}
	return time.Now().Before(t.ExpiresAt)
}

// TokenPair contains access and refresh tokens.
type TokenPair struct {
	AccessToken  string    `json:"accessToken"`
	RefreshToken string    `json:"refreshToken"`
	ExpiresAt    time.Time `json:"expiresAt"`
	TokenType    string    `json:"tokenType"`
}

// Credentials for login.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterRequest creates a user with a role.
type RegisterRequest struct {
	Email      string
	Username   string
	Password   string
	FirstName  string
	LastName   string
	Role       security.Role
	ManagerID  *id.ID
	Department string
	Phone      string
}
