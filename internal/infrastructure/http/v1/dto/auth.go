package dto

import (
	"time"

	"github.com/abbakari/works/internal/core/security"
	"github.com/abbakari/works/internal/domain/auth"
)

// RegisterRequest creates a user. Admin only.
type RegisterRequest struct {
	Email      string `json:"email" binding:"required,email"`
	Username   string `json:"username"`
	Password   string `json:"password" binding:"required"`
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
	Role       string `json:"role" binding:"required"`
	ManagerID  string `json:"managerId" binding:"omitempty,uuid"`
	Department string `json:"department"`
	Phone      string `json:"phone"`
}

// ToAuthRequest converts to the domain request.
func (r *RegisterRequest) ToAuthRequest() (auth.RegisterRequest, error) {
	mgr, err := parseOptionalID(r.ManagerID, "managerId")
	if err != nil {
		return auth.RegisterRequest{}, err
	}
	return auth.RegisterRequest{
		Email:      r.Email,
		Username:   r.Username,
		Password:   r.Password,
		FirstName:  r.FirstName,
		LastName:   r.LastName,
		Role:       security.ParseRole(r.Role),
		ManagerID:  mgr,
		Department: r.Department,
		Phone:      r.Phone,
	}, nil
}

// LoginRequest for user login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// ToCredentials converts to domain credentials.
func (r *LoginRequest) ToCredentials() auth.Credentials {
	return auth.Credentials{Email: r.Email, Password: r.Password}
}

// RefreshTokenRequest for token refresh.
type RefreshTokenRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

// ChangePasswordRequest replaces the caller's password.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required"`
}

// ChangeRoleRequest assigns a role.
type ChangeRoleRequest struct {
	Role string `json:"role" binding:"required"`
}

// SetManagerRequest moves a user in the hierarchy. Empty ManagerID detaches.
type SetManagerRequest struct {
	ManagerID string `json:"managerId" binding:"omitempty,uuid"`
}

// ResetPasswordRequest is an admin password reset.
type ResetPasswordRequest struct {
	Password string `json:"password" binding:"required"`
}

// CheckPermissionRequest asks whether the caller holds resource:action.
type CheckPermissionRequest struct {
	Resource string `json:"resource" binding:"required"`
	Action   string `json:"action" binding:"required"`
}

// CheckDashboardRequest asks whether the caller may open a dashboard.
type CheckDashboardRequest struct {
	Dashboard string `json:"dashboard" binding:"required"`
}

// UserListQuery filters the user list.
type UserListQuery struct {
	Search    string `form:"search"`
	Role      string `form:"role"`
	Active    *bool  `form:"active"`
	ManagerID string `form:"managerId" binding:"omitempty,uuid"`
	Limit     int    `form:"limit" binding:"omitempty,min=1,max=500"`
	Offset    int    `form:"offset" binding:"omitempty,min=0"`
}

// ToFilter converts to the domain filter.
func (q *UserListQuery) ToFilter() (auth.UserFilter, error) {
	mgr, err := parseOptionalID(q.ManagerID, "managerId")
	if err != nil {
		return auth.UserFilter{}, err
	}
	f := auth.UserFilter{
		Search:    q.Search,
		IsActive:  q.Active,
		ManagerID: mgr,
		Limit:     q.Limit,
		Offset:    q.Offset,
	}
	if q.Role != "" {
		f.Role = security.ParseRole(q.Role)
	}
	return f, nil
}

// TokenResponse represents token pair response.
type TokenResponse struct {
	AccessToken  string    `json:"accessToken"`
	RefreshToken string    `json:"refreshToken"`
	ExpiresAt    time.Time `json:"expiresAt"`
	TokenType    string    `json:"tokenType"`
}

// FromTokenPair creates response from domain token pair.
func FromTokenPair(tp *auth.TokenPair) *TokenResponse {
	return &TokenResponse{
		AccessToken:  tp.AccessToken,
		RefreshToken: tp.RefreshToken,
		ExpiresAt:    tp.ExpiresAt,
		TokenType:    tp.TokenType,
	}
}

// UserResponse represents a user in API responses.
type UserResponse struct {
	ID          string     `json:"id"`
	Email       string     `json:"email"`
	Username    string     `json:"username"`
	Name        string     `json:"name"`
	FirstName   string     `json:"firstName,omitempty"`
	LastName    string     `json:"lastName,omitempty"`
	Role        string     `json:"role"`
	ManagerID   *string    `json:"managerId,omitempty"`
	Department  string     `json:"department,omitempty"`
	Phone       string     `json:"phone,omitempty"`
	IsActive    bool       `json:"isActive"`
	LastLoginAt *time.Time `json:"lastLoginAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	Version     int        `json:"version"`
}

// FromUser creates response from domain user.
func FromUser(u *auth.User) *UserResponse {
	r := &UserResponse{
		ID:          u.ID.String(),
		Email:       u.Email,
		Username:    u.Username,
		Name:        u.FullName(),
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		Role:        string(u.Role),
		Department:  u.Department,
		Phone:       u.Phone,
		IsActive:    u.IsActive,
		LastLoginAt: u.LastLoginAt,
		CreatedAt:   u.CreatedAt,
		Version:     u.Version,
	}
	if u.ManagerID != nil {
		s := u.ManagerID.String()
		r.ManagerID = &s
	}
	return r
}

// FromUsers converts a slice.
func FromUsers(users []auth.User) []*UserResponse {
	out := make([]*UserResponse, len(users))
	for i := range users {
		out[i] = FromUser(&users[i])
	}
	return out
}

// AccessResponse lists what a role may do.
type AccessResponse struct {
	Role        string   `json:"role"`
	Permissions []string `json:"permissions"`
	Dashboards  []string `json:"dashboards"`
}

// NewAccessResponse resolves capabilities and dashboards of role.
func NewAccessResponse(perms *security.Resolver, role security.Role) AccessResponse {
	caps := perms.PermissionsFor(role)
	dashes := perms.DashboardsFor(role)
	r := AccessResponse{
		Role:        string(role),
		Permissions: make([]string, len(caps)),
		Dashboards:  make([]string, len(dashes)),
	}
	for i, c := range caps {
		r.Permissions[i] = c.String()
	}
	for i, d := range dashes {
		r.Dashboards[i] = string(d)
	}
	return r
}

// LoginResponse is returned by POST /auth/login.
type LoginResponse struct {
	Tokens *TokenResponse `json:"tokens"`
	User   *UserResponse  `json:"user"`
	Access AccessResponse `json:"access"`
}

// CheckResponse answers a permission or dashboard check.
type CheckResponse struct {
	Allowed bool `json:"allowed"`
}
