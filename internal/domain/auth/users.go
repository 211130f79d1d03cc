package auth

import (
	"context"
	"time"

	"github.com/abbakari/works/internal/core/apperror"
	"github.com/abbakari/works/internal/core/id"
	"github.com/abbakari/works/internal/core/security"
	"github.com/abbakari/works/pkg/logger"
)

// GetUser returns one user.
func (s *Service) GetUser(ctx context.Context, userID id.ID) (*User, error) {
	return s.userRepo.GetByID(ctx, userID)
}

// ListUsers lists users with filtering.
func (s *Service) ListUsers(ctx context.Context, filter UserFilter) ([]User, int, error) {
	if filter.Limit <= 0 || filter.Limit > 500 {
		filter.Limit = 50
	}
	return s.userRepo.List(ctx, filter)
}

// Reports returns the direct reports of a user.
func (s *Service) Reports(ctx context.Context, managerID id.ID) ([]User, error) {
	if _, err := s.userRepo.GetByID(ctx, managerID); err != nil {
		return nil, err
	}
	return s.userRepo.ListReports(ctx, managerID)
}

// Activate re-enables a user.
func (s *Service) Activate(ctx context.Context, userID id.ID) (*User, error) {
	return s.mutateUser(ctx, userID, "user activated", func(ctx context.Context, u *User) error {
		u.IsActive = true
		u.FailedLoginAttempts = 0
		u.LockedUntil = nil
		return nil
	})
}

// Deactivate disables a user and revokes their sessions. Admins can not
// deactivate themselves.
func (s *Service) Deactivate(ctx context.Context, actor security.Actor, userID id.ID) (*User, error) {
	if actor.ID == userID {
		return nil, apperror.NewValidation("you can not deactivate your own account")
	}
	return s.mutateUser(ctx, userID, "user deactivated", func(ctx context.Context, u *User) error {
		u.IsActive = false
		return s.tokenRepo.RevokeAllUserTokens(ctx, u.ID, "deactivated")
	})
}

// ChangeRole assigns a new role.
func (s *Service) ChangeRole(ctx context.Context, actor security.Actor, userID id.ID, role security.Role) (*User, error) {
	if !role.Valid() {
		return nil, apperror.NewValidation("unknown role").WithDetail("value", role)
	}
	if actor.ID == userID && role != security.RoleAdmin {
		return nil, apperror.NewValidation("you can not remove your own admin role")
	}
	return s.mutateUser(ctx, userID, "user role changed", func(_ context.Context, u *User) error {
		u.Role = role
		return nil
	})
}

// SetManager moves a user under managerID, or detaches them when nil.
func (s *Service) SetManager(ctx context.Context, userID id.ID, managerID *id.ID) (*User, error) {
	return s.mutateUser(ctx, userID, "user manager changed", func(ctx context.Context, u *User) error {
		if err := s.validateManager(ctx, u.ID, managerID); err != nil {
			return err
		}
		u.ManagerID = managerID
		return nil
	})
}

// ResetPassword sets a new password without knowing the old one.
func (s *Service) ResetPassword(ctx context.Context, userID id.ID, password string) (*User, error) {
	if err := s.validatePassword(password); err != nil {
		return nil, err
	}
	hash, err := s.hashPassword(password)
	if err != nil {
		return nil, err
	}
	return s.mutateUser(ctx, userID, "user password reset", func(ctx context.Context, u *User) error {
		u.PasswordHash = hash
		u.FailedLoginAttempts = 0
		u.LockedUntil = nil
		return s.tokenRepo.RevokeAllUserTokens(ctx, u.ID, "password_reset")
	})
}

func (s *Service) mutateUser(ctx context.Context, userID id.ID, msg string, fn func(context.Context, *User) error) (*User, error) {
	var user *User
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		u, err := s.userRepo.GetByID(ctx, userID)
		if err != nil {
			return err
		}
		if err := fn(ctx, u); err != nil {
			return err
		}
		u.UpdatedAt = time.Now().UTC()
		if err := s.userRepo.Update(ctx, u); err != nil {
			return err
		}
		user = u
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.sessions.Forget(userID)
	logger.Info(ctx, msg, "target_user_id", userID)
	return user, nil
}
