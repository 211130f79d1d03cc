// Package auth_repo provides PostgreSQL implementations for auth repositories.
package auth_repo

import (
	"context"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"

	"github.com/abbakari/works/internal/core/id"
	"github.com/abbakari/works/internal/domain/auth"
	"github.com/abbakari/works/internal/infrastructure/storage/postgres"
)

// UserRepo implements auth.UserRepository.
type UserRepo struct {
	*postgres.Table[auth.User]
}

// NewUserRepo creates a new user repository.
func NewUserRepo(txm *postgres.TxManager) *UserRepo {
	return &UserRepo{Table: postgres.NewTable[auth.User](txm, "users", "user")}
}

// Create inserts a new user.
func (r *UserRepo) Create(ctx context.Context, user *auth.User) error {
	return r.Insert(ctx, user)
}

// GetByID retrieves user by ID, active or not.
func (r *UserRepo) GetByID(ctx context.Context, userID id.ID) (*auth.User, error) {
	return r.Table.GetByID(ctx, userID, false)
}

// GetByEmail retrieves user by email, case-insensitively.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*auth.User, error) {
	q := r.Select().Where(squirrel.Expr("lower(email) = lower(?)", strings.TrimSpace(email)))
	return r.Get(ctx, q, email)
}

// Update writes the user with an optimistic version check.
func (r *UserRepo) Update(ctx context.Context, user *auth.User) error {
	if err := r.Table.Update(ctx, user); err != nil {
		return err
	}
	user.Version++
	return nil
}

// List retrieves users with filtering.
func (r *UserRepo) List(ctx context.Context, filter auth.UserFilter) ([]auth.User, int, error) {
	q := r.Select()

	if filter.Search != "" {
		q = q.Where(postgres.Search(filter.Search, "email", "username", "first_name", "last_name"))
	}
	if filter.IsActive != nil {
		q = q.Where(squirrel.Eq{"is_active": *filter.IsActive})
	}
	if filter.Role != "" {
		q = q.Where(squirrel.Eq{"role": string(filter.Role)})
	}
	if filter.ManagerID != nil {
		q = q.Where(squirrel.Eq{"manager_id": *filter.ManagerID})
	}

	total, err := r.Count(ctx, q)
	if err != nil {
		return nil, 0, err
	}

	q = q.OrderBy("email ASC")
	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}
	users, err := r.All(ctx, q)
	if err != nil {
		return nil, 0, err
	}
	return users, int(total), nil
}

// Exists checks whether the email is taken.
func (r *UserRepo) Exists(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.Querier(ctx).QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM users WHERE lower(email) = lower($1))`,
		strings.TrimSpace(email),
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check exists: %w", err)
	}
	return exists, nil
}

// DirectReports returns the ids of users whose manager is managerID.
func (r *UserRepo) DirectReports(ctx context.Context, managerID id.ID) ([]id.ID, error) {
	rows, err := r.Querier(ctx).Query(ctx, `SELECT id FROM users WHERE manager_id = $1 ORDER BY id`, managerID)
	if err != nil {
		return nil, fmt.Errorf("query reports: %w", err)
	}
	defer rows.Close()

	var ids []id.ID
	for rows.Next() {
		var reportID id.ID
		if err := rows.Scan(&reportID); err != nil {
			return nil, fmt.Errorf("scan report: %w", err)
		}
		ids = append(ids, reportID)
	}
	return ids, rows.Err()
}

// ListReports returns the direct reports themselves.
func (r *UserRepo) ListReports(ctx context.Context, managerID id.ID) ([]auth.User, error) {
	return r.All(ctx, r.Select().Where(squirrel.Eq{"manager_id": managerID}).OrderBy("email ASC"))
}

var _ auth.UserRepository = (*UserRepo)(nil)
