package budgets

import (
	"context"

	"github.com/abbakari/works/internal/core/entity"
	"github.com/abbakari/works/internal/core/id"
	"github.com/abbakari/works/internal/core/security"
	"github.com/abbakari/works/internal/core/types"
	"github.com/abbakari/works/internal/domain"
)

// Repository persists budgets with their months.
type Repository interface {
	// Create inserts the header and every month row.
	Create(ctx context.Context, b *YearlyBudget) error

	// GetByID loads an active budget with months.
	GetByID(ctx context.Context, budgetID id.ID) (*YearlyBudget, error)

	// GetForUpdate is GetByID with a row lock held until the transaction ends.
	GetForUpdate(ctx context.Context, budgetID id.ID) (*YearlyBudget, error)

	// Update writes the header with an optimistic version check and bumps Version.
	Update(ctx context.Context, b *YearlyBudget) error

	// SaveMonths upserts b.Months by (budget, month).
	SaveMonths(ctx context.Context, b *YearlyBudget) error

	// List returns the headers visible under scope.
	List(ctx context.Context, scope security.Scope, filter domain.ListFilter) (domain.ListResult[YearlyBudget], error)

	// Summary aggregates the budgets visible under scope.
	Summary(ctx context.Context, scope security.Scope, filter domain.ListFilter) (*Summary, error)
}

// Summary is an aggregate over visible budgets.
type Summary struct {
	TotalCount  int64                   `json:"totalCount"`
	TotalBudget types.Money             `json:"totalBudget"`
	TotalActual types.Money             `json:"totalActual"`
	ByStatus    map[entity.Status]int64 `json:"byStatus"`
	ByYear      []GroupTotal            `json:"byYear"`
	ByCategory  []GroupTotal            `json:"byCategory"`
}

// GroupTotal is one GROUP BY bucket.
type GroupTotal struct {
	Key   string      `db:"key" json:"key"`
	Count int64       `db:"count" json:"count"`
	Total types.Money `db:"total" json:"total"`
}

// References checks that referenced catalog rows exist.
type References interface {
	CustomerItemNames(ctx context.Context, customerID, itemID id.ID) (customer, item, category, brand string, err error)
}

// Profiles resolves stored distribution profiles.
type Profiles interface {
	ProfileShares(ctx context.Context, profileID id.ID) (Distribution, error)
}
