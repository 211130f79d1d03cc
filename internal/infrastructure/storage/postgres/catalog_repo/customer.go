// Package catalog_repo provides PostgreSQL implementations for the
// customer and item catalogs.
package catalog_repo

import (
	"context"

	"github.com/Masterminds/squirrel"

	"github.com/abbakari/works/internal/core/id"
	"github.com/abbakari/works/internal/domain"
	"github.com/abbakari/works/internal/domain/catalog"
	"github.com/abbakari/works/internal/infrastructure/storage/postgres"
)

var customerOrder = map[string]bool{"name": true, "code": true, "region": true, "created_at": true}

// CustomerRepo implements catalog.CustomerRepository.
type CustomerRepo struct {
	*postgres.Table[catalog.Customer]
}

// NewCustomerRepo creates a customer repository.
func NewCustomerRepo(txm *postgres.TxManager) *CustomerRepo {
	return &CustomerRepo{Table: postgres.NewTable[catalog.Customer](txm, "customers", "customer")}
}

func (r *CustomerRepo) Create(ctx context.Context, c *catalog.Customer) error {
	return r.Insert(ctx, c)
}

func (r *CustomerRepo) GetByID(ctx context.Context, customerID id.ID) (*catalog.Customer, error) {
	return r.Table.GetByID(ctx, customerID, false)
}

func (r *CustomerRepo) GetByCode(ctx context.Context, code string) (*catalog.Customer, error) {
	return r.Get(ctx, r.Select().Where(squirrel.Eq{"code": code}), code)
}

func (r *CustomerRepo) Update(ctx context.Context, c *catalog.Customer) error {
	return r.Table.Update(ctx, c)
}

func (r *CustomerRepo) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[catalog.Customer], error) {
	q := r.Select()
	if !filter.IncludeInactive {
		q = q.Where(squirrel.Eq{"is_active": true})
	}
	if filter.Search != "" {
		q = q.Where(postgres.Search(filter.Search, "name", "code"))
	}
	return r.Page(ctx, q, filter, filter.OrderClause(customerOrder, "name ASC"))
}

var _ catalog.CustomerRepository = (*CustomerRepo)(nil)
