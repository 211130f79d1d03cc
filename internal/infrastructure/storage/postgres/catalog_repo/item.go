package catalog_repo

import (
	"context"

	"github.com/Masterminds/squirrel"

	"github.com/abbakari/works/internal/core/id"
	"github.com/abbakari/works/internal/domain"
	"github.com/abbakari/works/internal/domain/catalog"
	"github.com/abbakari/works/internal/infrastructure/storage/postgres"
)

var itemOrder = map[string]bool{"name": true, "sku": true, "category": true, "unit_price": true, "created_at": true}

// ItemRepo implements catalog.ItemRepository.
type ItemRepo struct {
	*postgres.Table[catalog.Item]
}

// NewItemRepo creates an item repository.
func NewItemRepo(txm *postgres.TxManager) *ItemRepo {
	return &ItemRepo{Table: postgres.NewTable[catalog.Item](txm, "items", "item")}
}

func (r *ItemRepo) Create(ctx context.Context, i *catalog.Item) error {
	return r.Insert(ctx, i)
}

func (r *ItemRepo) GetByID(ctx context.Context, itemID id.ID) (*catalog.Item, error) {
	return r.Table.GetByID(ctx, itemID, false)
}

func (r *ItemRepo) GetBySKU(ctx context.Context, sku string) (*catalog.Item, error) {
	return r.Get(ctx, r.Select().Where(squirrel.Eq{"sku": sku}), sku)
}

func (r *ItemRepo) Update(ctx context.Context, i *catalog.Item) error {
	return r.Table.Update(ctx, i)
}

func (r *ItemRepo) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[catalog.Item], error) {
	q := r.Select()
	if !filter.IncludeInactive {
		q = q.Where(squirrel.Eq{"is_active": true})
	}
	if filter.Search != "" {
		q = q.Where(postgres.Search(filter.Search, "name", "sku", "brand"))
	}
	return r.Page(ctx, q, filter, filter.OrderClause(itemOrder, "name ASC"))
}

var _ catalog.ItemRepository = (*ItemRepo)(nil)
