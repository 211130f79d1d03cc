package inventory_repo

import (
	"context"

	"github.com/Masterminds/squirrel"

	"github.com/abbakari/works/internal/core/id"
	"github.com/abbakari/works/internal/domain/inventory"
	"github.com/abbakari/works/internal/infrastructure/storage/postgres"
)

// MovementRepo implements inventory.MovementRepository. Rows are never
// updated once written.
type MovementRepo struct {
	table *postgres.Table[inventory.Movement]
}

// NewMovementRepo creates a movement repository.
func NewMovementRepo(txm *postgres.TxManager) *MovementRepo {
	return &MovementRepo{table: postgres.NewTable[inventory.Movement](txm, "stock_movements", "stock movement")}
}

func (r *MovementRepo) Create(ctx context.Context, m *inventory.Movement) error {
	return r.table.Insert(ctx, m)
}

func (r *MovementRepo) ListByStock(ctx context.Context, stockID id.ID, limit int) ([]inventory.Movement, error) {
	q := r.table.Select().
		Where(squirrel.Eq{"stock_item_id": stockID}).
		OrderBy("created_at DESC", "id DESC")
	if limit > 0 {
		q = q.Limit(uint64(limit))
	}
	items, err := r.table.All(ctx, q)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []inventory.Movement{}
	}
	return items, nil
}

var _ inventory.MovementRepository = (*MovementRepo)(nil)
