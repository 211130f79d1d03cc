// Package inventory_repo provides PostgreSQL implementations for stock
// positions and their movement ledger.
package inventory_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"

	"github.com/abbakari/works/internal/core/id"
	"github.com/abbakari/works/internal/domain"
	"github.com/abbakari/works/internal/domain/inventory"
	"github.com/abbakari/works/internal/infrastructure/storage/postgres"
)

var stockOrder = map[string]bool{
	"name": true, "sku": true, "location": true, "current_stock": true,
	"total_value": true, "stock_status": true, "created_at": true, "last_stock_update": true,
}

// StockRepo implements inventory.StockRepository.
type StockRepo struct {
	*postgres.Table[inventory.StockItem]
}

// NewStockRepo creates a stock repository.
func NewStockRepo(txm *postgres.TxManager) *StockRepo {
	return &StockRepo{Table: postgres.NewTable[inventory.StockItem](txm, "inventory_items", inventory.EntityStock)}
}

func (r *StockRepo) Create(ctx context.Context, s *inventory.StockItem) error {
	return r.Insert(ctx, s)
}

func (r *StockRepo) GetByID(ctx context.Context, stockID id.ID) (*inventory.StockItem, error) {
	return r.Table.GetByID(ctx, stockID, false)
}

// GetForUpdate locks the row so concurrent movements serialize.
func (r *StockRepo) GetForUpdate(ctx context.Context, stockID id.ID) (*inventory.StockItem, error) {
	return r.Table.GetByID(ctx, stockID, true)
}

func (r *StockRepo) Update(ctx context.Context, s *inventory.StockItem) error {
	return r.Table.Update(ctx, s)
}

func (r *StockRepo) List(ctx context.Context, filter inventory.StockFilter) (domain.ListResult[inventory.StockItem], error) {
	q := r.filtered(filter)
	return r.Page(ctx, q, filter.ListFilter, filter.OrderClause(stockOrder, "name ASC"))
}

func (r *StockRepo) filtered(filter inventory.StockFilter) squirrel.SelectBuilder {
	q := r.Select()
	if !filter.IncludeInactive {
		q = q.Where(squirrel.Eq{"is_active": true})
	}
	if filter.ItemID != nil {
		q = q.Where(squirrel.Eq{"item_id": *filter.ItemID})
	}
	if filter.Location != "" {
		q = q.Where(squirrel.Eq{"location": filter.Location})
	}
	if len(filter.Statuses) > 0 {
		statuses := make([]string, len(filter.Statuses))
		for i, s := range filter.Statuses {
			statuses[i] = string(s)
		}
		q = q.Where(squirrel.Eq{"stock_status": statuses})
	}
	if filter.Search != "" {
		q = q.Where(postgres.Search(filter.Search, "name", "sku", "location"))
	}
	return q
}

// Summary aggregates the active stock positions.
func (r *StockRepo) Summary(ctx context.Context) (*inventory.Summary, error) {
	querier := r.Querier(ctx)
	s := &inventory.Summary{ByStatus: make(map[inventory.StockStatus]int64)}

	err := querier.QueryRow(ctx, `
		SELECT COUNT(*),
		       COALESCE(SUM(total_value), 0),
		       COUNT(*) FILTER (WHERE current_stock <= reorder_point)
		FROM inventory_items WHERE is_active`,
	).Scan(&s.TotalItems, &s.TotalValue, &s.ReorderCount)
	if err != nil {
		return nil, fmt.Errorf("stock totals: %w", err)
	}

	rows, err := querier.Query(ctx,
		`SELECT stock_status, COUNT(*) FROM inventory_items WHERE is_active GROUP BY stock_status`)
	if err != nil {
		return nil, fmt.Errorf("stock by status: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			status string
			count  int64
		)
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("scan stock status: %w", err)
		}
		s.ByStatus[inventory.StockStatus(status)] = count
	}
	return s, rows.Err()
}

var _ inventory.StockRepository = (*StockRepo)(nil)
