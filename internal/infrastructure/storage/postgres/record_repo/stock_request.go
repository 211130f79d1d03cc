package record_repo

import (
	"context"

	"github.com/Masterminds/squirrel"

	"github.com/abbakari/works/internal/core/id"
	"github.com/abbakari/works/internal/core/security"
	"github.com/abbakari/works/internal/domain"
	"github.com/abbakari/works/internal/domain/inventory"
	"github.com/abbakari/works/internal/infrastructure/storage/postgres"
	"github.com/abbakari/works/pkg/numerator"
)

var stockRequestOrder = headerOrder("number", "quantity", "urgency", "estimated_value", "title")

// StockRequestRepo implements inventory.RequestRepository.
type StockRequestRepo struct {
	*postgres.Table[inventory.StockRequest]
	numbers *numerator.Service
}

// NewStockRequestRepo creates a stock request repository.
func NewStockRequestRepo(txm *postgres.TxManager) *StockRequestRepo {
	return &StockRequestRepo{
		Table:   postgres.NewTable[inventory.StockRequest](txm, "stock_requests", inventory.EntityStockRequest),
		numbers: newNumerator(txm),
	}
}

func (r *StockRequestRepo) Create(ctx context.Context, req *inventory.StockRequest) error {
	if req.Number == "" {
		n, err := nextNumber(ctx, r.numbers, stockRequestPrefix, req.CreatedAt)
		if err != nil {
			return err
		}
		req.Number = n
	}
	return r.Insert(ctx, req)
}

func (r *StockRequestRepo) GetByID(ctx context.Context, requestID id.ID) (*inventory.StockRequest, error) {
	return r.Get(ctx, r.Select().Where(squirrel.Eq{"id": requestID, "is_active": true}), requestID)
}

func (r *StockRequestRepo) GetForUpdate(ctx context.Context, requestID id.ID) (*inventory.StockRequest, error) {
	return r.Get(ctx, r.Select().Where(squirrel.Eq{"id": requestID, "is_active": true}).Suffix("FOR UPDATE"), requestID)
}

func (r *StockRequestRepo) Update(ctx context.Context, req *inventory.StockRequest) error {
	return r.Table.Update(ctx, req)
}

func (r *StockRequestRepo) List(ctx context.Context, scope security.Scope, filter domain.ListFilter) (domain.ListResult[inventory.StockRequest], error) {
	q := visible(r.Select(), r.Columns(), scope, filter, "number", "title", "item_name", "reason")
	return r.Page(ctx, q, filter, filter.OrderClause(stockRequestOrder, "created_at DESC"))
}

var _ inventory.RequestRepository = (*StockRequestRepo)(nil)
