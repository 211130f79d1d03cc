package inventory

import (
	"context"

	"github.com/abbakari/works/internal/core/id"
	"github.com/abbakari/works/internal/core/security"
	"github.com/abbakari/works/internal/core/types"
	"github.com/abbakari/works/internal/domain"
)

// StockFilter narrows stock listings.
type StockFilter struct {
	domain.ListFilter
	Location string
	Statuses []StockStatus
}

// StockRepository persists stock positions.
type StockRepository interface {
	Create(ctx context.Context, s *StockItem) error
	GetByID(ctx context.Context, stockID id.ID) (*StockItem, error)
	GetForUpdate(ctx context.Context, stockID id.ID) (*StockItem, error)
	Update(ctx context.Context, s *StockItem) error
	List(ctx context.Context, filter StockFilter) (domain.ListResult[StockItem], error)
	Summary(ctx context.Context) (*Summary, error)
}

// MovementRepository appends and reads stock movements.
type MovementRepository interface {
	Create(ctx context.Context, m *Movement) error
	// ListByStock returns movements newest first.
	ListByStock(ctx context.Context, stockID id.ID, limit int) ([]Movement, error)
}

// RequestRepository persists stock requests.
type RequestRepository interface {
	Create(ctx context.Context, r *StockRequest) error
	GetByID(ctx context.Context, requestID id.ID) (*StockRequest, error)
	GetForUpdate(ctx context.Context, requestID id.ID) (*StockRequest, error)
	Update(ctx context.Context, r *StockRequest) error
	List(ctx context.Context, scope security.Scope, filter domain.ListFilter) (domain.ListResult[StockRequest], error)
}

// ItemLookup resolves catalog items.
type ItemLookup interface {
	ItemInfo(ctx context.Context, itemID id.ID) (sku, name, unit string, cost types.Money, err error)
}
