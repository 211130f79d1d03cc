package forecasts

import (
	"context"

	"github.com/abbakari/works/internal/core/entity"
	"github.com/abbakari/works/internal/core/id"
	"github.com/abbakari/works/internal/core/security"
	"github.com/abbakari/works/internal/core/types"
	"github.com/abbakari/works/internal/domain"
)

// Repository persists forecasts with their months.
type Repository interface {
	Create(ctx context.Context, f *Forecast) error
	GetByID(ctx context.Context, forecastID id.ID) (*Forecast, error)
	GetForUpdate(ctx context.Context, forecastID id.ID) (*Forecast, error)
	Update(ctx context.Context, f *Forecast) error
	SaveMonths(ctx context.Context, f *Forecast) error
	List(ctx context.Context, scope security.Scope, filter domain.ListFilter) (domain.ListResult[Forecast], error)
	Summary(ctx context.Context, scope security.Scope, filter domain.ListFilter) (*Summary, error)
}

// Summary is an aggregate over visible forecasts.
type Summary struct {
	TotalCount    int64                   `json:"totalCount"`
	TotalQuantity types.Quantity          `json:"totalQuantity"`
	TotalValue    types.Money             `json:"totalValue"`
	ByStatus      map[entity.Status]int64 `json:"byStatus"`
	ByConfidence  map[Confidence]int64    `json:"byConfidence"`
}

// References resolves catalog names and the default unit price.
type References interface {
	ForecastRefs(ctx context.Context, customerID, itemID id.ID) (customer, item string, unitPrice types.Money, err error)
}
