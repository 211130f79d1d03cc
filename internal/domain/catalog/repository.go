package catalog

import (
	"context"

	"github.com/abbakari/works/internal/core/id"
	"github.com/abbakari/works/internal/domain"
)

// CustomerRepository persists customers.
type CustomerRepository interface {
	Create(ctx context.Context, c *Customer) error
	GetByID(ctx context.Context, customerID id.ID) (*Customer, error)
	GetByCode(ctx context.Context, code string) (*Customer, error)
	Update(ctx context.Context, c *Customer) error
	List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[Customer], error)
}

// ItemRepository persists items.
type ItemRepository interface {
	Create(ctx context.Context, i *Item) error
	GetByID(ctx context.Context, itemID id.ID) (*Item, error)
	GetBySKU(ctx context.Context, sku string) (*Item, error)
	Update(ctx context.Context, i *Item) error
	List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[Item], error)
}
