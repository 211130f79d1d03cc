package catalog

import (
	"context"
	"fmt"

	"github.com/abbakari/works/internal/core/apperror"
	"github.com/abbakari/works/internal/core/id"
	"github.com/abbakari/works/internal/core/tx"
	"github.com/abbakari/works/internal/core/types"
	"github.com/abbakari/works/internal/domain"
	"github.com/abbakari/works/pkg/logger"
)

// Service provides customer and item management.
type Service struct {
	customers CustomerRepository
	items     ItemRepository
	txManager tx.Manager
}

// NewService creates a catalog service.
func NewService(customers CustomerRepository, items ItemRepository, txManager tx.Manager) *Service {
	return &Service{customers: customers, items: items, txManager: txManager}
}

// CreateCustomer adds a customer with a unique code.
func (s *Service) CreateCustomer(ctx context.Context, c *Customer) error {
	if err := c.Validate(ctx); err != nil {
		return err
	}
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.customers.GetByCode(ctx, c.Code); err == nil {
			return apperror.NewDuplicate("customer", "code", c.Code)
		} else if !apperror.IsNotFound(err) {
			return err
		}
		return s.customers.Create(ctx, c)
	})
	if err != nil {
		return err
	}
	logger.Info(ctx, "customer created", "customer_id", c.ID, "code", c.Code)
	return nil
}

// GetCustomer returns one customer.
func (s *Service) GetCustomer(ctx context.Context, customerID id.ID) (*Customer, error) {
	return s.customers.GetByID(ctx, customerID)
}

// UpdateCustomer applies fn to the stored customer and saves it.
func (s *Service) UpdateCustomer(ctx context.Context, customerID id.ID, version int, fn func(*Customer)) (*Customer, error) {
	var out *Customer
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		c, err := s.customers.GetByID(ctx, customerID)
		if err != nil {
			return err
		}
		if version > 0 && c.Version != version {
			return apperror.NewConcurrentModification("customer", customerID)
		}
		oldCode := c.Code
		fn(c)
		if err := c.Validate(ctx); err != nil {
			return err
		}
		if c.Code != oldCode {
			if other, err := s.customers.GetByCode(ctx, c.Code); err == nil && other.ID != c.ID {
				return apperror.NewDuplicate("customer", "code", c.Code)
			}
		}
		touch(&c.BaseEntity)
		if err := s.customers.Update(ctx, c); err != nil {
			return err
		}
		out = c
		return nil
	})
	return out, err
}

// DeactivateCustomer hides a customer from new plans.
func (s *Service) DeactivateCustomer(ctx context.Context, customerID id.ID) error {
	_, err := s.UpdateCustomer(ctx, customerID, 0, func(c *Customer) { c.IsActive = false })
	return err
}

// ListCustomers lists customers.
func (s *Service) ListCustomers(ctx context.Context, f domain.ListFilter) (domain.ListResult[Customer], error) {
	return s.customers.List(ctx, f.Normalize())
}

// CreateItem adds an item with a unique SKU.
func (s *Service) CreateItem(ctx context.Context, i *Item) error {
	if err := i.Validate(ctx); err != nil {
		return err
	}
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.items.GetBySKU(ctx, i.SKU); err == nil {
			return apperror.NewDuplicate("item", "sku", i.SKU)
		} else if !apperror.IsNotFound(err) {
			return err
		}
		return s.items.Create(ctx, i)
	})
	if err != nil {
		return err
	}
	logger.Info(ctx, "item created", "item_id", i.ID, "sku", i.SKU)
	return nil
}

// GetItem returns one item.
func (s *Service) GetItem(ctx context.Context, itemID id.ID) (*Item, error) {
	return s.items.GetByID(ctx, itemID)
}

// UpdateItem applies fn to the stored item and saves it.
func (s *Service) UpdateItem(ctx context.Context, itemID id.ID, version int, fn func(*Item)) (*Item, error) {
	var out *Item
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		i, err := s.items.GetByID(ctx, itemID)
		if err != nil {
			return err
		}
		if version > 0 && i.Version != version {
			return apperror.NewConcurrentModification("item", itemID)
		}
		oldSKU := i.SKU
		fn(i)
		if err := i.Validate(ctx); err != nil {
			return err
		}
		if i.SKU != oldSKU {
			if other, err := s.items.GetBySKU(ctx, i.SKU); err == nil && other.ID != i.ID {
				return apperror.NewDuplicate("item", "sku", i.SKU)
			}
		}
		touch(&i.BaseEntity)
		if err := s.items.Update(ctx, i); err != nil {
			return err
		}
		out = i
		return nil
	})
	return out, err
}

// ListItems lists items.
func (s *Service) ListItems(ctx context.Context, f domain.ListFilter) (domain.ListResult[Item], error) {
	return s.items.List(ctx, f.Normalize())
}

// RequireCustomerAndItem checks that both references exist and are active.
// Budgets and forecasts call it before creating a plan.
func (s *Service) RequireCustomerAndItem(ctx context.Context, customerID, itemID id.ID) (*Customer, *Item, error) {
	c, err := s.customers.GetByID(ctx, customerID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, nil, apperror.NewValidation("customer does not exist").WithDetail("customerId", customerID.String())
		}
		return nil, nil, fmt.Errorf("load customer: %w", err)
	}
	i, err := s.items.GetByID(ctx, itemID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, nil, apperror.NewValidation("item does not exist").WithDetail("itemId", itemID.String())
		}
		return nil, nil, fmt.Errorf("load item: %w", err)
	}
	if !c.IsActive || !i.IsActive {
		return nil, nil, apperror.NewValidation("customer and item must be active")
	}
	return c, i, nil
}

// CustomerItemNames resolves the display names a budget copies from the catalog.
func (s *Service) CustomerItemNames(ctx context.Context, customerID, itemID id.ID) (customer, item, category, brand string, err error) {
	c, i, err := s.RequireCustomerAndItem(ctx, customerID, itemID)
	if err != nil {
		return "", "", "", "", err
	}
	return c.Name, i.Name, i.Category, i.Brand, nil
}

// ForecastRefs resolves the names and default unit price of a forecast.
func (s *Service) ForecastRefs(ctx context.Context, customerID, itemID id.ID) (customer, item string, unitPrice types.Money, err error) {
	c, i, err := s.RequireCustomerAndItem(ctx, customerID, itemID)
	if err != nil {
		return "", "", types.Zero(), err
	}
	return c.Name, i.Name, i.UnitPrice, nil
}

// ItemInfo returns the stock-relevant fields of an active item.
func (s *Service) ItemInfo(ctx context.Context, itemID id.ID) (sku, name, unit string, cost types.Money, err error) {
	i, err := s.items.GetByID(ctx, itemID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return "", "", "", types.Zero(), apperror.NewValidation("item does not exist").WithDetail("itemId", itemID.String())
		}
		return "", "", "", types.Zero(), fmt.Errorf("load item: %w", err)
	}
	if !i.IsActive {
		return "", "", "", types.Zero(), apperror.NewValidation("item is not active").WithDetail("itemId", itemID.String())
	}
	return i.SKU, i.Name, i.Unit, i.CostPrice, nil
}
