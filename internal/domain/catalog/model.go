// Package catalog manages customers and items referenced by budgets,
// forecasts and inventory.
package catalog

import (
	"context"
	"strings"
	"time"

	"github.com/abbakari/works/internal/core/apperror"
	"github.com/abbakari/works/internal/core/entity"
	"github.com/abbakari/works/internal/core/id"
	"github.com/abbakari/works/internal/core/types"
)

// Customer is a buyer that budgets and forecasts are planned for.
type Customer struct {
	entity.BaseEntity
	Code        string      `db:"code" json:"code"`
	Name        string      `db:"name" json:"name"`
	Region      string      `db:"region" json:"region,omitempty"`
	Segment     string      `db:"segment" json:"segment,omitempty"`
	Tier        string      `db:"tier" json:"tier,omitempty"`
	CreditLimit types.Money `db:"credit_limit" json:"creditLimit"`
	ManagerID   *id.ID      `db:"manager_id" json:"managerId,omitempty"`
	Email       string      `db:"email" json:"email,omitempty"`
	Phone       string      `db:"phone" json:"phone,omitempty"`
	IsActive    bool        `db:"is_active" json:"isActive"`
	CreatedBy   id.ID       `db:"created_by" json:"createdBy"`
}

// NewCustomer creates an active customer.
func NewCustomer(code, name string, createdBy id.ID) *Customer {
	return &Customer{
		BaseEntity:  entity.NewBaseEntity(),
		Code:        strings.ToUpper(strings.TrimSpace(code)),
		Name:        strings.TrimSpace(name),
		CreditLimit: types.Zero(),
		IsActive:    true,
		CreatedBy:   createdBy,
	}
}

// Validate checks required fields.
func (c *Customer) Validate(_ context.Context) error {
	if c.Code == "" {
		return apperror.NewValidation("code is required").WithDetail("field", "code")
	}
	if c.Name == "" {
		return apperror.NewValidation("name is required").WithDetail("field", "name")
	}
	if c.CreditLimit.IsNegative() {
		return apperror.NewValidation("credit limit can not be negative").WithDetail("field", "creditLimit")
	}
	return nil
}

// Item is a product that can be budgeted, forecast and stocked.
type Item struct {
	entity.BaseEntity
	SKU         string      `db:"sku" json:"sku"`
	Name        string      `db:"name" json:"name"`
	Category    string      `db:"category" json:"category,omitempty"`
	Brand       string      `db:"brand" json:"brand,omitempty"`
	Unit        string      `db:"unit" json:"unit,omitempty"`
	UnitPrice   types.Money `db:"unit_price" json:"unitPrice"`
	CostPrice   types.Money `db:"cost_price" json:"costPrice"`
	Description string      `db:"description" json:"description,omitempty"`
	IsActive    bool        `db:"is_active" json:"isActive"`
}

// NewItem creates an active item.
func NewItem(sku, name string) *Item {
	return &Item{
		BaseEntity: entity.NewBaseEntity(),
		SKU:        strings.ToUpper(strings.TrimSpace(sku)),
		Name:       strings.TrimSpace(name),
		Unit:       "pcs",
		UnitPrice:  types.Zero(),
		CostPrice:  types.Zero(),
		IsActive:   true,
	}
}

// Validate checks required fields and non-negative prices.
func (i *Item) Validate(_ context.Context) error {
	if i.SKU == "" {
		return apperror.NewValidation("sku is required").WithDetail("field", "sku")
	}
	if i.Name == "" {
		return apperror.NewValidation("name is required").WithDetail("field", "name")
	}
	if i.UnitPrice.IsNegative() || i.CostPrice.IsNegative() {
		return apperror.NewValidation("prices can not be negative").WithDetail("field", "unitPrice")
	}
	return nil
}

// Margin returns unit price minus cost price.
func (i *Item) Margin() types.Money {
	return i.UnitPrice.Sub(i.CostPrice)
}

// touch stamps UpdatedAt.
func touch(b *entity.BaseEntity) { b.UpdatedAt = time.Now().UTC() }
