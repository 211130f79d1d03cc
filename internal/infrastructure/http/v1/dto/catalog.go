package dto

import (
	"github.com/abbakari/works/internal/core/id"
	"github.com/abbakari/works/internal/core/types"
	"github.com/abbakari/works/internal/domain/catalog"
)

// CreateCustomerRequest for creating a customer.
type CreateCustomerRequest struct {
	Code        string       `json:"code" binding:"required"`
	Name        string       `json:"name" binding:"required"`
	Region      string       `json:"region"`
	Segment     string       `json:"segment"`
	Tier        string       `json:"tier"`
	CreditLimit *types.Money `json:"creditLimit"`
	ManagerID   string       `json:"managerId" binding:"omitempty,uuid"`
	Email       string       `json:"email" binding:"omitempty,email"`
	Phone       string       `json:"phone"`
}

// ToCustomer builds the domain customer.
func (r *CreateCustomerRequest) ToCustomer(createdBy id.ID) (*catalog.Customer, error) {
	mgr, err := parseOptionalID(r.ManagerID, "managerId")
	if err != nil {
		return nil, err
	}
	c := catalog.NewCustomer(r.Code, r.Name, createdBy)
	c.Region, c.Segment, c.Tier = r.Region, r.Segment, r.Tier
	c.Email, c.Phone = r.Email, r.Phone
	c.ManagerID = mgr
	if r.CreditLimit != nil {
		c.CreditLimit = *r.CreditLimit
	}
	return c, nil
}

// UpdateCustomerRequest changes selected fields.
type UpdateCustomerRequest struct {
	Code        *string      `json:"code"`
	Name        *string      `json:"name"`
	Region      *string      `json:"region"`
	Segment     *string      `json:"segment"`
	Tier        *string      `json:"tier"`
	CreditLimit *types.Money `json:"creditLimit"`
	Email       *string      `json:"email"`
	Phone       *string      `json:"phone"`
	IsActive    *bool        `json:"isActive"`
	Version     int          `json:"version" binding:"omitempty,min=1"`
}

// Apply copies the set fields onto c.
func (r *UpdateCustomerRequest) Apply(c *catalog.Customer) {
	setString(&c.Code, r.Code)
	setString(&c.Name, r.Name)
	setString(&c.Region, r.Region)
	setString(&c.Segment, r.Segment)
	setString(&c.Tier, r.Tier)
	setString(&c.Email, r.Email)
	setString(&c.Phone, r.Phone)
	if r.CreditLimit != nil {
		c.CreditLimit = *r.CreditLimit
	}
	if r.IsActive != nil {
		c.IsActive = *r.IsActive
	}
}

// CreateItemRequest for creating an item.
type CreateItemRequest struct {
	SKU         string       `json:"sku" binding:"required"`
	Name        string       `json:"name" binding:"required"`
	Category    string       `json:"category"`
	Brand       string       `json:"brand"`
	Unit        string       `json:"unit"`
	UnitPrice   *types.Money `json:"unitPrice"`
	CostPrice   *types.Money `json:"costPrice"`
	Description string       `json:"description"`
}

// ToItem builds the domain item.
func (r *CreateItemRequest) ToItem() *catalog.Item {
	i := catalog.NewItem(r.SKU, r.Name)
	i.Category, i.Brand, i.Description = r.Category, r.Brand, r.Description
	if r.Unit != "" {
		i.Unit = r.Unit
	}
	if r.UnitPrice != nil {
		i.UnitPrice = *r.UnitPrice
	}
	if r.CostPrice != nil {
		i.CostPrice = *r.CostPrice
	}
	return i
}

// UpdateItemRequest changes selected fields.
type UpdateItemRequest struct {
	SKU         *string      `json:"sku"`
	Name        *string      `json:"name"`
	Category    *string      `json:"category"`
	Brand       *string      `json:"brand"`
	Unit        *string      `json:"unit"`
	UnitPrice   *types.Money `json:"unitPrice"`
	CostPrice   *types.Money `json:"costPrice"`
	Description *string      `json:"description"`
	IsActive    *bool        `json:"isActive"`
	Version     int          `json:"version" binding:"omitempty,min=1"`
}

// Apply copies the set fields onto i.
func (r *UpdateItemRequest) Apply(i *catalog.Item) {
	setString(&i.SKU, r.SKU)
	setString(&i.Name, r.Name)
	setString(&i.Category, r.Category)
	setString(&i.Brand, r.Brand)
	setString(&i.Unit, r.Unit)
	setString(&i.Description, r.Description)
	if r.UnitPrice != nil {
		i.UnitPrice = *r.UnitPrice
	}
	if r.CostPrice != nil {
		i.CostPrice = *r.CostPrice
	}
	if r.IsActive != nil {
		i.IsActive = *r.IsActive
	}
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
