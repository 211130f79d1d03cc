// Package inventory tracks stock levels, stock movements and stock requests.
package inventory

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/abbakari/works/internal/core/apperror"
	"github.com/abbakari/works/internal/core/entity"
	"github.com/abbakari/works/internal/core/id"
	"github.com/abbakari/works/internal/core/types"
)

// Entity names used in errors and the audit trail.
const (
	EntityStock        = "inventory_item"
	EntityStockRequest = "stock_request"
)

// StockStatus is derived from the current level and thresholds.
type StockStatus string

const (
	StatusOutOfStock StockStatus = "out_of_stock"
	StatusLow        StockStatus = "low"
	StatusNormal     StockStatus = "normal"
	StatusHigh       StockStatus = "high"
)

// StockItem is the stock position of one catalog item at one location.
type StockItem struct {
	entity.BaseEntity

	ItemID       id.ID       `db:"item_id" json:"itemId"`
	SKU          string      `db:"sku" json:"sku"`
	Name         string      `db:"name" json:"name"`
	Location     string      `db:"location" json:"location"`
	Unit         string      `db:"unit" json:"unit"`
	CurrentStock int64       `db:"current_stock" json:"currentStock"`
	MinStock     int64       `db:"min_stock" json:"minStock"`
	MaxStock     int64       `db:"max_stock" json:"maxStock"`
	ReorderPoint int64       `db:"reorder_point" json:"reorderPoint"`
	AverageCost  types.Money `db:"average_cost" json:"averageCost"`
	TotalValue   types.Money `db:"total_value" json:"totalValue"`
	StockStatus  StockStatus `db:"stock_status" json:"stockStatus"`
	IsActive     bool        `db:"is_active" json:"isActive"`
	CreatedBy    id.ID       `db:"created_by" json:"createdBy"`

	LastStockUpdate *time.Time `db:"last_stock_update" json:"lastStockUpdate,omitempty"`
}

// NewStockItem creates an empty stock position.
func NewStockItem(itemID id.ID, location string, createdBy id.ID) *StockItem {
	s := &StockItem{
		BaseEntity:  entity.NewBaseEntity(),
		ItemID:      itemID,
		Location:    strings.TrimSpace(location),
		Unit:        "pcs",
		AverageCost: types.Zero(),
		IsActive:    true,
		CreatedBy:   createdBy,
	}
	s.Recompute()
	return s
}

// Validate checks levels and thresholds.
func (s *StockItem) Validate(_ context.Context) error {
	if id.IsNil(s.ItemID) {
		return apperror.NewValidation("item is required").WithDetail("field", "itemId")
	}
	if s.CurrentStock < 0 {
		return apperror.NewValidation("stock can not be negative").WithDetail("currentStock", s.CurrentStock)
	}
	if s.MinStock < 0 || s.MaxStock < 0 || s.ReorderPoint < 0 {
		return apperror.NewValidation("thresholds can not be negative")
	}
	if s.MaxStock > 0 && s.MinStock > s.MaxStock {
		return apperror.NewValidation("min stock exceeds max stock").
			WithDetail("minStock", s.MinStock).
			WithDetail("maxStock", s.MaxStock)
	}
	if s.AverageCost.IsNegative() {
		return apperror.NewValidation("average cost can not be negative")
	}
	return nil
}

// Recompute derives total value and stock status.
func (s *StockItem) Recompute() {
	s.TotalValue = types.Round2(decimal.NewFromInt(s.CurrentStock).Mul(s.AverageCost))
	switch {
	case s.CurrentStock <= 0:
		s.StockStatus = StatusOutOfStock
	case s.CurrentStock <= s.MinStock:
		s.StockStatus = StatusLow
	case s.MaxStock > 0 && s.CurrentStock >= s.MaxStock:
		s.StockStatus = StatusHigh
	default:
		s.StockStatus = StatusNormal
	}
}

// NeedsReorder reports whether the level is at or below the reorder point.
func (s *StockItem) NeedsReorder() bool {
	return s.CurrentStock <= s.ReorderPoint
}

// MovementType is the direction of a stock movement.
type MovementType string

const (
	MovementIn         MovementType = "in"
	MovementOut        MovementType = "out"
	MovementAdjustment MovementType = "adjustment"
	MovementTransfer   MovementType = "transfer"
)

// Valid reports whether t is known.
func (t MovementType) Valid() bool {
	switch t {
	case MovementIn, MovementOut, MovementAdjustment, MovementTransfer:
		return true
	}
	return false
}

// MovementReason explains a movement.
type MovementReason string

const (
	ReasonPurchase   MovementReason = "purchase"
	ReasonSale       MovementReason = "sale"
	ReasonReturn     MovementReason = "return"
	ReasonDamage     MovementReason = "damage"
	ReasonExpired    MovementReason = "expired"
	ReasonAdjustment MovementReason = "adjustment"
	ReasonTransfer   MovementReason = "transfer"
	ReasonProduction MovementReason = "production"
)

// Movement is one change of a stock level.
type Movement struct {
	ID           id.ID          `db:"id" json:"id"`
	StockItemID  id.ID          `db:"stock_item_id" json:"stockItemId"`
	Type         MovementType   `db:"type" json:"type"`
	Reason       MovementReason `db:"reason" json:"reason"`
	Quantity     int64          `db:"quantity" json:"quantity"`
	UnitCost     types.Money    `db:"unit_cost" json:"unitCost"`
	TotalCost    types.Money    `db:"total_cost" json:"totalCost"`
	Reference    string         `db:"reference" json:"reference,omitempty"`
	FromLocation string         `db:"from_location" json:"fromLocation,omitempty"`
	ToLocation   string         `db:"to_location" json:"toLocation,omitempty"`
	Notes        string         `db:"notes" json:"notes,omitempty"`
	StockBefore  int64          `db:"stock_before" json:"stockBefore"`
	StockAfter   int64          `db:"stock_after" json:"stockAfter"`
	PerformedBy  id.ID          `db:"performed_by" json:"performedBy"`
	CreatedAt    time.Time      `db:"created_at" json:"createdAt"`
}

// Delta is the signed change the movement applies. Adjustments carry
// their own sign; the other types use the magnitude.
func (m *Movement) Delta() int64 {
	q := m.Quantity
	if q < 0 {
		q = -q
	}
	switch m.Type {
	case MovementIn:
		return q
	case MovementOut, MovementTransfer:
		return -q
	default:
		return m.Quantity
	}
}

// Recompute derives total cost.
func (m *Movement) Recompute() {
	q := m.Quantity
	if q < 0 {
		q = -q
	}
	m.TotalCost = types.Round2(m.UnitCost.Mul(decimal.NewFromInt(q)))
}

// Validate checks the movement on its own.
func (m *Movement) Validate() error {
	if !m.Type.Valid() {
		return apperror.NewValidation("unknown movement type").WithDetail("value", m.Type)
	}
	if m.Quantity == 0 {
		return apperror.NewValidation("quantity must not be zero").WithDetail("field", "quantity")
	}
	if m.Type != MovementAdjustment && m.Quantity < 0 {
		return apperror.NewValidation("quantity must be positive").WithDetail("field", "quantity")
	}
	if m.UnitCost.IsNegative() {
		return apperror.NewValidation("unit cost can not be negative").WithDetail("field", "unitCost")
	}
	if m.Type == MovementTransfer && strings.TrimSpace(m.ToLocation) == "" {
		return apperror.NewValidation("transfer needs a destination").WithDetail("field", "toLocation")
	}
	return nil
}

// Apply changes the stock item by m. Incoming stock with a unit cost moves
// the average cost; a movement that would leave negative stock is rejected
// and leaves s untouched.
func (s *StockItem) Apply(m *Movement, at time.Time) error {
	if err := m.Validate(); err != nil {
		return err
	}
	delta := m.Delta()
	next := s.CurrentStock + delta
	if next < 0 {
		return apperror.NewValidation("movement would make stock negative").
			WithDetail("currentStock", s.CurrentStock).
			WithDetail("quantity", fmt.Sprint(delta))
	}

	if delta > 0 && m.UnitCost.IsPositive() {
		held := decimal.NewFromInt(s.CurrentStock).Mul(s.AverageCost)
		added := decimal.NewFromInt(delta).Mul(m.UnitCost)
		s.AverageCost = held.Add(added).Div(decimal.NewFromInt(next)).Round(2)
	}
	if m.UnitCost.IsZero() {
		m.UnitCost = s.AverageCost
	}
	m.Recompute()

	m.StockItemID = s.ID
	m.StockBefore = s.CurrentStock
	m.StockAfter = next
	if m.Type == MovementTransfer && m.FromLocation == "" {
		m.FromLocation = s.Location
	}

	at = at.UTC()
	s.CurrentStock = next
	s.LastStockUpdate = &at
	s.Recompute()
	return nil
}

// Urgency ranks a stock request.
type Urgency string

const (
	UrgencyLow      Urgency = "low"
	UrgencyMedium   Urgency = "medium"
	UrgencyHigh     Urgency = "high"
	UrgencyCritical Urgency = "critical"
)

// Valid reports whether u is known.
func (u Urgency) Valid() bool {
	switch u {
	case UrgencyLow, UrgencyMedium, UrgencyHigh, UrgencyCritical:
		return true
	}
	return false
}

// StockRequest asks supply chain for stock. It follows the approval flow.
type StockRequest struct {
	entity.Record

	// Number is the reference handed out on creation, e.g. SR-2025-00001.
	Number   string      `db:"number" json:"number"`
	ItemID   id.ID       `db:"item_id" json:"itemId"`
	ItemName string      `db:"item_name" json:"itemName"`
	Title    string      `db:"title" json:"title"`
	Quantity int64       `db:"quantity" json:"quantity"`
	Urgency  Urgency     `db:"urgency" json:"urgency"`
	Reason   string      `db:"reason" json:"reason,omitempty"`
	UnitCost types.Money `db:"unit_cost" json:"unitCost"`
	Value    types.Money `db:"estimated_value" json:"estimatedValue"`
}

// NewStockRequest creates a draft request.
func NewStockRequest(owner, itemID id.ID, quantity int64) *StockRequest {
	return &StockRequest{
		Record:   entity.NewRecord(owner),
		ItemID:   itemID,
		Quantity: quantity,
		Urgency:  UrgencyMedium,
		UnitCost: types.Zero(),
		Value:    types.Zero(),
	}
}

// Validate checks required fields.
func (r *StockRequest) Validate(_ context.Context) error {
	if id.IsNil(r.ItemID) {
		return apperror.NewValidation("item is required").WithDetail("field", "itemId")
	}
	if r.Quantity <= 0 {
		return apperror.NewValidation("quantity must be positive").WithDetail("field", "quantity")
	}
	if !r.Urgency.Valid() {
		return apperror.NewValidation("unknown urgency").WithDetail("value", r.Urgency)
	}
	return nil
}

// Recompute derives the estimated value.
func (r *StockRequest) Recompute() {
	r.Value = types.Round2(r.UnitCost.Mul(decimal.NewFromInt(r.Quantity)))
}

// TotalValue implements lifecycle.Record.
func (r *StockRequest) TotalValue() types.Money { return r.Value }

// Label implements lifecycle.Record.
func (r *StockRequest) Label() string {
	if r.Title != "" {
		return r.Title
	}
	return fmt.Sprintf("Stock request: %d x %s", r.Quantity, r.ItemName)
}

// Summary aggregates stock positions.
type Summary struct {
	TotalItems   int64                 `json:"totalItems"`
	TotalValue   types.Money           `json:"totalValue"`
	ByStatus     map[StockStatus]int64 `json:"byStatus"`
	ReorderCount int64                 `json:"reorderCount"`
}
