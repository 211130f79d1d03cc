package dto

import (
	"github.com/abbakari/works/internal/core/types"
	"github.com/abbakari/works/internal/domain/inventory"
)

// CreateStockRequest opens a stock position.
type CreateStockRequest struct {
	ItemID       string       `json:"itemId" binding:"required,uuid"`
	Location     string       `json:"location" binding:"required"`
	MinStock     int64        `json:"minStock" binding:"min=0"`
	MaxStock     int64        `json:"maxStock" binding:"min=0"`
	ReorderPoint int64        `json:"reorderPoint" binding:"min=0"`
	OpeningStock int64        `json:"openingStock" binding:"min=0"`
	UnitCost     *types.Money `json:"unitCost"`
}

// ToInput converts to the service input.
func (r *CreateStockRequest) ToInput() (inventory.StockInput, error) {
	itemID, err := parseID(r.ItemID, "itemId")
	if err != nil {
		return inventory.StockInput{}, err
	}
	in := inventory.StockInput{
		ItemID:       itemID,
		Location:     r.Location,
		MinStock:     r.MinStock,
		MaxStock:     r.MaxStock,
		ReorderPoint: r.ReorderPoint,
		OpeningStock: r.OpeningStock,
		UnitCost:     types.Zero(),
	}
	if r.UnitCost != nil {
		in.UnitCost = *r.UnitCost
	}
	return in, nil
}

// UpdateLevelsRequest changes thresholds.
type UpdateLevelsRequest struct {
	MinStock     *int64  `json:"minStock" binding:"omitempty,min=0"`
	MaxStock     *int64  `json:"maxStock" binding:"omitempty,min=0"`
	ReorderPoint *int64  `json:"reorderPoint" binding:"omitempty,min=0"`
	Location     *string `json:"location"`
	Version      int     `json:"version" binding:"omitempty,min=1"`
}

// ToInput converts to the service input.
func (r *UpdateLevelsRequest) ToInput() inventory.LevelsInput {
	return inventory.LevelsInput{
		MinStock:     r.MinStock,
		MaxStock:     r.MaxStock,
		ReorderPoint: r.ReorderPoint,
		Location:     r.Location,
	}
}

// MovementRequest records a stock movement.
type MovementRequest struct {
	Type       string       `json:"type" binding:"required"`
	Reason     string       `json:"reason"`
	Quantity   int64        `json:"quantity" binding:"required"`
	UnitCost   *types.Money `json:"unitCost"`
	Reference  string       `json:"reference"`
	ToLocation string       `json:"toLocation"`
	Notes      string       `json:"notes"`
}

// ToInput converts to the service input.
func (r *MovementRequest) ToInput() inventory.MovementInput {
	in := inventory.MovementInput{
		Type:       inventory.MovementType(r.Type),
		Reason:     inventory.MovementReason(r.Reason),
		Quantity:   r.Quantity,
		UnitCost:   types.Zero(),
		Reference:  r.Reference,
		ToLocation: r.ToLocation,
		Notes:      r.Notes,
	}
	if r.UnitCost != nil {
		in.UnitCost = *r.UnitCost
	}
	return in
}

// MovementResponse returns the movement and the updated position.
type MovementResponse struct {
	Movement *inventory.Movement  `json:"movement"`
	Stock    *inventory.StockItem `json:"stock"`
}

// StockListQuery filters stock positions.
type StockListQuery struct {
	ListQuery
	Location    string   `form:"location"`
	StockStatus []string `form:"stockStatus"`
}

// ToFilter converts to the domain filter.
func (q *StockListQuery) ToFilter() (inventory.StockFilter, error) {
	base, err := q.ListQuery.ToFilter()
	if err != nil {
		return inventory.StockFilter{}, err
	}
	f := inventory.StockFilter{ListFilter: base, Location: q.Location}
	for _, s := range q.StockStatus {
		f.Statuses = append(f.Statuses, inventory.StockStatus(s))
	}
	return f, nil
}

// CreateStockRequestRequest asks supply chain for stock.
type CreateStockRequestRequest struct {
	ItemID   string `json:"itemId" binding:"required,uuid"`
	Title    string `json:"title"`
	Quantity int64  `json:"quantity" binding:"required,min=1"`
	Urgency  string `json:"urgency"`
	Reason   string `json:"reason"`
}

// ToInput converts to the service input.
func (r *CreateStockRequestRequest) ToInput() (inventory.RequestInput, error) {
	itemID, err := parseID(r.ItemID, "itemId")
	if err != nil {
		return inventory.RequestInput{}, err
	}
	return inventory.RequestInput{
		ItemID:   itemID,
		Title:    r.Title,
		Quantity: r.Quantity,
		Urgency:  inventory.Urgency(r.Urgency),
		Reason:   r.Reason,
	}, nil
}
