package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/abbakari/works/internal/core/entity"
	"github.com/abbakari/works/internal/core/id"
	"github.com/abbakari/works/internal/core/security"
	"github.com/abbakari/works/internal/domain/inventory"
	"github.com/abbakari/works/internal/infrastructure/http/v1/dto"
)

// InventoryHandler serves stock positions and movements.
type InventoryHandler struct {
	*BaseHandler
	service *inventory.Service
}

// NewInventoryHandler creates an inventory handler.
func NewInventoryHandler(base *BaseHandler, service *inventory.Service) *InventoryHandler {
	return &InventoryHandler{BaseHandler: base, service: service}
}

// List handles GET /inventory
func (h *InventoryHandler) List(c *gin.Context) {
	var q dto.StockListQuery
	if !h.BindQuery(c, &q) {
		return
	}
	f, err := q.ToFilter()
	if err != nil {
		h.Error(c, err)
		return
	}
	res, err := h.service.ListStock(c.Request.Context(), f)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromListResult(res))
}

// LowStock handles GET /inventory/low-stock
func (h *InventoryHandler) LowStock(c *gin.Context) {
	f, ok := h.ListFilter(c)
	if !ok {
		return
	}
	res, err := h.service.LowStock(c.Request.Context(), f)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromListResult(res))
}

// Summary handles GET /inventory/summary
func (h *InventoryHandler) Summary(c *gin.Context) {
	sum, err := h.service.Summary(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, sum)
}

// Create handles POST /inventory
func (h *InventoryHandler) Create(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	var req dto.CreateStockRequest
	if !h.BindJSON(c, &req) {
		return
	}
	in, err := req.ToInput()
	if err != nil {
		h.Error(c, err)
		return
	}
	item, err := h.service.CreateStock(c.Request.Context(), actor, in)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, item)
}

// Get handles GET /inventory/:id
func (h *InventoryHandler) Get(c *gin.Context) {
	stockID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	item, err := h.service.GetStock(c.Request.Context(), stockID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, item)
}

// UpdateLevels handles PUT /inventory/:id
func (h *InventoryHandler) UpdateLevels(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	stockID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateLevelsRequest
	if !h.BindJSON(c, &req) {
		return
	}
	item, err := h.service.UpdateLevels(c.Request.Context(), actor, stockID, req.Version, req.ToInput())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, item)
}

// RecordMovement handles POST /inventory/:id/movements
func (h *InventoryHandler) RecordMovement(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	stockID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	var req dto.MovementRequest
	if !h.BindJSON(c, &req) {
		return
	}
	m, item, err := h.service.RecordMovement(c.Request.Context(), actor, stockID, req.ToInput())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, dto.MovementResponse{Movement: m, Stock: item})
}

// Movements handles GET /inventory/:id/movements
func (h *InventoryHandler) Movements(c *gin.Context) {
	stockID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	list, err := h.service.Movements(c.Request.Context(), stockID, h.ParseIntQuery(c, "limit", 50))
	if err != nil {
		h.Error(c, err)
		return
	}
	if list == nil {
		list = []inventory.Movement{}
	}
	h.OK(c, gin.H{"items": list})
}

// StockRequestHandler serves stock requests, which follow the approval flow.
type StockRequestHandler struct {
	*BaseHandler
	service *inventory.Service
}

// NewStockRequestHandler creates a stock request handler.
func NewStockRequestHandler(base *BaseHandler, service *inventory.Service) *StockRequestHandler {
	return &StockRequestHandler{BaseHandler: base, service: service}
}

// List handles GET /stock-requests
func (h *StockRequestHandler) List(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	f, ok := h.ListFilter(c)
	if !ok {
		return
	}
	res, err := h.service.ListRequests(c.Request.Context(), actor, f)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromListResult(res))
}

// Create handles POST /stock-requests
func (h *StockRequestHandler) Create(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	var req dto.CreateStockRequestRequest
	if !h.BindJSON(c, &req) {
		return
	}
	in, err := req.ToInput()
	if err != nil {
		h.Error(c, err)
		return
	}
	r, err := h.service.CreateRequest(c.Request.Context(), actor, in)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, r)
}

// Get handles GET /stock-requests/:id
func (h *StockRequestHandler) Get(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	requestID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	r, err := h.service.GetRequest(c.Request.Context(), actor, requestID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, r)
}

// Submit handles POST /stock-requests/:id/submit
func (h *StockRequestHandler) Submit(c *gin.Context) { h.transitionTo(c, entity.StatusSubmitted, h.move) }

// Review handles POST /stock-requests/:id/review
func (h *StockRequestHandler) Review(c *gin.Context) { h.transitionTo(c, entity.StatusInReview, h.move) }

// Approve handles POST /stock-requests/:id/approve
func (h *StockRequestHandler) Approve(c *gin.Context) { h.transitionTo(c, entity.StatusApproved, h.move) }

// Reject handles POST /stock-requests/:id/reject
func (h *StockRequestHandler) Reject(c *gin.Context) { h.transitionTo(c, entity.StatusRejected, h.move) }

// Forward handles POST /stock-requests/:id/forward
func (h *StockRequestHandler) Forward(c *gin.Context) {
	h.transitionTo(c, entity.StatusForwarded, h.move)
}

// Transition handles POST /stock-requests/:id/transition
func (h *StockRequestHandler) Transition(c *gin.Context) { h.transitionAny(c, h.move) }

// History handles GET /stock-requests/:id/history
func (h *StockRequestHandler) History(c *gin.Context) { h.history(c, h.service.RequestHistory) }

func (h *StockRequestHandler) move(ctx context.Context, actor security.Actor, requestID id.ID, to entity.Status, comment string, version int) (any, error) {
	return h.service.TransitionRequest(ctx, actor, requestID, to, comment, version)
}
