package handlers

import (
	"context"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/abbakari/works/internal/core/apperror"
	"github.com/abbakari/works/internal/core/entity"
	"github.com/abbakari/works/internal/core/id"
	"github.com/abbakari/works/internal/core/security"
	"github.com/abbakari/works/internal/domain/budgets"
	"github.com/abbakari/works/internal/infrastructure/http/v1/dto"
)

// BudgetHandler serves yearly sales budgets.
type BudgetHandler struct {
	*BaseHandler
	service *budgets.Service
}

// NewBudgetHandler creates a budget handler.
func NewBudgetHandler(base *BaseHandler, service *budgets.Service) *BudgetHandler {
	return &BudgetHandler{BaseHandler: base, service: service}
}

// List handles GET /budgets
func (h *BudgetHandler) List(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	f, ok := h.ListFilter(c)
	if !ok {
		return
	}
	res, err := h.service.List(c.Request.Context(), actor, f)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromListResult(res))
}

// ByCustomer handles GET /budgets/customer/:customerId
func (h *BudgetHandler) ByCustomer(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	customerID, ok := h.PathID(c, "customerId")
	if !ok {
		return
	}
	f, ok := h.ListFilter(c)
	if !ok {
		return
	}
	res, err := h.service.ByCustomer(c.Request.Context(), actor, customerID, f)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromListResult(res))
}

// ByYear handles GET /budgets/year/:year
func (h *BudgetHandler) ByYear(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	year, err := strconv.Atoi(c.Param("year"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid year").WithDetail("value", c.Param("year")))
		return
	}
	f, ok := h.ListFilter(c)
	if !ok {
		return
	}
	res, err := h.service.ByYear(c.Request.Context(), actor, year, f)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromListResult(res))
}

// Summary handles GET /budgets/summary
func (h *BudgetHandler) Summary(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	f, ok := h.ListFilter(c)
	if !ok {
		return
	}
	sum, err := h.service.Summary(c.Request.Context(), actor, f)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, sum)
}

// Create handles POST /budgets
func (h *BudgetHandler) Create(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	var req dto.CreateBudgetRequest
	if !h.BindJSON(c, &req) {
		return
	}
	in, err := req.ToInput()
	if err != nil {
		h.Error(c, err)
		return
	}
	b, err := h.service.Create(c.Request.Context(), actor, in)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, b)
}

// Get handles GET /budgets/:id
func (h *BudgetHandler) Get(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	budgetID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	b, err := h.service.Get(c.Request.Context(), actor, budgetID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, b)
}

// Update handles PUT /budgets/:id
func (h *BudgetHandler) Update(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	budgetID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateBudgetRequest
	if !h.BindJSON(c, &req) {
		return
	}
	b, err := h.service.Update(c.Request.Context(), actor, budgetID, req.Version, req.ToInput())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, b)
}

// UpdateMonths handles PUT /budgets/:id/monthly
func (h *BudgetHandler) UpdateMonths(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	budgetID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateBudgetMonthsRequest
	if !h.BindJSON(c, &req) {
		return
	}
	b, err := h.service.UpdateMonths(c.Request.Context(), actor, budgetID, req.Version, req.Months())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, b)
}

// Distribute handles POST /budgets/:id/distribute
func (h *BudgetHandler) Distribute(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	budgetID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	var req dto.DistributeRequest
	if !h.BindOptionalJSON(c, &req) {
		return
	}
	dist, err := req.ToDistribution(func(profileID id.ID) (budgets.Distribution, error) {
		return h.service.Profile(c.Request.Context(), profileID)
	})
	if err != nil {
		h.Error(c, err)
		return
	}
	b, err := h.service.Distribute(c.Request.Context(), actor, budgetID, req.Version, req.TotalBudget, dist)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, b)
}

// Delete handles DELETE /budgets/:id
func (h *BudgetHandler) Delete(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	budgetID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), actor, budgetID); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}

// Submit handles POST /budgets/:id/submit
func (h *BudgetHandler) Submit(c *gin.Context) { h.transitionTo(c, entity.StatusSubmitted, h.move) }

// Review handles POST /budgets/:id/review
func (h *BudgetHandler) Review(c *gin.Context) { h.transitionTo(c, entity.StatusInReview, h.move) }

// Approve handles POST /budgets/:id/approve
func (h *BudgetHandler) Approve(c *gin.Context) { h.transitionTo(c, entity.StatusApproved, h.move) }

// Reject handles POST /budgets/:id/reject
func (h *BudgetHandler) Reject(c *gin.Context) { h.transitionTo(c, entity.StatusRejected, h.move) }

// Transition handles POST /budgets/:id/transition
func (h *BudgetHandler) Transition(c *gin.Context) { h.transitionAny(c, h.move) }

// History handles GET /budgets/:id/history
func (h *BudgetHandler) History(c *gin.Context) { h.history(c, h.service.History) }

func (h *BudgetHandler) move(ctx context.Context, actor security.Actor, budgetID id.ID, to entity.Status, comment string, version int) (any, error) {
	return h.service.Transition(ctx, actor, budgetID, to, comment, version)
}

// RegisterExtraRoutes adds the budget-only routes. Static segments are
// registered before the record routes claim /:id.
func (h *BudgetHandler) RegisterExtraRoutes(g *gin.RouterGroup) {
	g.GET("/summary", h.Summary)
	g.GET("/customer/:customerId", h.ByCustomer)
	g.GET("/year/:year", h.ByYear)
	g.PUT("/:id/monthly", h.UpdateMonths)
	g.POST("/:id/distribute", h.Distribute)
}
