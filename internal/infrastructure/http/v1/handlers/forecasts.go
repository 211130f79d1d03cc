package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/abbakari/works/internal/core/entity"
	"github.com/abbakari/works/internal/core/id"
	"github.com/abbakari/works/internal/core/security"
	"github.com/abbakari/works/internal/domain/forecasts"
	"github.com/abbakari/works/internal/infrastructure/http/v1/dto"
)

// ForecastHandler serves rolling forecasts.
type ForecastHandler struct {
	*BaseHandler
	service *forecasts.Service
}

// NewForecastHandler creates a forecast handler.
func NewForecastHandler(base *BaseHandler, service *forecasts.Service) *ForecastHandler {
	return &ForecastHandler{BaseHandler: base, service: service}
}

// List handles GET /forecasts
func (h *ForecastHandler) List(c *gin.Context) {
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

// ByCustomer handles GET /forecasts/customer/:customerId
func (h *ForecastHandler) ByCustomer(c *gin.Context) {
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

// Summary handles GET /forecasts/summary
func (h *ForecastHandler) Summary(c *gin.Context) {
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

// Create handles POST /forecasts
func (h *ForecastHandler) Create(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	var req dto.CreateForecastRequest
	if !h.BindJSON(c, &req) {
		return
	}
	in, err := req.ToInput()
	if err != nil {
		h.Error(c, err)
		return
	}
	f, err := h.service.Create(c.Request.Context(), actor, in)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, f)
}

// Get handles GET /forecasts/:id
func (h *ForecastHandler) Get(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	forecastID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	f, err := h.service.Get(c.Request.Context(), actor, forecastID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, f)
}

// Update handles PUT /forecasts/:id
func (h *ForecastHandler) Update(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	forecastID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateForecastRequest
	if !h.BindJSON(c, &req) {
		return
	}
	f, err := h.service.Update(c.Request.Context(), actor, forecastID, req.Version, req.ToInput())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, f)
}

// UpdateMonths handles PUT /forecasts/:id/monthly
func (h *ForecastHandler) UpdateMonths(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	forecastID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateForecastMonthsRequest
	if !h.BindJSON(c, &req) {
		return
	}
	f, err := h.service.UpdateMonths(c.Request.Context(), actor, forecastID, req.Version, req.Months())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, f)
}

// Delete handles DELETE /forecasts/:id
func (h *ForecastHandler) Delete(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	forecastID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), actor, forecastID); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}

// Submit handles POST /forecasts/:id/submit
func (h *ForecastHandler) Submit(c *gin.Context) { h.transitionTo(c, entity.StatusSubmitted, h.move) }

// Review handles POST /forecasts/:id/review
func (h *ForecastHandler) Review(c *gin.Context) { h.transitionTo(c, entity.StatusInReview, h.move) }

// Approve handles POST /forecasts/:id/approve
func (h *ForecastHandler) Approve(c *gin.Context) { h.transitionTo(c, entity.StatusApproved, h.move) }

// Reject handles POST /forecasts/:id/reject
func (h *ForecastHandler) Reject(c *gin.Context) { h.transitionTo(c, entity.StatusRejected, h.move) }

// Transition handles POST /forecasts/:id/transition
func (h *ForecastHandler) Transition(c *gin.Context) { h.transitionAny(c, h.move) }

// History handles GET /forecasts/:id/history
func (h *ForecastHandler) History(c *gin.Context) { h.history(c, h.service.History) }

func (h *ForecastHandler) move(ctx context.Context, actor security.Actor, forecastID id.ID, to entity.Status, comment string, version int) (any, error) {
	return h.service.Transition(ctx, actor, forecastID, to, comment, version)
}

// RegisterExtraRoutes adds the forecast-only routes.
func (h *ForecastHandler) RegisterExtraRoutes(g *gin.RouterGroup) {
	g.GET("/summary", h.Summary)
	g.GET("/customer/:customerId", h.ByCustomer)
	g.PUT("/:id/monthly", h.UpdateMonths)
}
