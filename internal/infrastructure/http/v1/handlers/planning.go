package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/abbakari/works/internal/core/id"
	"github.com/abbakari/works/internal/core/security"
	"github.com/abbakari/works/internal/domain/planning"
	"github.com/abbakari/works/internal/infrastructure/http/v1/dto"
)

// PlanningHandler serves distribution profiles, templates and budget alerts.
type PlanningHandler struct {
	*BaseHandler
	service *planning.Service
}

// NewPlanningHandler creates a planning handler.
func NewPlanningHandler(base *BaseHandler, service *planning.Service) *PlanningHandler {
	return &PlanningHandler{BaseHandler: base, service: service}
}

// RegisterRoutes mounts the planning routes under the budgets and
// forecasts groups. Role checks live in the service.
func (h *PlanningHandler) RegisterRoutes(budgetsGroup, forecastsGroup *gin.RouterGroup) {
	dist := budgetsGroup.Group("/distributions")
	{
		dist.GET("", h.ListProfiles)
		dist.POST("", h.CreateProfile)
		dist.GET("/default", h.DefaultProfile)
		dist.GET("/:id", h.GetProfile)
		dist.PUT("/:id", h.UpdateProfile)
		dist.DELETE("/:id", h.DeleteProfile)
	}

	h.templateRoutes(budgetsGroup.Group("/templates"), planning.TemplateBudget)
	h.templateRoutes(forecastsGroup.Group("/templates"), planning.TemplateForecast)

	alerts := budgetsGroup.Group("/alerts")
	{
		alerts.GET("", h.ListAlerts)
		alerts.POST("", h.RaiseAlert)
		alerts.POST("/:id/read", h.MarkAlertRead)
		alerts.POST("/:id/resolve", h.ResolveAlert)
	}
}

func (h *PlanningHandler) templateRoutes(g *gin.RouterGroup, kind planning.TemplateKind) {
	g.GET("", func(c *gin.Context) { h.listTemplates(c, kind) })
	g.POST("", func(c *gin.Context) { h.createTemplate(c, kind) })
	g.GET("/:id", func(c *gin.Context) { h.getTemplate(c, kind) })
	g.PUT("/:id", func(c *gin.Context) { h.updateTemplate(c, kind) })
	g.DELETE("/:id", func(c *gin.Context) { h.deleteTemplate(c, kind) })
}

// ListProfiles handles GET /budgets/distributions
func (h *PlanningHandler) ListProfiles(c *gin.Context) {
	var q dto.ProfileQuery
	if !h.BindQuery(c, &q) {
		return
	}
	f, err := q.ToFilter()
	if err != nil {
		h.Error(c, err)
		return
	}
	res, err := h.service.ListProfiles(c.Request.Context(), f)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromListResult(res))
}

// CreateProfile handles POST /budgets/distributions
func (h *PlanningHandler) CreateProfile(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	var req dto.CreateProfileRequest
	if !h.BindJSON(c, &req) {
		return
	}
	p, err := req.ToProfile(actor.ID)
	if err != nil {
		h.Error(c, err)
		return
	}
	if err := h.service.CreateProfile(c.Request.Context(), actor, p); err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, p)
}

// DefaultProfile handles GET /budgets/distributions/default
func (h *PlanningHandler) DefaultProfile(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	p, err := h.service.DefaultProfile(c.Request.Context(), actor)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, p)
}

// GetProfile handles GET /budgets/distributions/:id
func (h *PlanningHandler) GetProfile(c *gin.Context) {
	profileID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	p, err := h.service.GetProfile(c.Request.Context(), profileID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, p)
}

// UpdateProfile handles PUT /budgets/distributions/:id
func (h *PlanningHandler) UpdateProfile(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	profileID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateProfileRequest
	if !h.BindJSON(c, &req) {
		return
	}
	patch, err := req.Patch()
	if err != nil {
		h.Error(c, err)
		return
	}
	p, err := h.service.UpdateProfile(c.Request.Context(), actor, profileID, req.Version, patch)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, p)
}

// DeleteProfile handles DELETE /budgets/distributions/:id
func (h *PlanningHandler) DeleteProfile(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	profileID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	if err := h.service.DeleteProfile(c.Request.Context(), actor, profileID); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}

func (h *PlanningHandler) listTemplates(c *gin.Context, kind planning.TemplateKind) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	var q dto.TemplateQuery
	if !h.BindQuery(c, &q) {
		return
	}
	f, err := q.ToFilter(kind)
	if err != nil {
		h.Error(c, err)
		return
	}
	res, err := h.service.ListTemplates(c.Request.Context(), actor, f)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromListResult(res))
}

func (h *PlanningHandler) createTemplate(c *gin.Context, kind planning.TemplateKind) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	var req dto.CreateTemplateRequest
	if !h.BindJSON(c, &req) {
		return
	}
	t, err := req.ToTemplate(kind, actor.ID)
	if err != nil {
		h.Error(c, err)
		return
	}
	if err := h.service.CreateTemplate(c.Request.Context(), actor, t); err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, t)
}

func (h *PlanningHandler) getTemplate(c *gin.Context, kind planning.TemplateKind) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	templateID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	t, err := h.service.GetTemplate(c.Request.Context(), actor, kind, templateID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, t)
}

func (h *PlanningHandler) updateTemplate(c *gin.Context, kind planning.TemplateKind) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	templateID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateTemplateRequest
	if !h.BindJSON(c, &req) {
		return
	}
	patch, err := req.Patch()
	if err != nil {
		h.Error(c, err)
		return
	}
	t, err := h.service.UpdateTemplate(c.Request.Context(), actor, kind, templateID, req.Version, patch)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, t)
}

func (h *PlanningHandler) deleteTemplate(c *gin.Context, kind planning.TemplateKind) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	templateID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	if err := h.service.DeleteTemplate(c.Request.Context(), actor, kind, templateID); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}

// ListAlerts handles GET /budgets/alerts
func (h *PlanningHandler) ListAlerts(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	var q dto.AlertQuery
	if !h.BindQuery(c, &q) {
		return
	}
	f, err := q.ToFilter()
	if err != nil {
		h.Error(c, err)
		return
	}
	res, err := h.service.ListAlerts(c.Request.Context(), actor, f)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromListResult(res))
}

// RaiseAlert handles POST /budgets/alerts
func (h *PlanningHandler) RaiseAlert(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	var req dto.RaiseAlertRequest
	if !h.BindJSON(c, &req) {
		return
	}
	in, err := req.ToInput()
	if err != nil {
		h.Error(c, err)
		return
	}
	a, err := h.service.RaiseAlert(c.Request.Context(), actor, in)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, a)
}

// MarkAlertRead handles POST /budgets/alerts/:id/read
func (h *PlanningHandler) MarkAlertRead(c *gin.Context) {
	h.editAlert(c, h.service.MarkAlertRead)
}

// ResolveAlert handles POST /budgets/alerts/:id/resolve
func (h *PlanningHandler) ResolveAlert(c *gin.Context) {
	h.editAlert(c, h.service.ResolveAlert)
}

func (h *PlanningHandler) editAlert(c *gin.Context, fn func(context.Context, security.Actor, id.ID) (*planning.Alert, error)) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	alertID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	a, err := fn(c.Request.Context(), actor, alertID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, a)
}
