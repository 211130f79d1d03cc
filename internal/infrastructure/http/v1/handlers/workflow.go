package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/abbakari/works/internal/core/entity"
	"github.com/abbakari/works/internal/core/id"
	"github.com/abbakari/works/internal/core/security"
	"github.com/abbakari/works/internal/domain/workflow"
	"github.com/abbakari/works/internal/infrastructure/http/v1/dto"
)

// WorkflowHandler serves the approval center.
type WorkflowHandler struct {
	*BaseHandler
	service *workflow.Service
}

// NewWorkflowHandler creates a workflow handler.
func NewWorkflowHandler(base *BaseHandler, service *workflow.Service) *WorkflowHandler {
	return &WorkflowHandler{BaseHandler: base, service: service}
}

// List handles GET /workflow
func (h *WorkflowHandler) List(c *gin.Context) {
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

// Dashboard handles GET /workflow/dashboard
func (h *WorkflowHandler) Dashboard(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	d, err := h.service.Dashboard(c.Request.Context(), actor)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, d)
}

// Create handles POST /workflow
func (h *WorkflowHandler) Create(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	var req dto.CreateWorkflowItemRequest
	if !h.BindJSON(c, &req) {
		return
	}
	in, err := req.ToInput()
	if err != nil {
		h.Error(c, err)
		return
	}
	item, err := h.service.Create(c.Request.Context(), actor, in)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, item)
}

// Get handles GET /workflow/:id
func (h *WorkflowHandler) Get(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	itemID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	item, err := h.service.Get(c.Request.Context(), actor, itemID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, item)
}

// AddComment handles POST /workflow/:id/comments
func (h *WorkflowHandler) AddComment(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	itemID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	var req dto.CommentRequest
	if !h.BindJSON(c, &req) {
		return
	}
	comment, err := h.service.AddComment(c.Request.Context(), actor, itemID, req.ToInput())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, comment)
}

// Comments handles GET /workflow/:id/comments
func (h *WorkflowHandler) Comments(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	itemID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	comments, err := h.service.Comments(c.Request.Context(), actor, itemID)
	if err != nil {
		h.Error(c, err)
		return
	}
	if comments == nil {
		comments = []workflow.Comment{}
	}
	h.OK(c, gin.H{"items": comments})
}

// Submit handles POST /workflow/:id/submit
func (h *WorkflowHandler) Submit(c *gin.Context) { h.transitionTo(c, entity.StatusSubmitted, h.move) }

// Review handles POST /workflow/:id/review
func (h *WorkflowHandler) Review(c *gin.Context) { h.transitionTo(c, entity.StatusInReview, h.move) }

// Approve handles POST /workflow/:id/approve
func (h *WorkflowHandler) Approve(c *gin.Context) { h.transitionTo(c, entity.StatusApproved, h.move) }

// Reject handles POST /workflow/:id/reject
func (h *WorkflowHandler) Reject(c *gin.Context) { h.transitionTo(c, entity.StatusRejected, h.move) }

// Forward handles POST /workflow/:id/forward
func (h *WorkflowHandler) Forward(c *gin.Context) { h.transitionTo(c, entity.StatusForwarded, h.move) }

// Transition handles POST /workflow/:id/transition
func (h *WorkflowHandler) Transition(c *gin.Context) { h.transitionAny(c, h.move) }

// History handles GET /workflow/:id/history
func (h *WorkflowHandler) History(c *gin.Context) { h.history(c, h.service.History) }

func (h *WorkflowHandler) move(ctx context.Context, actor security.Actor, itemID id.ID, to entity.Status, comment string, version int) (any, error) {
	return h.service.Transition(ctx, actor, itemID, to, comment, version)
}

// RegisterExtraRoutes adds dashboard and comment routes.
func (h *WorkflowHandler) RegisterExtraRoutes(g *gin.RouterGroup) {
	g.GET("/dashboard", h.Dashboard)
	g.GET("/:id/comments", h.Comments)
	g.POST("/:id/comments", h.AddComment)
}
