// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"
)

// RecordRouteHandler is implemented by every handler whose records follow
// the approval state machine.
type RecordRouteHandler interface {
	List(c *gin.Context)
	Create(c *gin.Context)
	Get(c *gin.Context)
	Submit(c *gin.Context)
	Review(c *gin.Context)
	Approve(c *gin.Context)
	Reject(c *gin.Context)
	Transition(c *gin.Context)
	History(c *gin.Context)
}

// EditableRecordHandler is an optional interface for records whose body can
// be edited while in draft.
type EditableRecordHandler interface {
	Update(c *gin.Context)
	Delete(c *gin.Context)
}

// ForwardHandler is an optional interface for records that can be handed to
// supply chain after approval.
type ForwardHandler interface {
	Forward(c *gin.Context)
}

// extraRoutes is implemented by handlers with record-specific routes.
type extraRoutes interface {
	RegisterExtraRoutes(g *gin.RouterGroup)
}

// RegisterRecordRoutes registers the list, read, create and transition
// routes of one record kind. Optional interfaces add their routes when the
// handler implements them.
//
// Usage:
//
//	handler := handlers.NewBudgetHandler(base, cfg.Budgets)
//	RegisterRecordRoutes(protected.Group("/budgets"), handler)
func RegisterRecordRoutes(group *gin.RouterGroup, handler RecordRouteHandler) {
	// Static segments first so they are not read as an :id.
	if extra, ok := handler.(extraRoutes); ok {
		extra.RegisterExtraRoutes(group)
	}

	group.GET("", handler.List)
	group.POST("", handler.Create)
	group.GET("/:id", handler.Get)
	group.GET("/:id/history", handler.History)
	group.POST("/:id/submit", handler.Submit)
	group.POST("/:id/review", handler.Review)
	group.POST("/:id/approve", handler.Approve)
	group.POST("/:id/reject", handler.Reject)
	group.POST("/:id/transition", handler.Transition)

	if editable, ok := handler.(EditableRecordHandler); ok {
		group.PUT("/:id", editable.Update)
		group.DELETE("/:id", editable.Delete)
	}
	if fwd, ok := handler.(ForwardHandler); ok {
		group.POST("/:id/forward", fwd.Forward)
	}
}
