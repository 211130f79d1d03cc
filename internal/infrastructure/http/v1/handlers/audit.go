package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/abbakari/works/internal/core/apperror"
	"github.com/abbakari/works/internal/domain/audit"
	"github.com/abbakari/works/internal/domain/budgets"
	"github.com/abbakari/works/internal/domain/forecasts"
	"github.com/abbakari/works/internal/domain/inventory"
	"github.com/abbakari/works/internal/domain/workflow"
)

var auditEntityTypes = map[string]struct{}{
	budgets.EntityType:           {},
	forecasts.EntityType:         {},
	workflow.EntityType:          {},
	inventory.EntityStockRequest: {},
}

// AuditHandler exposes the raw audit trail to administrators.
type AuditHandler struct {
	*BaseHandler
	trail *audit.Trail
}

// NewAuditHandler creates an audit handler.
func NewAuditHandler(base *BaseHandler, trail *audit.Trail) *AuditHandler {
	return &AuditHandler{BaseHandler: base, trail: trail}
}

// History handles GET /audit/:entityType/:id
func (h *AuditHandler) History(c *gin.Context) {
	entityType := c.Param("entityType")
	if _, ok := auditEntityTypes[entityType]; !ok {
		h.Error(c, apperror.NewValidation("unknown entity type").WithDetail("entity_type", entityType))
		return
	}
	entityID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	entries, err := h.trail.HistoryFor(c.Request.Context(), entityType, entityID)
	if err != nil {
		h.Error(c, err)
		return
	}
	if entries == nil {
		entries = []audit.Entry{}
	}
	h.OK(c, gin.H{"items": entries})
}
