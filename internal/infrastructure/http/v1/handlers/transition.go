package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/abbakari/works/internal/core/entity"
	"github.com/abbakari/works/internal/core/id"
	"github.com/abbakari/works/internal/core/security"
	"github.com/abbakari/works/internal/domain/audit"
	"github.com/abbakari/works/internal/infrastructure/http/v1/dto"
)

// transitionFunc moves one record. Each record handler adapts its service to it.
type transitionFunc func(ctx context.Context, actor security.Actor, recordID id.ID, target entity.Status, comment string, version int) (any, error)

// historyFunc loads the audit trail of one visible record.
type historyFunc func(ctx context.Context, actor security.Actor, recordID id.ID) ([]audit.Entry, error)

// transitionTo serves the fixed-target endpoints (submit, approve, ...).
// The body is optional.
func (h *BaseHandler) transitionTo(c *gin.Context, target entity.Status, fn transitionFunc) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	recordID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	var req dto.TransitionRequest
	if !h.BindOptionalJSON(c, &req) {
		return
	}
	rec, err := fn(c.Request.Context(), actor, recordID, target, req.Comment, req.Version)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, rec)
}

// transitionAny serves POST /:id/transition with the target in the body.
func (h *BaseHandler) transitionAny(c *gin.Context, fn transitionFunc) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	recordID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	var req dto.StatusTransitionRequest
	if !h.BindJSON(c, &req) {
		return
	}
	target, err := req.Target()
	if err != nil {
		h.Error(c, err)
		return
	}
	rec, err := fn(c.Request.Context(), actor, recordID, target, req.Comment, req.Version)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, rec)
}

func (h *BaseHandler) history(c *gin.Context, fn historyFunc) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	recordID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	entries, err := fn(c.Request.Context(), actor, recordID)
	if err != nil {
		h.Error(c, err)
		return
	}
	if entries == nil {
		entries = []audit.Entry{}
	}
	h.OK(c, gin.H{"items": entries})
}
