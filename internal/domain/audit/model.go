// Package audit provides the append-only change trail of owned records.
package audit

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/abbakari/works/internal/core/apperror"
	"github.com/abbakari/works/internal/core/entity"
	"github.com/abbakari/works/internal/core/id"
)

// Action is the kind of change an entry records.
type Action string

const (
	ActionCreated   Action = "created"
	ActionUpdated   Action = "updated"
	ActionSubmitted Action = "submitted"
	ActionInReview  Action = "in_review"
	ActionApproved  Action = "approved"
	ActionRejected  Action = "rejected"
	ActionForwarded Action = "forwarded"
	ActionDeleted   Action = "deleted"
)

// ActionFor maps a target lifecycle state to its audit action.
func ActionFor(to entity.Status) Action {
	switch to {
	case entity.StatusSubmitted:
		return ActionSubmitted
	case entity.StatusInReview:
		return ActionInReview
	case entity.StatusApproved:
		return ActionApproved
	case entity.StatusRejected:
		return ActionRejected
	case entity.StatusForwarded:
		return ActionForwarded
	case entity.StatusDraft:
		return ActionCreated
	}
	return ActionUpdated
}

// Entry is one immutable row of the trail.
type Entry struct {
	ID         id.ID           `db:"id" json:"id"`
	EntityType string          `db:"entity_type" json:"entityType"`
	EntityID   id.ID           `db:"entity_id" json:"entityId"`
	Action     Action          `db:"action" json:"action"`
	FromState  *entity.Status  `db:"from_state" json:"fromState,omitempty"`
	ToState    entity.Status   `db:"to_state" json:"toState"`
	Before     json.RawMessage `db:"before" json:"before,omitempty"`
	After      json.RawMessage `db:"after" json:"after,omitempty"`
	ActorID    id.ID           `db:"actor_id" json:"actorId"`
	ActorRole  string          `db:"actor_role" json:"actorRole"`
	Comment    string          `db:"comment" json:"comment,omitempty"`
	CreatedAt  time.Time       `db:"created_at" json:"createdAt"`
}

// Validate checks the fields every entry must carry.
func (e *Entry) Validate() error {
	if strings.TrimSpace(e.EntityType) == "" {
		return apperror.NewValidation("audit entity type is required")
	}
	if id.IsNil(e.EntityID) {
		return apperror.NewValidation("audit entity id is required")
	}
	if e.Action == "" {
		return apperror.NewValidation("audit action is required")
	}
	if !e.ToState.Valid() {
		return apperror.NewValidation("audit to_state is invalid").WithDetail("to_state", e.ToState)
	}
	return nil
}

// Snapshot marshals v for the Before/After columns. nil yields nil.
func Snapshot(v any) (json.RawMessage, error) {
	if v == nil {
		return nil, nil
	}
	return json.Marshal(v)
}
