package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/abbakari/works/internal/core/entity"
	"github.com/abbakari/works/internal/core/id"
	"github.com/abbakari/works/internal/core/security"
	"github.com/abbakari/works/pkg/logger"
)

// Change describes a mutation to be recorded.
type Change struct {
	EntityType string
	EntityID   id.ID
	Action     Action
	From       *entity.Status
	To         entity.Status
	Before     any
	After      any
	Actor      security.Actor
	Comment    string
}

// Trail appends and reads audit entries.
// Append must run inside the caller's transaction so that the entry
// commits or rolls back together with the change it describes.
type Trail struct {
	repo Repository
	now  func() time.Time
}

// NewTrail creates a Trail.
func NewTrail(repo Repository) *Trail {
	return &Trail{repo: repo, now: time.Now}
}

// Append records c and returns the new entry id.
func (t *Trail) Append(ctx context.Context, c Change) (id.ID, error) {
	before, err := Snapshot(c.Before)
	if err != nil {
		return id.Nil(), fmt.Errorf("snapshot before: %w", err)
	}
	after, err := Snapshot(c.After)
	if err != nil {
		return id.Nil(), fmt.Errorf("snapshot after: %w", err)
	}

	e := &Entry{
		ID:         id.New(),
		EntityType: c.EntityType,
		EntityID:   c.EntityID,
		Action:     c.Action,
		FromState:  c.From,
		ToState:    c.To,
		Before:     before,
		After:      after,
		ActorID:    c.Actor.ID,
		ActorRole:  string(c.Actor.Role),
		Comment:    c.Comment,
		CreatedAt:  t.now().UTC(),
	}
	if err := e.Validate(); err != nil {
		return id.Nil(), err
	}
	if err := t.repo.Append(ctx, e); err != nil {
		return id.Nil(), fmt.Errorf("append audit entry: %w", err)
	}

	logger.Debug(ctx, "audit entry appended",
		"entity_type", e.EntityType,
		"entity_id", e.EntityID,
		"action", e.Action,
	)
	return e.ID, nil
}

// Created records the creation of a draft record.
func (t *Trail) Created(ctx context.Context, entityType string, rec *entity.Record, after any, actor security.Actor) error {
	_, err := t.Append(ctx, Change{
		EntityType: entityType,
		EntityID:   rec.ID,
		Action:     ActionCreated,
		To:         rec.Status,
		After:      after,
		Actor:      actor,
	})
	return err
}

// Updated records an edit that leaves the status unchanged.
func (t *Trail) Updated(ctx context.Context, entityType string, rec *entity.Record, before, after any, actor security.Actor) error {
	st := rec.Status
	_, err := t.Append(ctx, Change{
		EntityType: entityType,
		EntityID:   rec.ID,
		Action:     ActionUpdated,
		From:       &st,
		To:         st,
		Before:     before,
		After:      after,
		Actor:      actor,
	})
	return err
}

// Deleted records a soft delete.
func (t *Trail) Deleted(ctx context.Context, entityType string, rec *entity.Record, before any, actor security.Actor) error {
	st := rec.Status
	_, err := t.Append(ctx, Change{
		EntityType: entityType,
		EntityID:   rec.ID,
		Action:     ActionDeleted,
		From:       &st,
		To:         st,
		Before:     before,
		Actor:      actor,
	})
	return err
}

// HistoryFor returns the entries of one entity, newest first.
// Callers check visibility of the parent record first.
func (t *Trail) HistoryFor(ctx context.Context, entityType string, entityID id.ID) ([]Entry, error) {
	entries, err := t.repo.ListByEntity(ctx, entityType, entityID, 0)
	if err != nil {
		return nil, fmt.Errorf("list audit entries: %w", err)
	}
	return entries, nil
}
