package audit

import (
	"context"

	"github.com/abbakari/works/internal/core/id"
)

// Repository persists entries. There is no update or delete path.
type Repository interface {
	Append(ctx context.Context, e *Entry) error

	// ListByEntity returns entries newest first. limit <= 0 means no limit.
	ListByEntity(ctx context.Context, entityType string, entityID id.ID, limit int) ([]Entry, error)
}
