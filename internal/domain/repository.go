// Package domain holds types shared by the domain services.
package domain

import (
	"strings"

	"github.com/abbakari/works/internal/core/entity"
	"github.com/abbakari/works/internal/core/id"
)

// ListFilter contains common filtering options for list operations.
type ListFilter struct {
	// Search matches name-like columns with ILIKE.
	Search string

	Status     entity.Status
	OwnerID    *id.ID
	CustomerID *id.ID
	ItemID     *id.ID
	Year       int

	// IncludeInactive includes soft-deleted records.
	IncludeInactive bool

	// OrderBy is a column name, "-" prefix for descending (e.g. "-created_at").
	OrderBy string

	Limit  int
	Offset int
}

const (
	DefaultLimit = 50
	MaxLimit     = 500
)

// DefaultListFilter returns sensible defaults.
func DefaultListFilter() ListFilter {
	return ListFilter{
		Limit:   DefaultLimit,
		OrderBy: "-created_at",
	}
}

// Normalize clamps paging values.
func (f ListFilter) Normalize() ListFilter {
	if f.Limit <= 0 {
		f.Limit = DefaultLimit
	}
	if f.Limit > MaxLimit {
		f.Limit = MaxLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	if f.OrderBy == "" {
		f.OrderBy = "-created_at"
	}
	return f
}

// OrderClause turns OrderBy into "col ASC|DESC" if col is in allowed,
// falling back to fallback otherwise.
func (f ListFilter) OrderClause(allowed map[string]bool, fallback string) string {
	col := strings.TrimPrefix(f.OrderBy, "-")
	if !allowed[col] {
		return fallback
	}
	if strings.HasPrefix(f.OrderBy, "-") {
		return col + " DESC"
	}
	return col + " ASC"
}

// ListResult contains paginated results.
type ListResult[T any] struct {
	Items      []T   `json:"items"`
	TotalCount int64 `json:"totalCount"`
	Limit      int   `json:"limit"`
	Offset     int   `json:"offset"`
}
