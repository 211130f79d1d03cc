// Package record_repo provides PostgreSQL repositories for the
// lifecycle-managed records: budgets, forecasts, workflow items and
// stock requests.
package record_repo

import (
	"github.com/Masterminds/squirrel"

	"github.com/abbakari/works/internal/core/security"
	"github.com/abbakari/works/internal/domain"
	"github.com/abbakari/works/internal/infrastructure/storage/postgres"
)

// visible narrows q to the active rows of scope that match filter.
// Filters on columns the table lacks are ignored.
func visible(q squirrel.SelectBuilder, columns []string, scope security.Scope, f domain.ListFilter, searchCols ...string) squirrel.SelectBuilder {
	has := make(map[string]bool, len(columns))
	for _, c := range columns {
		has[c] = true
	}

	q = postgres.ApplyScope(q, scope, "created_by", "status")

	if !f.IncludeInactive {
		q = q.Where(squirrel.Eq{"is_active": true})
	}
	if f.Status != "" {
		q = q.Where(squirrel.Eq{"status": string(f.Status)})
	}
	if f.OwnerID != nil {
		q = q.Where(squirrel.Eq{"created_by": *f.OwnerID})
	}
	if f.CustomerID != nil && has["customer_id"] {
		q = q.Where(squirrel.Eq{"customer_id": *f.CustomerID})
	}
	if f.ItemID != nil && has["item_id"] {
		q = q.Where(squirrel.Eq{"item_id": *f.ItemID})
	}
	if f.Year != 0 && has["year"] {
		q = q.Where(squirrel.Eq{"year": f.Year})
	}
	if f.Search != "" && len(searchCols) > 0 {
		q = q.Where(postgres.Search(f.Search, searchCols...))
	}
	return q
}

// headerOrder lists the sortable columns every record table has.
func headerOrder(extra ...string) map[string]bool {
	m := map[string]bool{
		"created_at": true, "updated_at": true, "status": true,
		"priority": true, "submitted_at": true,
	}
	for _, c := range extra {
		m[c] = true
	}
	return m
}
