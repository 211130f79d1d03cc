package security

import (
	"context"
	"fmt"

	"github.com/abbakari/works/internal/core/entity"
	"github.com/abbakari/works/internal/core/id"
)

// Owned is anything the visibility filter can judge.
type Owned interface {
	OwnerID() id.ID
	CurrentStatus() entity.Status
}

// DownstreamStatuses are the states a downstream consumer role may read.
var DownstreamStatuses = []entity.Status{entity.StatusApproved, entity.StatusForwarded}

// Scope is the set of records an actor may see for one resource.
// The zero Scope sees nothing.
type Scope struct {
	// AnyOwner lifts the owner restriction.
	AnyOwner bool
	// Owners lists permitted owners when AnyOwner is false.
	Owners []id.ID
	// Statuses, when non-empty, restricts visible records to these states.
	Statuses []entity.Status
}

// AllScope sees every record.
func AllScope() Scope { return Scope{AnyOwner: true} }

// Unrestricted reports whether the scope passes every record.
func (s Scope) Unrestricted() bool {
	return s.AnyOwner && len(s.Statuses) == 0
}

// Visible reports whether rec falls inside the scope.
func (s Scope) Visible(rec Owned) bool {
	if !s.AnyOwner && !containsID(s.Owners, rec.OwnerID()) {
		return false
	}
	if len(s.Statuses) > 0 && !containsStatus(s.Statuses, rec.CurrentStatus()) {
		return false
	}
	return true
}

// Filter returns the visible subset of records, preserving order.
// Filter(s, Filter(s, xs)) == Filter(s, xs).
func Filter[T Owned](s Scope, records []T) []T {
	if s.Unrestricted() {
		return records
	}
	out := make([]T, 0, len(records))
	for _, r := range records {
		if s.Visible(r) {
			out = append(out, r)
		}
	}
	return out
}

// ReportsLookup returns the direct reports (one level) of a manager.
type ReportsLookup interface {
	DirectReports(ctx context.Context, managerID id.ID) ([]id.ID, error)
}

// ScopeResolver derives a Scope from an actor's role and the manager tree.
type ScopeResolver struct {
	perms   *Resolver
	reports ReportsLookup
}

// NewScopeResolver creates a ScopeResolver.
func NewScopeResolver(perms *Resolver, reports ReportsLookup) *ScopeResolver {
	return &ScopeResolver{perms: perms, reports: reports}
}

// Resolve computes the scope of actor over resource.
func (r *ScopeResolver) Resolve(ctx context.Context, actor Actor, resource Resource) (Scope, error) {
	if r.perms.HasPermission(actor.Role, resource, ActionReadAll) {
		return AllScope(), nil
	}

	switch actor.Role {
	case RoleAdmin:
		return AllScope(), nil
	case RoleManager:
		reports, err := r.reports.DirectReports(ctx, actor.ID)
		if err != nil {
			return Scope{}, fmt.Errorf("load direct reports: %w", err)
		}
		owners := make([]id.ID, 0, len(reports)+1)
		owners = append(owners, actor.ID)
		owners = append(owners, reports...)
		return Scope{Owners: owners}, nil
	case RoleSalesman:
		return Scope{Owners: []id.ID{actor.ID}}, nil
	case RoleSupplyChain:
		return Scope{AnyOwner: true, Statuses: DownstreamStatuses}, nil
	case RoleUnknown:
		return Scope{}, nil
	}
	return Scope{}, nil
}

func containsID(list []id.ID, v id.ID) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}

func containsStatus(list []entity.Status, v entity.Status) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}
