// Package lifecycle implements the approval state machine shared by all
// owned records: budgets, forecasts, workflow items and stock requests.
package lifecycle

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/abbakari/works/internal/core/entity"
	"github.com/abbakari/works/internal/core/id"
	"github.com/abbakari/works/internal/core/security"
)

// Kind names a record type that goes through the state machine.
type Kind string

const (
	KindSalesBudget  Kind = "sales_budget"
	KindForecast     Kind = "forecast"
	KindWorkflowItem Kind = "workflow_item"
	KindStockRequest Kind = "stock_request"
)

// KindSpec binds a record type to the resources its transitions are checked against.
type KindSpec struct {
	Kind Kind
	// Resource is checked for approve/reject and used for visibility.
	Resource security.Resource
	// AllowForward enables approved -> forwarded.
	AllowForward bool
}

var (
	SalesBudgetSpec  = KindSpec{Kind: KindSalesBudget, Resource: security.ResourceSalesBudget}
	ForecastSpec     = KindSpec{Kind: KindForecast, Resource: security.ResourceForecasts}
	WorkflowItemSpec = KindSpec{Kind: KindWorkflowItem, Resource: security.ResourceApprovals, AllowForward: true}
	StockRequestSpec = KindSpec{Kind: KindStockRequest, Resource: security.ResourceStockRequests, AllowForward: true}
)

// Record is an owned entity the machine can move.
type Record interface {
	security.Owned
	Header() *entity.Record
	// Recompute refreshes derived fields from raw inputs.
	Recompute()
	// TotalValue feeds the priority buckets and guard rules.
	TotalValue() decimal.Decimal
	// Label is a short human name used in notifications.
	Label() string
}

// Store loads and saves records of one kind. Both calls run inside the
// machine's transaction.
type Store interface {
	// LockForTransition loads the record with its children and locks its row.
	LockForTransition(ctx context.Context, recordID id.ID) (Record, error)
	// SaveTransition persists the header with optimistic version check.
	SaveTransition(ctx context.Context, rec Record) error
}
