package inventory

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/abbakari/works/internal/core/apperror"
	"github.com/abbakari/works/internal/core/entity"
	"github.com/abbakari/works/internal/core/id"
	"github.com/abbakari/works/internal/core/security"
	"github.com/abbakari/works/internal/core/tx"
	"github.com/abbakari/works/internal/core/types"
	"github.com/abbakari/works/internal/domain"
	"github.com/abbakari/works/internal/domain/audit"
	"github.com/abbakari/works/internal/domain/lifecycle"
	"github.com/abbakari/works/pkg/logger"
)

// DefaultMovementLimit caps movement history reads.
const DefaultMovementLimit = 100

// Service implements stock and stock request use cases.
type Service struct {
	stock     StockRepository
	movements MovementRepository
	requests  RequestRepository
	items     ItemLookup
	txm       tx.Manager
	perms     *security.Resolver
	scopes    lifecycle.ScopeSource
	machine   *lifecycle.Machine
	trail     *audit.Trail
	now       func() time.Time
}

// Deps groups the collaborators of Service.
type Deps struct {
	Stock     StockRepository
	Movements MovementRepository
	Requests  RequestRepository
	Items     ItemLookup
	TxManager tx.Manager
	Perms     *security.Resolver
	Scopes    lifecycle.ScopeSource
	Machine   *lifecycle.Machine
	Trail     *audit.Trail
}

// NewService creates an inventory service.
func NewService(d Deps) *Service {
	return &Service{
		stock:     d.Stock,
		movements: d.Movements,
		requests:  d.Requests,
		items:     d.Items,
		txm:       d.TxManager,
		perms:     d.Perms,
		scopes:    d.Scopes,
		machine:   d.Machine,
		trail:     d.Trail,
		now:       time.Now,
	}
}

// StockInput holds the fields of a new stock position.
type StockInput struct {
	ItemID       id.ID
	Location     string
	MinStock     int64
	MaxStock     int64
	ReorderPoint int64
	// OpeningStock is booked as an incoming movement.
	OpeningStock int64
	UnitCost     types.Money
}

// CreateStock opens a stock position for a catalog item.
func (s *Service) CreateStock(ctx context.Context, actor security.Actor, in StockInput) (*StockItem, error) {
	if err := actor.Require(s.perms, security.ResourceInventory, security.ActionManage); err != nil {
		return nil, err
	}

	item := NewStockItem(in.ItemID, in.Location, actor.ID)
	item.MinStock, item.MaxStock, item.ReorderPoint = in.MinStock, in.MaxStock, in.ReorderPoint
	if err := item.Validate(ctx); err != nil {
		return nil, err
	}

	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		sku, name, unit, cost, err := s.items.ItemInfo(ctx, in.ItemID)
		if err != nil {
			return err
		}
		item.SKU, item.Name, item.Unit = sku, name, unit
		item.AverageCost = cost

		var opening *Movement
		if in.OpeningStock > 0 {
			opening = &Movement{
				ID:          id.New(),
				Type:        MovementIn,
				Reason:      ReasonAdjustment,
				Quantity:    in.OpeningStock,
				UnitCost:    in.UnitCost,
				Reference:   "opening balance",
				PerformedBy: actor.ID,
				CreatedAt:   s.now().UTC(),
			}
			if err := item.Apply(opening, s.now()); err != nil {
				return err
			}
		}
		item.Recompute()

		if err := s.stock.Create(ctx, item); err != nil {
			return fmt.Errorf("create stock item: %w", err)
		}
		if opening != nil {
			if err := s.movements.Create(ctx, opening); err != nil {
				return fmt.Errorf("record opening balance: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "stock item created",
		"stock_id", item.ID,
		"sku", item.SKU,
		"location", item.Location)
	return item, nil
}

// GetStock returns one stock position.
func (s *Service) GetStock(ctx context.Context, stockID id.ID) (*StockItem, error) {
	return s.stock.GetByID(ctx, stockID)
}

// ListStock returns stock positions.
func (s *Service) ListStock(ctx context.Context, filter StockFilter) (domain.ListResult[StockItem], error) {
	filter.ListFilter = filter.ListFilter.Normalize()
	return s.stock.List(ctx, filter)
}

// LowStock lists positions that are low or out of stock.
func (s *Service) LowStock(ctx context.Context, filter domain.ListFilter) (domain.ListResult[StockItem], error) {
	return s.ListStock(ctx, StockFilter{ListFilter: filter, Statuses: []StockStatus{StatusOutOfStock, StatusLow}})
}

// Summary aggregates all stock positions.
func (s *Service) Summary(ctx context.Context) (*Summary, error) {
	return s.stock.Summary(ctx)
}

// LevelsInput changes thresholds of a stock position.
type LevelsInput struct {
	MinStock     *int64
	MaxStock     *int64
	ReorderPoint *int64
	Location     *string
}

// UpdateLevels edits thresholds with an optimistic version check.
func (s *Service) UpdateLevels(ctx context.Context, actor security.Actor, stockID id.ID, version int, in LevelsInput) (*StockItem, error) {
	if err := actor.Require(s.perms, security.ResourceInventory, security.ActionManage); err != nil {
		return nil, err
	}
	var out *StockItem
	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		item, err := s.stock.GetForUpdate(ctx, stockID)
		if err != nil {
			return err
		}
		if version > 0 && item.Version != version {
			return apperror.NewConcurrentModification(EntityStock, stockID)
		}
		if in.MinStock != nil {
			item.MinStock = *in.MinStock
		}
		if in.MaxStock != nil {
			item.MaxStock = *in.MaxStock
		}
		if in.ReorderPoint != nil {
			item.ReorderPoint = *in.ReorderPoint
		}
		if in.Location != nil {
			item.Location = strings.TrimSpace(*in.Location)
		}
		item.Recompute()
		if err := item.Validate(ctx); err != nil {
			return err
		}
		item.Touch()
		if err := s.stock.Update(ctx, item); err != nil {
			return err
		}
		out = item
		return nil
	})
	return out, err
}

// MovementInput describes a stock movement.
type MovementInput struct {
	Type       MovementType
	Reason     MovementReason
	Quantity   int64
	UnitCost   types.Money
	Reference  string
	ToLocation string
	Notes      string
}

// RecordMovement applies a movement to a stock position. The level change
// and the movement row commit together.
func (s *Service) RecordMovement(ctx context.Context, actor security.Actor, stockID id.ID, in MovementInput) (*Movement, *StockItem, error) {
	if err := actor.Require(s.perms, security.ResourceInventory, security.ActionManage); err != nil {
		return nil, nil, err
	}

	m := &Movement{
		ID:          id.New(),
		Type:        in.Type,
		Reason:      in.Reason,
		Quantity:    in.Quantity,
		UnitCost:    in.UnitCost,
		Reference:   in.Reference,
		ToLocation:  in.ToLocation,
		Notes:       in.Notes,
		PerformedBy: actor.ID,
		CreatedAt:   s.now().UTC(),
	}
	if err := m.Validate(); err != nil {
		return nil, nil, err
	}

	var item *StockItem
	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		item, err = s.stock.GetForUpdate(ctx, stockID)
		if err != nil {
			return err
		}
		if err := item.Apply(m, s.now()); err != nil {
			return err
		}
		item.Touch()
		if err := s.stock.Update(ctx, item); err != nil {
			return err
		}
		return s.movements.Create(ctx, m)
	})
	if err != nil {
		return nil, nil, err
	}

	logger.Info(ctx, "stock movement recorded",
		"stock_id", stockID,
		"type", m.Type,
		"before", m.StockBefore,
		"after", m.StockAfter)
	if item.NeedsReorder() {
		logger.Warn(ctx, "stock at reorder point", "stock_id", stockID, "current", item.CurrentStock)
	}
	return m, item, nil
}

// Movements returns recent movements of a stock position.
func (s *Service) Movements(ctx context.Context, stockID id.ID, limit int) ([]Movement, error) {
	if _, err := s.stock.GetByID(ctx, stockID); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > DefaultMovementLimit {
		limit = DefaultMovementLimit
	}
	return s.movements.ListByStock(ctx, stockID, limit)
}

// RequestInput holds the fields of a new stock request.
type RequestInput struct {
	ItemID   id.ID
	Title    string
	Quantity int64
	Urgency  Urgency
	Reason   string
}

// CreateRequest stores a draft stock request owned by actor.
func (s *Service) CreateRequest(ctx context.Context, actor security.Actor, in RequestInput) (*StockRequest, error) {
	if err := actor.Require(s.perms, security.ResourceStockRequests, security.ActionCreate); err != nil {
		return nil, err
	}

	r := NewStockRequest(actor.ID, in.ItemID, in.Quantity)
	r.Title = strings.TrimSpace(in.Title)
	r.Reason = in.Reason
	if in.Urgency != "" {
		r.Urgency = in.Urgency
	}
	if err := r.Validate(ctx); err != nil {
		return nil, err
	}

	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		_, name, _, cost, err := s.items.ItemInfo(ctx, r.ItemID)
		if err != nil {
			return err
		}
		r.ItemName, r.UnitCost = name, cost
		r.Recompute()
		r.Priority = entity.PriorityFor(r.TotalValue())
		if err := s.requests.Create(ctx, r); err != nil {
			return fmt.Errorf("create stock request: %w", err)
		}
		return s.trail.Created(ctx, EntityStockRequest, &r.Record, r, actor)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "stock request created", "stock_request_id", r.ID, "urgency", r.Urgency)
	return r, nil
}

// GetRequest returns a visible stock request.
func (s *Service) GetRequest(ctx context.Context, actor security.Actor, requestID id.ID) (*StockRequest, error) {
	r, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	scope, err := s.scopes.Resolve(ctx, actor, security.ResourceStockRequests)
	if err != nil {
		return nil, err
	}
	if err := lifecycle.RequireVisible(lifecycle.KindStockRequest, scope, r, requestID); err != nil {
		return nil, err
	}
	r.AllowedTransitions = s.machine.AllowedTargets(lifecycle.StockRequestSpec, r, actor)
	return r, nil
}

// ListRequests returns stock requests visible to actor.
func (s *Service) ListRequests(ctx context.Context, actor security.Actor, filter domain.ListFilter) (domain.ListResult[StockRequest], error) {
	scope, err := s.scopes.Resolve(ctx, actor, security.ResourceStockRequests)
	if err != nil {
		return domain.ListResult[StockRequest]{}, err
	}
	return s.requests.List(ctx, scope, filter.Normalize())
}

// TransitionRequest moves a stock request through the approval flow.
func (s *Service) TransitionRequest(ctx context.Context, actor security.Actor, requestID id.ID, target entity.Status, comment string, version int) (*StockRequest, error) {
	rec, err := s.machine.Transition(ctx, lifecycle.StockRequestSpec, requestStore{s.requests}, lifecycle.Request{
		RecordID:        requestID,
		Target:          target,
		Actor:           actor,
		Comment:         comment,
		ExpectedVersion: version,
	})
	if err != nil {
		return nil, err
	}
	return rec.(*StockRequest), nil
}

// RequestHistory returns the audit entries of a visible stock request.
func (s *Service) RequestHistory(ctx context.Context, actor security.Actor, requestID id.ID) ([]audit.Entry, error) {
	if _, err := s.GetRequest(ctx, actor, requestID); err != nil {
		return nil, err
	}
	return s.trail.HistoryFor(ctx, EntityStockRequest, requestID)
}

type requestStore struct{ repo RequestRepository }

func (t requestStore) LockForTransition(ctx context.Context, recordID id.ID) (lifecycle.Record, error) {
	r, err := t.repo.GetForUpdate(ctx, recordID)
	if err != nil {
		return nil, err
	}
	return r, nil
}

func (t requestStore) SaveTransition(ctx context.Context, rec lifecycle.Record) error {
	return t.repo.Update(ctx, rec.(*StockRequest))
}
