package forecasts

import (
	"context"
	"fmt"

	"github.com/abbakari/works/internal/core/apperror"
	"github.com/abbakari/works/internal/core/entity"
	"github.com/abbakari/works/internal/core/id"
	"github.com/abbakari/works/internal/core/security"
	"github.com/abbakari/works/internal/core/tx"
	"github.com/abbakari/works/internal/domain"
	"github.com/abbakari/works/internal/domain/audit"
	"github.com/abbakari/works/internal/domain/lifecycle"
	"github.com/abbakari/works/pkg/logger"
)

// Service implements forecast use cases.
type Service struct {
	repo    Repository
	refs    References
	txm     tx.Manager
	perms   *security.Resolver
	scopes  lifecycle.ScopeSource
	machine *lifecycle.Machine
	trail   *audit.Trail
}

// NewService creates a forecast service.
func NewService(
	repo Repository,
	refs References,
	txm tx.Manager,
	perms *security.Resolver,
	scopes lifecycle.ScopeSource,
	machine *lifecycle.Machine,
	trail *audit.Trail,
) *Service {
	return &Service{repo: repo, refs: refs, txm: txm, perms: perms, scopes: scopes, machine: machine, trail: trail}
}

// CreateInput holds the fields of a new forecast.
type CreateInput struct {
	CustomerID id.ID
	ItemID     id.ID
	Confidence Confidence
	Notes      string
	Months     []MonthInput
}

// Create stores a draft forecast owned by actor.
func (s *Service) Create(ctx context.Context, actor security.Actor, in CreateInput) (*Forecast, error) {
	if err := actor.Require(s.perms, security.ResourceForecasts, security.ActionCreate); err != nil {
		return nil, err
	}

	f := NewForecast(actor.ID, in.CustomerID, in.ItemID)
	if in.Confidence != "" {
		f.Confidence = in.Confidence
	}
	f.Notes = in.Notes
	if err := f.Validate(ctx); err != nil {
		return nil, err
	}

	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		customer, item, price, err := s.refs.ForecastRefs(ctx, f.CustomerID, f.ItemID)
		if err != nil {
			return err
		}
		f.Customer, f.Item = customer, item
		if err := f.MergeMonths(in.Months, price); err != nil {
			return err
		}
		f.Recompute()
		f.Priority = entity.PriorityFor(f.TotalValue())
		if err := f.Validate(ctx); err != nil {
			return err
		}
		if err := s.repo.Create(ctx, f); err != nil {
			return fmt.Errorf("create forecast: %w", err)
		}
		return s.trail.Created(ctx, EntityType, &f.Record, f, actor)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "forecast created",
		"forecast_id", f.ID,
		"months", len(f.Months),
		"impact", f.YearlyBudgetImpact.String())
	return f, nil
}

// Get returns a visible forecast.
func (s *Service) Get(ctx context.Context, actor security.Actor, forecastID id.ID) (*Forecast, error) {
	f, err := s.repo.GetByID(ctx, forecastID)
	if err != nil {
		return nil, err
	}
	scope, err := s.scopes.Resolve(ctx, actor, security.ResourceForecasts)
	if err != nil {
		return nil, err
	}
	if err := lifecycle.RequireVisible(lifecycle.KindForecast, scope, f, forecastID); err != nil {
		return nil, err
	}
	f.AllowedTransitions = s.machine.AllowedTargets(lifecycle.ForecastSpec, f, actor)
	return f, nil
}

// List returns forecasts visible to actor.
func (s *Service) List(ctx context.Context, actor security.Actor, filter domain.ListFilter) (domain.ListResult[Forecast], error) {
	scope, err := s.scopes.Resolve(ctx, actor, security.ResourceForecasts)
	if err != nil {
		return domain.ListResult[Forecast]{}, err
	}
	return s.repo.List(ctx, scope, filter.Normalize())
}

// ByCustomer lists visible forecasts of one customer.
func (s *Service) ByCustomer(ctx context.Context, actor security.Actor, customerID id.ID, filter domain.ListFilter) (domain.ListResult[Forecast], error) {
	filter.CustomerID = &customerID
	return s.List(ctx, actor, filter)
}

// Summary aggregates visible forecasts, including a confidence breakdown.
func (s *Service) Summary(ctx context.Context, actor security.Actor, filter domain.ListFilter) (*Summary, error) {
	scope, err := s.scopes.Resolve(ctx, actor, security.ResourceForecasts)
	if err != nil {
		return nil, err
	}
	return s.repo.Summary(ctx, scope, filter)
}

// UpdateInput holds optional header changes.
type UpdateInput struct {
	Confidence *Confidence
	Notes      *string
}

// Update edits header fields of a draft owned by actor.
func (s *Service) Update(ctx context.Context, actor security.Actor, forecastID id.ID, version int, in UpdateInput) (*Forecast, error) {
	return s.edit(ctx, actor, forecastID, version, func(f *Forecast) error {
		if in.Confidence != nil {
			f.Confidence = *in.Confidence
		}
		if in.Notes != nil {
			f.Notes = *in.Notes
		}
		return nil
	})
}

// UpdateMonths merges monthly quantities into a draft owned by actor.
func (s *Service) UpdateMonths(ctx context.Context, actor security.Actor, forecastID id.ID, version int, months []MonthInput) (*Forecast, error) {
	if len(months) == 0 {
		return nil, apperror.NewValidation("at least one month is required").WithDetail("field", "monthlyForecasts")
	}
	return s.edit(ctx, actor, forecastID, version, func(f *Forecast) error {
		_, _, price, err := s.refs.ForecastRefs(ctx, f.CustomerID, f.ItemID)
		if err != nil {
			return err
		}
		return f.MergeMonths(months, price)
	})
}

// Delete soft-deletes a forecast.
func (s *Service) Delete(ctx context.Context, actor security.Actor, forecastID id.ID) error {
	return s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		f, err := s.lockVisible(ctx, actor, forecastID)
		if err != nil {
			return err
		}
		if err := lifecycle.RequireDeletable(lifecycle.KindForecast, f, actor); err != nil {
			return err
		}
		f.IsActive = false
		f.Touch()
		if err := s.repo.Update(ctx, f); err != nil {
			return err
		}
		return s.trail.Deleted(ctx, EntityType, &f.Record, f, actor)
	})
}

// Transition moves a forecast through the approval flow.
func (s *Service) Transition(ctx context.Context, actor security.Actor, forecastID id.ID, target entity.Status, comment string, version int) (*Forecast, error) {
	rec, err := s.machine.Transition(ctx, lifecycle.ForecastSpec, transitionStore{s.repo}, lifecycle.Request{
		RecordID:        forecastID,
		Target:          target,
		Actor:           actor,
		Comment:         comment,
		ExpectedVersion: version,
	})
	if err != nil {
		return nil, err
	}
	return rec.(*Forecast), nil
}

// Submit is Transition to submitted.
func (s *Service) Submit(ctx context.Context, actor security.Actor, forecastID id.ID, comment string) (*Forecast, error) {
	return s.Transition(ctx, actor, forecastID, entity.StatusSubmitted, comment, 0)
}

// Approve is Transition to approved.
func (s *Service) Approve(ctx context.Context, actor security.Actor, forecastID id.ID, comment string) (*Forecast, error) {
	return s.Transition(ctx, actor, forecastID, entity.StatusApproved, comment, 0)
}

// Reject is Transition to rejected.
func (s *Service) Reject(ctx context.Context, actor security.Actor, forecastID id.ID, comment string) (*Forecast, error) {
	return s.Transition(ctx, actor, forecastID, entity.StatusRejected, comment, 0)
}

// History returns the audit entries of a visible forecast, newest first.
func (s *Service) History(ctx context.Context, actor security.Actor, forecastID id.ID) ([]audit.Entry, error) {
	if _, err := s.Get(ctx, actor, forecastID); err != nil {
		return nil, err
	}
	return s.trail.HistoryFor(ctx, EntityType, forecastID)
}

func (s *Service) edit(ctx context.Context, actor security.Actor, forecastID id.ID, version int, fn func(*Forecast) error) (*Forecast, error) {
	var out *Forecast
	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		f, err := s.lockVisible(ctx, actor, forecastID)
		if err != nil {
			return err
		}
		if err := lifecycle.RequireEditable(lifecycle.KindForecast, f, actor); err != nil {
			return err
		}
		if version > 0 && f.Version != version {
			return apperror.NewConcurrentModification(EntityType, forecastID)
		}

		before, err := audit.Snapshot(f)
		if err != nil {
			return err
		}
		if err := fn(f); err != nil {
			return err
		}
		f.Recompute()
		f.Priority = entity.PriorityFor(f.TotalValue())
		if err := f.Validate(ctx); err != nil {
			return err
		}
		f.Touch()

		if err := s.repo.SaveMonths(ctx, f); err != nil {
			return err
		}
		if err := s.repo.Update(ctx, f); err != nil {
			return err
		}
		if err := s.trail.Updated(ctx, EntityType, &f.Record, before, f, actor); err != nil {
			return err
		}
		out = f
		return nil
	})
	return out, err
}

func (s *Service) lockVisible(ctx context.Context, actor security.Actor, forecastID id.ID) (*Forecast, error) {
	f, err := s.repo.GetForUpdate(ctx, forecastID)
	if err != nil {
		return nil, err
	}
	scope, err := s.scopes.Resolve(ctx, actor, security.ResourceForecasts)
	if err != nil {
		return nil, err
	}
	if err := lifecycle.RequireVisible(lifecycle.KindForecast, scope, f, forecastID); err != nil {
		return nil, err
	}
	return f, nil
}

type transitionStore struct{ repo Repository }

func (t transitionStore) LockForTransition(ctx context.Context, recordID id.ID) (lifecycle.Record, error) {
	f, err := t.repo.GetForUpdate(ctx, recordID)
	if err != nil {
		return nil, err
	}
	return f, nil
}

func (t transitionStore) SaveTransition(ctx context.Context, rec lifecycle.Record) error {
	return t.repo.Update(ctx, rec.(*Forecast))
}
