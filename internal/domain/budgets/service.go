package budgets

import (
	"context"
	"fmt"

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

// Service implements budget use cases.
type Service struct {
	repo    Repository
	refs    References
	txm     tx.Manager
	perms   *security.Resolver
	scopes  lifecycle.ScopeSource
	machine *lifecycle.Machine
	trail   *audit.Trail

	profiles Profiles
}

// NewService creates a budget service.
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

// UseProfiles lets Create and Distribute spread by a stored profile id.
func (s *Service) UseProfiles(p Profiles) { s.profiles = p }

// Profile returns the shares of a stored profile.
func (s *Service) Profile(ctx context.Context, profileID id.ID) (Distribution, error) {
	if s.profiles == nil {
		return Distribution{}, apperror.NewValidation("stored distributions are not available")
	}
	return s.profiles.ProfileShares(ctx, profileID)
}

// CreateInput holds the fields of a new budget.
type CreateInput struct {
	CustomerID  id.ID
	ItemID      id.ID
	Year        int
	Category    string
	Brand       string
	Rate        types.Money
	Stock       int
	GIT         int
	Discount    types.Money
	Notes       string
	TotalBudget types.Money
	// Months wins over TotalBudget when both are given.
	Months []MonthInput
	// Distribution spreads TotalBudget; nil means DefaultDistribution.
	Distribution *Distribution
	// DistributionID names a stored profile used when Distribution is nil.
	DistributionID *id.ID
}

// Create stores a draft budget owned by actor.
func (s *Service) Create(ctx context.Context, actor security.Actor, in CreateInput) (*YearlyBudget, error) {
	if err := actor.Require(s.perms, security.ResourceSalesBudget, security.ActionCreate); err != nil {
		return nil, err
	}

	b := NewYearlyBudget(actor.ID, in.CustomerID, in.ItemID, in.Year)
	b.Category, b.Brand, b.Notes = in.Category, in.Brand, in.Notes
	b.Rate, b.Stock, b.GIT, b.Discount = in.Rate, in.Stock, in.GIT, in.Discount
	b.TotalBudget = in.TotalBudget

	if len(in.Months) > 0 {
		if err := b.MergeMonths(in.Months); err != nil {
			return nil, err
		}
	} else if in.TotalBudget.IsPositive() {
		dist := DefaultDistribution()
		switch {
		case in.Distribution != nil:
			dist = *in.Distribution
		case in.DistributionID != nil:
			stored, err := s.Profile(ctx, *in.DistributionID)
			if err != nil {
				return nil, err
			}
			dist = stored
		}
		if err := applyDistribution(b, in.TotalBudget, dist); err != nil {
			return nil, err
		}
	}

	b.Recompute()
	b.Priority = entity.PriorityFor(b.TotalValue())
	if err := b.Validate(ctx); err != nil {
		return nil, err
	}

	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		customer, item, category, brand, err := s.refs.CustomerItemNames(ctx, b.CustomerID, b.ItemID)
		if err != nil {
			return err
		}
		b.Customer, b.Item = customer, item
		if b.Category == "" {
			b.Category = category
		}
		if b.Brand == "" {
			b.Brand = brand
		}
		if err := s.repo.Create(ctx, b); err != nil {
			return fmt.Errorf("create budget: %w", err)
		}
		return s.trail.Created(ctx, EntityType, &b.Record, b, actor)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "budget created",
		"budget_id", b.ID,
		"year", b.Year,
		"total", b.TotalBudget.String())
	return b, nil
}

// Get returns a visible budget.
func (s *Service) Get(ctx context.Context, actor security.Actor, budgetID id.ID) (*YearlyBudget, error) {
	b, err := s.repo.GetByID(ctx, budgetID)
	if err != nil {
		return nil, err
	}
	scope, err := s.scopes.Resolve(ctx, actor, security.ResourceSalesBudget)
	if err != nil {
		return nil, err
	}
	if err := lifecycle.RequireVisible(lifecycle.KindSalesBudget, scope, b, budgetID); err != nil {
		return nil, err
	}
	b.AllowedTransitions = s.machine.AllowedTargets(lifecycle.SalesBudgetSpec, b, actor)
	return b, nil
}

// List returns budgets visible to actor.
func (s *Service) List(ctx context.Context, actor security.Actor, f domain.ListFilter) (domain.ListResult[YearlyBudget], error) {
	scope, err := s.scopes.Resolve(ctx, actor, security.ResourceSalesBudget)
	if err != nil {
		return domain.ListResult[YearlyBudget]{}, err
	}
	return s.repo.List(ctx, scope, f.Normalize())
}

// ByCustomer lists visible budgets of one customer.
func (s *Service) ByCustomer(ctx context.Context, actor security.Actor, customerID id.ID, f domain.ListFilter) (domain.ListResult[YearlyBudget], error) {
	f.CustomerID = &customerID
	return s.List(ctx, actor, f)
}

// ByYear lists visible budgets of one year.
func (s *Service) ByYear(ctx context.Context, actor security.Actor, year int, f domain.ListFilter) (domain.ListResult[YearlyBudget], error) {
	f.Year = year
	return s.List(ctx, actor, f)
}

// Summary aggregates visible budgets.
func (s *Service) Summary(ctx context.Context, actor security.Actor, f domain.ListFilter) (*Summary, error) {
	scope, err := s.scopes.Resolve(ctx, actor, security.ResourceSalesBudget)
	if err != nil {
		return nil, err
	}
	return s.repo.Summary(ctx, scope, f)
}

// UpdateInput holds optional header changes.
type UpdateInput struct {
	Category *string
	Brand    *string
	Rate     *types.Money
	Stock    *int
	GIT      *int
	Discount *types.Money
	Notes    *string
	// TotalBudget replaces the total; used only when the budget has no months.
	TotalBudget *types.Money
}

// Update edits header fields of a draft owned by actor.
func (s *Service) Update(ctx context.Context, actor security.Actor, budgetID id.ID, version int, in UpdateInput) (*YearlyBudget, error) {
	return s.edit(ctx, actor, budgetID, version, func(b *YearlyBudget) error {
		if in.Category != nil {
			b.Category = *in.Category
		}
		if in.Brand != nil {
			b.Brand = *in.Brand
		}
		if in.Rate != nil {
			b.Rate = *in.Rate
		}
		if in.Stock != nil {
			b.Stock = *in.Stock
		}
		if in.GIT != nil {
			b.GIT = *in.GIT
		}
		if in.Discount != nil {
			b.Discount = *in.Discount
		}
		if in.Notes != nil {
			b.Notes = *in.Notes
		}
		if in.TotalBudget != nil && len(b.Months) == 0 {
			b.TotalBudget = *in.TotalBudget
		}
		return nil
	})
}

// UpdateMonths merges monthly values into a draft owned by actor.
func (s *Service) UpdateMonths(ctx context.Context, actor security.Actor, budgetID id.ID, version int, months []MonthInput) (*YearlyBudget, error) {
	if len(months) == 0 {
		return nil, apperror.NewValidation("at least one month is required").WithDetail("field", "monthlyBudgets")
	}
	return s.edit(ctx, actor, budgetID, version, func(b *YearlyBudget) error {
		return b.MergeMonths(months)
	})
}

// Distribute spreads total (or the current total when nil) across months.
func (s *Service) Distribute(ctx context.Context, actor security.Actor, budgetID id.ID, version int, total *types.Money, dist Distribution) (*YearlyBudget, error) {
	if err := dist.Validate(); err != nil {
		return nil, err
	}
	return s.edit(ctx, actor, budgetID, version, func(b *YearlyBudget) error {
		amount := b.TotalBudget
		if total != nil {
			amount = *total
		}
		return applyDistribution(b, amount, dist)
	})
}

// Delete soft-deletes a budget.
func (s *Service) Delete(ctx context.Context, actor security.Actor, budgetID id.ID) error {
	return s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		b, err := s.lockVisible(ctx, actor, budgetID)
		if err != nil {
			return err
		}
		if err := lifecycle.RequireDeletable(lifecycle.KindSalesBudget, b, actor); err != nil {
			return err
		}
		b.IsActive = false
		b.Touch()
		if err := s.repo.Update(ctx, b); err != nil {
			return err
		}
		return s.trail.Deleted(ctx, EntityType, &b.Record, b, actor)
	})
}

// Transition moves a budget through the approval flow.
func (s *Service) Transition(ctx context.Context, actor security.Actor, budgetID id.ID, target entity.Status, comment string, version int) (*YearlyBudget, error) {
	rec, err := s.machine.Transition(ctx, lifecycle.SalesBudgetSpec, transitionStore{s.repo}, lifecycle.Request{
		RecordID:        budgetID,
		Target:          target,
		Actor:           actor,
		Comment:         comment,
		ExpectedVersion: version,
	})
	if err != nil {
		return nil, err
	}
	return rec.(*YearlyBudget), nil
}

// Submit is Transition to submitted.
func (s *Service) Submit(ctx context.Context, actor security.Actor, budgetID id.ID, comment string) (*YearlyBudget, error) {
	return s.Transition(ctx, actor, budgetID, entity.StatusSubmitted, comment, 0)
}

// Review is Transition to in_review.
func (s *Service) Review(ctx context.Context, actor security.Actor, budgetID id.ID, comment string) (*YearlyBudget, error) {
	return s.Transition(ctx, actor, budgetID, entity.StatusInReview, comment, 0)
}

// Approve is Transition to approved.
func (s *Service) Approve(ctx context.Context, actor security.Actor, budgetID id.ID, comment string) (*YearlyBudget, error) {
	return s.Transition(ctx, actor, budgetID, entity.StatusApproved, comment, 0)
}

// Reject is Transition to rejected.
func (s *Service) Reject(ctx context.Context, actor security.Actor, budgetID id.ID, comment string) (*YearlyBudget, error) {
	return s.Transition(ctx, actor, budgetID, entity.StatusRejected, comment, 0)
}

// History returns the audit entries of a visible budget, newest first.
func (s *Service) History(ctx context.Context, actor security.Actor, budgetID id.ID) ([]audit.Entry, error) {
	if _, err := s.Get(ctx, actor, budgetID); err != nil {
		return nil, err
	}
	return s.trail.HistoryFor(ctx, EntityType, budgetID)
}

func (s *Service) edit(ctx context.Context, actor security.Actor, budgetID id.ID, version int, fn func(*YearlyBudget) error) (*YearlyBudget, error) {
	var out *YearlyBudget
	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		b, err := s.lockVisible(ctx, actor, budgetID)
		if err != nil {
			return err
		}
		if err := lifecycle.RequireEditable(lifecycle.KindSalesBudget, b, actor); err != nil {
			return err
		}
		if version > 0 && b.Version != version {
			return apperror.NewConcurrentModification(EntityType, budgetID)
		}

		before, err := audit.Snapshot(b)
		if err != nil {
			return err
		}
		if err := fn(b); err != nil {
			return err
		}
		b.Recompute()
		b.Priority = entity.PriorityFor(b.TotalValue())
		if err := b.Validate(ctx); err != nil {
			return err
		}
		b.Touch()

		if err := s.repo.SaveMonths(ctx, b); err != nil {
			return err
		}
		if err := s.repo.Update(ctx, b); err != nil {
			return err
		}
		if err := s.trail.Updated(ctx, EntityType, &b.Record, before, b, actor); err != nil {
			return err
		}
		out = b
		return nil
	})
	return out, err
}

func (s *Service) lockVisible(ctx context.Context, actor security.Actor, budgetID id.ID) (*YearlyBudget, error) {
	b, err := s.repo.GetForUpdate(ctx, budgetID)
	if err != nil {
		return nil, err
	}
	scope, err := s.scopes.Resolve(ctx, actor, security.ResourceSalesBudget)
	if err != nil {
		return nil, err
	}
	if err := lifecycle.RequireVisible(lifecycle.KindSalesBudget, scope, b, budgetID); err != nil {
		return nil, err
	}
	return b, nil
}

func applyDistribution(b *YearlyBudget, total types.Money, dist Distribution) error {
	if err := dist.Validate(); err != nil {
		return err
	}
	if total.IsNegative() {
		return apperror.NewValidation("total budget can not be negative").WithDetail("field", "totalBudget")
	}
	parts := dist.Spread(total)
	inputs := make([]MonthInput, 12)
	for i := range parts {
		v := parts[i]
		inputs[i] = MonthInput{Month: i + 1, BudgetValue: &v}
	}
	return b.MergeMonths(inputs)
}

type transitionStore struct{ repo Repository }

func (t transitionStore) LockForTransition(ctx context.Context, recordID id.ID) (lifecycle.Record, error) {
	b, err := t.repo.GetForUpdate(ctx, recordID)
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (t transitionStore) SaveTransition(ctx context.Context, rec lifecycle.Record) error {
	return t.repo.Update(ctx, rec.(*YearlyBudget))
}
