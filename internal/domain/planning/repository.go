package planning

import (
	"context"

	"github.com/abbakari/works/internal/core/id"
	"github.com/abbakari/works/internal/core/security"
	"github.com/abbakari/works/internal/domain"
	"github.com/abbakari/works/internal/domain/budgets"
)

// ProfileFilter narrows profile lists.
type ProfileFilter struct {
	domain.ListFilter
	Type        DistributionType
	DefaultOnly bool
}

// TemplateFilter narrows template lists.
type TemplateFilter struct {
	domain.ListFilter
	Kind     TemplateKind
	Category string
	Brand    string
	// ViewerID limits results to public templates and the viewer's own.
	// Nil lists every template.
	ViewerID *id.ID
}

// AlertFilter narrows one recipient's alerts.
type AlertFilter struct {
	domain.ListFilter
	Type     AlertType
	Severity Severity
	// Unread lists only alerts not yet marked read.
	Unread bool
}

// ProfileRepository persists distribution profiles.
type ProfileRepository interface {
	Create(ctx context.Context, p *DistributionProfile) error
	GetByID(ctx context.Context, profileID id.ID) (*DistributionProfile, error)
	// GetDefault returns the active default profile.
	GetDefault(ctx context.Context) (*DistributionProfile, error)
	// ClearDefault unsets the default flag on every profile but keep.
	ClearDefault(ctx context.Context, keep id.ID) error
	Update(ctx context.Context, p *DistributionProfile) error
	List(ctx context.Context, f ProfileFilter) (domain.ListResult[DistributionProfile], error)
}

// TemplateRepository persists templates.
type TemplateRepository interface {
	Create(ctx context.Context, t *Template) error
	GetByID(ctx context.Context, templateID id.ID) (*Template, error)
	Update(ctx context.Context, t *Template) error
	List(ctx context.Context, f TemplateFilter) (domain.ListResult[Template], error)
}

// AlertRepository persists budget alerts.
type AlertRepository interface {
	Create(ctx context.Context, a *Alert) error
	GetByID(ctx context.Context, alertID id.ID) (*Alert, error)
	Update(ctx context.Context, a *Alert) error
	ListForRecipient(ctx context.Context, recipientID id.ID, f AlertFilter) (domain.ListResult[Alert], error)
}

// BudgetReader returns a budget if actor may see it.
type BudgetReader interface {
	Get(ctx context.Context, actor security.Actor, budgetID id.ID) (*budgets.YearlyBudget, error)
}
