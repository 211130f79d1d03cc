// Package planning_repo provides PostgreSQL implementations for
// distribution profiles, templates and budget alerts.
package planning_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"

	"github.com/abbakari/works/internal/core/id"
	"github.com/abbakari/works/internal/domain"
	"github.com/abbakari/works/internal/domain/planning"
	"github.com/abbakari/works/internal/infrastructure/storage/postgres"
)

var (
	profileOrder  = map[string]bool{"name": true, "type": true, "created_at": true}
	templateOrder = map[string]bool{"name": true, "category": true, "brand": true, "created_at": true}
	alertOrder    = map[string]bool{"created_at": true, "severity": true}
)

// ProfileRepo implements planning.ProfileRepository.
type ProfileRepo struct {
	*postgres.Table[planning.DistributionProfile]
}

// NewProfileRepo creates a profile repository.
func NewProfileRepo(txm *postgres.TxManager) *ProfileRepo {
	return &ProfileRepo{Table: postgres.NewTable[planning.DistributionProfile](txm, "budget_distributions", "distribution profile")}
}

func (r *ProfileRepo) Create(ctx context.Context, p *planning.DistributionProfile) error {
	return r.Insert(ctx, p)
}

func (r *ProfileRepo) GetByID(ctx context.Context, profileID id.ID) (*planning.DistributionProfile, error) {
	return r.Table.GetByID(ctx, profileID, false)
}

func (r *ProfileRepo) GetDefault(ctx context.Context) (*planning.DistributionProfile, error) {
	return r.Get(ctx, r.Select().Where(squirrel.Eq{"is_default": true, "is_active": true}), "default")
}

// ClearDefault bumps the version of every row it changes so a stale
// concurrent edit of the old default fails.
func (r *ProfileRepo) ClearDefault(ctx context.Context, keep id.ID) error {
	sql, args, err := postgres.Builder().
		Update(r.Name()).
		Set("is_default", false).
		Set("version", squirrel.Expr("version + 1")).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"is_default": true}).
		Where(squirrel.NotEq{"id": keep}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build clear default: %w", err)
	}
	if _, err := r.Querier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("clear default profile: %w", err)
	}
	return nil
}

func (r *ProfileRepo) Update(ctx context.Context, p *planning.DistributionProfile) error {
	return r.Table.Update(ctx, p)
}

func (r *ProfileRepo) List(ctx context.Context, f planning.ProfileFilter) (domain.ListResult[planning.DistributionProfile], error) {
	q := r.Select()
	if !f.IncludeInactive {
		q = q.Where(squirrel.Eq{"is_active": true})
	}
	if f.Type != "" {
		q = q.Where(squirrel.Eq{"type": f.Type})
	}
	if f.DefaultOnly {
		q = q.Where(squirrel.Eq{"is_default": true})
	}
	if f.Search != "" {
		q = q.Where(postgres.Search(f.Search, "name", "description"))
	}
	return r.Page(ctx, q, f.ListFilter, f.OrderClause(profileOrder, "name ASC"))
}

// TemplateRepo implements planning.TemplateRepository.
type TemplateRepo struct {
	*postgres.Table[planning.Template]
}

// NewTemplateRepo creates a template repository.
func NewTemplateRepo(txm *postgres.TxManager) *TemplateRepo {
	return &TemplateRepo{Table: postgres.NewTable[planning.Template](txm, "plan_templates", "template")}
}

func (r *TemplateRepo) Create(ctx context.Context, t *planning.Template) error {
	return r.Insert(ctx, t)
}

func (r *TemplateRepo) GetByID(ctx context.Context, templateID id.ID) (*planning.Template, error) {
	return r.Table.GetByID(ctx, templateID, false)
}

func (r *TemplateRepo) Update(ctx context.Context, t *planning.Template) error {
	return r.Table.Update(ctx, t)
}

func (r *TemplateRepo) List(ctx context.Context, f planning.TemplateFilter) (domain.ListResult[planning.Template], error) {
	q := r.Select()
	if f.Kind != "" {
		q = q.Where(squirrel.Eq{"kind": f.Kind})
	}
	if !f.IncludeInactive {
		q = q.Where(squirrel.Eq{"is_active": true})
	}
	if f.Category != "" {
		q = q.Where(squirrel.Eq{"category": f.Category})
	}
	if f.Brand != "" {
		q = q.Where(squirrel.Eq{"brand": f.Brand})
	}
	if f.ViewerID != nil {
		q = q.Where(squirrel.Or{
			squirrel.Eq{"is_public": true},
			squirrel.Eq{"created_by": *f.ViewerID},
		})
	}
	if f.Search != "" {
		q = q.Where(postgres.Search(f.Search, "name", "description"))
	}
	return r.Page(ctx, q, f.ListFilter, f.OrderClause(templateOrder, "name ASC"))
}

// AlertRepo implements planning.AlertRepository.
type AlertRepo struct {
	*postgres.Table[planning.Alert]
}

// NewAlertRepo creates an alert repository.
func NewAlertRepo(txm *postgres.TxManager) *AlertRepo {
	return &AlertRepo{Table: postgres.NewTable[planning.Alert](txm, "budget_alerts", "alert")}
}

func (r *AlertRepo) Create(ctx context.Context, a *planning.Alert) error {
	return r.Insert(ctx, a)
}

func (r *AlertRepo) GetByID(ctx context.Context, alertID id.ID) (*planning.Alert, error) {
	return r.Table.GetByID(ctx, alertID, true)
}

func (r *AlertRepo) Update(ctx context.Context, a *planning.Alert) error {
	return r.Table.Update(ctx, a)
}

func (r *AlertRepo) ListForRecipient(ctx context.Context, recipientID id.ID, f planning.AlertFilter) (domain.ListResult[planning.Alert], error) {
	q := r.Select().Where(squirrel.Eq{"recipient_id": recipientID})
	if !f.IncludeInactive {
		q = q.Where(squirrel.Eq{"is_active": true})
	}
	if f.Type != "" {
		q = q.Where(squirrel.Eq{"alert_type": f.Type})
	}
	if f.Severity != "" {
		q = q.Where(squirrel.Eq{"severity": f.Severity})
	}
	if f.Unread {
		q = q.Where(squirrel.Eq{"is_read": false})
	}
	return r.Page(ctx, q, f.ListFilter, f.OrderClause(alertOrder, "created_at DESC"))
}

var (
	_ planning.ProfileRepository  = (*ProfileRepo)(nil)
	_ planning.TemplateRepository = (*TemplateRepo)(nil)
	_ planning.AlertRepository    = (*AlertRepo)(nil)
)
