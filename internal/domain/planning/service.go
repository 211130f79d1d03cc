package planning

import (
	"context"
	"fmt"
	"time"

	"github.com/abbakari/works/internal/core/apperror"
	"github.com/abbakari/works/internal/core/entity"
	"github.com/abbakari/works/internal/core/id"
	"github.com/abbakari/works/internal/core/security"
	"github.com/abbakari/works/internal/core/tx"
	"github.com/abbakari/works/internal/domain"
	"github.com/abbakari/works/internal/domain/budgets"
	"github.com/abbakari/works/pkg/logger"
)

// Service manages profiles, templates and alerts.
type Service struct {
	profiles  ProfileRepository
	templates TemplateRepository
	alerts    AlertRepository
	budgets   BudgetReader
	txm       tx.Manager
	perms     *security.Resolver
	now       func() time.Time
}

// NewService creates a planning service.
func NewService(
	profiles ProfileRepository,
	templates TemplateRepository,
	alerts AlertRepository,
	budgetReader BudgetReader,
	txm tx.Manager,
	perms *security.Resolver,
) *Service {
	return &Service{
		profiles:  profiles,
		templates: templates,
		alerts:    alerts,
		budgets:   budgetReader,
		txm:       txm,
		perms:     perms,
		now:       time.Now,
	}
}

// --- Distribution profiles ---

// ListProfiles lists profiles; every signed-in user may read them.
func (s *Service) ListProfiles(ctx context.Context, f ProfileFilter) (domain.ListResult[DistributionProfile], error) {
	if f.Type != "" && !f.Type.Valid() {
		return domain.ListResult[DistributionProfile]{}, apperror.NewValidation("unknown distribution type").WithDetail("value", string(f.Type))
	}
	f.ListFilter = f.ListFilter.Normalize()
	return s.profiles.List(ctx, f)
}

// GetProfile returns one profile.
func (s *Service) GetProfile(ctx context.Context, profileID id.ID) (*DistributionProfile, error) {
	return s.profiles.GetByID(ctx, profileID)
}

// DefaultProfile returns the default profile, creating the seasonal one
// on behalf of actor when none exists.
func (s *Service) DefaultProfile(ctx context.Context, actor security.Actor) (*DistributionProfile, error) {
	p, err := s.profiles.GetDefault(ctx)
	if err == nil || !apperror.IsNotFound(err) {
		return p, err
	}

	p = NewDistributionProfile(DefaultProfileName, budgets.DefaultDistribution(), actor.ID)
	p.Type = DistributionSeasonal
	p.Description = "Seasonal split with lighter allocation for November and December"
	p.IsDefault = true
	err = s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.profiles.Create(ctx, p)
	})
	if apperror.HasCode(err, apperror.CodeConflict) {
		// Another request created it first.
		return s.profiles.GetDefault(ctx)
	}
	if err != nil {
		return nil, err
	}
	logger.Info(ctx, "default distribution profile created", "profile_id", p.ID)
	return p, nil
}

// ProfileShares returns the shares of an active profile.
func (s *Service) ProfileShares(ctx context.Context, profileID id.ID) (budgets.Distribution, error) {
	p, err := s.profiles.GetByID(ctx, profileID)
	if err != nil {
		return budgets.Distribution{}, err
	}
	if !p.IsActive {
		return budgets.Distribution{}, apperror.NewValidation("distribution profile is inactive").
			WithDetail("distributionId", profileID.String())
	}
	return p.Shares, nil
}

// CreateProfile stores a profile. A new default replaces the old one.
func (s *Service) CreateProfile(ctx context.Context, actor security.Actor, p *DistributionProfile) error {
	if err := requireManager(actor, "distribution profiles"); err != nil {
		return err
	}
	if err := p.Validate(ctx); err != nil {
		return err
	}
	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		if p.IsDefault {
			if err := s.profiles.ClearDefault(ctx, p.ID); err != nil {
				return err
			}
		}
		return s.profiles.Create(ctx, p)
	})
	if err != nil {
		return err
	}
	logger.Info(ctx, "distribution profile created", "profile_id", p.ID, "default", p.IsDefault)
	return nil
}

// UpdateProfile applies fn to the stored profile and saves it.
func (s *Service) UpdateProfile(ctx context.Context, actor security.Actor, profileID id.ID, version int, fn func(*DistributionProfile)) (*DistributionProfile, error) {
	if err := requireManager(actor, "distribution profiles"); err != nil {
		return nil, err
	}
	var out *DistributionProfile
	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		p, err := s.profiles.GetByID(ctx, profileID)
		if err != nil {
			return err
		}
		if version > 0 && p.Version != version {
			return apperror.NewConcurrentModification("distribution profile", profileID)
		}
		wasDefault := p.IsDefault
		fn(p)
		if err := p.Validate(ctx); err != nil {
			return err
		}
		if p.IsDefault && !wasDefault {
			if err := s.profiles.ClearDefault(ctx, p.ID); err != nil {
				return err
			}
		}
		p.Touch()
		if err := s.profiles.Update(ctx, p); err != nil {
			return err
		}
		out = p
		return nil
	})
	return out, err
}

// DeleteProfile deactivates a profile. The default profile is deactivated
// too; the next DefaultProfile call recreates the seasonal one.
func (s *Service) DeleteProfile(ctx context.Context, actor security.Actor, profileID id.ID) error {
	_, err := s.UpdateProfile(ctx, actor, profileID, 0, func(p *DistributionProfile) {
		p.IsActive = false
		p.IsDefault = false
	})
	return err
}

// --- Templates ---

// ListTemplates lists the templates of kind visible to actor.
func (s *Service) ListTemplates(ctx context.Context, actor security.Actor, f TemplateFilter) (domain.ListResult[Template], error) {
	f.ViewerID = nil
	if actor.Role != security.RoleAdmin {
		f.ViewerID = id.Ptr(actor.ID)
	}
	f.ListFilter = f.ListFilter.Normalize()
	return s.templates.List(ctx, f)
}

// CreateTemplate stores a template owned by actor.
func (s *Service) CreateTemplate(ctx context.Context, actor security.Actor, t *Template) error {
	if err := actor.Require(s.perms, templateResource(t.Kind), security.ActionCreate); err != nil {
		return err
	}
	t.CreatedBy = actor.ID
	if err := t.Validate(ctx); err != nil {
		return err
	}
	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.templates.Create(ctx, t)
	})
	if err != nil {
		return err
	}
	logger.Info(ctx, "template created", "template_id", t.ID, "kind", t.Kind)
	return nil
}

// GetTemplate returns a template of kind visible to actor.
func (s *Service) GetTemplate(ctx context.Context, actor security.Actor, kind TemplateKind, templateID id.ID) (*Template, error) {
	t, err := s.templates.GetByID(ctx, templateID)
	if err != nil {
		return nil, err
	}
	if t.Kind != kind || !templateVisible(actor, t) {
		return nil, apperror.NewNotFound("template", templateID)
	}
	return t, nil
}

// UpdateTemplate applies fn to a template the actor owns.
func (s *Service) UpdateTemplate(ctx context.Context, actor security.Actor, kind TemplateKind, templateID id.ID, version int, fn func(*Template)) (*Template, error) {
	var out *Template
	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		t, err := s.GetTemplate(ctx, actor, kind, templateID)
		if err != nil {
			return err
		}
		if t.CreatedBy != actor.ID && actor.Role != security.RoleAdmin {
			return apperror.NewForbidden("only the author can change this template")
		}
		if version > 0 && t.Version != version {
			return apperror.NewConcurrentModification("template", templateID)
		}
		fn(t)
		t.Kind = kind
		if err := t.Validate(ctx); err != nil {
			return err
		}
		t.Touch()
		if err := s.templates.Update(ctx, t); err != nil {
			return err
		}
		out = t
		return nil
	})
	return out, err
}

// DeleteTemplate deactivates a template the actor owns.
func (s *Service) DeleteTemplate(ctx context.Context, actor security.Actor, kind TemplateKind, templateID id.ID) error {
	_, err := s.UpdateTemplate(ctx, actor, kind, templateID, 0, func(t *Template) { t.IsActive = false })
	return err
}

func templateResource(kind TemplateKind) security.Resource {
	if kind == TemplateForecast {
		return security.ResourceForecasts
	}
	return security.ResourceSalesBudget
}

func templateVisible(actor security.Actor, t *Template) bool {
	return t.IsPublic || t.CreatedBy == actor.ID || actor.Role == security.RoleAdmin
}

// --- Alerts ---

// RaiseInput describes a new alert.
type RaiseInput struct {
	BudgetID id.ID
	// RecipientID defaults to the budget owner.
	RecipientID *id.ID
	Type        AlertType
	Severity    Severity
	Title       string
	Message     string
}

// RaiseAlert flags a budget the actor can see. Only managers and admins
// raise alerts.
func (s *Service) RaiseAlert(ctx context.Context, actor security.Actor, in RaiseInput) (*Alert, error) {
	if err := requireManager(actor, "budget alerts"); err != nil {
		return nil, err
	}
	b, err := s.budgets.Get(ctx, actor, in.BudgetID)
	if err != nil {
		return nil, err
	}
	a := &Alert{
		BaseEntity:  entity.NewBaseEntity(),
		BudgetID:    b.ID,
		Type:        in.Type,
		Severity:    in.Severity,
		Title:       in.Title,
		Message:     in.Message,
		RecipientID: b.OwnerID(),
		CreatedBy:   actor.ID,
		IsActive:    true,
	}
	if a.Severity == "" {
		a.Severity = SeverityMedium
	}
	if in.RecipientID != nil {
		a.RecipientID = *in.RecipientID
	}
	if err := a.Validate(ctx); err != nil {
		return nil, err
	}
	err = s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.alerts.Create(ctx, a); err != nil {
			return fmt.Errorf("create alert: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	logger.Info(ctx, "budget alert raised",
		"alert_id", a.ID,
		"budget_id", a.BudgetID,
		"recipient_id", a.RecipientID,
		"severity", a.Severity)
	return a, nil
}

// ListAlerts lists the actor's own alerts.
func (s *Service) ListAlerts(ctx context.Context, actor security.Actor, f AlertFilter) (domain.ListResult[Alert], error) {
	if f.Type != "" && !f.Type.Valid() {
		return domain.ListResult[Alert]{}, apperror.NewValidation("unknown alert type").WithDetail("value", string(f.Type))
	}
	if f.Severity != "" && !f.Severity.Valid() {
		return domain.ListResult[Alert]{}, apperror.NewValidation("unknown severity").WithDetail("value", string(f.Severity))
	}
	f.ListFilter = f.ListFilter.Normalize()
	return s.alerts.ListForRecipient(ctx, actor.ID, f)
}

// MarkAlertRead marks one of the actor's alerts as read.
func (s *Service) MarkAlertRead(ctx context.Context, actor security.Actor, alertID id.ID) (*Alert, error) {
	return s.editAlert(ctx, actor, alertID, func(a *Alert) {
		a.IsRead = true
		a.Touch()
	})
}

// ResolveAlert closes one of the actor's alerts. Resolving twice keeps
// the first resolution.
func (s *Service) ResolveAlert(ctx context.Context, actor security.Actor, alertID id.ID) (*Alert, error) {
	return s.editAlert(ctx, actor, alertID, func(a *Alert) {
		if a.IsActive {
			a.Resolve(actor.ID, s.now())
		}
	})
}

func (s *Service) editAlert(ctx context.Context, actor security.Actor, alertID id.ID, fn func(*Alert)) (*Alert, error) {
	var out *Alert
	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		a, err := s.alerts.GetByID(ctx, alertID)
		if err != nil {
			return err
		}
		// Other users' alerts do not exist for the caller.
		if a.RecipientID != actor.ID {
			return apperror.NewNotFound("alert", alertID)
		}
		fn(a)
		if err := s.alerts.Update(ctx, a); err != nil {
			return err
		}
		out = a
		return nil
	})
	return out, err
}

func requireManager(actor security.Actor, what string) error {
	if !actor.Role.CanManageTeam() {
		return apperror.NewForbidden("only a manager or admin can change " + what)
	}
	return nil
}
