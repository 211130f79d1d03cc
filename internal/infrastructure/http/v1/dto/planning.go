package dto

import (
	"github.com/abbakari/works/internal/core/apperror"
	"github.com/abbakari/works/internal/core/id"
	"github.com/abbakari/works/internal/core/types"
	"github.com/abbakari/works/internal/domain/forecasts"
	"github.com/abbakari/works/internal/domain/planning"
)

// ProfileQuery lists distribution profiles.
type ProfileQuery struct {
	ListQuery
	Type        string `form:"type"`
	DefaultOnly bool   `form:"isDefault"`
}

// ToFilter converts the query into a profile filter.
func (q *ProfileQuery) ToFilter() (planning.ProfileFilter, error) {
	lf, err := q.ListQuery.ToFilter()
	if err != nil {
		return planning.ProfileFilter{}, err
	}
	return planning.ProfileFilter{
		ListFilter:  lf,
		Type:        planning.DistributionType(q.Type),
		DefaultOnly: q.DefaultOnly,
	}, nil
}

// CreateProfileRequest stores a named monthly split.
type CreateProfileRequest struct {
	Name        string        `json:"name" binding:"required"`
	Type        string        `json:"type"`
	Description string        `json:"description"`
	Shares      []types.Money `json:"shares" binding:"required"`
	IsDefault   bool          `json:"isDefault"`
}

// ToProfile builds the domain profile.
func (r *CreateProfileRequest) ToProfile(createdBy id.ID) (*planning.DistributionProfile, error) {
	shares, err := toDistribution(r.Shares)
	if err != nil {
		return nil, err
	}
	if shares == nil {
		return nil, apperror.NewValidation("shares are required").WithDetail("field", "shares")
	}
	p := planning.NewDistributionProfile(r.Name, *shares, createdBy)
	if r.Type != "" {
		p.Type = planning.DistributionType(r.Type)
	}
	p.Description = r.Description
	p.IsDefault = r.IsDefault
	return p, nil
}

// UpdateProfileRequest changes selected fields.
type UpdateProfileRequest struct {
	Name        *string       `json:"name"`
	Type        *string       `json:"type"`
	Description *string       `json:"description"`
	Shares      []types.Money `json:"shares"`
	IsDefault   *bool         `json:"isDefault"`
	IsActive    *bool         `json:"isActive"`
	Version     int           `json:"version" binding:"omitempty,min=1"`
}

// Patch validates the shares and returns the change to apply.
func (r *UpdateProfileRequest) Patch() (func(*planning.DistributionProfile), error) {
	shares, err := toDistribution(r.Shares)
	if err != nil {
		return nil, err
	}
	return func(p *planning.DistributionProfile) {
		setString(&p.Name, r.Name)
		setString(&p.Description, r.Description)
		if r.Type != nil {
			p.Type = planning.DistributionType(*r.Type)
		}
		if shares != nil {
			p.Shares = *shares
		}
		if r.IsDefault != nil {
			p.IsDefault = *r.IsDefault
		}
		if r.IsActive != nil {
			p.IsActive = *r.IsActive
		}
	}, nil
}

// TemplateQuery lists templates of one kind.
type TemplateQuery struct {
	ListQuery
	Category string `form:"category"`
	Brand    string `form:"brand"`
}

// ToFilter converts the query into a template filter.
func (q *TemplateQuery) ToFilter(kind planning.TemplateKind) (planning.TemplateFilter, error) {
	lf, err := q.ListQuery.ToFilter()
	if err != nil {
		return planning.TemplateFilter{}, err
	}
	return planning.TemplateFilter{ListFilter: lf, Kind: kind, Category: q.Category, Brand: q.Brand}, nil
}

// CreateTemplateRequest stores a budget or forecast template.
type CreateTemplateRequest struct {
	Name        string        `json:"name" binding:"required"`
	Description string        `json:"description"`
	Category    string        `json:"category"`
	Brand       string        `json:"brand"`
	Shares      []types.Money `json:"shares"`
	DefaultRate *types.Money  `json:"defaultRate"`
	Seasonality string        `json:"seasonality"`
	Confidence  string        `json:"confidence"`
	IsPublic    bool          `json:"isPublic"`
}

// ToTemplate builds the domain template.
func (r *CreateTemplateRequest) ToTemplate(kind planning.TemplateKind, createdBy id.ID) (*planning.Template, error) {
	shares, err := toDistribution(r.Shares)
	if err != nil {
		return nil, err
	}
	t := planning.NewTemplate(kind, r.Name, createdBy)
	t.Description, t.Category, t.Brand = r.Description, r.Category, r.Brand
	t.IsPublic = r.IsPublic
	if shares != nil {
		t.Shares = *shares
	}
	if r.DefaultRate != nil {
		t.DefaultRate = *r.DefaultRate
	}
	if r.Seasonality != "" {
		t.Seasonality = r.Seasonality
	}
	if r.Confidence != "" {
		t.Confidence = forecasts.Confidence(r.Confidence)
	}
	return t, nil
}

// UpdateTemplateRequest changes selected fields.
type UpdateTemplateRequest struct {
	Name        *string       `json:"name"`
	Description *string       `json:"description"`
	Category    *string       `json:"category"`
	Brand       *string       `json:"brand"`
	Shares      []types.Money `json:"shares"`
	DefaultRate *types.Money  `json:"defaultRate"`
	Seasonality *string       `json:"seasonality"`
	Confidence  *string       `json:"confidence"`
	IsPublic    *bool         `json:"isPublic"`
	IsActive    *bool         `json:"isActive"`
	Version     int           `json:"version" binding:"omitempty,min=1"`
}

// Patch validates the shares and returns the change to apply.
func (r *UpdateTemplateRequest) Patch() (func(*planning.Template), error) {
	shares, err := toDistribution(r.Shares)
	if err != nil {
		return nil, err
	}
	return func(t *planning.Template) {
		setString(&t.Name, r.Name)
		setString(&t.Description, r.Description)
		setString(&t.Category, r.Category)
		setString(&t.Brand, r.Brand)
		setString(&t.Seasonality, r.Seasonality)
		if r.Confidence != nil {
			t.Confidence = forecasts.Confidence(*r.Confidence)
		}
		if shares != nil {
			t.Shares = *shares
		}
		if r.DefaultRate != nil {
			t.DefaultRate = *r.DefaultRate
		}
		if r.IsPublic != nil {
			t.IsPublic = *r.IsPublic
		}
		if r.IsActive != nil {
			t.IsActive = *r.IsActive
		}
	}, nil
}

// AlertQuery lists the caller's alerts.
type AlertQuery struct {
	ListQuery
	Type     string `form:"alertType"`
	Severity string `form:"severity"`
	Unread   bool   `form:"unread"`
}

// ToFilter converts the query into an alert filter.
func (q *AlertQuery) ToFilter() (planning.AlertFilter, error) {
	lf, err := q.ListQuery.ToFilter()
	if err != nil {
		return planning.AlertFilter{}, err
	}
	return planning.AlertFilter{
		ListFilter: lf,
		Type:       planning.AlertType(q.Type),
		Severity:   planning.Severity(q.Severity),
		Unread:     q.Unread,
	}, nil
}

// RaiseAlertRequest flags a budget.
type RaiseAlertRequest struct {
	BudgetID    string `json:"budgetId" binding:"required,uuid"`
	RecipientID string `json:"recipientId" binding:"omitempty,uuid"`
	AlertType   string `json:"alertType" binding:"required"`
	Severity    string `json:"severity"`
	Title       string `json:"title" binding:"required"`
	Message     string `json:"message"`
}

// ToInput converts the request into service input.
func (r *RaiseAlertRequest) ToInput() (planning.RaiseInput, error) {
	budgetID, err := parseID(r.BudgetID, "budgetId")
	if err != nil {
		return planning.RaiseInput{}, err
	}
	recipient, err := parseOptionalID(r.RecipientID, "recipientId")
	if err != nil {
		return planning.RaiseInput{}, err
	}
	return planning.RaiseInput{
		BudgetID:    budgetID,
		RecipientID: recipient,
		Type:        planning.AlertType(r.AlertType),
		Severity:    planning.Severity(r.Severity),
		Title:       r.Title,
		Message:     r.Message,
	}, nil
}
