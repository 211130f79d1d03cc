// Package planning holds the reference data planners work with next to
// their records: stored monthly distribution profiles, budget and
// forecast templates, and alerts raised on budgets.
package planning

import (
	"context"
	"strings"
	"time"

	"github.com/abbakari/works/internal/core/apperror"
	"github.com/abbakari/works/internal/core/entity"
	"github.com/abbakari/works/internal/core/id"
	"github.com/abbakari/works/internal/core/types"
	"github.com/abbakari/works/internal/domain/budgets"
	"github.com/abbakari/works/internal/domain/forecasts"
)

// DistributionType classifies how a profile was derived.
type DistributionType string

const (
	DistributionSeasonal   DistributionType = "seasonal"
	DistributionCustom     DistributionType = "custom"
	DistributionHistorical DistributionType = "historical"
	DistributionLinear     DistributionType = "linear"
)

// Valid reports whether t is a known type.
func (t DistributionType) Valid() bool {
	switch t {
	case DistributionSeasonal, DistributionCustom, DistributionHistorical, DistributionLinear:
		return true
	}
	return false
}

// DefaultProfileName names the profile created on first use.
const DefaultProfileName = "Default Seasonal"

// DistributionProfile is a named monthly split budgets can be spread with.
// At most one active profile is the default.
type DistributionProfile struct {
	entity.BaseEntity
	Name        string               `db:"name" json:"name"`
	Type        DistributionType     `db:"type" json:"type"`
	Description string               `db:"description" json:"description,omitempty"`
	Shares      budgets.Distribution `db:"shares" json:"shares"`
	IsDefault   bool                 `db:"is_default" json:"isDefault"`
	IsActive    bool                 `db:"is_active" json:"isActive"`
	CreatedBy   id.ID                `db:"created_by" json:"createdBy"`
}

// NewDistributionProfile creates an active custom profile.
func NewDistributionProfile(name string, shares budgets.Distribution, createdBy id.ID) *DistributionProfile {
	return &DistributionProfile{
		BaseEntity: entity.NewBaseEntity(),
		Name:       strings.TrimSpace(name),
		Type:       DistributionCustom,
		Shares:     shares,
		IsActive:   true,
		CreatedBy:  createdBy,
	}
}

// Validate checks the name, type and shares.
func (p *DistributionProfile) Validate(_ context.Context) error {
	if p.Name == "" {
		return apperror.NewValidation("name is required").WithDetail("field", "name")
	}
	if !p.Type.Valid() {
		return apperror.NewValidation("unknown distribution type").WithDetail("value", string(p.Type))
	}
	if p.IsDefault && !p.IsActive {
		return apperror.NewValidation("an inactive profile can not be the default")
	}
	return p.Shares.Validate()
}

// TemplateKind tells which record a template prefills.
type TemplateKind string

const (
	TemplateBudget   TemplateKind = "budget"
	TemplateForecast TemplateKind = "forecast"
)

// Template prefills new budgets or forecasts. Private templates are seen
// only by their author and admins.
type Template struct {
	entity.BaseEntity
	Kind        TemplateKind         `db:"kind" json:"kind"`
	Name        string               `db:"name" json:"name"`
	Description string               `db:"description" json:"description,omitempty"`
	Category    string               `db:"category" json:"category,omitempty"`
	Brand       string               `db:"brand" json:"brand,omitempty"`
	Shares      budgets.Distribution `db:"shares" json:"shares"`
	DefaultRate types.Money          `db:"default_rate" json:"defaultRate"`
	// Seasonality and Confidence only apply to forecast templates.
	Seasonality string               `db:"seasonality" json:"seasonality,omitempty"`
	Confidence  forecasts.Confidence `db:"confidence" json:"confidence,omitempty"`
	IsPublic    bool                 `db:"is_public" json:"isPublic"`
	IsActive    bool                 `db:"is_active" json:"isActive"`
	CreatedBy   id.ID                `db:"created_by" json:"createdBy"`
}

// NewTemplate creates an active private template spread with the
// default profile.
func NewTemplate(kind TemplateKind, name string, createdBy id.ID) *Template {
	t := &Template{
		BaseEntity:  entity.NewBaseEntity(),
		Kind:        kind,
		Name:        strings.TrimSpace(name),
		Shares:      budgets.DefaultDistribution(),
		DefaultRate: types.Zero(),
		IsActive:    true,
		CreatedBy:   createdBy,
	}
	if kind == TemplateForecast {
		t.Seasonality = DefaultProfileName
		t.Confidence = forecasts.ConfidenceMedium
	}
	return t
}

// Validate checks kind specific fields.
func (t *Template) Validate(_ context.Context) error {
	if t.Name == "" {
		return apperror.NewValidation("name is required").WithDetail("field", "name")
	}
	switch t.Kind {
	case TemplateBudget:
		if t.Confidence != "" || t.Seasonality != "" {
			return apperror.NewValidation("confidence and seasonality only apply to forecast templates")
		}
	case TemplateForecast:
		if !t.Confidence.Valid() {
			return apperror.NewValidation("unknown confidence").WithDetail("value", string(t.Confidence))
		}
	default:
		return apperror.NewValidation("unknown template kind").WithDetail("value", string(t.Kind))
	}
	if t.DefaultRate.IsNegative() {
		return apperror.NewValidation("default rate can not be negative").WithDetail("field", "defaultRate")
	}
	return t.Shares.Validate()
}

// AlertType classifies a budget alert.
type AlertType string

const (
	AlertVariance       AlertType = "variance"
	AlertApproval       AlertType = "approval"
	AlertDeadline       AlertType = "deadline"
	AlertBudgetExceeded AlertType = "budget_exceeded"
)

// Valid reports whether t is a known alert type.
func (t AlertType) Valid() bool {
	switch t {
	case AlertVariance, AlertApproval, AlertDeadline, AlertBudgetExceeded:
		return true
	}
	return false
}

// Severity grades an alert.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Valid reports whether s is a known severity.
func (s Severity) Valid() bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return true
	}
	return false
}

// Alert flags a budget to one recipient. It stays active until resolved.
type Alert struct {
	entity.BaseEntity
	BudgetID    id.ID      `db:"budget_id" json:"budgetId"`
	Type        AlertType  `db:"alert_type" json:"alertType"`
	Severity    Severity   `db:"severity" json:"severity"`
	Title       string     `db:"title" json:"title"`
	Message     string     `db:"message" json:"message"`
	RecipientID id.ID      `db:"recipient_id" json:"recipientId"`
	CreatedBy   id.ID      `db:"created_by" json:"createdBy"`
	IsActive    bool       `db:"is_active" json:"isActive"`
	IsRead      bool       `db:"is_read" json:"isRead"`
	ResolvedAt  *time.Time `db:"resolved_at" json:"resolvedAt,omitempty"`
	ResolvedBy  *id.ID     `db:"resolved_by" json:"resolvedBy,omitempty"`
}

// Validate checks the classification and text.
func (a *Alert) Validate(_ context.Context) error {
	if !a.Type.Valid() {
		return apperror.NewValidation("unknown alert type").WithDetail("value", string(a.Type))
	}
	if !a.Severity.Valid() {
		return apperror.NewValidation("unknown severity").WithDetail("value", string(a.Severity))
	}
	if strings.TrimSpace(a.Title) == "" {
		return apperror.NewValidation("title is required").WithDetail("field", "title")
	}
	return nil
}

// Resolve closes the alert on behalf of by.
func (a *Alert) Resolve(by id.ID, at time.Time) {
	at = at.UTC()
	a.IsActive = false
	a.ResolvedAt = &at
	a.ResolvedBy = id.Ptr(by)
	a.UpdatedAt = at
}
