package dto

import (
	"github.com/abbakari/works/internal/core/apperror"
	"github.com/abbakari/works/internal/core/id"
	"github.com/abbakari/works/internal/core/types"
	"github.com/abbakari/works/internal/domain/budgets"
)

// MonthlyBudgetInput is one month in a budget request.
type MonthlyBudgetInput struct {
	Month       int          `json:"month" binding:"required,min=1,max=12"`
	BudgetValue *types.Money `json:"budgetValue"`
	ActualValue *types.Money `json:"actualValue"`
	Rate        *types.Money `json:"rate"`
	Stock       *int         `json:"stock"`
	GIT         *int         `json:"git"`
	Discount    *types.Money `json:"discount"`
}

func toBudgetMonths(in []MonthlyBudgetInput) []budgets.MonthInput {
	out := make([]budgets.MonthInput, len(in))
	for i, m := range in {
		out[i] = budgets.MonthInput{
			Month:       m.Month,
			BudgetValue: m.BudgetValue,
			ActualValue: m.ActualValue,
			Rate:        m.Rate,
			Stock:       m.Stock,
			GIT:         m.GIT,
			Discount:    m.Discount,
		}
	}
	return out
}

// toDistribution accepts exactly twelve percentages, January first.
func toDistribution(p []types.Money) (*budgets.Distribution, error) {
	if p == nil {
		return nil, nil
	}
	if len(p) != 12 {
		return nil, apperror.NewValidation("distribution needs 12 percentages").WithDetail("count", len(p))
	}
	var d budgets.Distribution
	copy(d[:], p)
	return &d, nil
}

// CreateBudgetRequest creates a draft budget.
type CreateBudgetRequest struct {
	CustomerID     string               `json:"customerId" binding:"required,uuid"`
	ItemID         string               `json:"itemId" binding:"required,uuid"`
	Year           int                  `json:"year" binding:"required"`
	Category       string               `json:"category"`
	Brand          string               `json:"brand"`
	Rate           types.Money          `json:"rate"`
	Stock          int                  `json:"stock"`
	GIT            int                  `json:"git"`
	Discount       types.Money          `json:"discount"`
	Notes          string               `json:"notes"`
	TotalBudget    types.Money          `json:"totalBudget"`
	MonthlyBudgets []MonthlyBudgetInput `json:"monthlyBudgets"`
	Distribution   []types.Money        `json:"distribution"`
	DistributionID string               `json:"distributionId" binding:"omitempty,uuid"`
}

// ToInput converts to the service input.
func (r *CreateBudgetRequest) ToInput() (budgets.CreateInput, error) {
	customerID, err := parseID(r.CustomerID, "customerId")
	if err != nil {
		return budgets.CreateInput{}, err
	}
	itemID, err := parseID(r.ItemID, "itemId")
	if err != nil {
		return budgets.CreateInput{}, err
	}
	dist, err := toDistribution(r.Distribution)
	if err != nil {
		return budgets.CreateInput{}, err
	}
	profileID, err := parseOptionalID(r.DistributionID, "distributionId")
	if err != nil {
		return budgets.CreateInput{}, err
	}
	return budgets.CreateInput{
		CustomerID:   customerID,
		ItemID:       itemID,
		Year:         r.Year,
		Category:     r.Category,
		Brand:        r.Brand,
		Rate:         r.Rate,
		Stock:        r.Stock,
		GIT:          r.GIT,
		Discount:     r.Discount,
		Notes:        r.Notes,
		TotalBudget:  r.TotalBudget,
		Months:       toBudgetMonths(r.MonthlyBudgets),
		Distribution:   dist,
		DistributionID: profileID,
	}, nil
}

// UpdateBudgetRequest edits header fields of a draft.
type UpdateBudgetRequest struct {
	Category    *string      `json:"category"`
	Brand       *string      `json:"brand"`
	Rate        *types.Money `json:"rate"`
	Stock       *int         `json:"stock"`
	GIT         *int         `json:"git"`
	Discount    *types.Money `json:"discount"`
	Notes       *string      `json:"notes"`
	TotalBudget *types.Money `json:"totalBudget"`
	Version     int          `json:"version" binding:"omitempty,min=1"`
}

// ToInput converts to the service input.
func (r *UpdateBudgetRequest) ToInput() budgets.UpdateInput {
	return budgets.UpdateInput{
		Category:    r.Category,
		Brand:       r.Brand,
		Rate:        r.Rate,
		Stock:       r.Stock,
		GIT:         r.GIT,
		Discount:    r.Discount,
		Notes:       r.Notes,
		TotalBudget: r.TotalBudget,
	}
}

// UpdateBudgetMonthsRequest merges monthly values.
type UpdateBudgetMonthsRequest struct {
	MonthlyBudgets []MonthlyBudgetInput `json:"monthlyBudgets" binding:"required,min=1,dive"`
	Version        int                  `json:"version" binding:"omitempty,min=1"`
}

// Months converts the rows.
func (r *UpdateBudgetMonthsRequest) Months() []budgets.MonthInput {
	return toBudgetMonths(r.MonthlyBudgets)
}

// DistributeRequest spreads a total over the months.
type DistributeRequest struct {
	TotalBudget    *types.Money  `json:"totalBudget"`
	Distribution   []types.Money `json:"distribution"`
	DistributionID string        `json:"distributionId" binding:"omitempty,uuid"`
	Version        int           `json:"version" binding:"omitempty,min=1"`
}

// ToDistribution returns the explicit percentages, the stored profile
// looked up by stored, or the default split, in that order.
func (r *DistributeRequest) ToDistribution(stored func(id.ID) (budgets.Distribution, error)) (budgets.Distribution, error) {
	d, err := toDistribution(r.Distribution)
	if err != nil {
		return budgets.Distribution{}, err
	}
	if d != nil {
		return *d, nil
	}
	profileID, err := parseOptionalID(r.DistributionID, "distributionId")
	if err != nil {
		return budgets.Distribution{}, err
	}
	if profileID != nil {
		return stored(*profileID)
	}
	return budgets.DefaultDistribution(), nil
}
