// Package budgets manages yearly sales budgets and their monthly breakdown.
package budgets

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/abbakari/works/internal/core/apperror"
	"github.com/abbakari/works/internal/core/entity"
	"github.com/abbakari/works/internal/core/id"
	"github.com/abbakari/works/internal/core/types"
)

// EntityType is the audit entity name of a yearly budget.
const EntityType = "sales_budget"

// YearlyBudget is one customer/item plan for a year.
type YearlyBudget struct {
	entity.Record

	CustomerID  id.ID       `db:"customer_id" json:"customerId"`
	ItemID      id.ID       `db:"item_id" json:"itemId"`
	Customer    string      `db:"customer_name" json:"customer"`
	Item        string      `db:"item_name" json:"item"`
	Category    string      `db:"category" json:"category"`
	Brand       string      `db:"brand" json:"brand"`
	Year        int         `db:"year" json:"year"`
	TotalBudget types.Money `db:"total_budget" json:"totalBudget"`
	TotalActual types.Money `db:"total_actual" json:"totalActual"`
	Rate        types.Money `db:"rate" json:"rate"`
	Stock       int         `db:"stock" json:"stock"`
	GIT         int         `db:"git" json:"git"`
	Discount    types.Money `db:"discount" json:"discount"`
	Notes       string      `db:"notes" json:"notes,omitempty"`

	Months []MonthlyBudget `db:"-" json:"monthlyBudgets"`
}

// NewYearlyBudget creates a draft budget owned by owner.
func NewYearlyBudget(owner id.ID, customerID, itemID id.ID, year int) *YearlyBudget {
	return &YearlyBudget{
		Record:      entity.NewRecord(owner),
		CustomerID:  customerID,
		ItemID:      itemID,
		Year:        year,
		TotalBudget: types.Zero(),
		TotalActual: types.Zero(),
		Rate:        types.Zero(),
		Discount:    types.Zero(),
	}
}

// Validate checks header and month invariants.
func (b *YearlyBudget) Validate(_ context.Context) error {
	if id.IsNil(b.CustomerID) {
		return apperror.NewValidation("customer is required").WithDetail("field", "customerId")
	}
	if id.IsNil(b.ItemID) {
		return apperror.NewValidation("item is required").WithDetail("field", "itemId")
	}
	if b.Year < 2000 || b.Year > 2100 {
		return apperror.NewValidation("year is out of range").WithDetail("field", "year").WithDetail("value", b.Year)
	}
	if b.Discount.IsNegative() || b.Rate.IsNegative() {
		return apperror.NewValidation("rate and discount can not be negative")
	}
	seen := make(map[int]bool, len(b.Months))
	for i := range b.Months {
		m := &b.Months[i]
		if err := m.Validate(); err != nil {
			return err
		}
		if seen[m.Month] {
			return apperror.NewValidation(fmt.Sprintf("month %d appears twice", m.Month)).WithDetail("field", "monthlyBudgets")
		}
		seen[m.Month] = true
	}
	return nil
}

// Recompute refreshes every derived field from raw inputs.
func (b *YearlyBudget) Recompute() {
	budget, actual := types.Zero(), types.Zero()
	for i := range b.Months {
		b.Months[i].BudgetID = b.ID
		b.Months[i].Recompute()
		budget = budget.Add(b.Months[i].BudgetValue)
		actual = actual.Add(b.Months[i].ActualValue)
	}
	if len(b.Months) > 0 {
		b.TotalBudget = budget
		b.TotalActual = actual
	}
}

// TotalValue implements lifecycle.Record.
func (b *YearlyBudget) TotalValue() types.Money { return b.TotalBudget }

// Label implements lifecycle.Record.
func (b *YearlyBudget) Label() string {
	if b.Customer != "" {
		return fmt.Sprintf("Budget %s / %s %d", b.Customer, b.Item, b.Year)
	}
	return fmt.Sprintf("Budget %d", b.Year)
}

// Month returns the row for month m (1-12), or nil.
func (b *YearlyBudget) Month(m int) *MonthlyBudget {
	for i := range b.Months {
		if b.Months[i].Month == m {
			return &b.Months[i]
		}
	}
	return nil
}

// MonthlyBudget is one calendar month of a yearly budget.
type MonthlyBudget struct {
	ID                 id.ID       `db:"id" json:"id"`
	BudgetID           id.ID       `db:"budget_id" json:"budgetId"`
	Month              int         `db:"month" json:"month"`
	BudgetValue        types.Money `db:"budget_value" json:"budgetValue"`
	ActualValue        types.Money `db:"actual_value" json:"actualValue"`
	Rate               types.Money `db:"rate" json:"rate"`
	Stock              int         `db:"stock" json:"stock"`
	GIT                int         `db:"git" json:"git"`
	Discount           types.Money `db:"discount" json:"discount"`
	NetValue           types.Money `db:"net_value" json:"netValue"`
	Variance           types.Money `db:"variance" json:"variance"`
	VariancePercentage types.Money `db:"variance_percentage" json:"variancePercentage"`
	CreatedAt          time.Time   `db:"created_at" json:"createdAt"`
	UpdatedAt          time.Time   `db:"updated_at" json:"updatedAt"`
}

// NewMonthlyBudget creates an empty month row.
func NewMonthlyBudget(month int) MonthlyBudget {
	now := time.Now().UTC()
	return MonthlyBudget{
		ID:          id.New(),
		Month:       month,
		BudgetValue: types.Zero(),
		ActualValue: types.Zero(),
		Rate:        types.Zero(),
		Discount:    types.Zero(),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Validate checks the month number and non-negative inputs.
func (m *MonthlyBudget) Validate() error {
	if m.Month < 1 || m.Month > 12 {
		return apperror.NewValidation("month must be between 1 and 12").WithDetail("value", m.Month)
	}
	if m.BudgetValue.IsNegative() || m.ActualValue.IsNegative() || m.Discount.IsNegative() {
		return apperror.NewValidation("monthly values can not be negative").WithDetail("month", m.Month)
	}
	return nil
}

// Recompute derives net value, variance and variance percentage.
// The percentage stays zero when there is no budget to compare against.
func (m *MonthlyBudget) Recompute() {
	m.NetValue = types.Round2(m.BudgetValue.Sub(m.Discount))
	m.Variance = types.Round2(m.ActualValue.Sub(m.BudgetValue))
	if pct, ok := types.Percent(m.Variance, m.BudgetValue); ok {
		m.VariancePercentage = pct
	} else {
		m.VariancePercentage = types.Zero()
	}
}

// MonthInput carries raw values for one month.
type MonthInput struct {
	Month       int
	BudgetValue *types.Money
	ActualValue *types.Money
	Rate        *types.Money
	Stock       *int
	GIT         *int
	Discount    *types.Money
}

func (in MonthInput) applyTo(m *MonthlyBudget) {
	if in.BudgetValue != nil {
		m.BudgetValue = *in.BudgetValue
	}
	if in.ActualValue != nil {
		m.ActualValue = *in.ActualValue
	}
	if in.Rate != nil {
		m.Rate = *in.Rate
	}
	if in.Stock != nil {
		m.Stock = *in.Stock
	}
	if in.GIT != nil {
		m.GIT = *in.GIT
	}
	if in.Discount != nil {
		m.Discount = *in.Discount
	}
	m.UpdatedAt = time.Now().UTC()
}

// MergeMonths applies inputs onto b.Months, creating missing rows.
func (b *YearlyBudget) MergeMonths(inputs []MonthInput) error {
	for _, in := range inputs {
		if in.Month < 1 || in.Month > 12 {
			return apperror.NewValidation("month must be between 1 and 12").WithDetail("value", in.Month)
		}
		row := b.Month(in.Month)
		if row == nil {
			b.Months = append(b.Months, NewMonthlyBudget(in.Month))
			row = &b.Months[len(b.Months)-1]
		}
		in.applyTo(row)
	}
	sortMonths(b.Months)
	return nil
}

func sortMonths(ms []MonthlyBudget) {
	sort.Slice(ms, func(i, j int) bool { return ms[i].Month < ms[j].Month })
}
