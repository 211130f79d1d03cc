// Package forecasts manages customer/item rolling forecasts.
package forecasts

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

// EntityType is the audit entity name of a forecast.
const EntityType = "forecast"

// Confidence grades how reliable a forecast is.
type Confidence string

const (
	ConfidenceLow    Confidence = "low"
	ConfidenceMedium Confidence = "medium"
	ConfidenceHigh   Confidence = "high"
)

// Valid reports whether c is known.
func (c Confidence) Valid() bool {
	switch c {
	case ConfidenceLow, ConfidenceMedium, ConfidenceHigh:
		return true
	}
	return false
}

// Forecast is a customer/item forecast with monthly quantities.
type Forecast struct {
	entity.Record

	CustomerID id.ID  `db:"customer_id" json:"customerId"`
	ItemID     id.ID  `db:"item_id" json:"itemId"`
	Customer   string `db:"customer_name" json:"customer"`
	Item       string `db:"item_name" json:"item"`
	// YearlyTotal is the sum of monthly quantities.
	YearlyTotal types.Quantity `db:"yearly_total" json:"yearlyTotal"`
	// YearlyBudgetImpact is the sum of monthly values.
	YearlyBudgetImpact types.Money `db:"yearly_budget_impact" json:"yearlyBudgetImpact"`
	Confidence         Confidence  `db:"confidence" json:"confidence"`
	Notes              string      `db:"notes" json:"notes,omitempty"`

	Months []MonthlyForecast `db:"-" json:"monthlyForecasts"`
}

// NewForecast creates a draft forecast.
func NewForecast(owner, customerID, itemID id.ID) *Forecast {
	return &Forecast{
		Record:             entity.NewRecord(owner),
		CustomerID:         customerID,
		ItemID:             itemID,
		YearlyTotal:        types.Zero(),
		YearlyBudgetImpact: types.Zero(),
		Confidence:         ConfidenceMedium,
	}
}

// Validate checks references, confidence and months.
func (f *Forecast) Validate(_ context.Context) error {
	if id.IsNil(f.CustomerID) || id.IsNil(f.ItemID) {
		return apperror.NewValidation("customer and item are required")
	}
	if !f.Confidence.Valid() {
		return apperror.NewValidation("unknown confidence").WithDetail("value", f.Confidence)
	}
	seen := make(map[[2]int]bool, len(f.Months))
	for i := range f.Months {
		m := &f.Months[i]
		if err := m.Validate(); err != nil {
			return err
		}
		key := [2]int{m.Year, m.Month}
		if seen[key] {
			return apperror.NewValidation(fmt.Sprintf("month %d/%d appears twice", m.Month, m.Year))
		}
		seen[key] = true
	}
	return nil
}

// Recompute refreshes month values and yearly totals.
func (f *Forecast) Recompute() {
	qty, value := types.Zero(), types.Zero()
	for i := range f.Months {
		f.Months[i].ForecastID = f.ID
		f.Months[i].Recompute()
		qty = qty.Add(f.Months[i].Quantity)
		value = value.Add(f.Months[i].TotalValue)
	}
	f.YearlyTotal = qty
	f.YearlyBudgetImpact = value
}

// TotalValue implements lifecycle.Record.
func (f *Forecast) TotalValue() types.Money { return f.YearlyBudgetImpact }

// Label implements lifecycle.Record.
func (f *Forecast) Label() string {
	if f.Customer != "" {
		return fmt.Sprintf("Forecast %s / %s", f.Customer, f.Item)
	}
	return "Forecast"
}

// Month returns the row for (year, month), or nil.
func (f *Forecast) Month(year, month int) *MonthlyForecast {
	for i := range f.Months {
		if f.Months[i].Year == year && f.Months[i].Month == month {
			return &f.Months[i]
		}
	}
	return nil
}

// MonthlyForecast is one month of a forecast.
type MonthlyForecast struct {
	ID         id.ID          `db:"id" json:"id"`
	ForecastID id.ID          `db:"forecast_id" json:"forecastId"`
	Year       int            `db:"year" json:"year"`
	Month      int            `db:"month" json:"month"`
	Quantity   types.Quantity `db:"quantity" json:"quantity"`
	UnitPrice  types.Money    `db:"unit_price" json:"unitPrice"`
	TotalValue types.Money    `db:"total_value" json:"totalValue"`
	Notes      string         `db:"notes" json:"notes,omitempty"`
	CreatedAt  time.Time      `db:"created_at" json:"createdAt"`
	UpdatedAt  time.Time      `db:"updated_at" json:"updatedAt"`
}

// Validate checks ranges.
func (m *MonthlyForecast) Validate() error {
	if m.Month < 1 || m.Month > 12 {
		return apperror.NewValidation("month must be between 1 and 12").WithDetail("value", m.Month)
	}
	if m.Year < 2000 || m.Year > 2100 {
		return apperror.NewValidation("year is out of range").WithDetail("value", m.Year)
	}
	if m.Quantity.IsNegative() || m.UnitPrice.IsNegative() {
		return apperror.NewValidation("quantity and unit price can not be negative").WithDetail("month", m.Month)
	}
	return nil
}

// Recompute derives total value.
func (m *MonthlyForecast) Recompute() {
	m.TotalValue = types.Round2(m.Quantity.Mul(m.UnitPrice))
}

// MonthInput carries raw values for one month.
type MonthInput struct {
	Year      int
	Month     int
	Quantity  *types.Quantity
	UnitPrice *types.Money
	Notes     *string
}

// MergeMonths applies inputs, creating rows as needed. defaultPrice fills
// the unit price of new rows that do not specify one.
func (f *Forecast) MergeMonths(inputs []MonthInput, defaultPrice types.Money) error {
	for _, in := range inputs {
		if in.Month < 1 || in.Month > 12 {
			return apperror.NewValidation("month must be between 1 and 12").WithDetail("value", in.Month)
		}
		row := f.Month(in.Year, in.Month)
		if row == nil {
			now := time.Now().UTC()
			f.Months = append(f.Months, MonthlyForecast{
				ID: id.New(), Year: in.Year, Month: in.Month,
				Quantity: types.Zero(), UnitPrice: defaultPrice,
				CreatedAt: now, UpdatedAt: now,
			})
			row = &f.Months[len(f.Months)-1]
		}
		if in.Quantity != nil {
			row.Quantity = *in.Quantity
		}
		if in.UnitPrice != nil {
			row.UnitPrice = *in.UnitPrice
		}
		if in.Notes != nil {
			row.Notes = *in.Notes
		}
		row.UpdatedAt = time.Now().UTC()
	}
	sort.Slice(f.Months, func(i, j int) bool {
		if f.Months[i].Year != f.Months[j].Year {
			return f.Months[i].Year < f.Months[j].Year
		}
		return f.Months[i].Month < f.Months[j].Month
	})
	return nil
}
