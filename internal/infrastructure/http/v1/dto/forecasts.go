package dto

import (
	"github.com/abbakari/works/internal/core/types"
	"github.com/abbakari/works/internal/domain/forecasts"
)

// MonthlyForecastInput is one month in a forecast request.
type MonthlyForecastInput struct {
	Year      int             `json:"year" binding:"required,min=2000,max=2100"`
	Month     int             `json:"month" binding:"required,min=1,max=12"`
	Quantity  *types.Quantity `json:"quantity"`
	UnitPrice *types.Money    `json:"unitPrice"`
	Notes     *string         `json:"notes"`
}

func toForecastMonths(in []MonthlyForecastInput) []forecasts.MonthInput {
	out := make([]forecasts.MonthInput, len(in))
	for i, m := range in {
		out[i] = forecasts.MonthInput{
			Year:      m.Year,
			Month:     m.Month,
			Quantity:  m.Quantity,
			UnitPrice: m.UnitPrice,
			Notes:     m.Notes,
		}
	}
	return out
}

// CreateForecastRequest creates a draft forecast.
type CreateForecastRequest struct {
	CustomerID       string                 `json:"customerId" binding:"required,uuid"`
	ItemID           string                 `json:"itemId" binding:"required,uuid"`
	Confidence       string                 `json:"confidence"`
	Notes            string                 `json:"notes"`
	MonthlyForecasts []MonthlyForecastInput `json:"monthlyForecasts" binding:"dive"`
}

// ToInput converts to the service input.
func (r *CreateForecastRequest) ToInput() (forecasts.CreateInput, error) {
	customerID, err := parseID(r.CustomerID, "customerId")
	if err != nil {
		return forecasts.CreateInput{}, err
	}
	itemID, err := parseID(r.ItemID, "itemId")
	if err != nil {
		return forecasts.CreateInput{}, err
	}
	return forecasts.CreateInput{
		CustomerID: customerID,
		ItemID:     itemID,
		Confidence: forecasts.Confidence(r.Confidence),
		Notes:      r.Notes,
		Months:     toForecastMonths(r.MonthlyForecasts),
	}, nil
}

// UpdateForecastRequest edits header fields of a draft.
type UpdateForecastRequest struct {
	Confidence *string `json:"confidence"`
	Notes      *string `json:"notes"`
	Version    int     `json:"version" binding:"omitempty,min=1"`
}

// ToInput converts to the service input.
func (r *UpdateForecastRequest) ToInput() forecasts.UpdateInput {
	in := forecasts.UpdateInput{Notes: r.Notes}
	if r.Confidence != nil {
		c := forecasts.Confidence(*r.Confidence)
		in.Confidence = &c
	}
	return in
}

// UpdateForecastMonthsRequest merges monthly quantities.
type UpdateForecastMonthsRequest struct {
	MonthlyForecasts []MonthlyForecastInput `json:"monthlyForecasts" binding:"required,min=1,dive"`
	Version          int                    `json:"version" binding:"omitempty,min=1"`
}

// Months converts the rows.
func (r *UpdateForecastMonthsRequest) Months() []forecasts.MonthInput {
	return toForecastMonths(r.MonthlyForecasts)
}
