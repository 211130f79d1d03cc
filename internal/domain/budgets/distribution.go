package budgets

import (
	"github.com/shopspring/decimal"

	"github.com/abbakari/works/internal/core/apperror"
	"github.com/abbakari/works/internal/core/types"
)

// Distribution is the share of a yearly total per month, in percent.
type Distribution [12]types.Money

var distributionTolerance = decimal.RequireFromString("0.01")

// DefaultDistribution is the seasonal profile: heavier in the first
// months, lighter towards year end.
func DefaultDistribution() Distribution {
	var d Distribution
	for i := range d {
		switch {
		case i < 4:
			d[i] = decimal.RequireFromString("9.5")
		case i < 8:
			d[i] = decimal.RequireFromString("8.5")
		case i < 10:
			d[i] = decimal.RequireFromString("8.0")
		default:
			d[i] = decimal.RequireFromString("6.0")
		}
	}
	return d
}

// Validate requires non-negative shares summing to 100 within 0.01.
func (d Distribution) Validate() error {
	total := types.Zero()
	for i, p := range d {
		if p.IsNegative() {
			return apperror.NewValidation("distribution percentages can not be negative").WithDetail("month", i+1)
		}
		total = total.Add(p)
	}
	if total.Sub(decimal.NewFromInt(100)).Abs().GreaterThan(distributionTolerance) {
		return apperror.NewValidation("distribution percentages must sum to 100").
			WithDetail("total", total.String())
	}
	return nil
}

// Spread splits total across months. Values are rounded to cents and the
// last month absorbs the rounding remainder, so the parts always add up to total.
func (d Distribution) Spread(total types.Money) [12]types.Money {
	var out [12]types.Money
	allocated := types.Zero()
	for i := 0; i < 11; i++ {
		out[i] = types.Round2(types.Share(total, d[i]))
		allocated = allocated.Add(out[i])
	}
	out[11] = total.Sub(allocated)
	return out
}
