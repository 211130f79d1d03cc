package record_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"

	"github.com/abbakari/works/internal/core/entity"
	"github.com/abbakari/works/internal/core/id"
	"github.com/abbakari/works/internal/core/security"
	"github.com/abbakari/works/internal/domain"
	"github.com/abbakari/works/internal/domain/forecasts"
	"github.com/abbakari/works/internal/infrastructure/storage/postgres"
)

var forecastOrder = headerOrder("yearly_total", "yearly_budget_impact", "customer_name", "item_name", "confidence")

// ForecastRepo implements forecasts.Repository.
type ForecastRepo struct {
	txm     *postgres.TxManager
	headers *postgres.Table[forecasts.Forecast]
	months  *postgres.Table[forecasts.MonthlyForecast]
}

// NewForecastRepo creates a forecast repository.
func NewForecastRepo(txm *postgres.TxManager) *ForecastRepo {
	return &ForecastRepo{
		txm:     txm,
		headers: postgres.NewTable[forecasts.Forecast](txm, "forecasts", forecasts.EntityType),
		months:  postgres.NewTable[forecasts.MonthlyForecast](txm, "monthly_forecasts", "monthly forecast"),
	}
}

func (r *ForecastRepo) Create(ctx context.Context, f *forecasts.Forecast) error {
	if err := r.headers.Insert(ctx, f); err != nil {
		return err
	}
	return r.SaveMonths(ctx, f)
}

func (r *ForecastRepo) GetByID(ctx context.Context, forecastID id.ID) (*forecasts.Forecast, error) {
	return r.load(ctx, forecastID, false)
}

func (r *ForecastRepo) GetForUpdate(ctx context.Context, forecastID id.ID) (*forecasts.Forecast, error) {
	return r.load(ctx, forecastID, true)
}

func (r *ForecastRepo) load(ctx context.Context, forecastID id.ID, lock bool) (*forecasts.Forecast, error) {
	q := r.headers.Select().Where(squirrel.Eq{"id": forecastID, "is_active": true})
	if lock {
		q = q.Suffix("FOR UPDATE")
	}
	f, err := r.headers.Get(ctx, q, forecastID)
	if err != nil {
		return nil, err
	}
	months, err := r.months.All(ctx, r.months.Select().
		Where(squirrel.Eq{"forecast_id": forecastID}).
		OrderBy("year ASC", "month ASC"))
	if err != nil {
		return nil, err
	}
	f.Months = months
	return f, nil
}

func (r *ForecastRepo) Update(ctx context.Context, f *forecasts.Forecast) error {
	return r.headers.Update(ctx, f)
}

// SaveMonths upserts every month row keyed by (forecast_id, year, month).
func (r *ForecastRepo) SaveMonths(ctx context.Context, f *forecasts.Forecast) error {
	queries := make([]postgres.BatchQuery, 0, len(f.Months))
	for i := range f.Months {
		m := &f.Months[i]
		m.ForecastID = f.ID
		if id.IsNil(m.ID) {
			m.ID = id.New()
		}
		q, err := postgres.UpsertQuery("monthly_forecasts", postgres.StructToMap(m), "forecast_id", "year", "month")
		if err != nil {
			return err
		}
		queries = append(queries, q)
	}
	if err := r.txm.ExecBatch(ctx, queries); err != nil {
		return fmt.Errorf("save forecast months: %w", err)
	}
	return nil
}

func (r *ForecastRepo) List(ctx context.Context, scope security.Scope, filter domain.ListFilter) (domain.ListResult[forecasts.Forecast], error) {
	q := visible(r.headers.Select(), r.headers.Columns(), scope, filter, "customer_name", "item_name", "notes")
	return r.headers.Page(ctx, q, filter, filter.OrderClause(forecastOrder, "created_at DESC"))
}

func (r *ForecastRepo) Summary(ctx context.Context, scope security.Scope, filter domain.ListFilter) (*forecasts.Summary, error) {
	base := visible(r.headers.Select(), r.headers.Columns(), scope, filter, "customer_name", "item_name", "notes")
	querier := r.txm.GetQuerier(ctx)

	s := &forecasts.Summary{
		ByStatus:     make(map[entity.Status]int64),
		ByConfidence: make(map[forecasts.Confidence]int64),
	}

	sql, args, err := postgres.Builder().
		Select("COUNT(*)", "COALESCE(SUM(yearly_total), 0)", "COALESCE(SUM(yearly_budget_impact), 0)").
		FromSelect(base, "sub").ToSql()
	if err != nil {
		return nil, fmt.Errorf("build summary: %w", err)
	}
	if err := querier.QueryRow(ctx, sql, args...).Scan(&s.TotalCount, &s.TotalQuantity, &s.TotalValue); err != nil {
		return nil, fmt.Errorf("forecast totals: %w", err)
	}

	byStatus, err := groupTotals(ctx, querier, base, "status", "yearly_budget_impact")
	if err != nil {
		return nil, err
	}
	for _, g := range byStatus {
		s.ByStatus[entity.Status(g.Key)] = g.Count
	}
	byConfidence, err := groupTotals(ctx, querier, base, "confidence", "yearly_budget_impact")
	if err != nil {
		return nil, err
	}
	for _, g := range byConfidence {
		s.ByConfidence[forecasts.Confidence(g.Key)] = g.Count
	}
	return s, nil
}

var _ forecasts.Repository = (*ForecastRepo)(nil)
