package record_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"github.com/abbakari/works/internal/core/entity"
	"github.com/abbakari/works/internal/core/id"
	"github.com/abbakari/works/internal/core/security"
	"github.com/abbakari/works/internal/domain"
	"github.com/abbakari/works/internal/domain/budgets"
	"github.com/abbakari/works/internal/infrastructure/storage/postgres"
)

var budgetOrder = headerOrder("year", "total_budget", "customer_name", "item_name")

// BudgetRepo implements budgets.Repository.
type BudgetRepo struct {
	txm     *postgres.TxManager
	headers *postgres.Table[budgets.YearlyBudget]
	months  *postgres.Table[budgets.MonthlyBudget]
}

// NewBudgetRepo creates a budget repository.
func NewBudgetRepo(txm *postgres.TxManager) *BudgetRepo {
	return &BudgetRepo{
		txm:     txm,
		headers: postgres.NewTable[budgets.YearlyBudget](txm, "sales_budgets", budgets.EntityType),
		months:  postgres.NewTable[budgets.MonthlyBudget](txm, "monthly_budgets", "monthly budget"),
	}
}

func (r *BudgetRepo) Create(ctx context.Context, b *budgets.YearlyBudget) error {
	if err := r.headers.Insert(ctx, b); err != nil {
		return err
	}
	return r.SaveMonths(ctx, b)
}

func (r *BudgetRepo) GetByID(ctx context.Context, budgetID id.ID) (*budgets.YearlyBudget, error) {
	return r.load(ctx, budgetID, false)
}

func (r *BudgetRepo) GetForUpdate(ctx context.Context, budgetID id.ID) (*budgets.YearlyBudget, error) {
	return r.load(ctx, budgetID, true)
}

func (r *BudgetRepo) load(ctx context.Context, budgetID id.ID, lock bool) (*budgets.YearlyBudget, error) {
	q := r.headers.Select().Where(squirrel.Eq{"id": budgetID, "is_active": true})
	if lock {
		q = q.Suffix("FOR UPDATE")
	}
	b, err := r.headers.Get(ctx, q, budgetID)
	if err != nil {
		return nil, err
	}
	months, err := r.months.All(ctx, r.months.Select().
		Where(squirrel.Eq{"budget_id": budgetID}).
		OrderBy("month ASC"))
	if err != nil {
		return nil, err
	}
	b.Months = months
	return b, nil
}

func (r *BudgetRepo) Update(ctx context.Context, b *budgets.YearlyBudget) error {
	return r.headers.Update(ctx, b)
}

// SaveMonths upserts every month row keyed by (budget_id, month).
func (r *BudgetRepo) SaveMonths(ctx context.Context, b *budgets.YearlyBudget) error {
	queries := make([]postgres.BatchQuery, 0, len(b.Months))
	for i := range b.Months {
		m := &b.Months[i]
		m.BudgetID = b.ID
		if id.IsNil(m.ID) {
			m.ID = id.New()
		}
		q, err := postgres.UpsertQuery("monthly_budgets", postgres.StructToMap(m), "budget_id", "month")
		if err != nil {
			return err
		}
		queries = append(queries, q)
	}
	if err := r.txm.ExecBatch(ctx, queries); err != nil {
		return fmt.Errorf("save budget months: %w", err)
	}
	return nil
}

func (r *BudgetRepo) List(ctx context.Context, scope security.Scope, filter domain.ListFilter) (domain.ListResult[budgets.YearlyBudget], error) {
	q := visible(r.headers.Select(), r.headers.Columns(), scope, filter, "customer_name", "item_name", "category", "brand")
	return r.headers.Page(ctx, q, filter, filter.OrderClause(budgetOrder, "created_at DESC"))
}

func (r *BudgetRepo) Summary(ctx context.Context, scope security.Scope, filter domain.ListFilter) (*budgets.Summary, error) {
	base := visible(r.headers.Select(), r.headers.Columns(), scope, filter, "customer_name", "item_name", "category", "brand")
	querier := r.txm.GetQuerier(ctx)

	s := &budgets.Summary{ByStatus: make(map[entity.Status]int64)}

	sql, args, err := postgres.Builder().
		Select("COUNT(*)", "COALESCE(SUM(total_budget), 0)", "COALESCE(SUM(total_actual), 0)").
		FromSelect(base, "sub").ToSql()
	if err != nil {
		return nil, fmt.Errorf("build summary: %w", err)
	}
	if err := querier.QueryRow(ctx, sql, args...).Scan(&s.TotalCount, &s.TotalBudget, &s.TotalActual); err != nil {
		return nil, fmt.Errorf("budget totals: %w", err)
	}

	byStatus, err := groupTotals(ctx, querier, base, "status", "total_budget")
	if err != nil {
		return nil, err
	}
	for _, g := range byStatus {
		s.ByStatus[entity.Status(g.Key)] = g.Count
	}

	if s.ByYear, err = groupTotals(ctx, querier, base, "year::text", "total_budget"); err != nil {
		return nil, err
	}
	if s.ByCategory, err = groupTotals(ctx, querier, base, "category", "total_budget"); err != nil {
		return nil, err
	}
	return s, nil
}

// groupTotals counts and sums sumCol of base grouped by keyExpr.
func groupTotals(ctx context.Context, q postgres.Querier, base squirrel.SelectBuilder, keyExpr, sumCol string) ([]budgets.GroupTotal, error) {
	sql, args, err := postgres.Builder().
		Select(keyExpr+" AS key", "COUNT(*) AS count", "COALESCE(SUM("+sumCol+"), 0) AS total").
		FromSelect(base, "sub").
		GroupBy(keyExpr).
		OrderBy("key ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build group query: %w", err)
	}
	out := []budgets.GroupTotal{}
	if err := pgxscan.Select(ctx, q, &out, sql, args...); err != nil {
		return nil, fmt.Errorf("group by %s: %w", keyExpr, err)
	}
	return out, nil
}

var _ budgets.Repository = (*BudgetRepo)(nil)
