package record_repo

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abbakari/works/internal/core/apperror"
	"github.com/abbakari/works/internal/core/entity"
	"github.com/abbakari/works/internal/core/id"
	"github.com/abbakari/works/internal/core/security"
	"github.com/abbakari/works/internal/domain"
	"github.com/abbakari/works/internal/domain/budgets"
	"github.com/abbakari/works/internal/domain/inventory"
	"github.com/abbakari/works/internal/domain/workflow"
	"github.com/abbakari/works/internal/infrastructure/storage/postgres"
)

func newMock(t *testing.T) (pgxmock.PgxPoolIface, *postgres.TxManager) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock, postgres.NewTxManager(mock)
}

// rowsOf renders values as mock rows in the column order of T.
func rowsOf[T any](values ...*T) *pgxmock.Rows {
	cols := postgres.ExtractDBColumns[T]()
	rows := pgxmock.NewRows(cols)
	for _, v := range values {
		m := postgres.StructToMap(v)
		row := make([]any, len(cols))
		for i, c := range cols {
			row[i] = m[c]
		}
		rows.AddRow(row...)
	}
	return rows
}

func anyArgs(n int) []any {
	args := make([]any, n)
	for i := range args {
		args[i] = pgxmock.AnyArg()
	}
	return args
}

// insertArgs matches the values Table.Insert binds for T.
func insertArgs[T any]() []any {
	return anyArgs(len(postgres.ExtractDBColumns[T]()))
}

// updateArgs matches the SET values of Table.Update for T plus its id
// and version guards.
func updateArgs[T any]() []any {
	n := 2
	for _, c := range postgres.ExtractDBColumns[T]() {
		switch c {
		case "id", "version", "created_at", "created_by":
		default:
			n++
		}
	}
	return anyArgs(n)
}

func TestBudgetRepo_GetByIDLoadsMonths(t *testing.T) {
	mock, txm := newMock(t)
	repo := NewBudgetRepo(txm)

	b := budgets.NewYearlyBudget(id.New(), id.New(), id.New(), 2026)
	b.Customer, b.Item = "Acme", "Tyre"
	jan := budgets.NewMonthlyBudget(1)
	jan.BudgetID = b.ID
	jan.BudgetValue = decimal.NewFromInt(100)

	mock.ExpectQuery(`SELECT (.+) FROM sales_budgets WHERE id = \$1 AND is_active = \$2 LIMIT 1$`).
		WithArgs(b.ID.String(), true).
		WillReturnRows(rowsOf(b))
	mock.ExpectQuery(`SELECT (.+) FROM monthly_budgets WHERE budget_id = \$1 ORDER BY month ASC`).
		WithArgs(b.ID.String()).
		WillReturnRows(rowsOf(&jan))

	got, err := repo.GetByID(context.Background(), b.ID)
	require.NoError(t, err)
	assert.Equal(t, "Acme", got.Customer)
	require.Len(t, got.Months, 1)
	assert.True(t, got.Months[0].BudgetValue.Equal(decimal.NewFromInt(100)))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBudgetRepo_GetForUpdateLocks(t *testing.T) {
	mock, txm := newMock(t)
	repo := NewBudgetRepo(txm)
	budgetID := id.New()

	mock.ExpectQuery(`FROM sales_budgets WHERE id = \$1 AND is_active = \$2 LIMIT 1 FOR UPDATE`).
		WithArgs(budgetID.String(), true).
		WillReturnError(pgx.ErrNoRows)

	_, err := repo.GetForUpdate(context.Background(), budgetID)
	assert.True(t, apperror.IsNotFound(err), "got %v", err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBudgetRepo_ListEmptyScopeMatchesNothing(t *testing.T) {
	mock, txm := newMock(t)
	repo := NewBudgetRepo(txm)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM \(SELECT (.+) FROM sales_budgets WHERE 1 = 0 AND is_active = \$1\) AS sub`).
		WithArgs(true).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(0)))
	mock.ExpectQuery(`FROM sales_budgets WHERE 1 = 0`).
		WithArgs(true).
		WillReturnRows(rowsOf[budgets.YearlyBudget]())

	res, err := repo.List(context.Background(), security.Scope{}, domain.ListFilter{})
	require.NoError(t, err)
	assert.Empty(t, res.Items)
	assert.NotNil(t, res.Items)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBudgetRepo_ListManagerScopeAndFilters(t *testing.T) {
	mock, txm := newMock(t)
	repo := NewBudgetRepo(txm)
	mgr, rep := id.New(), id.New()
	scope := security.Scope{Owners: []id.ID{mgr, rep}}

	mock.ExpectQuery(`WHERE created_by IN \(\$1,\$2\) AND is_active = \$3 AND status = \$4 AND year = \$5\) AS sub`).
		WithArgs(mgr, rep, true, "submitted", 2026).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(0)))
	mock.ExpectQuery(`ORDER BY total_budget DESC LIMIT 10 OFFSET 0`).
		WithArgs(mgr, rep, true, "submitted", 2026).
		WillReturnRows(rowsOf[budgets.YearlyBudget]())

	_, err := repo.List(context.Background(), scope, domain.ListFilter{
		Status: entity.StatusSubmitted, Year: 2026, OrderBy: "-total_budget", Limit: 10,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWorkflowRepo_Dashboard(t *testing.T) {
	mock, txm := newMock(t)
	repo := NewWorkflowRepo(txm)

	mock.ExpectQuery(`SELECT status, COUNT\(\*\), COALESCE\(SUM\(total_value\), 0\) FROM \(SELECT (.+) FROM workflow_items WHERE status IN \(\$1,\$2\) AND is_active = \$3\) AS sub GROUP BY status`).
		WithArgs("approved", "forwarded", true).
		WillReturnRows(pgxmock.NewRows([]string{"status", "count", "total"}).
			AddRow("approved", int64(2), decimal.NewFromInt(300)).
			AddRow("forwarded", int64(1), decimal.NewFromInt(50)))

	d, err := repo.Dashboard(context.Background(), security.Scope{AnyOwner: true, Statuses: security.DownstreamStatuses})
	require.NoError(t, err)
	assert.EqualValues(t, 3, d.Total)
	assert.EqualValues(t, 2, d.ByState[entity.StatusApproved])
	assert.True(t, d.TotalValue.Equal(decimal.NewFromInt(350)), "total %s", d.TotalValue)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWorkflowRepo_UpdateStaleVersion(t *testing.T) {
	mock, txm := newMock(t)
	repo := NewWorkflowRepo(txm)
	item := workflow.NewItem(security.Actor{ID: id.New(), Role: security.RoleSalesman}, workflow.TypeSalesBudget, "Q3 plan", 2026)

	mock.ExpectExec(`UPDATE workflow_items SET (.+) version = version \+ 1 WHERE id = \$\d+ AND version = \$\d+`).
		WithArgs(updateArgs[workflow.Item]()...).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := repo.Update(context.Background(), item)
	assert.True(t, apperror.IsConcurrentModification(err), "got %v", err)
	assert.Equal(t, 1, item.Version)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWorkflowRepo_UpdateBumpsVersion(t *testing.T) {
	mock, txm := newMock(t)
	repo := NewWorkflowRepo(txm)
	item := workflow.NewItem(security.Actor{ID: id.New(), Role: security.RoleSalesman}, workflow.TypeSalesBudget, "Q4 plan", 2026)
	item.Version = 4

	args := updateArgs[workflow.Item]()
	args[len(args)-2] = item.ID.String()
	args[len(args)-1] = 4
	mock.ExpectExec(`UPDATE workflow_items SET`).
		WithArgs(args...).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, repo.Update(context.Background(), item))
	assert.Equal(t, 5, item.Version)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWorkflowRepo_CreateAssignsNumber(t *testing.T) {
	mock, txm := newMock(t)
	repo := NewWorkflowRepo(txm)

	actor := security.Actor{ID: id.New(), Role: security.RoleSalesman}
	item := workflow.NewItem(actor, workflow.TypeSalesBudget, "Q1 budget", 2026)
	year := item.CreatedAt.Format("2006")

	mock.ExpectQuery(`INSERT INTO sys_sequences`).
		WithArgs(workflowPrefix+"_"+year).
		WillReturnRows(pgxmock.NewRows([]string{"current_val"}).AddRow(int64(7)))
	mock.ExpectExec(`INSERT INTO workflow_items`).
		WithArgs(insertArgs[workflow.Item]()...).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, repo.Create(context.Background(), item))
	assert.Equal(t, "WF-"+year+"-00007", item.Number)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStockRequestRepo_CreateKeepsExistingNumber(t *testing.T) {
	mock, txm := newMock(t)
	repo := NewStockRequestRepo(txm)

	req := inventory.NewStockRequest(id.New(), id.New(), 5)
	req.Number = "SR-2025-00042"

	mock.ExpectExec(`INSERT INTO stock_requests`).
		WithArgs(insertArgs[inventory.StockRequest]()...).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, repo.Create(context.Background(), req))
	assert.Equal(t, "SR-2025-00042", req.Number)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStockRequestRepo_CreateSequenceFailure(t *testing.T) {
	mock, txm := newMock(t)
	repo := NewStockRequestRepo(txm)

	req := inventory.NewStockRequest(id.New(), id.New(), 5)
	mock.ExpectQuery(`INSERT INTO sys_sequences`).
		WithArgs(pgxmock.AnyArg()).
		WillReturnError(assert.AnError)

	err := repo.Create(context.Background(), req)
	require.Error(t, err)
	assert.ErrorIs(t, err, assert.AnError)
	assert.Empty(t, req.Number)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSyncSequences(t *testing.T) {
	mock, txm := newMock(t)
	at := time.Date(2026, time.May, 4, 0, 0, 0, 0, time.UTC)

	mock.ExpectBeginTx(pgx.TxOptions{IsoLevel: pgx.ReadCommitted, AccessMode: pgx.ReadWrite})
	mock.ExpectExec(`SET LOCAL statement_timeout`).
		WillReturnResult(pgxmock.NewResult("SET", 0))
	mock.ExpectQuery(`SELECT number FROM workflow_items WHERE number LIKE \$1 ORDER BY length\(number\) DESC, number DESC LIMIT 1`).
		WithArgs("WF-2026-%").
		WillReturnRows(pgxmock.NewRows([]string{"number"}).AddRow("WF-2026-00012"))
	mock.ExpectQuery(`INSERT INTO sys_sequences (.+) SET current_val = \$2`).
		WithArgs("WF_2026", int64(12)).
		WillReturnRows(pgxmock.NewRows([]string{"current_val"}).AddRow(int64(12)))
	mock.ExpectQuery(`SELECT number FROM stock_requests`).
		WithArgs("SR-2026-%").
		WillReturnError(pgx.ErrNoRows)
	mock.ExpectCommit()

	require.NoError(t, SyncSequences(context.Background(), txm, at))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSyncSequences_MalformedNumber(t *testing.T) {
	mock, txm := newMock(t)
	at := time.Date(2026, time.May, 4, 0, 0, 0, 0, time.UTC)

	mock.ExpectBeginTx(pgx.TxOptions{IsoLevel: pgx.ReadCommitted, AccessMode: pgx.ReadWrite})
	mock.ExpectExec(`SET LOCAL statement_timeout`).
		WillReturnResult(pgxmock.NewResult("SET", 0))
	mock.ExpectQuery(`SELECT number FROM workflow_items`).
		WithArgs("WF-2026-%").
		WillReturnRows(pgxmock.NewRows([]string{"number"}).AddRow("WF-2026-x1"))
	mock.ExpectRollback()

	err := SyncSequences(context.Background(), txm, at)
	assert.ErrorContains(t, err, "malformed workflow_items number")
	assert.NoError(t, mock.ExpectationsWereMet())
}
