package planning_repo

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abbakari/works/internal/core/apperror"
	"github.com/abbakari/works/internal/core/id"
	"github.com/abbakari/works/internal/domain"
	"github.com/abbakari/works/internal/domain/budgets"
	"github.com/abbakari/works/internal/domain/planning"
	"github.com/abbakari/works/internal/infrastructure/storage/postgres"
)

func newTxm(t *testing.T) (pgxmock.PgxPoolIface, *postgres.TxManager) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock, postgres.NewTxManager(mock)
}

func profileRow(p planning.DistributionProfile) []any {
	return []any{
		p.ID, p.Version, p.CreatedAt, p.UpdatedAt,
		p.Name, p.Type, p.Description, p.Shares, p.IsDefault, p.IsActive, p.CreatedBy,
	}
}

func anyArgs(n int) []any {
	args := make([]any, n)
	for i := range args {
		args[i] = pgxmock.AnyArg()
	}
	return args
}

func TestProfileRepo_GetDefault(t *testing.T) {
	mock, txm := newTxm(t)
	repo := NewProfileRepo(txm)
	p := planning.NewDistributionProfile("Default Seasonal", budgets.DefaultDistribution(), id.New())
	p.IsDefault = true

	mock.ExpectQuery(`SELECT (.+) FROM budget_distributions WHERE is_active = \$1 AND is_default = \$2 LIMIT 1`).
		WithArgs(true, true).
		WillReturnRows(pgxmock.NewRows(postgres.ExtractDBColumns[planning.DistributionProfile]()).AddRow(profileRow(*p)...))

	got, err := repo.GetDefault(context.Background())
	require.NoError(t, err)
	assert.Equal(t, p.ID, got.ID)
	assert.Equal(t, budgets.DefaultDistribution(), got.Shares)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProfileRepo_GetDefaultMissing(t *testing.T) {
	mock, txm := newTxm(t)
	repo := NewProfileRepo(txm)

	mock.ExpectQuery(`SELECT (.+) FROM budget_distributions`).
		WithArgs(true, true).
		WillReturnError(pgx.ErrNoRows)

	_, err := repo.GetDefault(context.Background())
	assert.True(t, apperror.IsNotFound(err), "got %v", err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProfileRepo_ClearDefault(t *testing.T) {
	mock, txm := newTxm(t)
	repo := NewProfileRepo(txm)
	keep := id.New()

	mock.ExpectExec(`UPDATE budget_distributions SET is_default = \$1, version = version \+ 1, updated_at = now\(\) WHERE is_default = \$2 AND id <> \$3`).
		WithArgs(false, true, keep.String()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, repo.ClearDefault(context.Background(), keep))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProfileRepo_CreateWritesEveryColumn(t *testing.T) {
	mock, txm := newTxm(t)
	repo := NewProfileRepo(txm)
	p := planning.NewDistributionProfile("Flat", budgets.DefaultDistribution(), id.New())

	mock.ExpectExec(`INSERT INTO budget_distributions`).
		WithArgs(anyArgs(len(postgres.ExtractDBColumns[planning.DistributionProfile]()))...).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, repo.Create(context.Background(), p))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTemplateRepo_ListScopesToViewer(t *testing.T) {
	mock, txm := newTxm(t)
	repo := NewTemplateRepo(txm)
	viewer := id.New()
	tmpl := planning.NewTemplate(planning.TemplateBudget, "Tyres", viewer)

	where := `WHERE kind = \$1 AND is_active = \$2 AND \(is_public = \$3 OR created_by = \$4\) AND \(name ILIKE \$5 ESCAPE '\\' OR description ILIKE \$6 ESCAPE '\\'\)`
	args := []any{planning.TemplateBudget, true, true, viewer.String(), "%tyr%", "%tyr%"}

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM \(SELECT (.+) FROM plan_templates ` + where + `\) AS sub`).
		WithArgs(args...).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(1)))
	mock.ExpectQuery(`SELECT (.+) FROM plan_templates ` + where + ` ORDER BY name ASC LIMIT 50 OFFSET 0`).
		WithArgs(args...).
		WillReturnRows(pgxmock.NewRows(postgres.ExtractDBColumns[planning.Template]()).AddRow(
			tmpl.ID, tmpl.Version, tmpl.CreatedAt, tmpl.UpdatedAt,
			tmpl.Kind, tmpl.Name, tmpl.Description, tmpl.Category, tmpl.Brand, tmpl.Shares, tmpl.DefaultRate,
			tmpl.Seasonality, tmpl.Confidence, tmpl.IsPublic, tmpl.IsActive, tmpl.CreatedBy,
		))

	res, err := repo.List(context.Background(), planning.TemplateFilter{
		ListFilter: domain.ListFilter{Search: "tyr"},
		Kind:       planning.TemplateBudget,
		ViewerID:   &viewer,
	})
	require.NoError(t, err)
	assert.EqualValues(t, 1, res.TotalCount)
	require.Len(t, res.Items, 1)
	assert.Equal(t, "Tyres", res.Items[0].Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAlertRepo_ListForRecipient(t *testing.T) {
	mock, txm := newTxm(t)
	repo := NewAlertRepo(txm)
	recipient := id.New()

	where := `WHERE recipient_id = \$1 AND is_active = \$2 AND severity = \$3 AND is_read = \$4`
	args := []any{recipient.String(), true, planning.SeverityHigh, false}

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM \(SELECT (.+) FROM budget_alerts ` + where + `\) AS sub`).
		WithArgs(args...).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(0)))
	mock.ExpectQuery(`SELECT (.+) FROM budget_alerts ` + where + ` ORDER BY created_at DESC LIMIT 50 OFFSET 0`).
		WithArgs(args...).
		WillReturnRows(pgxmock.NewRows(postgres.ExtractDBColumns[planning.Alert]()))

	res, err := repo.ListForRecipient(context.Background(), recipient, planning.AlertFilter{
		Severity: planning.SeverityHigh,
		Unread:   true,
	})
	require.NoError(t, err)
	assert.Empty(t, res.Items)
	assert.NotNil(t, res.Items)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAlertRepo_UpdateStaleVersion(t *testing.T) {
	mock, txm := newTxm(t)
	repo := NewAlertRepo(txm)
	a := &planning.Alert{BudgetID: id.New(), Type: planning.AlertVariance, Severity: planning.SeverityLow, Title: "x"}
	a.ID, a.Version = id.New(), 2

	var set int
	for _, c := range postgres.ExtractDBColumns[planning.Alert]() {
		switch c {
		case "id", "version", "created_at", "created_by":
		default:
			set++
		}
	}
	args := anyArgs(set + 2)
	args[len(args)-2] = a.ID.String()
	args[len(args)-1] = 2

	mock.ExpectExec(`UPDATE budget_alerts SET (.+) WHERE id = \$\d+ AND version = \$\d+`).
		WithArgs(args...).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := repo.Update(context.Background(), a)
	assert.True(t, apperror.IsConcurrentModification(err), "got %v", err)
	assert.Equal(t, 2, a.Version)
	assert.NoError(t, mock.ExpectationsWereMet())
}
