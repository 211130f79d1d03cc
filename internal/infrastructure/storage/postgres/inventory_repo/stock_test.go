package inventory_repo

import (
	"context"
	"testing"

	"github.com/pashagolub/pgxmock/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abbakari/works/internal/core/id"
	"github.com/abbakari/works/internal/domain"
	"github.com/abbakari/works/internal/domain/inventory"
	"github.com/abbakari/works/internal/infrastructure/storage/postgres"
)

func newTxManager(t *testing.T) (pgxmock.PgxPoolIface, *postgres.TxManager) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock, postgres.NewTxManager(mock)
}

func TestStockRepo_ListLowStock(t *testing.T) {
	mock, txm := newTxManager(t)
	repo := NewStockRepo(txm)

	filter := inventory.StockFilter{
		ListFilter: domain.ListFilter{Limit: 20},
		Location:   "DAR-01",
		Statuses:   []inventory.StockStatus{inventory.StatusOutOfStock, inventory.StatusLow},
	}

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM \(SELECT (.+) FROM inventory_items WHERE is_active = \$1 AND location = \$2 AND stock_status IN \(\$3,\$4\)\) AS sub`).
		WithArgs(true, "DAR-01", "out_of_stock", "low").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(0)))
	mock.ExpectQuery(`ORDER BY name ASC LIMIT 20 OFFSET 0`).
		WithArgs(true, "DAR-01", "out_of_stock", "low").
		WillReturnRows(pgxmock.NewRows(postgres.ExtractDBColumns[inventory.StockItem]()))

	res, err := repo.List(context.Background(), filter)
	require.NoError(t, err)
	assert.Empty(t, res.Items)
	assert.Equal(t, 20, res.Limit)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStockRepo_Summary(t *testing.T) {
	mock, txm := newTxManager(t)
	repo := NewStockRepo(txm)

	mock.ExpectQuery(`SELECT COUNT\(\*\),`).
		WillReturnRows(pgxmock.NewRows([]string{"count", "sum", "reorder"}).
			AddRow(int64(3), decimal.NewFromInt(1200), int64(1)))
	mock.ExpectQuery(`GROUP BY stock_status`).
		WillReturnRows(pgxmock.NewRows([]string{"stock_status", "count"}).
			AddRow("normal", int64(2)).
			AddRow("low", int64(1)))

	s, err := repo.Summary(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 3, s.TotalItems)
	assert.EqualValues(t, 1, s.ReorderCount)
	assert.EqualValues(t, 1, s.ByStatus[inventory.StatusLow])
	assert.True(t, s.TotalValue.Equal(decimal.NewFromInt(1200)))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMovementRepo_ListByStockNewestFirst(t *testing.T) {
	mock, txm := newTxManager(t)
	repo := NewMovementRepo(txm)
	stockID := id.New()

	mock.ExpectQuery(`FROM stock_movements WHERE stock_item_id = \$1 ORDER BY created_at DESC, id DESC LIMIT 5`).
		WithArgs(stockID.String()).
		WillReturnRows(pgxmock.NewRows(postgres.ExtractDBColumns[inventory.Movement]()))

	got, err := repo.ListByStock(context.Background(), stockID, 5)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}
