package postgres

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abbakari/works/internal/core/entity"
	"github.com/abbakari/works/internal/core/id"
	"github.com/abbakari/works/internal/domain/audit"
)

func newMockTxManager(t *testing.T) (pgxmock.PgxPoolIface, *TxManager) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock, NewTxManager(mock)
}

var auditColumns = []string{
	"id", "entity_type", "entity_id", "action", "from_state", "to_state",
	"before", "after", "after_compressed", "compression_algo",
	"actor_id", "actor_role", "comment", "created_at",
}

func TestAuditRepo_AppendSmallSnapshotUncompressed(t *testing.T) {
	mock, txm := newMockTxManager(t)
	repo, err := NewAuditRepo(txm)
	require.NoError(t, err)

	e := &audit.Entry{
		ID: id.New(), EntityType: "forecast", EntityID: id.New(),
		Action: audit.ActionCreated, ToState: entity.StatusDraft,
		After: []byte(`{"notes":"x"}`), ActorID: id.New(), ActorRole: "salesman",
		CreatedAt: time.Now().UTC(),
	}

	mock.ExpectExec("INSERT INTO audit_entries").
		WithArgs(pgxmock.AnyArg(), "forecast", pgxmock.AnyArg(), audit.ActionCreated, pgxmock.AnyArg(), entity.StatusDraft,
			pgxmock.AnyArg(), `{"notes":"x"}`, pgxmock.AnyArg(), CompressionNone,
			pgxmock.AnyArg(), "salesman", "", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, repo.Append(context.Background(), e))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuditRepo_LargeSnapshotRoundTrip(t *testing.T) {
	mock, txm := newMockTxManager(t)
	repo, err := NewAuditRepo(txm)
	require.NoError(t, err)

	big := `{"notes":"` + strings.Repeat("a", DefaultCompressThreshold) + `"}`
	compressed := repo.encoder.EncodeAll([]byte(big), nil)
	entityID := id.New()
	now := time.Now().UTC()
	from := entity.StatusDraft

	mock.ExpectQuery("SELECT (.+) FROM audit_entries").
		WithArgs("sales_budget", entityID).
		WillReturnRows(pgxmock.NewRows(auditColumns).
			AddRow(id.New(), "sales_budget", entityID, audit.ActionSubmitted, &from, entity.StatusSubmitted,
				[]byte(nil), []byte(nil), compressed, CompressionZstd,
				id.New(), "salesman", "", now))

	entries, err := repo.ListByEntity(context.Background(), "sales_budget", entityID, 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.JSONEq(t, big, string(entries[0].After))
	assert.Equal(t, entity.StatusDraft, *entries[0].FromState)
	assert.NoError(t, mock.ExpectationsWereMet())
}
