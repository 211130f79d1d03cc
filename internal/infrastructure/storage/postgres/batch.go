package postgres

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
)

// BatchQuery is one statement of a batch.
type BatchQuery struct {
	SQL  string
	Args []any
}

// ExecBatch sends queries in a single round-trip on the transaction in ctx.
func (m *TxManager) ExecBatch(ctx context.Context, queries []BatchQuery) error {
	if len(queries) == 0 {
		return nil
	}
	tx := m.GetTx(ctx)
	if tx == nil {
		return fmt.Errorf("ExecBatch requires transaction context")
	}

	batch := &pgx.Batch{}
	for _, q := range queries {
		batch.Queue(q.SQL, q.Args...)
	}

	results := tx.SendBatch(ctx, batch)
	defer results.Close()

	for i := range queries {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("batch query %d failed: %w", i, err)
		}
	}
	return nil
}

// UpsertQuery builds an INSERT of row that updates every non-key column
// when conflictCols already match. created_at is never overwritten.
func UpsertQuery(table string, row map[string]any, conflictCols ...string) (BatchQuery, error) {
	keys := make(map[string]bool, len(conflictCols)+2)
	for _, c := range conflictCols {
		keys[c] = true
	}
	keys["id"] = true
	keys["created_at"] = true

	updates := make([]string, 0, len(row))
	for col := range row {
		if keys[col] {
			continue
		}
		updates = append(updates, col+" = EXCLUDED."+col)
	}
	sort.Strings(updates)

	suffix := "ON CONFLICT (" + strings.Join(conflictCols, ", ") + ") DO NOTHING"
	if len(updates) > 0 {
		suffix = "ON CONFLICT (" + strings.Join(conflictCols, ", ") + ") DO UPDATE SET " + strings.Join(updates, ", ")
	}

	sql, args, err := Builder().Insert(table).SetMap(row).Suffix(suffix).ToSql()
	if err != nil {
		return BatchQuery{}, fmt.Errorf("build upsert: %w", err)
	}
	return BatchQuery{SQL: sql, Args: args}, nil
}
