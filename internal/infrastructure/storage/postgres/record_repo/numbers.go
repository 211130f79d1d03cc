package record_repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/abbakari/works/internal/infrastructure/storage/postgres"
	"github.com/abbakari/works/pkg/numerator"
)

const (
	workflowPrefix     = "WF"
	stockRequestPrefix = "SR"
)

// numberedTables lists the tables whose rows carry a reference number.
var numberedTables = []struct {
	table  string
	prefix string
}{
	{"workflow_items", workflowPrefix},
	{"stock_requests", stockRequestPrefix},
}

// newNumerator binds numbering to the transaction carried by ctx, so a
// rolled back create does not burn a number.
func newNumerator(txm *postgres.TxManager) *numerator.Service {
	return numerator.New(func(ctx context.Context) numerator.Querier {
		return txm.GetQuerier(ctx)
	})
}

func nextNumber(ctx context.Context, svc *numerator.Service, prefix string, at time.Time) (string, error) {
	if at.IsZero() {
		at = time.Now().UTC()
	}
	n, err := svc.GetNextNumber(ctx, numerator.DefaultConfig(prefix), at)
	if err != nil {
		return "", fmt.Errorf("assign %s number: %w", prefix, err)
	}
	return n, nil
}

// SyncSequences moves the sequences of the year containing at to the
// highest number already stored, so rows imported or restored with
// their numbers are not handed out twice. Tables without numbers for
// that year are left alone.
func SyncSequences(ctx context.Context, txm *postgres.TxManager, at time.Time) error {
	svc := newNumerator(txm)
	return txm.RunInTransaction(ctx, func(ctx context.Context) error {
		for _, nt := range numberedTables {
			cfg := numerator.DefaultConfig(nt.prefix)
			highest, err := highestNumber(ctx, txm, nt.table, numerator.LikePattern(cfg, at))
			if err != nil {
				return err
			}
			if highest <= 0 {
				continue
			}
			if err := svc.SetNextNumber(ctx, cfg, at, highest); err != nil {
				return err
			}
		}
		return nil
	})
}

// highestNumber returns the largest counter among numbers matching
// pattern, or 0 when there are none.
func highestNumber(ctx context.Context, txm *postgres.TxManager, table, pattern string) (int64, error) {
	sql, args, err := postgres.Builder().
		Select("number").
		From(table).
		Where(squirrel.Like{"number": pattern}).
		OrderBy("length(number) DESC", "number DESC").
		Limit(1).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build highest number query: %w", err)
	}

	var number string
	if err := txm.GetQuerier(ctx).QueryRow(ctx, sql, args...).Scan(&number); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("highest %s number: %w", table, err)
	}

	n := numerator.ParseNumber(number)
	if n < 0 {
		return 0, fmt.Errorf("malformed %s number %q", table, number)
	}
	return n, nil
}
