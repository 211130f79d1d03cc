package numerator

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRow struct {
	val int64
	err error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	if p, ok := dest[0].(*int64); ok {
		*p = r.val
	}
	return nil
}

// fakeSequences keeps sys_sequences in memory. It tells an increment
// from an overwrite by the SET clause of the query.
type fakeSequences struct {
	mu    sync.Mutex
	vals  map[string]int64
	calls int
	err   error
}

func newFakeSequences() *fakeSequences {
	return &fakeSequences{vals: make(map[string]int64)}
}

func (f *fakeSequences) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return fakeRow{err: f.err}
	}
	key := args[0].(string)
	if strings.Contains(sql, "current_val + 1") {
		f.vals[key]++
	} else {
		f.vals[key] = args[1].(int64)
	}
	return fakeRow{val: f.vals[key]}
}

func staticService(q Querier) *Service {
	return New(func(context.Context) Querier { return q })
}

var at = time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)

func TestGetNextNumber_Sequential(t *testing.T) {
	q := newFakeSequences()
	svc := staticService(q)
	ctx := context.Background()
	cfg := DefaultConfig("WF")

	num, err := svc.GetNextNumber(ctx, cfg, at)
	require.NoError(t, err)
	assert.Equal(t, "WF-2025-00001", num)

	num, err = svc.GetNextNumber(ctx, cfg, at)
	require.NoError(t, err)
	assert.Equal(t, "WF-2025-00002", num)

	assert.Equal(t, 2, q.calls)
	assert.Equal(t, int64(2), q.vals["WF_2025"])
}

func TestGetNextNumber_YearlyReset(t *testing.T) {
	q := newFakeSequences()
	svc := staticService(q)
	cfg := DefaultConfig("SR")

	_, err := svc.GetNextNumber(context.Background(), cfg, at)
	require.NoError(t, err)

	num, err := svc.GetNextNumber(context.Background(), cfg, at.AddDate(1, 0, 0))
	require.NoError(t, err)
	assert.Equal(t, "SR-2026-00001", num)
}

func TestSetNextNumber_ContinuesFromValue(t *testing.T) {
	q := newFakeSequences()
	svc := staticService(q)
	ctx := context.Background()
	cfg := DefaultConfig("WF")

	_, err := svc.GetNextNumber(ctx, cfg, at)
	require.NoError(t, err)

	require.NoError(t, svc.SetNextNumber(ctx, cfg, at, 100))

	num, err := svc.GetNextNumber(ctx, cfg, at)
	require.NoError(t, err)
	assert.Equal(t, "WF-2025-00101", num)
}

func TestGetNextNumber_QueryError(t *testing.T) {
	q := newFakeSequences()
	q.err = errors.New("connection reset")
	svc := staticService(q)

	_, err := svc.GetNextNumber(context.Background(), DefaultConfig("WF"), at)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "WF_2025")

	err = svc.SetNextNumber(context.Background(), DefaultConfig("WF"), at, 3)
	assert.ErrorContains(t, err, "connection reset")
}

func TestGetNextNumber_UsesContextQuerier(t *testing.T) {
	type key struct{}
	inTx := newFakeSequences()
	pool := newFakeSequences()
	svc := New(func(ctx context.Context) Querier {
		if ctx.Value(key{}) != nil {
			return inTx
		}
		return pool
	})

	_, err := svc.GetNextNumber(context.WithValue(context.Background(), key{}, true), DefaultConfig("WF"), at)
	require.NoError(t, err)
	assert.Equal(t, 1, inTx.calls)
	assert.Equal(t, 0, pool.calls)
}

func TestFormatAndParse(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		want    string
		pattern string
	}{
		{"yearly", DefaultConfig("WF"), "WF-2025-00042", "WF-2025-%"},
		{"no year", Config{Prefix: "SR", PadWidth: 3, ResetPeriod: "never"}, "SR-042", "SR-%"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := formatNumber(tt.cfg, at, 42)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, int64(42), ParseNumber(got))
			assert.Equal(t, tt.pattern, LikePattern(tt.cfg, at))
		})
	}

	assert.Equal(t, "WF_2025_03", buildKey(Config{Prefix: "WF", ResetPeriod: "month"}, at))
	assert.Equal(t, "WF", buildKey(Config{Prefix: "WF", ResetPeriod: "never"}, at))
}

func TestParseNumber_Invalid(t *testing.T) {
	for _, in := range []string{"", "garbage", "-12", "WF-2025-", "WF-2025-abc"} {
		assert.Equal(t, int64(-1), ParseNumber(in), in)
	}
}
