package main

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abbakari/works/internal/config"
	"github.com/abbakari/works/pkg/logger"
)

type fakeTokens struct {
	calls int
	err   error
}

func (f *fakeTokens) CleanupExpiredTokens(context.Context) (int, error) {
	f.calls++
	return 3, f.err
}

type fakeNotes struct{ cutoff time.Time }

func (f *fakeNotes) PurgeRead(_ context.Context, cutoff time.Time) (int64, error) {
	f.cutoff = cutoff
	return 1, nil
}

type fakeKeys struct{ calls int }

func (f *fakeKeys) CleanupExpired(context.Context) (int64, error) {
	f.calls++
	return 2, nil
}

func newTestWorker(cfg config.WorkerConfig) (*Worker, *fakeTokens, *fakeNotes, *fakeKeys) {
	tokens, notes, keys := &fakeTokens{}, &fakeNotes{}, &fakeKeys{}
	w := NewWorker(Jobs{Tokens: tokens, Notifications: notes, Idempotency: keys}, cfg, logger.NewNop())
	return w, tokens, notes, keys
}

func TestWorker_Run(t *testing.T) {
	now := time.Date(2025, 6, 30, 12, 0, 0, 0, time.UTC)
	w, tokens, notes, keys := newTestWorker(config.WorkerConfig{NotificationRetention: 24 * time.Hour})
	w.now = func() time.Time { return now }

	require.NoError(t, w.Run(context.Background()))

	assert.Equal(t, 1, tokens.calls)
	assert.Equal(t, 1, keys.calls)
	assert.Equal(t, now.Add(-24*time.Hour), notes.cutoff)
}

func TestWorker_RunContinuesAfterError(t *testing.T) {
	w, tokens, notes, keys := newTestWorker(config.WorkerConfig{NotificationRetention: time.Hour})
	tokens.err = errors.New("db down")

	err := w.Run(context.Background())

	require.Error(t, err)
	assert.ErrorIs(t, err, tokens.err)
	assert.Equal(t, 1, keys.calls)
	assert.False(t, notes.cutoff.IsZero(), "purge still runs")
}

func TestWorker_ZeroRetentionKeepsNotifications(t *testing.T) {
	w, _, notes, _ := newTestWorker(config.WorkerConfig{})

	require.NoError(t, w.Run(context.Background()))

	assert.True(t, notes.cutoff.IsZero())
}
