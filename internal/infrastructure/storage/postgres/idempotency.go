package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/abbakari/works/internal/core/apperror"
)

// IdempotencyStatus is the state of a stored request.
type IdempotencyStatus string

const (
	IdempotencyPending IdempotencyStatus = "pending"
	IdempotencyDone    IdempotencyStatus = "done"
)

// staleAfter is how long a pending key may sit before another request
// may reclaim it.
const staleAfter = time.Minute

// IdempotencyReplay is a stored response to send again.
type IdempotencyReplay struct {
	StatusCode  int
	ContentType string
	Body        []byte
}

// IdempotencyStore keeps the sys_idempotency table.
type IdempotencyStore struct {
	txm *TxManager
	ttl time.Duration
	now func() time.Time
}

// NewIdempotencyStore creates a store whose keys live for ttl.
func NewIdempotencyStore(txm *TxManager, ttl time.Duration) *IdempotencyStore {
	return &IdempotencyStore{txm: txm, ttl: ttl, now: func() time.Time { return time.Now().UTC() }}
}

// Acquire claims key for the request. It returns (nil, nil) when the
// caller should run the request, a replay when the request already
// completed, or a conflict while another request holds the key.
func (s *IdempotencyStore) Acquire(ctx context.Context, key, userID, operation, requestHash string) (*IdempotencyReplay, error) {
	now := s.now()

	var (
		inserted                   bool
		storedUser, storedOp, hash string
		status                     IdempotencyStatus
		body                       []byte
		code                       int
		contentType                string
		updatedAt                  time.Time
	)
	err := s.txm.GetQuerier(ctx).QueryRow(ctx, `
		INSERT INTO sys_idempotency (idempotency_key, user_id, operation, request_hash, status, created_at, updated_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6, $7)
		ON CONFLICT (idempotency_key) DO UPDATE SET expires_at = sys_idempotency.expires_at
		RETURNING (xmax = 0), user_id, operation, request_hash, status, response, response_status, response_content_type, updated_at
	`, key, userID, operation, requestHash, IdempotencyPending, now, now.Add(s.ttl)).Scan(
		&inserted, &storedUser, &storedOp, &hash, &status, &body, &code, &contentType, &updatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("acquire idempotency key: %w", err)
	}
	if inserted {
		return nil, nil
	}

	if storedUser != userID || storedOp != operation || hash != requestHash {
		return nil, apperror.NewIdempotencyMismatch(key).
			WithDetail("operation", storedOp)
	}

	if status == IdempotencyDone {
		if contentType == "" {
			contentType = "application/json; charset=utf-8"
		}
		return &IdempotencyReplay{StatusCode: code, ContentType: contentType, Body: body}, nil
	}

	if now.Sub(updatedAt) < staleAfter {
		return nil, apperror.NewIdempotencyConflict(key)
	}

	tag, err := s.txm.GetQuerier(ctx).Exec(ctx, `
		UPDATE sys_idempotency SET updated_at = $1
		WHERE idempotency_key = $2 AND status = $3 AND updated_at = $4
	`, now, key, IdempotencyPending, updatedAt)
	if err != nil {
		return nil, fmt.Errorf("reclaim idempotency key: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, apperror.NewIdempotencyConflict(key)
	}
	return nil, nil
}

// Complete stores the response for replay.
func (s *IdempotencyStore) Complete(ctx context.Context, key string, statusCode int, contentType string, body []byte) error {
	_, err := s.txm.GetQuerier(ctx).Exec(ctx, `
		UPDATE sys_idempotency
		SET status = $1, response = $2, response_status = $3, response_content_type = $4, updated_at = $5
		WHERE idempotency_key = $6
	`, IdempotencyDone, body, statusCode, contentType, s.now(), key)
	if err != nil {
		return fmt.Errorf("complete idempotency key: %w", err)
	}
	return nil
}

// Release forgets a pending key so the client may retry a failed request.
func (s *IdempotencyStore) Release(ctx context.Context, key string) error {
	_, err := s.txm.GetQuerier(ctx).Exec(ctx,
		`DELETE FROM sys_idempotency WHERE idempotency_key = $1 AND status = $2`,
		key, IdempotencyPending)
	if err != nil {
		return fmt.Errorf("release idempotency key: %w", err)
	}
	return nil
}

// CleanupExpired removes expired keys.
func (s *IdempotencyStore) CleanupExpired(ctx context.Context) (int64, error) {
	tag, err := s.txm.GetQuerier(ctx).Exec(ctx,
		`DELETE FROM sys_idempotency WHERE expires_at < $1`, s.now())
	if err != nil {
		return 0, fmt.Errorf("cleanup idempotency keys: %w", err)
	}
	return tag.RowsAffected(), nil
}
