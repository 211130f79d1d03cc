package postgres

import (
	"context"
	"fmt"

	"github.com/klauspost/compress/zstd"

	"github.com/abbakari/works/internal/core/id"
	"github.com/abbakari/works/internal/domain/audit"
)

// CompressionAlgo names how a stored snapshot is encoded.
type CompressionAlgo string

const (
	CompressionNone CompressionAlgo = "none"
	CompressionZstd CompressionAlgo = "zstd"
)

// DefaultCompressThreshold is the snapshot size above which After is
// stored zstd-compressed.
const DefaultCompressThreshold = 10 * 1024

// AuditRepo implements audit.Repository on the audit_entries table.
type AuditRepo struct {
	txm       *TxManager
	encoder   *zstd.Encoder
	decoder   *zstd.Decoder
	threshold int
}

// NewAuditRepo creates an AuditRepo.
func NewAuditRepo(txm *TxManager) (*AuditRepo, error) {
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}
	return &AuditRepo{txm: txm, encoder: encoder, decoder: decoder, threshold: DefaultCompressThreshold}, nil
}

// Append implements audit.Repository.
func (r *AuditRepo) Append(ctx context.Context, e *audit.Entry) error {
	after := []byte(e.After)
	var compressed []byte
	algo := CompressionNone
	if len(after) > r.threshold {
		compressed = r.encoder.EncodeAll(after, nil)
		after = nil
		algo = CompressionZstd
	}

	sql, args, err := Builder().
		Insert("audit_entries").
		Columns("id", "entity_type", "entity_id", "action", "from_state", "to_state",
			"before", "after", "after_compressed", "compression_algo",
			"actor_id", "actor_role", "comment", "created_at").
		Values(e.ID, e.EntityType, e.EntityID, e.Action, e.FromState, e.ToState,
			nullJSON(e.Before), nullJSON(after), compressed, algo,
			e.ActorID, e.ActorRole, e.Comment, e.CreatedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

// ListByEntity implements audit.Repository.
func (r *AuditRepo) ListByEntity(ctx context.Context, entityType string, entityID id.ID, limit int) ([]audit.Entry, error) {
	q := Builder().
		Select("id", "entity_type", "entity_id", "action", "from_state", "to_state",
			"before", "after", "after_compressed", "compression_algo",
			"actor_id", "actor_role", "comment", "created_at").
		From("audit_entries").
		Where("entity_type = ? AND entity_id = ?", entityType, entityID).
		OrderBy("created_at DESC", "id DESC")
	if limit > 0 {
		q = q.Limit(uint64(limit))
	}
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	rows, err := r.txm.GetQuerier(ctx).Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query audit entries: %w", err)
	}
	defer rows.Close()

	var entries []audit.Entry
	for rows.Next() {
		var (
			e          audit.Entry
			before     []byte
			after      []byte
			compressed []byte
			algo       CompressionAlgo
		)
		if err := rows.Scan(
			&e.ID, &e.EntityType, &e.EntityID, &e.Action, &e.FromState, &e.ToState,
			&before, &after, &compressed, &algo,
			&e.ActorID, &e.ActorRole, &e.Comment, &e.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		if algo == CompressionZstd && len(compressed) > 0 {
			after, err = r.decoder.DecodeAll(compressed, nil)
			if err != nil {
				return nil, fmt.Errorf("decompress audit entry %s: %w", e.ID, err)
			}
		}
		e.Before = before
		e.After = after
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// nullJSON keeps empty snapshots NULL instead of an invalid empty jsonb.
func nullJSON(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return string(b)
}

var _ audit.Repository = (*AuditRepo)(nil)
