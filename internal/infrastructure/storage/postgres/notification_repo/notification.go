// Package notification_repo provides PostgreSQL implementations for
// notifications and direct messages.
package notification_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"

	"github.com/abbakari/works/internal/core/id"
	"github.com/abbakari/works/internal/domain/notifications"
	"github.com/abbakari/works/internal/infrastructure/storage/postgres"
)

// NotificationRepo implements notifications.NotificationRepository.
type NotificationRepo struct {
	table *postgres.Table[notifications.Notification]
}

// NewNotificationRepo creates a notification repository.
func NewNotificationRepo(txm *postgres.TxManager) *NotificationRepo {
	return &NotificationRepo{table: postgres.NewTable[notifications.Notification](txm, "notifications", notifications.EntityNotification)}
}

func (r *NotificationRepo) Create(ctx context.Context, n *notifications.Notification) error {
	return r.table.Insert(ctx, n)
}

func (r *NotificationRepo) ListForRecipient(ctx context.Context, recipientID id.ID, unreadOnly bool, limit int) ([]notifications.Notification, error) {
	q := r.table.Select().Where(squirrel.Eq{"recipient_id": recipientID})
	if unreadOnly {
		q = q.Where(squirrel.Eq{"is_read": false})
	}
	q = q.OrderBy("created_at DESC", "id DESC")
	if limit > 0 {
		q = q.Limit(uint64(limit))
	}
	items, err := r.table.All(ctx, q)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []notifications.Notification{}
	}
	return items, nil
}

// MarkRead flags ids as read. Ids addressed to someone else are skipped.
// An empty ids marks everything of the recipient.
func (r *NotificationRepo) MarkRead(ctx context.Context, recipientID id.ID, ids []id.ID) (int64, error) {
	q := postgres.Builder().
		Update("notifications").
		Set("is_read", true).
		Where(squirrel.Eq{"recipient_id": recipientID}).
		Where(squirrel.Eq{"is_read": false})
	if len(ids) > 0 {
		q = q.Where(squirrel.Eq{"id": ids})
	}
	sql, args, err := q.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build update: %w", err)
	}
	tag, err := r.table.Querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return 0, fmt.Errorf("mark notifications read: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *NotificationRepo) CountUnread(ctx context.Context, recipientID id.ID) (int64, error) {
	return r.table.Count(ctx, postgres.Builder().
		Select("id").From("notifications").
		Where(squirrel.Eq{"recipient_id": recipientID, "is_read": false}))
}

// PurgeRead deletes read notifications created before cutoff.
func (r *NotificationRepo) PurgeRead(ctx context.Context, cutoff time.Time) (int64, error) {
	sql, args, err := postgres.Builder().
		Delete("notifications").
		Where(squirrel.Eq{"is_read": true}).
		Where(squirrel.Lt{"created_at": cutoff}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build delete: %w", err)
	}
	tag, err := r.table.Querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return 0, fmt.Errorf("purge notifications: %w", err)
	}
	return tag.RowsAffected(), nil
}

var _ notifications.NotificationRepository = (*NotificationRepo)(nil)
