package notification_repo

import (
	"context"

	"github.com/Masterminds/squirrel"

	"github.com/abbakari/works/internal/core/id"
	"github.com/abbakari/works/internal/domain"
	"github.com/abbakari/works/internal/domain/notifications"
	"github.com/abbakari/works/internal/infrastructure/storage/postgres"
)

var messageOrder = map[string]bool{"created_at": true, "updated_at": true, "priority": true, "status": true, "subject": true}

// MessageRepo implements notifications.MessageRepository.
type MessageRepo struct {
	table *postgres.Table[notifications.Message]
}

// NewMessageRepo creates a message repository.
func NewMessageRepo(txm *postgres.TxManager) *MessageRepo {
	return &MessageRepo{table: postgres.NewTable[notifications.Message](txm, "messages", notifications.EntityMessage)}
}

func (r *MessageRepo) Create(ctx context.Context, m *notifications.Message) error {
	return r.table.Insert(ctx, m)
}

func (r *MessageRepo) GetByID(ctx context.Context, messageID id.ID) (*notifications.Message, error) {
	return r.table.GetByID(ctx, messageID, false)
}

// Update writes m guarded by its version.
func (r *MessageRepo) Update(ctx context.Context, m *notifications.Message) error {
	if err := r.table.Update(ctx, m); err != nil {
		return err
	}
	m.Version++
	return nil
}

func (r *MessageRepo) Inbox(ctx context.Context, userID id.ID, filter domain.ListFilter) (domain.ListResult[notifications.Message], error) {
	return r.page(ctx, "to_user_id", userID, filter)
}

func (r *MessageRepo) Sent(ctx context.Context, userID id.ID, filter domain.ListFilter) (domain.ListResult[notifications.Message], error) {
	return r.page(ctx, "from_user_id", userID, filter)
}

func (r *MessageRepo) page(ctx context.Context, col string, userID id.ID, filter domain.ListFilter) (domain.ListResult[notifications.Message], error) {
	q := r.table.Select().Where(squirrel.Eq{col: userID})
	if filter.Search != "" {
		q = q.Where(postgres.Search(filter.Search, "subject", "body"))
	}
	return r.table.Page(ctx, q, filter, filter.OrderClause(messageOrder, "created_at DESC"))
}

func (r *MessageRepo) CountUnread(ctx context.Context, userID id.ID) (int64, error) {
	return r.table.Count(ctx, postgres.Builder().
		Select("id").From("messages").
		Where(squirrel.Eq{"to_user_id": userID, "is_read": false}))
}

var _ notifications.MessageRepository = (*MessageRepo)(nil)
