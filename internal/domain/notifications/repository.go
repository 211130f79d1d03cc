package notifications

import (
	"context"

	"github.com/abbakari/works/internal/core/id"
	"github.com/abbakari/works/internal/domain"
)

// NotificationRepository stores workflow notifications.
type NotificationRepository interface {
	Create(ctx context.Context, n *Notification) error
	// ListForRecipient returns notifications newest first.
	ListForRecipient(ctx context.Context, recipientID id.ID, unreadOnly bool, limit int) ([]Notification, error)
	// MarkRead flags the given notifications (all when ids is empty) of
	// recipientID as read and returns how many changed.
	MarkRead(ctx context.Context, recipientID id.ID, ids []id.ID) (int64, error)
	CountUnread(ctx context.Context, recipientID id.ID) (int64, error)
}

// MessageRepository stores messages.
type MessageRepository interface {
	Create(ctx context.Context, m *Message) error
	GetByID(ctx context.Context, messageID id.ID) (*Message, error)
	Update(ctx context.Context, m *Message) error
	Inbox(ctx context.Context, userID id.ID, filter domain.ListFilter) (domain.ListResult[Message], error)
	Sent(ctx context.Context, userID id.ID, filter domain.ListFilter) (domain.ListResult[Message], error)
	CountUnread(ctx context.Context, userID id.ID) (int64, error)
}

// Directory answers questions about users.
type Directory interface {
	ManagerOf(ctx context.Context, userID id.ID) (*id.ID, error)
	IsActiveUser(ctx context.Context, userID id.ID) (bool, error)
}
