package workflow

import (
	"context"

	"github.com/abbakari/works/internal/core/id"
	"github.com/abbakari/works/internal/core/security"
	"github.com/abbakari/works/internal/domain"
)

// Repository persists workflow items and comments.
type Repository interface {
	Create(ctx context.Context, item *Item) error
	GetByID(ctx context.Context, itemID id.ID) (*Item, error)
	GetForUpdate(ctx context.Context, itemID id.ID) (*Item, error)
	Update(ctx context.Context, item *Item) error
	List(ctx context.Context, scope security.Scope, filter domain.ListFilter) (domain.ListResult[Item], error)
	Dashboard(ctx context.Context, scope security.Scope) (*Dashboard, error)

	AddComment(ctx context.Context, c *Comment) error
	// ListComments returns comments oldest first.
	ListComments(ctx context.Context, itemID id.ID) ([]Comment, error)
}

// CommentNotifier is told about new comments inside the transaction.
type CommentNotifier interface {
	OnComment(ctx context.Context, item *Item, c *Comment) error
}

type nopCommentNotifier struct{}

func (nopCommentNotifier) OnComment(context.Context, *Item, *Comment) error { return nil }
