package notifications

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/abbakari/works/internal/core/apperror"
	"github.com/abbakari/works/internal/core/entity"
	"github.com/abbakari/works/internal/core/id"
	"github.com/abbakari/works/internal/core/security"
	"github.com/abbakari/works/internal/core/tx"
	"github.com/abbakari/works/internal/domain"
	"github.com/abbakari/works/internal/domain/lifecycle"
	"github.com/abbakari/works/internal/domain/workflow"
	"github.com/abbakari/works/pkg/logger"
)

// DefaultLimit caps notification reads.
const DefaultLimit = 50

// Service stores notifications and messages.
type Service struct {
	notes    NotificationRepository
	messages MessageRepository
	dir      Directory
	txm      tx.Manager
	now      func() time.Time
}

// NewService creates a notification service.
func NewService(notes NotificationRepository, messages MessageRepository, dir Directory, txm tx.Manager) *Service {
	return &Service{notes: notes, messages: messages, dir: dir, txm: txm, now: time.Now}
}

var (
	_ lifecycle.Notifier       = (*Service)(nil)
	_ workflow.CommentNotifier = (*Service)(nil)
)

// OnTransition implements lifecycle.Notifier. A submission notifies the
// owner's manager; every later step notifies the owner.
func (s *Service) OnTransition(ctx context.Context, ev lifecycle.Event) error {
	var (
		recipient *id.ID
		typ       Type
		title     string
	)
	switch ev.To {
	case entity.StatusSubmitted:
		mgr, err := s.dir.ManagerOf(ctx, ev.OwnerID)
		if err != nil {
			return fmt.Errorf("resolve manager: %w", err)
		}
		recipient, typ, title = mgr, TypeSubmission, "Submitted for approval"
	case entity.StatusInReview:
		recipient, typ, title = id.Ptr(ev.OwnerID), TypeReview, "Review started"
	case entity.StatusApproved:
		recipient, typ, title = id.Ptr(ev.OwnerID), TypeApproval, "Approved"
	case entity.StatusRejected:
		recipient, typ, title = id.Ptr(ev.OwnerID), TypeRejection, "Rejected"
	case entity.StatusForwarded:
		recipient, typ, title = id.Ptr(ev.OwnerID), TypeSupplyChainRequest, "Sent to supply chain"
	default:
		return nil
	}
	if recipient == nil || *recipient == ev.Actor.ID {
		return nil
	}

	msg := ev.Label
	if ev.Comment != "" {
		msg += ": " + ev.Comment
	}
	return s.notify(ctx, &Notification{
		RecipientID: *recipient,
		FromUserID:  ev.Actor.ID,
		FromRole:    ev.Actor.Role,
		Type:        typ,
		Title:       title,
		Message:     msg,
		RecordKind:  string(ev.Kind),
		RecordID:    ev.RecordID,
	})
}

// OnComment implements workflow.CommentNotifier. Comments by others go to
// the owner; comments by the owner go to the owner's manager.
func (s *Service) OnComment(ctx context.Context, item *workflow.Item, c *workflow.Comment) error {
	recipient := id.Ptr(item.CreatedBy)
	typ := TypeComment
	if c.AuthorID == item.CreatedBy {
		mgr, err := s.dir.ManagerOf(ctx, item.CreatedBy)
		if err != nil {
			return fmt.Errorf("resolve manager: %w", err)
		}
		recipient = mgr
	}
	if c.IsFollowBack {
		typ = TypeFollowBack
	}
	if recipient == nil || *recipient == c.AuthorID {
		return nil
	}
	return s.notify(ctx, &Notification{
		RecipientID: *recipient,
		FromUserID:  c.AuthorID,
		FromRole:    c.AuthorRole,
		Type:        typ,
		Title:       "New comment on " + item.Title,
		Message:     c.Message,
		RecordKind:  string(lifecycle.KindWorkflowItem),
		RecordID:    item.ID,
	})
}

func (s *Service) notify(ctx context.Context, n *Notification) error {
	n.ID = id.New()
	n.CreatedAt = s.now().UTC()
	if err := s.notes.Create(ctx, n); err != nil {
		return fmt.Errorf("store notification: %w", err)
	}
	logger.Debug(ctx, "notification stored",
		"recipient_id", n.RecipientID,
		"type", n.Type,
		"record_id", n.RecordID)
	return nil
}

// Notifications returns the caller's notifications, newest first.
func (s *Service) Notifications(ctx context.Context, actor security.Actor, unreadOnly bool, limit int) ([]Notification, error) {
	if limit <= 0 || limit > domain.MaxLimit {
		limit = DefaultLimit
	}
	return s.notes.ListForRecipient(ctx, actor.ID, unreadOnly, limit)
}

// MarkNotificationsRead flags notifications of the caller as read; an empty
// ids list marks all of them.
func (s *Service) MarkNotificationsRead(ctx context.Context, actor security.Actor, ids []id.ID) (int64, error) {
	return s.notes.MarkRead(ctx, actor.ID, ids)
}

// SendInput is a new message.
type SendInput struct {
	ToID     id.ID
	Subject  string
	Body     string
	Priority Priority
	Category Category
}

// Send stores a message from actor.
func (s *Service) Send(ctx context.Context, actor security.Actor, in SendInput) (*Message, error) {
	m := s.newMessage(actor.ID, in)
	if err := m.Validate(); err != nil {
		return nil, err
	}
	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		ok, err := s.dir.IsActiveUser(ctx, m.ToID)
		if err != nil {
			return err
		}
		if !ok {
			return apperror.NewValidation("recipient does not exist").WithDetail("toUserId", m.ToID.String())
		}
		return s.messages.Create(ctx, m)
	})
	if err != nil {
		return nil, err
	}
	logger.Info(ctx, "message sent", "message_id", m.ID, "to", m.ToID, "category", m.Category)
	return m, nil
}

// Get returns a message the caller sent or received.
func (s *Service) Get(ctx context.Context, actor security.Actor, messageID id.ID) (*Message, error) {
	m, err := s.messages.GetByID(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if !m.Involves(actor.ID) {
		return nil, apperror.NewNotFound(EntityMessage, messageID)
	}
	return m, nil
}

// Inbox lists messages received by the caller.
func (s *Service) Inbox(ctx context.Context, actor security.Actor, filter domain.ListFilter) (domain.ListResult[Message], error) {
	return s.messages.Inbox(ctx, actor.ID, filter.Normalize())
}

// Sent lists messages sent by the caller.
func (s *Service) Sent(ctx context.Context, actor security.Actor, filter domain.ListFilter) (domain.ListResult[Message], error) {
	return s.messages.Sent(ctx, actor.ID, filter.Normalize())
}

// MarkRead flags a received message as read.
func (s *Service) MarkRead(ctx context.Context, actor security.Actor, messageID id.ID) (*Message, error) {
	var out *Message
	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		m, err := s.Get(ctx, actor, messageID)
		if err != nil {
			return err
		}
		if m.ToID != actor.ID {
			return apperror.NewForbidden("only the recipient can mark a message as read")
		}
		if m.IsRead {
			out = m
			return nil
		}
		m.IsRead = true
		m.UpdatedAt = s.now().UTC()
		if err := s.messages.Update(ctx, m); err != nil {
			return err
		}
		out = m
		return nil
	})
	return out, err
}

// Reply answers a message. The reply goes to the other participant and
// a reply by the recipient marks the original as responded.
func (s *Service) Reply(ctx context.Context, actor security.Actor, messageID id.ID, body string) (*Message, error) {
	var reply *Message
	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		orig, err := s.Get(ctx, actor, messageID)
		if err != nil {
			return err
		}
		to := orig.FromID
		if actor.ID == orig.FromID {
			to = orig.ToID
		}
		subject := orig.Subject
		if !strings.HasPrefix(subject, "Re: ") {
			subject = "Re: " + subject
		}
		reply = s.newMessage(actor.ID, SendInput{
			ToID: to, Subject: subject, Body: body,
			Priority: orig.Priority, Category: orig.Category,
		})
		reply.ReplyToID = id.Ptr(orig.ID)
		if err := reply.Validate(); err != nil {
			return err
		}
		if err := s.messages.Create(ctx, reply); err != nil {
			return err
		}
		if actor.ID == orig.ToID && orig.Status == MessagePending {
			orig.Status = MessageResponded
			orig.IsRead = true
			orig.UpdatedAt = s.now().UTC()
			return s.messages.Update(ctx, orig)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return reply, nil
}

// SetStatus changes the conversation status; either participant may do it.
func (s *Service) SetStatus(ctx context.Context, actor security.Actor, messageID id.ID, status MessageStatus) (*Message, error) {
	if !statuses[status] {
		return nil, apperror.NewValidation("unknown status").WithDetail("value", status)
	}
	var out *Message
	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		m, err := s.Get(ctx, actor, messageID)
		if err != nil {
			return err
		}
		m.Status = status
		m.UpdatedAt = s.now().UTC()
		if err := s.messages.Update(ctx, m); err != nil {
			return err
		}
		out = m
		return nil
	})
	return out, err
}

// UnreadCount returns unread notification and message counters.
func (s *Service) UnreadCount(ctx context.Context, actor security.Actor) (UnreadCounts, error) {
	var out UnreadCounts
	var err error
	if out.Notifications, err = s.notes.CountUnread(ctx, actor.ID); err != nil {
		return UnreadCounts{}, err
	}
	if out.Messages, err = s.messages.CountUnread(ctx, actor.ID); err != nil {
		return UnreadCounts{}, err
	}
	return out, nil
}

func (s *Service) newMessage(from id.ID, in SendInput) *Message {
	now := s.now().UTC()
	m := &Message{
		ID:        id.New(),
		FromID:    from,
		ToID:      in.ToID,
		Subject:   strings.TrimSpace(in.Subject),
		Body:      strings.TrimSpace(in.Body),
		Priority:  in.Priority,
		Category:  in.Category,
		Status:    MessagePending,
		CreatedAt: now,
		UpdatedAt: now,
		Version:   1,
	}
	if m.Priority == "" {
		m.Priority = PriorityMedium
	}
	if m.Category == "" {
		m.Category = CategoryGeneral
	}
	return m
}
