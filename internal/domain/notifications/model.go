// Package notifications stores in-app workflow notifications and user to
// user messages. Delivery outside the application is not handled here.
package notifications

import (
	"strings"
	"time"

	"github.com/abbakari/works/internal/core/apperror"
	"github.com/abbakari/works/internal/core/id"
	"github.com/abbakari/works/internal/core/security"
)

// Entity names used in errors.
const (
	EntityNotification = "notification"
	EntityMessage      = "message"
)

// Type classifies a workflow notification.
type Type string

const (
	TypeSubmission         Type = "submission"
	TypeReview             Type = "review"
	TypeApproval           Type = "approval"
	TypeRejection          Type = "rejection"
	TypeComment            Type = "comment"
	TypeFollowBack         Type = "follow_back"
	TypeSupplyChainRequest Type = "supply_chain_request"
)

// Notification is an in-app alert about a record.
type Notification struct {
	ID          id.ID         `db:"id" json:"id"`
	RecipientID id.ID         `db:"recipient_id" json:"recipientId"`
	FromUserID  id.ID         `db:"from_user_id" json:"fromUserId"`
	FromRole    security.Role `db:"from_role" json:"fromRole"`
	Type        Type          `db:"type" json:"type"`
	Title       string        `db:"title" json:"title"`
	Message     string        `db:"message" json:"message"`
	RecordKind  string        `db:"record_kind" json:"recordKind"`
	RecordID    id.ID         `db:"record_id" json:"recordId"`
	IsRead      bool          `db:"is_read" json:"read"`
	CreatedAt   time.Time     `db:"created_at" json:"timestamp"`
}

// Priority of a message.
type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

// Category of a message.
type Category string

const (
	CategoryStockRequest    Category = "stock_request"
	CategoryBudgetApproval  Category = "budget_approval"
	CategoryForecastInquiry Category = "forecast_inquiry"
	CategorySupplyChain     Category = "supply_chain"
	CategoryGeneral         Category = "general"
	CategorySystemAlert     Category = "system_alert"
)

// MessageStatus tracks a conversation.
type MessageStatus string

const (
	MessagePending   MessageStatus = "pending"
	MessageResponded MessageStatus = "responded"
	MessageResolved  MessageStatus = "resolved"
	MessageEscalated MessageStatus = "escalated"
)

var (
	priorities = map[Priority]bool{PriorityLow: true, PriorityMedium: true, PriorityHigh: true, PriorityCritical: true}
	categories = map[Category]bool{
		CategoryStockRequest: true, CategoryBudgetApproval: true, CategoryForecastInquiry: true,
		CategorySupplyChain: true, CategoryGeneral: true, CategorySystemAlert: true,
	}
	statuses = map[MessageStatus]bool{MessagePending: true, MessageResponded: true, MessageResolved: true, MessageEscalated: true}
)

// Message is a direct message between two users.
type Message struct {
	ID        id.ID         `db:"id" json:"id"`
	FromID    id.ID         `db:"from_user_id" json:"fromUserId"`
	ToID      id.ID         `db:"to_user_id" json:"toUserId"`
	Subject   string        `db:"subject" json:"subject"`
	Body      string        `db:"body" json:"message"`
	Priority  Priority      `db:"priority" json:"priority"`
	Category  Category      `db:"category" json:"category"`
	Status    MessageStatus `db:"status" json:"status"`
	IsRead    bool          `db:"is_read" json:"isRead"`
	ReplyToID *id.ID        `db:"reply_to_id" json:"replyTo,omitempty"`
	CreatedAt time.Time     `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time     `db:"updated_at" json:"updatedAt"`
	Version   int           `db:"version" json:"version"`
}

// Validate checks required fields and enums.
func (m *Message) Validate() error {
	if strings.TrimSpace(m.Subject) == "" {
		return apperror.NewValidation("subject is required").WithDetail("field", "subject")
	}
	if strings.TrimSpace(m.Body) == "" {
		return apperror.NewValidation("message is required").WithDetail("field", "message")
	}
	if m.FromID == m.ToID {
		return apperror.NewValidation("can not send a message to yourself").WithDetail("field", "toUserId")
	}
	if !priorities[m.Priority] {
		return apperror.NewValidation("unknown priority").WithDetail("value", m.Priority)
	}
	if !categories[m.Category] {
		return apperror.NewValidation("unknown category").WithDetail("value", m.Category)
	}
	if !statuses[m.Status] {
		return apperror.NewValidation("unknown status").WithDetail("value", m.Status)
	}
	return nil
}

// Involves reports whether user is the sender or the recipient.
func (m *Message) Involves(user id.ID) bool {
	return m.FromID == user || m.ToID == user
}

// UnreadCounts is the badge shown in the header bar.
type UnreadCounts struct {
	Notifications int64 `json:"notifications"`
	Messages      int64 `json:"messages"`
}

// Total sums both counters.
func (u UnreadCounts) Total() int64 { return u.Notifications + u.Messages }
