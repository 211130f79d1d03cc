package dto

import (
	"github.com/abbakari/works/internal/core/id"
	"github.com/abbakari/works/internal/domain/notifications"
)

// MarkNotificationsReadRequest marks the listed notifications, or all when empty.
type MarkNotificationsReadRequest struct {
	IDs []string `json:"ids" binding:"omitempty,dive,uuid"`
}

// ParseIDs converts the id list.
func (r *MarkNotificationsReadRequest) ParseIDs() ([]id.ID, error) {
	out := make([]id.ID, 0, len(r.IDs))
	for _, s := range r.IDs {
		v, err := parseID(s, "ids")
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// SendMessageRequest sends a direct message.
type SendMessageRequest struct {
	ToUserID string `json:"toUserId" binding:"required,uuid"`
	Subject  string `json:"subject" binding:"required"`
	Message  string `json:"message" binding:"required"`
	Priority string `json:"priority"`
	Category string `json:"category"`
}

// ToInput converts to the service input.
func (r *SendMessageRequest) ToInput() (notifications.SendInput, error) {
	to, err := parseID(r.ToUserID, "toUserId")
	if err != nil {
		return notifications.SendInput{}, err
	}
	return notifications.SendInput{
		ToID:     to,
		Subject:  r.Subject,
		Body:     r.Message,
		Priority: notifications.Priority(r.Priority),
		Category: notifications.Category(r.Category),
	}, nil
}

// ReplyRequest answers a message.
type ReplyRequest struct {
	Message string `json:"message" binding:"required"`
}

// MessageStatusRequest changes the conversation status.
type MessageStatusRequest struct {
	Status string `json:"status" binding:"required"`
}
