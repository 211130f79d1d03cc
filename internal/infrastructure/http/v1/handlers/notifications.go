package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/abbakari/works/internal/domain/notifications"
	"github.com/abbakari/works/internal/infrastructure/http/v1/dto"
)

// NotificationHandler serves in-app notifications and direct messages.
type NotificationHandler struct {
	*BaseHandler
	service *notifications.Service
}

// NewNotificationHandler creates a notification handler.
func NewNotificationHandler(base *BaseHandler, service *notifications.Service) *NotificationHandler {
	return &NotificationHandler{BaseHandler: base, service: service}
}

// Notifications handles GET /notifications
func (h *NotificationHandler) Notifications(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	unreadOnly := c.Query("unread") == "true"
	list, err := h.service.Notifications(c.Request.Context(), actor, unreadOnly, h.ParseIntQuery(c, "limit", notifications.DefaultLimit))
	if err != nil {
		h.Error(c, err)
		return
	}
	if list == nil {
		list = []notifications.Notification{}
	}
	h.OK(c, gin.H{"items": list})
}

// MarkNotificationsRead handles POST /notifications/read
func (h *NotificationHandler) MarkNotificationsRead(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	var req dto.MarkNotificationsReadRequest
	if !h.BindOptionalJSON(c, &req) {
		return
	}
	ids, err := req.ParseIDs()
	if err != nil {
		h.Error(c, err)
		return
	}
	n, err := h.service.MarkNotificationsRead(c.Request.Context(), actor, ids)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, gin.H{"updated": n})
}

// UnreadCount handles GET /notifications/unread-count
func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	counts, err := h.service.UnreadCount(c.Request.Context(), actor)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, gin.H{
		"notifications": counts.Notifications,
		"messages":      counts.Messages,
		"total":         counts.Total(),
	})
}

// Send handles POST /messages
func (h *NotificationHandler) Send(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	var req dto.SendMessageRequest
	if !h.BindJSON(c, &req) {
		return
	}
	in, err := req.ToInput()
	if err != nil {
		h.Error(c, err)
		return
	}
	m, err := h.service.Send(c.Request.Context(), actor, in)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, m)
}

// Inbox handles GET /messages/inbox
func (h *NotificationHandler) Inbox(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	f, ok := h.ListFilter(c)
	if !ok {
		return
	}
	res, err := h.service.Inbox(c.Request.Context(), actor, f)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromListResult(res))
}

// Sent handles GET /messages/sent
func (h *NotificationHandler) Sent(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	f, ok := h.ListFilter(c)
	if !ok {
		return
	}
	res, err := h.service.Sent(c.Request.Context(), actor, f)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromListResult(res))
}

// GetMessage handles GET /messages/:id
func (h *NotificationHandler) GetMessage(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	messageID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	m, err := h.service.Get(c.Request.Context(), actor, messageID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, m)
}

// MarkRead handles POST /messages/:id/read
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	messageID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	m, err := h.service.MarkRead(c.Request.Context(), actor, messageID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, m)
}

// Reply handles POST /messages/:id/reply
func (h *NotificationHandler) Reply(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	messageID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	var req dto.ReplyRequest
	if !h.BindJSON(c, &req) {
		return
	}
	m, err := h.service.Reply(c.Request.Context(), actor, messageID, req.Message)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, m)
}

// SetStatus handles POST /messages/:id/status
func (h *NotificationHandler) SetStatus(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	messageID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	var req dto.MessageStatusRequest
	if !h.BindJSON(c, &req) {
		return
	}
	m, err := h.service.SetStatus(c.Request.Context(), actor, messageID, notifications.MessageStatus(req.Status))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, m)
}

// RegisterRoutes registers notification and message routes.
func (h *NotificationHandler) RegisterRoutes(notes, messages *gin.RouterGroup) {
	notes.GET("", h.Notifications)
	notes.POST("/read", h.MarkNotificationsRead)
	notes.GET("/unread-count", h.UnreadCount)

	messages.POST("", h.Send)
	messages.GET("/inbox", h.Inbox)
	messages.GET("/sent", h.Sent)
	messages.GET("/:id", h.GetMessage)
	messages.POST("/:id/read", h.MarkRead)
	messages.POST("/:id/reply", h.Reply)
	messages.POST("/:id/status", h.SetStatus)
}
