package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/abbakari/works/internal/core/id"
	"github.com/abbakari/works/internal/core/security"
	"github.com/abbakari/works/internal/domain/auth"
	"github.com/abbakari/works/internal/infrastructure/http/v1/dto"
)

// UserHandler serves user administration. All routes are admin only.
type UserHandler struct {
	*BaseHandler
	service *auth.Service
}

// NewUserHandler creates a user handler.
func NewUserHandler(base *BaseHandler, service *auth.Service) *UserHandler {
	return &UserHandler{BaseHandler: base, service: service}
}

// List handles GET /users
func (h *UserHandler) List(c *gin.Context) {
	var q dto.UserListQuery
	if !h.BindQuery(c, &q) {
		return
	}
	f, err := q.ToFilter()
	if err != nil {
		h.Error(c, err)
		return
	}
	users, total, err := h.service.ListUsers(c.Request.Context(), f)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, gin.H{
		"items":      dto.FromUsers(users),
		"totalCount": total,
	})
}

// Get handles GET /users/:id
func (h *UserHandler) Get(c *gin.Context) {
	userID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	user, err := h.service.GetUser(c.Request.Context(), userID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromUser(user))
}

// Reports handles GET /users/:id/reports
func (h *UserHandler) Reports(c *gin.Context) {
	userID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	users, err := h.service.Reports(c.Request.Context(), userID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, gin.H{"items": dto.FromUsers(users)})
}

// Activate handles POST /users/:id/activate
func (h *UserHandler) Activate(c *gin.Context) {
	h.mutate(c, func(c *gin.Context, _ security.Actor, userID id.ID) (*auth.User, error) {
		return h.service.Activate(c.Request.Context(), userID)
	})
}

// Deactivate handles POST /users/:id/deactivate
func (h *UserHandler) Deactivate(c *gin.Context) {
	h.mutate(c, func(c *gin.Context, actor security.Actor, userID id.ID) (*auth.User, error) {
		return h.service.Deactivate(c.Request.Context(), actor, userID)
	})
}

// ChangeRole handles POST /users/:id/change-role
func (h *UserHandler) ChangeRole(c *gin.Context) {
	var req dto.ChangeRoleRequest
	if !h.BindJSON(c, &req) {
		return
	}
	h.mutate(c, func(c *gin.Context, actor security.Actor, userID id.ID) (*auth.User, error) {
		return h.service.ChangeRole(c.Request.Context(), actor, userID, security.ParseRole(req.Role))
	})
}

// SetManager handles POST /users/:id/set-manager
func (h *UserHandler) SetManager(c *gin.Context) {
	var req dto.SetManagerRequest
	if !h.BindJSON(c, &req) {
		return
	}
	managerID, err := id.ParseOptional(req.ManagerID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.mutate(c, func(c *gin.Context, _ security.Actor, userID id.ID) (*auth.User, error) {
		return h.service.SetManager(c.Request.Context(), userID, managerID)
	})
}

// ResetPassword handles POST /users/:id/reset-password
func (h *UserHandler) ResetPassword(c *gin.Context) {
	var req dto.ResetPasswordRequest
	if !h.BindJSON(c, &req) {
		return
	}
	h.mutate(c, func(c *gin.Context, _ security.Actor, userID id.ID) (*auth.User, error) {
		return h.service.ResetPassword(c.Request.Context(), userID, req.Password)
	})
}

func (h *UserHandler) mutate(c *gin.Context, fn func(*gin.Context, security.Actor, id.ID) (*auth.User, error)) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	userID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	user, err := fn(c, actor, userID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromUser(user))
}

// RegisterRoutes registers user administration routes on an admin-only group.
func (h *UserHandler) RegisterRoutes(g *gin.RouterGroup) {
	g.GET("", h.List)
	g.GET("/:id", h.Get)
	g.GET("/:id/reports", h.Reports)
	g.POST("/:id/activate", h.Activate)
	g.POST("/:id/deactivate", h.Deactivate)
	g.POST("/:id/change-role", h.ChangeRole)
	g.POST("/:id/set-manager", h.SetManager)
	g.POST("/:id/reset-password", h.ResetPassword)
}
