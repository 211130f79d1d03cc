package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/abbakari/works/internal/core/security"
	"github.com/abbakari/works/internal/domain/auth"
	"github.com/abbakari/works/internal/infrastructure/http/v1/dto"
)

// AuthHandler handles authentication and access-check endpoints.
type AuthHandler struct {
	*BaseHandler
	service *auth.Service
	perms   *security.Resolver
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(base *BaseHandler, service *auth.Service, perms *security.Resolver) *AuthHandler {
	return &AuthHandler{BaseHandler: base, service: service, perms: perms}
}

// Login handles POST /auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if !h.BindJSON(c, &req) {
		return
	}

	tokens, user, err := h.service.Login(c.Request.Context(), req.ToCredentials())
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.LoginResponse{
		Tokens: dto.FromTokenPair(tokens),
		User:   dto.FromUser(user),
		Access: dto.NewAccessResponse(h.perms, user.Role),
	})
}

// Refresh handles POST /auth/refresh
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req dto.RefreshTokenRequest
	if !h.BindJSON(c, &req) {
		return
	}

	tokens, err := h.service.RefreshToken(c.Request.Context(), req.RefreshToken)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromTokenPair(tokens))
}

// Register handles POST /auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if !h.BindJSON(c, &req) {
		return
	}
	in, err := req.ToAuthRequest()
	if err != nil {
		h.Error(c, err)
		return
	}

	user, err := h.service.Register(c.Request.Context(), in)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, dto.FromUser(user))
}

// Logout handles POST /auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	if err := h.service.Logout(c.Request.Context(), actor.ID); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}

// Me handles GET /auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	user, err := h.service.Me(c.Request.Context(), actor.ID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, gin.H{
		"user":   dto.FromUser(user),
		"access": dto.NewAccessResponse(h.perms, user.Role),
	})
}

// ChangePassword handles POST /auth/change-password
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	var req dto.ChangePasswordRequest
	if !h.BindJSON(c, &req) {
		return
	}
	if err := h.service.ChangePassword(c.Request.Context(), actor.ID, req.CurrentPassword, req.NewPassword); err != nil {
		h.Error(c, err)
		return
	}
	h.Success(c, "password changed")
}

// Permissions handles GET /auth/permissions
func (h *AuthHandler) Permissions(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	h.OK(c, dto.NewAccessResponse(h.perms, actor.Role))
}

// CheckPermission handles POST /auth/check-permission
func (h *AuthHandler) CheckPermission(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	var req dto.CheckPermissionRequest
	if !h.BindJSON(c, &req) {
		return
	}
	allowed := h.perms.HasPermission(actor.Role, security.Resource(req.Resource), security.Action(req.Action))
	h.OK(c, dto.CheckResponse{Allowed: allowed})
}

// CheckDashboard handles POST /auth/check-dashboard
func (h *AuthHandler) CheckDashboard(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	var req dto.CheckDashboardRequest
	if !h.BindJSON(c, &req) {
		return
	}
	h.OK(c, dto.CheckResponse{Allowed: h.perms.CanAccessDashboard(actor.Role, security.Dashboard(req.Dashboard))})
}

// RegisterRoutes registers auth routes. register must already require the admin role.
func (h *AuthHandler) RegisterRoutes(public, protected *gin.RouterGroup, adminOnly gin.HandlerFunc) {
	public.POST("/login", h.Login)
	public.POST("/refresh", h.Refresh)

	protected.POST("/register", adminOnly, h.Register)
	protected.POST("/logout", h.Logout)
	protected.GET("/me", h.Me)
	protected.POST("/change-password", h.ChangePassword)
	protected.GET("/permissions", h.Permissions)
	protected.POST("/check-permission", h.CheckPermission)
	protected.POST("/check-dashboard", h.CheckDashboard)
}
