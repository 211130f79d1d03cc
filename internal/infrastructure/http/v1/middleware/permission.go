// Package middleware provides HTTP middleware for the API.
package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/abbakari/works/internal/core/apperror"
	"github.com/abbakari/works/internal/core/security"
)

// RequirePermission rejects the request unless the caller's role holds
// resource:action. Record level visibility is still checked by the services.
func RequirePermission(perms *security.Resolver, res security.Resource, act security.Action) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, err := security.ActorFromContext(c.Request.Context())
		if err != nil {
			_ = c.Error(err)
			c.Abort()
			return
		}
		if err := actor.Require(perms, res, act); err != nil {
			_ = c.Error(err)
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireAnyPermission passes when the role holds at least one of caps.
func RequireAnyPermission(perms *security.Resolver, caps ...security.Capability) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, err := security.ActorFromContext(c.Request.Context())
		if err != nil {
			_ = c.Error(err)
			c.Abort()
			return
		}
		for _, cp := range caps {
			if perms.HasPermission(actor.Role, cp.Resource, cp.Action) {
				c.Next()
				return
			}
		}

		required := make([]string, len(caps))
		for i, cp := range caps {
			required[i] = cp.String()
		}
		_ = c.Error(
			apperror.NewForbidden("insufficient permissions").
				WithDetail("required_permissions", required),
		)
		c.Abort()
	}
}
