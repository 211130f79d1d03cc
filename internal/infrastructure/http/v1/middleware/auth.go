package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/abbakari/works/internal/core/apperror"
	appctx "github.com/abbakari/works/internal/core/context"
	"github.com/abbakari/works/internal/core/security"
	"github.com/abbakari/works/internal/domain/auth"
)

// TokenValidator resolves a bearer token to an active user.
type TokenValidator interface {
	ValidateAccessToken(ctx context.Context, raw string) (*auth.User, error)
}

// Auth validates the bearer token and populates the user context.
// Tokens of deactivated users are rejected by the validator.
func Auth(validator TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, ok := bearerToken(c)
		if !ok {
			abortUnauthorized(c, "missing or malformed authorization header")
			return
		}

		user, err := validator.ValidateAccessToken(c.Request.Context(), raw)
		if err != nil {
			if apperror.IsAppError(err) {
				_ = c.Error(err)
			} else {
				_ = c.Error(apperror.NewUnauthorized("invalid token"))
			}
			c.Abort()
			return
		}

		uc := &appctx.UserContext{
			UserID: user.ID.String(),
			Email:  user.Email,
			Role:   string(user.Role),
		}
		if user.ManagerID != nil {
			uc.ManagerID = user.ManagerID.String()
		}
		c.Request = c.Request.WithContext(appctx.WithUser(c.Request.Context(), uc))
		c.Set("user_id", uc.UserID)
		c.Set("role", uc.Role)

		c.Next()
	}
}

// RequireRole lets the request through only for the listed roles.
func RequireRole(roles ...security.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := appctx.GetUser(c.Request.Context())
		if user == nil {
			abortUnauthorized(c, "authentication required")
			return
		}

		role := security.ParseRole(user.Role)
		for _, r := range roles {
			if r == role {
				c.Next()
				return
			}
		}
		_ = c.Error(
			apperror.NewForbidden("insufficient permissions").
				WithDetail("required_roles", roles),
		)
		c.Abort()
	}
}

func bearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", false
	}
	return strings.TrimSpace(parts[1]), true
}

func abortUnauthorized(c *gin.Context, message string) {
	_ = c.Error(apperror.NewUnauthorized(message))
	c.Abort()
}
