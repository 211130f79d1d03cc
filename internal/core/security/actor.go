package security

import (
	"context"

	"github.com/abbakari/works/internal/core/apperror"
	appctx "github.com/abbakari/works/internal/core/context"
	"github.com/abbakari/works/internal/core/id"
)

// Actor is the authenticated user performing an operation.
type Actor struct {
	ID        id.ID
	Role      Role
	ManagerID *id.ID
}

// ActorFromContext builds an Actor from the request user set by the auth middleware.
func ActorFromContext(ctx context.Context) (Actor, error) {
	u := appctx.GetUser(ctx)
	if u == nil {
		return Actor{}, apperror.NewUnauthorized("authentication required")
	}
	uid, err := id.Parse(u.UserID)
	if err != nil {
		return Actor{}, apperror.NewUnauthorized("invalid user id in token")
	}
	mgr, err := id.ParseOptional(u.ManagerID)
	if err != nil {
		return Actor{}, apperror.NewUnauthorized("invalid manager id in token")
	}
	return Actor{ID: uid, Role: ParseRole(u.Role), ManagerID: mgr}, nil
}

// Require returns Forbidden unless the actor's role holds the capability.
func (a Actor) Require(r *Resolver, res Resource, act Action) error {
	if r.HasPermission(a.Role, res, act) {
		return nil
	}
	return apperror.NewForbidden("insufficient permissions").
		WithDetail("required_permission", Cap(res, act).String()).
		WithDetail("role", string(a.Role))
}
