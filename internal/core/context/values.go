// Package context carries the authenticated caller and trace ids through a request.
package context

import "context"

type valueKey int

const (
	userKey valueKey = iota
	traceKey
)

// UserContext is the caller as seen by the auth middleware.
type UserContext struct {
	UserID string
	Email  string
	Role   string
	// ManagerID is empty when the user reports to nobody.
	ManagerID string
	SessionID string
}

// TraceContext identifies one inbound request.
type TraceContext struct {
	TraceID   string
	RequestID string
}

func WithUser(ctx context.Context, u *UserContext) context.Context {
	return context.WithValue(ctx, userKey, u)
}

// GetUser returns the caller or nil for anonymous requests.
func GetUser(ctx context.Context) *UserContext {
	u, _ := ctx.Value(userKey).(*UserContext)
	return u
}

// GetUserID is GetUser(ctx).UserID, or "" for anonymous requests.
func GetUserID(ctx context.Context) string {
	if u := GetUser(ctx); u != nil {
		return u.UserID
	}
	return ""
}

func WithTrace(ctx context.Context, t *TraceContext) context.Context {
	return context.WithValue(ctx, traceKey, t)
}

func GetTrace(ctx context.Context) *TraceContext {
	t, _ := ctx.Value(traceKey).(*TraceContext)
	return t
}

func GetRequestID(ctx context.Context) string {
	if t := GetTrace(ctx); t != nil {
		return t.RequestID
	}
	return ""
}
