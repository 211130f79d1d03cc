package v1

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abbakari/works/internal/core/apperror"
	"github.com/abbakari/works/internal/core/entity"
	"github.com/abbakari/works/internal/core/id"
	"github.com/abbakari/works/internal/core/security"
	"github.com/abbakari/works/internal/domain/audit"
	"github.com/abbakari/works/internal/domain/auth"
	"github.com/abbakari/works/internal/domain/budgets"
	"github.com/abbakari/works/internal/infrastructure/metrics"
	"github.com/abbakari/works/pkg/logger"
)

type pinger struct{ err error }

func (p pinger) Ping(context.Context) error { return p.err }

type tokens map[string]*auth.User

func (t tokens) ValidateAccessToken(_ context.Context, raw string) (*auth.User, error) {
	if u, ok := t[raw]; ok {
		return u, nil
	}
	return nil, apperror.NewUnauthorized("invalid token")
}

func newTestRouter(t *testing.T, db pinger) (http.Handler, *audit.Trail) {
	t.Helper()
	trail := audit.NewTrail(audit.NewMemoryRepository())
	r := NewRouter(RouterConfig{
		Logger:  logger.NewNop(),
		DB:      db,
		Metrics: metrics.New(),
		Perms:   security.NewResolver(security.DefaultPolicy()),
		TokenValidator: tokens{
			"admin": {ID: id.New(), Role: security.RoleAdmin, IsActive: true},
			"mgr":   {ID: id.New(), Role: security.RoleManager, IsActive: true},
		},
		Audit:   trail,
		Version: "test",
	})
	return r, trail
}

func serve(h http.Handler, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestRouter_Health(t *testing.T) {
	r, _ := newTestRouter(t, pinger{})
	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/health", "").Code)
	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/ready", "").Code)

	down, _ := newTestRouter(t, pinger{err: errors.New("connection refused")})
	assert.Equal(t, http.StatusServiceUnavailable, serve(down, http.MethodGet, "/ready", "").Code)
}

func TestRouter_Metrics(t *testing.T) {
	r, _ := newTestRouter(t, pinger{})
	serve(r, http.MethodGet, "/health", "")

	w := serve(r, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), "works_http_requests_total"))
}

func TestRouter_AuditHistory(t *testing.T) {
	r, trail := newTestRouter(t, pinger{})

	budgetID := id.New()
	_, err := trail.Append(context.Background(), audit.Change{
		EntityType: budgets.EntityType,
		EntityID:   budgetID,
		Action:     audit.ActionCreated,
		To:         entity.StatusDraft,
		Actor:      security.Actor{ID: id.New(), Role: security.RoleSalesman},
	})
	require.NoError(t, err)

	path := "/api/v1/audit/" + budgets.EntityType + "/" + budgetID.String()

	assert.Equal(t, http.StatusUnauthorized, serve(r, http.MethodGet, path, "").Code)
	assert.Equal(t, http.StatusForbidden, serve(r, http.MethodGet, path, "mgr").Code)

	w := serve(r, http.MethodGet, path, "admin")
	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Items []audit.Entry `json:"items"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Items, 1)
	assert.Equal(t, audit.ActionCreated, body.Items[0].Action)

	w = serve(r, http.MethodGet, "/api/v1/audit/invoice/"+budgetID.String(), "admin")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = serve(r, http.MethodGet, "/api/v1/audit/"+budgets.EntityType+"/not-a-uuid", "admin")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
