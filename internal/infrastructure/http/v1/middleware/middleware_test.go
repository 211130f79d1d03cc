package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abbakari/works/internal/core/apperror"
	appctx "github.com/abbakari/works/internal/core/context"
	"github.com/abbakari/works/internal/core/id"
	"github.com/abbakari/works/internal/core/security"
	"github.com/abbakari/works/internal/domain/auth"
)

type stubValidator struct {
	users map[string]*auth.User
}

func (s stubValidator) ValidateAccessToken(_ context.Context, raw string) (*auth.User, error) {
	if u, ok := s.users[raw]; ok {
		return u, nil
	}
	return nil, apperror.NewUnauthorized("invalid token")
}

type errorBody struct {
	Code      string         `json:"code"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details"`
	TraceID   string         `json:"trace_id"`
	RequestID string         `json:"request_id"`
}

func newEngine(mw ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Recovery(), Trace(), ErrorHandler())
	r.Use(mw...)
	return r
}

func do(r http.Handler, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) errorBody {
	t.Helper()
	var body errorBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func testUsers() (stubValidator, *auth.User, *auth.User) {
	mgr := &auth.User{ID: id.New(), Email: "m@example.com", Role: security.RoleManager, IsActive: true}
	sales := &auth.User{ID: id.New(), Email: "s@example.com", Role: security.RoleSalesman, ManagerID: &mgr.ID, IsActive: true}
	return stubValidator{users: map[string]*auth.User{"mgr": mgr, "sales": sales}}, mgr, sales
}

func TestAuth(t *testing.T) {
	v, _, sales := testUsers()
	r := newEngine(Auth(v))
	r.GET("/me", func(c *gin.Context) {
		u := appctx.GetUser(c.Request.Context())
		c.JSON(http.StatusOK, gin.H{"id": u.UserID, "manager": u.ManagerID, "role": c.GetString("role")})
	})

	t.Run("missing header", func(t *testing.T) {
		w := do(r, http.MethodGet, "/me", "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, apperror.CodeUnauthorized, decodeError(t, w).Code)
	})

	t.Run("unknown token", func(t *testing.T) {
		w := do(r, http.MethodGet, "/me", "nope")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("valid token", func(t *testing.T) {
		w := do(r, http.MethodGet, "/me", "sales")
		require.Equal(t, http.StatusOK, w.Code)
		var got map[string]string
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		assert.Equal(t, sales.ID.String(), got["id"])
		assert.Equal(t, sales.ManagerID.String(), got["manager"])
		assert.Equal(t, "salesman", got["role"])
	})
}

func TestRequireRole(t *testing.T) {
	v, _, _ := testUsers()
	r := newEngine(Auth(v), RequireRole(security.RoleManager, security.RoleAdmin))
	r.GET("/team", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	assert.Equal(t, http.StatusNoContent, do(r, http.MethodGet, "/team", "mgr").Code)

	w := do(r, http.MethodGet, "/team", "sales")
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, apperror.CodeForbidden, decodeError(t, w).Code)
}

func TestRequirePermission(t *testing.T) {
	v, _, _ := testUsers()
	perms := security.NewResolver(security.DefaultPolicy())

	r := newEngine(Auth(v))
	r.POST("/budgets", RequirePermission(perms, security.ResourceSalesBudget, security.ActionCreate),
		func(c *gin.Context) { c.Status(http.StatusCreated) })
	r.GET("/audit", RequirePermission(perms, security.ResourceAudit, security.ActionRead),
		func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/approvals", RequireAnyPermission(perms,
		security.Cap(security.ResourceApprovals, security.ActionApprove),
		security.Cap(security.ResourceApprovals, security.ActionManage),
	), func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusCreated, do(r, http.MethodPost, "/budgets", "sales").Code)

	w := do(r, http.MethodGet, "/audit", "mgr")
	require.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "audit:read", decodeError(t, w).Details["required_permission"])

	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/approvals", "mgr").Code)
	assert.Equal(t, http.StatusForbidden, do(r, http.MethodGet, "/approvals", "sales").Code)
}

func TestErrorHandler_InternalErrorHidesCause(t *testing.T) {
	r := newEngine()
	r.GET("/boom", func(c *gin.Context) {
		_ = c.Error(apperror.NewInternal(assert.AnError))
	})
	r.GET("/plain", func(c *gin.Context) {
		_ = c.Error(assert.AnError)
	})

	for _, path := range []string{"/boom", "/plain"} {
		w := do(r, http.MethodGet, path, "")
		require.Equal(t, http.StatusInternalServerError, w.Code, path)
		body := decodeError(t, w)
		assert.Equal(t, apperror.CodeInternal, body.Code)
		assert.NotContains(t, w.Body.String(), assert.AnError.Error())
		assert.NotEmpty(t, body.TraceID)
		assert.Equal(t, w.Header().Get(HeaderRequestID), body.RequestID)
		assert.NotEmpty(t, body.RequestID)
	}
}

func TestRecovery(t *testing.T) {
	r := newEngine()
	r.GET("/panic", func(*gin.Context) { panic("kaboom") })

	w := do(r, http.MethodGet, "/panic", "")
	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, apperror.CodeInternal, decodeError(t, w).Code)
}

func TestTrace_EchoesRequestID(t *testing.T) {
	r := newEngine()
	r.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, appctx.GetRequestID(c.Request.Context()))
	})

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(HeaderRequestID, "req-42")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, "req-42", w.Header().Get(HeaderRequestID))
	assert.Equal(t, "req-42", w.Body.String())
	assert.NotEmpty(t, w.Header().Get(HeaderTraceID))
}
