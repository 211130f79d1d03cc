package v1

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abbakari/works/internal/core/id"
	"github.com/abbakari/works/internal/core/security"
	"github.com/abbakari/works/internal/domain/audit"
	"github.com/abbakari/works/internal/domain/auth"
	"github.com/abbakari/works/internal/domain/budgets"
	"github.com/abbakari/works/internal/domain/catalog"
	"github.com/abbakari/works/internal/domain/forecasts"
	"github.com/abbakari/works/internal/domain/inventory"
	"github.com/abbakari/works/internal/domain/lifecycle"
	"github.com/abbakari/works/internal/domain/notifications"
	"github.com/abbakari/works/internal/domain/planning"
	"github.com/abbakari/works/internal/domain/workflow"
	"github.com/abbakari/works/internal/infrastructure/cache"
	"github.com/abbakari/works/internal/infrastructure/storage/postgres"
	"github.com/abbakari/works/internal/infrastructure/storage/postgres/auth_repo"
	"github.com/abbakari/works/internal/infrastructure/storage/postgres/catalog_repo"
	"github.com/abbakari/works/internal/infrastructure/storage/postgres/inventory_repo"
	"github.com/abbakari/works/internal/infrastructure/storage/postgres/notification_repo"
	"github.com/abbakari/works/internal/infrastructure/storage/postgres/planning_repo"
	"github.com/abbakari/works/internal/infrastructure/storage/postgres/record_repo"
	"github.com/abbakari/works/pkg/logger"
)

// newWiredRouter builds the router the way the server does, with every
// repository running on a mock pool.
func newWiredRouter(t *testing.T) (*gin.Engine, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)

	txm := postgres.NewTxManager(mock)
	userRepo := auth_repo.NewUserRepo(txm)
	auditRepo, err := postgres.NewAuditRepo(txm)
	require.NoError(t, err)

	directory := cache.NewDirectory(userRepo, 16, time.Minute)
	perms := security.NewResolver(security.DefaultPolicy())
	scopes := security.NewScopeResolver(perms, directory)
	trail := audit.NewTrail(auditRepo)

	authService := auth.NewService(userRepo, auth_repo.NewTokenRepo(txm), txm,
		auth.NewJWTService(auth.DefaultJWTConfig("wiring-test-secret")), directory, auth.DefaultServiceConfig())
	notifyService := notifications.NewService(
		notification_repo.NewNotificationRepo(txm),
		notification_repo.NewMessageRepo(txm),
		directory,
		txm,
	)
	machine := lifecycle.NewMachine(txm, perms, scopes, trail, lifecycle.WithNotifier(notifyService))

	catalogService := catalog.NewService(catalog_repo.NewCustomerRepo(txm), catalog_repo.NewItemRepo(txm), txm)
	budgetService := budgets.NewService(record_repo.NewBudgetRepo(txm), catalogService, txm, perms, scopes, machine, trail)
	planningService := planning.NewService(
		planning_repo.NewProfileRepo(txm),
		planning_repo.NewTemplateRepo(txm),
		planning_repo.NewAlertRepo(txm),
		budgetService,
		txm,
		perms,
	)
	budgetService.UseProfiles(planningService)

	r := NewRouter(RouterConfig{
		Logger:      logger.NewNop(),
		DB:          mock,
		Perms:       perms,
		AuthService: authService,
		TokenValidator: tokens{
			"admin":    {ID: id.New(), Role: security.RoleAdmin, IsActive: true},
			"mgr":      {ID: id.New(), Role: security.RoleManager, IsActive: true},
			"salesman": {ID: id.New(), Role: security.RoleSalesman, IsActive: true},
			"supply":   {ID: id.New(), Role: security.RoleSupplyChain, IsActive: true},
		},
		Catalog:   catalogService,
		Budgets:   budgetService,
		Forecasts: forecasts.NewService(record_repo.NewForecastRepo(txm), catalogService, txm, perms, scopes, machine, trail),
		Workflow:  workflow.NewService(record_repo.NewWorkflowRepo(txm), txm, perms, scopes, machine, trail, notifyService),
		Inventory: inventory.NewService(inventory.Deps{
			Stock:     inventory_repo.NewStockRepo(txm),
			Movements: inventory_repo.NewMovementRepo(txm),
			Requests:  record_repo.NewStockRequestRepo(txm),
			Items:     catalogService,
			TxManager: txm,
			Perms:     perms,
			Scopes:    scopes,
			Machine:   machine,
			Trail:     trail,
		}),
		Notifications: notifyService,
		Audit:         trail,
		Planning:      planningService,
		Version:       "test",
	})
	return r, mock
}

func serveJSON(h http.Handler, method, path, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestRouter_FullWiringRegistersRoutes(t *testing.T) {
	r, _ := newWiredRouter(t)

	registered := make(map[string]bool)
	for _, ri := range r.Routes() {
		registered[ri.Method+" "+ri.Path] = true
	}

	for _, want := range []string{
		"POST /api/v1/auth/login",
		"GET /api/v1/auth/me",
		"GET /api/v1/users/:id/reports",
		"POST /api/v1/customers/:id/deactivate",
		"POST /api/v1/items",
		"GET /api/v1/budgets",
		"GET /api/v1/budgets/summary",
		"POST /api/v1/budgets/:id/submit",
		"POST /api/v1/budgets/:id/distribute",
		"GET /api/v1/forecasts/customer/:customerId",
		"GET /api/v1/workflow/dashboard",
		"POST /api/v1/workflow/:id/forward",
		"POST /api/v1/stock-requests/:id/forward",
		"GET /api/v1/inventory/low-stock",
		"GET /api/v1/notifications/unread-count",
		"POST /api/v1/messages/:id/reply",
		"GET /api/v1/audit/:entityType/:id",
		"GET /api/v1/budgets/distributions/default",
		"PUT /api/v1/budgets/distributions/:id",
		"GET /api/v1/budgets/templates",
		"DELETE /api/v1/forecasts/templates/:id",
		"POST /api/v1/budgets/alerts",
		"POST /api/v1/budgets/alerts/:id/read",
		"POST /api/v1/budgets/alerts/:id/resolve",
	} {
		assert.True(t, registered[want], "missing route %s", want)
	}

	// Budgets are not handed to supply chain directly.
	assert.False(t, registered["POST /api/v1/budgets/:id/forward"])
}

func TestRouter_FullWiringRequiresToken(t *testing.T) {
	r, mock := newWiredRouter(t)
	public := map[string]bool{
		"POST /api/v1/auth/login":   true,
		"POST /api/v1/auth/refresh": true,
	}

	for _, ri := range r.Routes() {
		if !strings.HasPrefix(ri.Path, "/api/v1/") || public[ri.Method+" "+ri.Path] {
			continue
		}
		path := ri.Path
		for _, seg := range strings.Split(ri.Path, "/") {
			if strings.HasPrefix(seg, ":") {
				path = strings.Replace(path, seg, id.New().String(), 1)
			}
		}
		w := serve(r, ri.Method, path, "")
		assert.Equal(t, http.StatusUnauthorized, w.Code, "%s %s", ri.Method, ri.Path)
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRouter_FullWiringRoleGates(t *testing.T) {
	r, mock := newWiredRouter(t)
	someID := id.New().String()
	shares := `["50","50","0","0","0","0","0","0","0","0","0","0"]`

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		body   string
		want   int
	}{
		{"salesman lists users", http.MethodGet, "/api/v1/users", "salesman", "", http.StatusForbidden},
		{"salesman creates item", http.MethodPost, "/api/v1/items", "salesman", `{"sku":"T1","name":"Tyre"}`, http.StatusForbidden},
		{"manager registers user", http.MethodPost, "/api/v1/auth/register", "mgr", `{}`, http.StatusForbidden},
		{"manager reads audit", http.MethodGet, "/api/v1/audit/" + budgets.EntityType + "/" + someID, "mgr", "", http.StatusForbidden},
		{"salesman stores profile", http.MethodPost, "/api/v1/budgets/distributions", "salesman",
			`{"name":"Front loaded","shares":` + shares + `}`, http.StatusForbidden},
		{"salesman raises alert", http.MethodPost, "/api/v1/budgets/alerts", "salesman",
			`{"budgetId":"` + someID + `","alertType":"variance","title":"Over"}`, http.StatusForbidden},
		{"supply creates budget template", http.MethodPost, "/api/v1/budgets/templates", "supply",
			`{"name":"Tyres"}`, http.StatusForbidden},
		{"admin creates customer without body", http.MethodPost, "/api/v1/customers", "admin", "", http.StatusBadRequest},
		{"admin raises alert without body", http.MethodPost, "/api/v1/budgets/alerts", "admin", "", http.StatusBadRequest},
		{"admin stores short profile", http.MethodPost, "/api/v1/budgets/distributions", "admin",
			`{"name":"Short","shares":["100"]}`, http.StatusBadRequest},
		{"admin reads malformed profile id", http.MethodGet, "/api/v1/budgets/distributions/not-a-uuid", "admin", "", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serveJSON(r, tt.method, tt.path, tt.token, tt.body)
			assert.Equal(t, tt.want, w.Code, w.Body.String())
		})
	}
	// Every request above is refused before reaching the database.
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRouter_FullWiringReachesStorage(t *testing.T) {
	r, mock := newWiredRouter(t)

	mock.ExpectBeginTx(pgx.TxOptions{IsoLevel: pgx.ReadCommitted, AccessMode: pgx.ReadWrite})
	mock.ExpectExec(`SET LOCAL statement_timeout`).
		WillReturnResult(pgxmock.NewResult("SET", 0))
	args := make([]any, len(postgres.ExtractDBColumns[planning.Template]()))
	for i := range args {
		args[i] = pgxmock.AnyArg()
	}
	mock.ExpectExec(`INSERT INTO plan_templates`).
		WithArgs(args...).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	w := serveJSON(r, http.MethodPost, "/api/v1/forecasts/templates", "salesman", `{"name":"Winter tyres","isPublic":true}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"kind":"forecast"`)
	assert.Contains(t, w.Body.String(), `"confidence":"medium"`)
	assert.NoError(t, mock.ExpectationsWereMet())
}
