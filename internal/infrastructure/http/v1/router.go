package v1

import (
	"github.com/gin-gonic/gin"

	"github.com/abbakari/works/internal/core/security"
	"github.com/abbakari/works/internal/domain/audit"
	"github.com/abbakari/works/internal/domain/auth"
	"github.com/abbakari/works/internal/domain/budgets"
	"github.com/abbakari/works/internal/domain/catalog"
	"github.com/abbakari/works/internal/domain/forecasts"
	"github.com/abbakari/works/internal/domain/inventory"
	"github.com/abbakari/works/internal/domain/notifications"
	"github.com/abbakari/works/internal/domain/planning"
	"github.com/abbakari/works/internal/domain/workflow"
	"github.com/abbakari/works/internal/infrastructure/http/v1/handlers"
	"github.com/abbakari/works/internal/infrastructure/http/v1/middleware"
	"github.com/abbakari/works/internal/infrastructure/metrics"
	"github.com/abbakari/works/pkg/logger"
)

// RouterConfig holds everything the router wires into handlers.
type RouterConfig struct {
	// Logger for request logging
	Logger *logger.Logger

	// DB is pinged by the readiness probe
	DB handlers.Pinger

	// Metrics, when set, instruments requests and serves MetricsPath
	Metrics     *metrics.Metrics
	MetricsPath string

	// Perms answers capability questions for route gating
	Perms *security.Resolver

	// AuthService serves /auth and /users
	AuthService *auth.Service

	// TokenValidator checks bearer tokens. Defaults to AuthService.
	TokenValidator middleware.TokenValidator

	// Idempotency, when set, replays retried POSTs carrying Idempotency-Key
	Idempotency middleware.IdempotencyStore

	Catalog       *catalog.Service
	Budgets       *budgets.Service
	Forecasts     *forecasts.Service
	Workflow      *workflow.Service
	Inventory     *inventory.Service
	Notifications *notifications.Service
	Audit         *audit.Trail

	// Planning serves distribution profiles, templates and budget alerts
	Planning *planning.Service

	// Version is reported by the health endpoints
	Version string

	// DebugMode keeps gin in debug mode
	DebugMode bool
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	if cfg.DebugMode {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	if cfg.Metrics != nil {
		router.Use(cfg.Metrics.Middleware())
	}
	router.Use(middleware.ErrorHandler())

	healthHandler := handlers.NewHealthHandler(cfg.DB, cfg.Version)
	router.GET("/health", healthHandler.Live)
	router.GET("/ready", healthHandler.Ready)
	if cfg.Metrics != nil {
		path := cfg.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		router.GET(path, gin.WrapH(cfg.Metrics.Handler()))
	}

	if cfg.TokenValidator == nil && cfg.AuthService != nil {
		cfg.TokenValidator = cfg.AuthService
	}

	v1 := router.Group("/api/v1")
	{
		base := handlers.NewBaseHandler()

		registerAuthRoutes(v1, base, cfg)

		protected := v1.Group("")
		protected.Use(middleware.Auth(cfg.TokenValidator))
		if cfg.Idempotency != nil {
			protected.Use(middleware.Idempotency(cfg.Idempotency))
		}

		registerUserRoutes(protected, base, cfg)
		registerCatalogRoutes(protected, base, cfg)
		registerPlanningRoutes(protected, base, cfg)
		registerRecordRoutes(protected, base, cfg)
		registerInventoryRoutes(protected, base, cfg)
		registerMessagingRoutes(protected, base, cfg)
		registerAuditRoutes(protected, base, cfg)
	}

	return router
}

func registerAuthRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	if cfg.AuthService == nil {
		return
	}
	authHandler := handlers.NewAuthHandler(base, cfg.AuthService, cfg.Perms)

	public := rg.Group("/auth")
	protected := rg.Group("/auth")
	protected.Use(middleware.Auth(cfg.TokenValidator))

	authHandler.RegisterRoutes(public, protected, middleware.RequireRole(security.RoleAdmin))
}

func registerUserRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	if cfg.AuthService == nil {
		return
	}
	users := rg.Group("/users")
	users.Use(middleware.RequirePermission(cfg.Perms, security.ResourceUsers, security.ActionManage))
	handlers.NewUserHandler(base, cfg.AuthService).RegisterRoutes(users)
}

func registerCatalogRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	if cfg.Catalog == nil {
		return
	}
	h := handlers.NewCatalogHandler(base, cfg.Catalog)
	manageCustomers := middleware.RequirePermission(cfg.Perms, security.ResourceCustomers, security.ActionManage)
	manageItems := middleware.RequirePermission(cfg.Perms, security.ResourceInventory, security.ActionManage)

	customers := rg.Group("/customers")
	{
		customers.GET("", h.ListCustomers)
		customers.POST("", manageCustomers, h.CreateCustomer)
		customers.GET("/:id", h.GetCustomer)
		customers.PUT("/:id", manageCustomers, h.UpdateCustomer)
		customers.POST("/:id/deactivate", manageCustomers, h.DeactivateCustomer)
	}

	items := rg.Group("/items")
	{
		items.GET("", h.ListItems)
		items.POST("", manageItems, h.CreateItem)
		items.GET("/:id", h.GetItem)
		items.PUT("/:id", manageItems, h.UpdateItem)
	}
}

func registerPlanningRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	if cfg.Planning == nil {
		return
	}
	h := handlers.NewPlanningHandler(base, cfg.Planning)
	h.RegisterRoutes(rg.Group("/budgets"), rg.Group("/forecasts"))
}

// registerRecordRoutes registers the records that run through the approval
// state machine. Permission checks live in the services since they depend on
// ownership as well as role.
func registerRecordRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	if cfg.Budgets != nil {
		RegisterRecordRoutes(rg.Group("/budgets"), handlers.NewBudgetHandler(base, cfg.Budgets))
	}
	if cfg.Forecasts != nil {
		RegisterRecordRoutes(rg.Group("/forecasts"), handlers.NewForecastHandler(base, cfg.Forecasts))
	}
	if cfg.Workflow != nil {
		RegisterRecordRoutes(rg.Group("/workflow"), handlers.NewWorkflowHandler(base, cfg.Workflow))
	}
	if cfg.Inventory != nil {
		RegisterRecordRoutes(rg.Group("/stock-requests"), handlers.NewStockRequestHandler(base, cfg.Inventory))
	}
}

func registerInventoryRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	if cfg.Inventory == nil {
		return
	}
	h := handlers.NewInventoryHandler(base, cfg.Inventory)
	manage := middleware.RequirePermission(cfg.Perms, security.ResourceInventory, security.ActionManage)

	stock := rg.Group("/inventory")
	{
		stock.GET("/summary", h.Summary)
		stock.GET("/low-stock", h.LowStock)
		stock.GET("", h.List)
		stock.POST("", manage, h.Create)
		stock.GET("/:id", h.Get)
		stock.PUT("/:id", manage, h.UpdateLevels)
		stock.GET("/:id/movements", h.Movements)
		stock.POST("/:id/movements", manage, h.RecordMovement)
	}
}

func registerMessagingRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	if cfg.Notifications == nil {
		return
	}
	h := handlers.NewNotificationHandler(base, cfg.Notifications)
	h.RegisterRoutes(rg.Group("/notifications"), rg.Group("/messages"))
}

func registerAuditRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	if cfg.Audit == nil {
		return
	}
	h := handlers.NewAuditHandler(base, cfg.Audit)
	rg.GET("/audit/:entityType/:id",
		middleware.RequirePermission(cfg.Perms, security.ResourceAudit, security.ActionRead),
		h.History)
}
