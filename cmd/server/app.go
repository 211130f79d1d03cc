package main

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/abbakari/works/internal/config"
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
	v1 "github.com/abbakari/works/internal/infrastructure/http/v1"
	"github.com/abbakari/works/internal/infrastructure/metrics"
	"github.com/abbakari/works/internal/infrastructure/storage/postgres"
	"github.com/abbakari/works/internal/infrastructure/storage/postgres/auth_repo"
	"github.com/abbakari/works/internal/infrastructure/storage/postgres/catalog_repo"
	"github.com/abbakari/works/internal/infrastructure/storage/postgres/inventory_repo"
	"github.com/abbakari/works/internal/infrastructure/storage/postgres/notification_repo"
	"github.com/abbakari/works/internal/infrastructure/storage/postgres/planning_repo"
	"github.com/abbakari/works/internal/infrastructure/storage/postgres/record_repo"
	"github.com/abbakari/works/pkg/logger"
)

type app struct {
	router *gin.Engine
}

// buildApp wires repositories, services and the HTTP router.
func buildApp(cfg *config.Config, pool *pgxpool.Pool, log *logger.Logger) (*app, error) {
	txm := postgres.NewTxManager(pool)

	// --- Repositories ---
	userRepo := auth_repo.NewUserRepo(txm)
	tokenRepo := auth_repo.NewTokenRepo(txm)
	customerRepo := catalog_repo.NewCustomerRepo(txm)
	itemRepo := catalog_repo.NewItemRepo(txm)
	auditRepo, err := postgres.NewAuditRepo(txm)
	if err != nil {
		return nil, fmt.Errorf("audit repo: %w", err)
	}

	// --- Access control ---
	directory := cache.NewDirectory(userRepo, cfg.Security.UserCacheSize, cfg.Security.UserCacheTTL)
	perms := security.NewResolver(security.DefaultPolicy())
	scopes := security.NewScopeResolver(perms, directory)
	trail := audit.NewTrail(auditRepo)

	// --- Auth ---
	jwtCfg := auth.DefaultJWTConfig(cfg.Auth.JWTSecret)
	jwtCfg.Issuer = cfg.Auth.JWTIssuer
	jwtCfg.AccessTokenTTL = cfg.Auth.AccessTokenTTL

	authCfg := auth.DefaultServiceConfig()
	authCfg.MaxLoginAttempts = cfg.Auth.MaxLoginAttempts
	authCfg.LockDuration = cfg.Auth.LockDuration
	authCfg.PasswordMinLength = cfg.Auth.PasswordMinLen
	authCfg.RefreshTokenExpiry = cfg.Auth.RefreshTokenTTL
	authCfg.BcryptCost = cfg.Auth.BcryptCost
	authCfg.MaxHierarchyDepth = cfg.Security.MaxHierarchyDepth

	authService := auth.NewService(userRepo, tokenRepo, txm, auth.NewJWTService(jwtCfg), directory, authCfg)

	// --- Lifecycle ---
	guards, err := lifecycle.CompileGuards(guardRules(cfg.Workflow.Guards))
	if err != nil {
		return nil, fmt.Errorf("compile workflow guards: %w", err)
	}
	log.Infow("workflow guards compiled", "count", len(cfg.Workflow.Guards))

	notifyService := notifications.NewService(
		notification_repo.NewNotificationRepo(txm),
		notification_repo.NewMessageRepo(txm),
		directory,
		txm,
	)

	opts := []lifecycle.Option{lifecycle.WithGuards(guards), lifecycle.WithNotifier(notifyService)}

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
		m.RegisterPool(pool)
		m.RegisterCache("user_directory", directory)
		opts = append(opts, lifecycle.WithObserver(m))
	}
	machine := lifecycle.NewMachine(txm, perms, scopes, trail, opts...)

	// --- Domain services ---
	catalogService := catalog.NewService(customerRepo, itemRepo, txm)
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
	forecastService := forecasts.NewService(record_repo.NewForecastRepo(txm), catalogService, txm, perms, scopes, machine, trail)
	workflowService := workflow.NewService(record_repo.NewWorkflowRepo(txm), txm, perms, scopes, machine, trail, notifyService)
	inventoryService := inventory.NewService(inventory.Deps{
		Stock:     inventory_repo.NewStockRepo(txm),
		Movements: inventory_repo.NewMovementRepo(txm),
		Requests:  record_repo.NewStockRequestRepo(txm),
		Items:     catalogService,
		TxManager: txm,
		Perms:     perms,
		Scopes:    scopes,
		Machine:   machine,
		Trail:     trail,
	})

	routes := v1.RouterConfig{
		Logger:        log,
		DB:            pool,
		Metrics:       m,
		MetricsPath:   cfg.Metrics.Path,
		Perms:         perms,
		AuthService:   authService,
		Catalog:       catalogService,
		Budgets:       budgetService,
		Forecasts:     forecastService,
		Workflow:      workflowService,
		Inventory:     inventoryService,
		Notifications: notifyService,
		Audit:         trail,
		Planning:      planningService,
		Version:       version,
		DebugMode:     cfg.Server.Mode == gin.DebugMode,
	}
	if cfg.Server.IdempotencyTTL > 0 {
		routes.Idempotency = postgres.NewIdempotencyStore(txm, cfg.Server.IdempotencyTTL)
	}

	return &app{router: v1.NewRouter(routes)}, nil
}

func guardRules(in []config.GuardRule) []lifecycle.GuardRule {
	out := make([]lifecycle.GuardRule, len(in))
	for i, g := range in {
		out[i] = lifecycle.GuardRule{Name: g.Name, Kind: g.Kind, Target: g.Target, Expr: g.Expr}
	}
	return out
}
