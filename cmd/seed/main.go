// Package main provides a CLI tool for seeding the database with initial data.
package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"

	"github.com/abbakari/works/internal/core/id"
	"github.com/abbakari/works/internal/core/security"
	"github.com/abbakari/works/internal/infrastructure/storage/postgres"
	"github.com/abbakari/works/internal/infrastructure/storage/postgres/record_repo"
	"github.com/abbakari/works/pkg/logger"
)

func main() {
	log, err := logger.New(logger.Config{
		Level:       "info",
		Development: true,
	})
	if err != nil {
		fmt.Printf("failed to create logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL environment variable is required")
	}

	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(dbURL))
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	if err := postgres.Migrate(ctx, pool); err != nil {
		log.Fatalw("failed to apply migrations", "error", err)
	}

	adminEmail := getEnv("ADMIN_EMAIL", "admin@works.local")
	adminID, err := seedUser(ctx, pool, userSeed{
		email: adminEmail, first: "System", last: "Admin", role: security.RoleAdmin,
	}, getEnv("ADMIN_PASSWORD", "Admin123!"))
	if err != nil {
		log.Fatalw("failed to seed admin user", "error", err)
	}
	log.Infow("admin user ready", "email", adminEmail, "user_id", adminID)

	if os.Getenv("SEED_DEMO_DATA") == "true" {
		if err := seedDemoData(ctx, pool, log, adminID); err != nil {
			log.Fatalw("failed to seed demo data", "error", err)
		}
	}

	// Rows restored or imported with their numbers must not be numbered again.
	if err := record_repo.SyncSequences(ctx, postgres.NewTxManager(pool), time.Now().UTC()); err != nil {
		log.Fatalw("failed to sync reference number sequences", "error", err)
	}

	log.Info("seeding completed successfully")
}

type userSeed struct {
	email      string
	first      string
	last       string
	role       security.Role
	department string
	manager    *id.ID
}

// seedUser inserts the user unless the email is taken and returns its id.
func seedUser(ctx context.Context, pool *pgxpool.Pool, u userSeed, password string) (id.ID, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return id.Nil(), fmt.Errorf("hash password: %w", err)
	}

	username := strings.SplitN(u.email, "@", 2)[0]
	_, err = pool.Exec(ctx, `
		INSERT INTO users (id, email, username, password_hash, first_name, last_name, role, manager_id, department)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (lower(email)) DO NOTHING
	`, id.New(), u.email, username, string(hash), u.first, u.last, string(u.role), u.manager, u.department)
	if err != nil {
		return id.Nil(), fmt.Errorf("insert user %s: %w", u.email, err)
	}

	var userID id.ID
	if err := pool.QueryRow(ctx, `SELECT id FROM users WHERE lower(email) = lower($1)`, u.email).Scan(&userID); err != nil {
		return id.Nil(), fmt.Errorf("load user %s: %w", u.email, err)
	}
	return userID, nil
}

func seedDemoData(ctx context.Context, pool *pgxpool.Pool, log *logger.Logger, adminID id.ID) error {
	log.Info("seeding demo data...")
	password := getEnv("DEMO_PASSWORD", "Demo123!")

	// 1. Users: one manager with two salesmen, one supply chain planner
	managerID, err := seedUser(ctx, pool, userSeed{
		email: "manager@works.local", first: "Maria", last: "Mushi", role: security.RoleManager, department: "Sales",
	}, password)
	if err != nil {
		return err
	}
	salesmen := []userSeed{
		{email: "sales1@works.local", first: "John", last: "Kimaro", role: security.RoleSalesman, department: "Sales", manager: &managerID},
		{email: "sales2@works.local", first: "Aisha", last: "Said", role: security.RoleSalesman, department: "Sales", manager: &managerID},
		{email: "supply@works.local", first: "Peter", last: "Lyimo", role: security.RoleSupplyChain, department: "Supply Chain"},
	}
	for _, u := range salesmen {
		if _, err := seedUser(ctx, pool, u, password); err != nil {
			return err
		}
	}
	log.Infow("demo users ready", "count", len(salesmen)+1)

	// 2. Customers
	customers := []struct {
		code, name, region, segment, tier string
		creditLimit                       string
	}{
		{"CUST-001", "Action Aid International", "Africa", "NGO", "platinum", "500000"},
		{"CUST-002", "Coca Cola Kwanza", "East Africa", "Beverages", "gold", "250000"},
		{"CUST-003", "Tanzania Breweries", "East Africa", "Beverages", "silver", "150000"},
	}
	for _, c := range customers {
		_, err := pool.Exec(ctx, `
			INSERT INTO customers (id, code, name, region, segment, tier, credit_limit, manager_id, created_by)
			VALUES ($1, $2, $3, $4, $5, $6, $7::numeric, $8, $9)
			ON CONFLICT (code) DO NOTHING
		`, id.New(), c.code, c.name, c.region, c.segment, c.tier, c.creditLimit, managerID, adminID)
		if err != nil {
			return fmt.Errorf("insert customer %s: %w", c.code, err)
		}
	}
	log.Infow("demo customers ready", "count", len(customers))

	// 3. Items
	items := []struct {
		sku, name, category, brand, unit, price, cost string
	}{
		{"TYR-001", "BF GOODRICH TYRE 235/85R16", "Tyres", "BF Goodrich", "pcs", "341.00", "250.00"},
		{"TYR-002", "MICHELIN TYRE 265/65R17", "Tyres", "Michelin", "pcs", "412.00", "300.00"},
		{"BAT-001", "VALVOLINE 12V BATTERY", "Batteries", "Valvoline", "pcs", "120.00", "80.00"},
		{"OIL-001", "SHELL HELIX 5W-30 4L", "Lubricants", "Shell", "can", "45.50", "30.00"},
	}
	for _, it := range items {
		_, err := pool.Exec(ctx, `
			INSERT INTO items (id, sku, name, category, brand, unit, unit_price, cost_price)
			VALUES ($1, $2, $3, $4, $5, $6, $7::numeric, $8::numeric)
			ON CONFLICT (sku) DO NOTHING
		`, id.New(), it.sku, it.name, it.category, it.brand, it.unit, it.price, it.cost)
		if err != nil {
			return fmt.Errorf("insert item %s: %w", it.sku, err)
		}
	}
	log.Infow("demo items ready", "count", len(items))

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
