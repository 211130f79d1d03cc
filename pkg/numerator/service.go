// Package numerator hands out human readable reference numbers
// (WF-2025-00001) backed by the sys_sequences table.
package numerator

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
)

// Querier is the subset of pgx used here. Both pools and transactions satisfy it.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// QuerierSource returns the querier for ctx, typically the transaction
// carried by the context or the pool.
type QuerierSource func(ctx context.Context) Querier

// Config holds numbering configuration.
type Config struct {
	// Prefix added to all numbers (e.g., "WF", "SR")
	Prefix string

	// IncludeYear adds year to the number
	IncludeYear bool

	// PadWidth is the minimum number width (default 5)
	PadWidth int

	// ResetPeriod: "year", "month", "never"
	ResetPeriod string
}

// DefaultConfig returns a yearly sequence: PREFIX-YYYY-00001.
func DefaultConfig(prefix string) Config {
	return Config{
		Prefix:      prefix,
		IncludeYear: true,
		PadWidth:    5,
		ResetPeriod: "year",
	}
}

// Service provides numbering. Safe for concurrent use.
type Service struct {
	source QuerierSource
}

// New creates a numerator reading its querier from source.
func New(source QuerierSource) *Service {
	return &Service{source: source}
}

// GetNextNumber bumps the sequence of cfg for the period containing at
// and formats the new value. Run inside the caller's transaction a
// rollback also returns the number.
func (s *Service) GetNextNumber(ctx context.Context, cfg Config, at time.Time) (string, error) {
	if s == nil {
		return "", fmt.Errorf("numerator service is not initialized")
	}
	num, err := s.bump(ctx, buildKey(cfg, at))
	if err != nil {
		return "", err
	}
	return formatNumber(cfg, at, num), nil
}

// bump increments the sequence row of key, creating it at 1.
func (s *Service) bump(ctx context.Context, key string) (int64, error) {
	var v int64
	err := s.source(ctx).QueryRow(ctx, `
		INSERT INTO sys_sequences (key, current_val)
		VALUES ($1, 1)
		ON CONFLICT (key) DO UPDATE SET current_val = sys_sequences.current_val + 1
		RETURNING current_val
	`, key).Scan(&v)
	if err != nil {
		return 0, fmt.Errorf("bump sequence %s: %w", key, err)
	}
	return v, nil
}

// SetNextNumber overwrites the stored sequence value, e.g. after records
// were imported with their numbers.
// The next number handed out is value+1.
func (s *Service) SetNextNumber(ctx context.Context, cfg Config, at time.Time, value int64) error {
	key := buildKey(cfg, at)

	var result int64
	err := s.source(ctx).QueryRow(ctx, `
		INSERT INTO sys_sequences (key, current_val)
		VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET current_val = $2
		RETURNING current_val
	`, key, value).Scan(&result)
	if err != nil {
		return fmt.Errorf("set sequence %s: %w", key, err)
	}
	return nil
}

func buildKey(cfg Config, at time.Time) string {
	switch cfg.ResetPeriod {
	case "month":
		return fmt.Sprintf("%s_%s", cfg.Prefix, at.Format("2006_01"))
	case "year":
		return fmt.Sprintf("%s_%s", cfg.Prefix, at.Format("2006"))
	default:
		return cfg.Prefix
	}
}

func formatNumber(cfg Config, at time.Time, num int64) string {
	padWidth := cfg.PadWidth
	if padWidth == 0 {
		padWidth = 5
	}
	if cfg.IncludeYear {
		return fmt.Sprintf("%s-%s-%0*d", cfg.Prefix, at.Format("2006"), padWidth, num)
	}
	return fmt.Sprintf("%s-%0*d", cfg.Prefix, padWidth, num)
}

// LikePattern matches every number cfg formats in the year of at.
func LikePattern(cfg Config, at time.Time) string {
	if cfg.IncludeYear {
		return fmt.Sprintf("%s-%s-%%", cfg.Prefix, at.Format("2006"))
	}
	return cfg.Prefix + "-%"
}

// ParseNumber returns the trailing counter of a formatted number
// ("WF-2025-00042" -> 42). It returns -1 when formatted has no prefix
// or the counter is not a non-negative integer.
func ParseNumber(formatted string) int64 {
	parts := strings.Split(formatted, "-")
	if len(parts) < 2 || parts[0] == "" {
		return -1
	}
	n, err := strconv.ParseInt(parts[len(parts)-1], 10, 64)
	if err != nil || n < 0 {
		return -1
	}
	return n
}
