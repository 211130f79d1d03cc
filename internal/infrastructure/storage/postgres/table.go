package postgres

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"github.com/abbakari/works/internal/core/apperror"
	"github.com/abbakari/works/internal/core/id"
	"github.com/abbakari/works/internal/domain"
)

// Builder returns a squirrel builder with PostgreSQL placeholders.
func Builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

// Table provides the common CRUD statements over one table whose columns
// are the "db" tags of T. Embed it in a concrete repository.
type Table[T any] struct {
	txm     *TxManager
	name    string
	entity  string
	columns []string
}

// NewTable creates a Table. entity names the rows in error messages.
func NewTable[T any](txm *TxManager, name, entity string) *Table[T] {
	return &Table[T]{
		txm:     txm,
		name:    name,
		entity:  entity,
		columns: ExtractDBColumns[T](),
	}
}

// Name returns the table name.
func (t *Table[T]) Name() string { return t.name }

// Columns returns the selected columns.
func (t *Table[T]) Columns() []string { return t.columns }

// Querier returns the transaction in ctx or the pool.
func (t *Table[T]) Querier(ctx context.Context) Querier { return t.txm.GetQuerier(ctx) }

// Select starts a SELECT of every column.
func (t *Table[T]) Select() squirrel.SelectBuilder {
	return Builder().Select(t.columns...).From(t.name)
}

// Insert writes v using its "db" tags.
func (t *Table[T]) Insert(ctx context.Context, v *T) error {
	data := t.filtered(StructToMap(v), nil)
	if len(data) == 0 {
		return fmt.Errorf("no db tags found in %T", v)
	}

	sql, args, err := Builder().Insert(t.name).SetMap(data).ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := t.Querier(ctx).Exec(ctx, sql, args...); err != nil {
		return TranslateError(err, "insert", t.entity, data["id"])
	}
	return nil
}

type versioned interface {
	SetVersion(v int)
}

// Update writes v guarded by its current version and bumps the version
// on success. A stale version yields ConcurrentModification.
func (t *Table[T]) Update(ctx context.Context, v *T) error {
	data := StructToMap(v)
	entityID, ok := data["id"]
	if !ok {
		return fmt.Errorf("%T has no id column", v)
	}
	version, ok := data["version"].(int)
	if !ok {
		return fmt.Errorf("%T has no int version column", v)
	}

	set := t.filtered(data, map[string]bool{"id": true, "version": true, "created_at": true, "created_by": true})
	sql, args, err := Builder().
		Update(t.name).
		SetMap(set).
		Set("version", squirrel.Expr("version + 1")).
		Where(squirrel.Eq{"id": entityID}).
		Where(squirrel.Eq{"version": version}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	tag, err := t.Querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return TranslateError(err, "update", t.entity, entityID)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewConcurrentModification(t.entity, entityID)
	}
	if vs, ok := any(v).(versioned); ok {
		vs.SetVersion(version + 1)
	}
	return nil
}

// Get scans the single row selected by q.
func (t *Table[T]) Get(ctx context.Context, q squirrel.SelectBuilder, key any) (*T, error) {
	sql, args, err := q.Limit(1).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	out := new(T)
	if err := pgxscan.Get(ctx, t.Querier(ctx), out, sql, args...); err != nil {
		return nil, TranslateError(err, "get", t.entity, key)
	}
	return out, nil
}

// GetByID loads a row by primary key. forUpdate takes a row lock held
// until the transaction ends.
func (t *Table[T]) GetByID(ctx context.Context, rowID id.ID, forUpdate bool) (*T, error) {
	q := t.Select().Where(squirrel.Eq{"id": rowID})
	if forUpdate {
		q = q.Suffix("FOR UPDATE")
	}
	return t.Get(ctx, q, rowID)
}

// All scans every row selected by q.
func (t *Table[T]) All(ctx context.Context, q squirrel.Sqlizer) ([]T, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	var items []T
	if err := pgxscan.Select(ctx, t.Querier(ctx), &items, sql, args...); err != nil {
		return nil, fmt.Errorf("list %s: %w", t.entity, err)
	}
	return items, nil
}

// Page counts the rows of q, then returns one ordered page of them.
func (t *Table[T]) Page(ctx context.Context, q squirrel.SelectBuilder, filter domain.ListFilter, order string) (domain.ListResult[T], error) {
	filter = filter.Normalize()
	result := domain.ListResult[T]{Limit: filter.Limit, Offset: filter.Offset}

	total, err := t.Count(ctx, q)
	if err != nil {
		return result, err
	}
	result.TotalCount = total

	items, err := t.All(ctx, q.OrderBy(order).Limit(uint64(filter.Limit)).Offset(uint64(filter.Offset)))
	if err != nil {
		return result, err
	}
	if items == nil {
		items = []T{}
	}
	result.Items = items
	return result, nil
}

// Count returns the number of rows q selects.
func (t *Table[T]) Count(ctx context.Context, q squirrel.SelectBuilder) (int64, error) {
	sql, args, err := Builder().Select("COUNT(*)").FromSelect(q, "sub").ToSql()
	if err != nil {
		return 0, fmt.Errorf("build count query: %w", err)
	}
	var total int64
	if err := t.Querier(ctx).QueryRow(ctx, sql, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("count %s: %w", t.entity, err)
	}
	return total, nil
}

func (t *Table[T]) filtered(data map[string]any, skip map[string]bool) map[string]any {
	out := make(map[string]any, len(t.columns))
	for _, col := range t.columns {
		if skip[col] {
			continue
		}
		if v, ok := data[col]; ok {
			out[col] = v
		}
	}
	return out
}
