package postgres

import (
	"errors"
	"fmt"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/abbakari/works/internal/core/apperror"
)

// PostgreSQL error codes the repositories translate.
const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
	codeCheckViolation      = "23514"
)

// IsNoRows reports whether err means the query matched nothing.
func IsNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows) || pgxscan.NotFound(err)
}

// TranslateError maps driver errors onto AppErrors. Unknown errors are
// wrapped with op and returned unchanged otherwise.
func TranslateError(err error, op, entity string, key any) error {
	if err == nil {
		return nil
	}
	if IsNoRows(err) {
		return apperror.NewNotFound(entity, key)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeUniqueViolation:
			return apperror.NewConflict(fmt.Sprintf("%s already exists", entity)).
				WithDetail("constraint", pgErr.ConstraintName)
		case codeForeignKeyViolation:
			return apperror.NewValidation(fmt.Sprintf("%s references a missing record", entity)).
				WithDetail("constraint", pgErr.ConstraintName)
		case codeCheckViolation:
			return apperror.NewValidation(fmt.Sprintf("%s violates %s", entity, pgErr.ConstraintName))
		}
	}
	return fmt.Errorf("%s %s: %w", op, entity, err)
}
