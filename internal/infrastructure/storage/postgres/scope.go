package postgres

import (
	"strings"

	"github.com/Masterminds/squirrel"

	"github.com/abbakari/works/internal/core/security"
)

// ApplyScope restricts q to the rows scope can see. ownerCol and statusCol
// name the owner and lifecycle columns of the queried table.
func ApplyScope(q squirrel.SelectBuilder, scope security.Scope, ownerCol, statusCol string) squirrel.SelectBuilder {
	if !scope.AnyOwner {
		if len(scope.Owners) == 0 {
			return q.Where("1 = 0")
		}
		q = q.Where(squirrel.Eq{ownerCol: scope.Owners})
	}
	if len(scope.Statuses) > 0 {
		statuses := make([]string, len(scope.Statuses))
		for i, s := range scope.Statuses {
			statuses[i] = string(s)
		}
		q = q.Where(squirrel.Eq{statusCol: statuses})
	}
	return q
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// Search matches term as a case-insensitive substring of any of cols.
// LIKE wildcards in term match literally.
func Search(term string, cols ...string) squirrel.Sqlizer {
	pattern := "%" + likeEscaper.Replace(term) + "%"
	or := make(squirrel.Or, 0, len(cols))
	for _, c := range cols {
		or = append(or, squirrel.Expr(c+` ILIKE ? ESCAPE '\'`, pattern))
	}
	return or
}
