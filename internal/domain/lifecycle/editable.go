package lifecycle

import (
	"github.com/abbakari/works/internal/core/apperror"
	"github.com/abbakari/works/internal/core/id"
	"github.com/abbakari/works/internal/core/security"
)

// RequireVisible maps an out-of-scope record to NotFound.
func RequireVisible(kind Kind, scope security.Scope, rec security.Owned, recordID id.ID) error {
	if !scope.Visible(rec) {
		return apperror.NewNotFound(string(kind), recordID)
	}
	return nil
}

// RequireEditable allows field edits only by the owner while the record is a draft.
func RequireEditable(kind Kind, rec Record, actor security.Actor) error {
	h := rec.Header()
	if h.CreatedBy != actor.ID {
		return apperror.NewForbidden("only the owner can edit this record")
	}
	if !h.IsDraft() {
		return apperror.NewNotEditable(string(kind), string(h.Status))
	}
	return nil
}

// RequireDeletable allows soft delete by the owner of a draft, or by an admin.
func RequireDeletable(kind Kind, rec Record, actor security.Actor) error {
	if actor.Role == security.RoleAdmin {
		return nil
	}
	return RequireEditable(kind, rec, actor)
}
