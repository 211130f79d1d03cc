package lifecycle

import (
	"context"

	"github.com/abbakari/works/internal/core/entity"
	"github.com/abbakari/works/internal/core/id"
	"github.com/abbakari/works/internal/core/security"
)

// Event describes a committed-to-be transition. Notifiers receive it inside
// the transaction, so a failing notifier aborts the transition.
type Event struct {
	Kind     Kind
	RecordID id.ID
	Label    string
	OwnerID  id.ID
	From     entity.Status
	To       entity.Status
	Actor    security.Actor
	Comment  string
}

// Notifier reacts to transitions, e.g. by storing in-app notifications.
type Notifier interface {
	OnTransition(ctx context.Context, ev Event) error
}

// Observer counts transition outcomes.
type Observer interface {
	ObserveTransition(kind string, from, to entity.Status, outcome string)
}

// Outcome labels passed to Observer.
const (
	OutcomeOK                = "ok"
	OutcomeNotFound          = "not_found"
	OutcomeInvalidTransition = "invalid_transition"
	OutcomeForbidden         = "forbidden"
	OutcomeConflict          = "conflict"
	OutcomeError             = "error"
)

type nopNotifier struct{}

func (nopNotifier) OnTransition(context.Context, Event) error { return nil }

type nopObserver struct{}

func (nopObserver) ObserveTransition(string, entity.Status, entity.Status, string) {}
