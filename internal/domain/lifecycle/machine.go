package lifecycle

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/abbakari/works/internal/core/apperror"
	"github.com/abbakari/works/internal/core/entity"
	"github.com/abbakari/works/internal/core/id"
	"github.com/abbakari/works/internal/core/security"
	"github.com/abbakari/works/internal/core/tx"
	"github.com/abbakari/works/internal/domain/audit"
	"github.com/abbakari/works/pkg/logger"
)

// ScopeSource resolves the visibility scope of an actor.
type ScopeSource interface {
	Resolve(ctx context.Context, actor security.Actor, resource security.Resource) (security.Scope, error)
}

// Request asks the machine to move one record.
type Request struct {
	RecordID id.ID
	Target   entity.Status
	Actor    security.Actor
	Comment  string
	// ExpectedVersion, when > 0, must match the stored version.
	ExpectedVersion int
}

// Machine validates and applies transitions.
type Machine struct {
	txm      tx.Manager
	perms    *security.Resolver
	scopes   ScopeSource
	trail    *audit.Trail
	guards   *GuardSet
	notifier Notifier
	observer Observer
	now      func() time.Time
}

// Option configures a Machine.
type Option func(*Machine)

// WithGuards installs CEL guard rules.
func WithGuards(g *GuardSet) Option { return func(m *Machine) { m.guards = g } }

// WithNotifier installs a transition notifier.
func WithNotifier(n Notifier) Option { return func(m *Machine) { m.notifier = n } }

// WithObserver installs a metrics observer.
func WithObserver(o Observer) Option { return func(m *Machine) { m.observer = o } }

// WithClock overrides time.Now, for tests.
func WithClock(now func() time.Time) Option { return func(m *Machine) { m.now = now } }

// NewMachine creates a Machine.
func NewMachine(txm tx.Manager, perms *security.Resolver, scopes ScopeSource, trail *audit.Trail, opts ...Option) *Machine {
	m := &Machine{
		txm:      txm,
		perms:    perms,
		scopes:   scopes,
		trail:    trail,
		notifier: nopNotifier{},
		observer: nopObserver{},
		now:      time.Now,
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Transition moves a record to req.Target. Checks run in this order:
// visibility, edge, actor, guards, version. Status change, audit entry and
// notification commit together or not at all.
func (m *Machine) Transition(ctx context.Context, kind KindSpec, store Store, req Request) (Record, error) {
	var (
		result Record
		from   entity.Status
	)

	err := m.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		rec, err := store.LockForTransition(ctx, req.RecordID)
		if err != nil {
			return err
		}
		h := rec.Header()
		from = h.Status

		scope, err := m.scopes.Resolve(ctx, req.Actor, kind.Resource)
		if err != nil {
			return err
		}
		if !scope.Visible(rec) {
			return apperror.NewNotFound(string(kind.Kind), req.RecordID)
		}

		if !CanMove(kind, from, req.Target) {
			return apperror.NewInvalidTransition(string(kind.Kind), string(from), string(req.Target))
		}

		if err := m.authorize(kind, rec, req.Target, req.Actor); err != nil {
			return err
		}

		rule, err := m.guards.Check(kind.Kind, req.Target, rec, req.Actor)
		if err != nil {
			return apperror.NewInternal(err)
		}
		if rule != "" {
			return apperror.NewForbidden("transition rejected by rule").
				WithDetail("rule", rule).
				WithDetail("to", string(req.Target))
		}

		if req.ExpectedVersion > 0 && h.Version != req.ExpectedVersion {
			return apperror.NewConcurrentModification(string(kind.Kind), req.RecordID).
				WithDetail("expected_version", req.ExpectedVersion).
				WithDetail("actual_version", h.Version)
		}

		before, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("snapshot before: %w", err)
		}

		h.MarkTransition(req.Target, req.Actor.ID, m.now())
		rec.Recompute()
		h.Priority = entity.PriorityFor(rec.TotalValue())

		if err := store.SaveTransition(ctx, rec); err != nil {
			return err
		}

		if _, err := m.trail.Append(ctx, audit.Change{
			EntityType: string(kind.Kind),
			EntityID:   h.ID,
			Action:     audit.ActionFor(req.Target),
			From:       &from,
			To:         req.Target,
			Before:     json.RawMessage(before),
			After:      rec,
			Actor:      req.Actor,
			Comment:    req.Comment,
		}); err != nil {
			return err
		}

		if err := m.notifier.OnTransition(ctx, Event{
			Kind:     kind.Kind,
			RecordID: h.ID,
			Label:    rec.Label(),
			OwnerID:  h.CreatedBy,
			From:     from,
			To:       req.Target,
			Actor:    req.Actor,
			Comment:  req.Comment,
		}); err != nil {
			return fmt.Errorf("notify transition: %w", err)
		}

		result = rec
		return nil
	})

	m.observer.ObserveTransition(string(kind.Kind), from, req.Target, outcomeOf(err))
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "record transitioned",
		"kind", kind.Kind,
		"record_id", req.RecordID,
		"from", from,
		"to", req.Target,
		"actor_id", req.Actor.ID,
	)
	return result, nil
}

// AllowedTargets lists the states actor may move rec to next, leaving
// guard rules and version checks to Transition.
func (m *Machine) AllowedTargets(kind KindSpec, rec Record, actor security.Actor) []entity.Status {
	out := []entity.Status{}
	for _, to := range Targets(kind, rec.CurrentStatus()) {
		if m.authorize(kind, rec, to, actor) == nil {
			out = append(out, to)
		}
	}
	return out
}

func (m *Machine) authorize(kind KindSpec, rec Record, to entity.Status, actor security.Actor) error {
	switch to {
	case entity.StatusSubmitted:
		if rec.OwnerID() != actor.ID {
			return apperror.NewForbidden("only the owner can submit this record")
		}
	case entity.StatusInReview:
		if !actor.Role.CanManageTeam() {
			return apperror.NewForbidden("only a manager or admin can start a review")
		}
	case entity.StatusApproved, entity.StatusRejected:
		if !actor.Role.CanManageTeam() {
			return apperror.NewForbidden("only a manager or admin can decide on this record")
		}
		if err := actor.Require(m.perms, kind.Resource, security.ActionApprove); err != nil {
			return err
		}
	case entity.StatusForwarded:
		if err := actor.Require(m.perms, security.ResourceSupplyChain, security.ActionForward); err != nil {
			return err
		}
	case entity.StatusDraft:
		return apperror.NewForbidden("records can not return to draft")
	}
	return nil
}

func outcomeOf(err error) string {
	if err == nil {
		return OutcomeOK
	}
	appErr, ok := apperror.AsAppError(err)
	if !ok {
		return OutcomeError
	}
	switch appErr.Code {
	case apperror.CodeNotFound:
		return OutcomeNotFound
	case apperror.CodeInvalidTransition:
		return OutcomeInvalidTransition
	case apperror.CodeForbidden:
		return OutcomeForbidden
	case apperror.CodeConcurrentModification:
		return OutcomeConflict
	}
	return OutcomeError
}
