package audit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abbakari/works/internal/core/apperror"
	"github.com/abbakari/works/internal/core/entity"
	"github.com/abbakari/works/internal/core/id"
	"github.com/abbakari/works/internal/core/security"
)

func TestTrail_AppendAndHistoryNewestFirst(t *testing.T) {
	repo := NewMemoryRepository()
	trail := NewTrail(repo)
	base := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	tick := 0
	trail.now = func() time.Time { tick++; return base.Add(time.Duration(tick) * time.Minute) }

	owner := security.Actor{ID: id.New(), Role: security.RoleSalesman}
	rec := entity.NewRecord(owner.ID)

	require.NoError(t, trail.Created(context.Background(), "sales_budget", &rec, map[string]any{"total": 10}, owner))
	require.NoError(t, trail.Updated(context.Background(), "sales_budget", &rec, nil, map[string]any{"total": 20}, owner))

	from := entity.StatusDraft
	_, err := trail.Append(context.Background(), Change{
		EntityType: "sales_budget", EntityID: rec.ID, Action: ActionSubmitted,
		From: &from, To: entity.StatusSubmitted, Actor: owner,
	})
	require.NoError(t, err)

	history, err := trail.HistoryFor(context.Background(), "sales_budget", rec.ID)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, ActionSubmitted, history[0].Action)
	assert.Equal(t, ActionUpdated, history[1].Action)
	assert.Equal(t, ActionCreated, history[2].Action)
	assert.Nil(t, history[2].FromState)
	assert.Equal(t, entity.StatusDraft, history[2].ToState)
	assert.JSONEq(t, `{"total":10}`, string(history[2].After))
	assert.Equal(t, "salesman", history[0].ActorRole)
}

func TestTrail_AppendRejectsIncompleteEntry(t *testing.T) {
	trail := NewTrail(NewMemoryRepository())

	_, err := trail.Append(context.Background(), Change{EntityType: "forecast", Action: ActionCreated, To: entity.StatusDraft})
	assert.True(t, apperror.IsValidation(err), "missing entity id: %v", err)

	_, err = trail.Append(context.Background(), Change{EntityType: "forecast", EntityID: id.New(), Action: ActionCreated, To: "saved"})
	assert.True(t, apperror.IsValidation(err), "bad state: %v", err)
}

func TestActionFor(t *testing.T) {
	tests := map[entity.Status]Action{
		entity.StatusSubmitted: ActionSubmitted,
		entity.StatusInReview:  ActionInReview,
		entity.StatusApproved:  ActionApproved,
		entity.StatusRejected:  ActionRejected,
		entity.StatusForwarded: ActionForwarded,
	}
	for st, want := range tests {
		if got := ActionFor(st); got != want {
			t.Errorf("ActionFor(%s) = %s, want %s", st, got, want)
		}
	}
}
