package lifecycle

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abbakari/works/internal/core/apperror"
	"github.com/abbakari/works/internal/core/entity"
	"github.com/abbakari/works/internal/core/id"
	"github.com/abbakari/works/internal/core/security"
	"github.com/abbakari/works/internal/domain/audit"
)

type testRecord struct {
	entity.Record
	Lines []decimal.Decimal `json:"lines"`
	Total decimal.Decimal   `json:"total"`
}

func (r *testRecord) Recompute() {
	r.Total = decimal.Zero
	for _, l := range r.Lines {
		r.Total = r.Total.Add(l)
	}
}
func (r *testRecord) TotalValue() decimal.Decimal { return r.Total }
func (r *testRecord) Label() string               { return "test record" }

type memStore struct {
	mu      sync.Mutex
	records map[id.ID]testRecord
	saveErr error
}

func newMemStore() *memStore { return &memStore{records: map[id.ID]testRecord{}} }

func (s *memStore) put(r *testRecord) { s.records[r.ID] = *r }

func (s *memStore) get(recID id.ID) testRecord { return s.records[recID] }

func (s *memStore) LockForTransition(_ context.Context, recID id.ID) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.records[recID]
	if !ok {
		return nil, apperror.NewNotFound("record", recID)
	}
	cp := r
	return &cp, nil
}

func (s *memStore) SaveTransition(_ context.Context, rec Record) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	r := rec.(*testRecord)
	r.Version++
	s.records[r.ID] = *r
	return nil
}

// rollbackTx emulates a transaction: on error it restores the store and
// drops audit rows written by fn.
type rollbackTx struct {
	store *memStore
	audit *audit.MemoryRepository
}

func (t rollbackTx) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	saved := make(map[id.ID]testRecord, len(t.store.records))
	for k, v := range t.store.records {
		saved[k] = v
	}
	n := len(t.audit.All())
	if err := fn(ctx); err != nil {
		t.store.records = saved
		t.audit.Truncate(n)
		return err
	}
	return nil
}

type staticReports map[id.ID][]id.ID

func (s staticReports) DirectReports(_ context.Context, m id.ID) ([]id.ID, error) { return s[m], nil }

type recordingNotifier struct {
	events []Event
	err    error
}

func (n *recordingNotifier) OnTransition(_ context.Context, ev Event) error {
	if n.err != nil {
		return n.err
	}
	n.events = append(n.events, ev)
	return nil
}

type countingObserver struct{ outcomes []string }

func (o *countingObserver) ObserveTransition(_ string, _, _ entity.Status, outcome string) {
	o.outcomes = append(o.outcomes, outcome)
}

type harness struct {
	machine  *Machine
	store    *memStore
	audit    *audit.MemoryRepository
	trail    *audit.Trail
	notifier *recordingNotifier
	observer *countingObserver

	admin, manager, salesman, otherSalesman, supply security.Actor
}

func newHarness(t *testing.T, opts ...Option) *harness {
	t.Helper()
	h := &harness{
		store:    newMemStore(),
		audit:    audit.NewMemoryRepository(),
		notifier: &recordingNotifier{},
		observer: &countingObserver{},
	}
	h.admin = security.Actor{ID: id.New(), Role: security.RoleAdmin}
	h.manager = security.Actor{ID: id.New(), Role: security.RoleManager}
	h.salesman = security.Actor{ID: id.New(), Role: security.RoleSalesman, ManagerID: id.Ptr(h.manager.ID)}
	h.otherSalesman = security.Actor{ID: id.New(), Role: security.RoleSalesman}
	h.supply = security.Actor{ID: id.New(), Role: security.RoleSupplyChain}

	perms := security.NewResolver(security.DefaultPolicy())
	scopes := security.NewScopeResolver(perms, staticReports{h.manager.ID: {h.salesman.ID}})
	h.trail = audit.NewTrail(h.audit)

	all := append([]Option{WithNotifier(h.notifier), WithObserver(h.observer)}, opts...)
	h.machine = NewMachine(rollbackTx{store: h.store, audit: h.audit}, perms, scopes, h.trail, all...)
	return h
}

func (h *harness) create(t *testing.T, owner security.Actor, lines ...int64) *testRecord {
	t.Helper()
	r := &testRecord{Record: entity.NewRecord(owner.ID)}
	for _, l := range lines {
		r.Lines = append(r.Lines, decimal.NewFromInt(l))
	}
	r.Recompute()
	h.store.put(r)
	require.NoError(t, h.trail.Created(context.Background(), string(KindSalesBudget), &r.Record, r, owner))
	return r
}

func (h *harness) move(rec *testRecord, kind KindSpec, to entity.Status, actor security.Actor) (Record, error) {
	return h.machine.Transition(context.Background(), kind, h.store, Request{RecordID: rec.ID, Target: to, Actor: actor})
}

func (h *harness) assertStatusMatchesLastAudit(t *testing.T, rec *testRecord, kind Kind) {
	t.Helper()
	history, err := h.trail.HistoryFor(context.Background(), string(kind), rec.ID)
	require.NoError(t, err)
	require.NotEmpty(t, history)
	assert.Equal(t, h.store.get(rec.ID).Status, history[0].ToState)
}

func TestTransition_SubmitThenManagerApproves(t *testing.T) {
	h := newHarness(t)
	rec := h.create(t, h.salesman, 100000, 150000)

	_, err := h.move(rec, SalesBudgetSpec, entity.StatusSubmitted, h.salesman)
	require.NoError(t, err)
	out, err := h.move(rec, SalesBudgetSpec, entity.StatusApproved, h.manager)
	require.NoError(t, err)

	stored := h.store.get(rec.ID)
	assert.Equal(t, entity.StatusApproved, stored.Status)
	assert.Equal(t, entity.PriorityHigh, stored.Priority)
	assert.Equal(t, entity.StatusApproved, out.Header().Status)
	require.NotNil(t, stored.ApprovedBy)
	assert.Equal(t, h.manager.ID, *stored.ApprovedBy)

	history, err := h.trail.HistoryFor(context.Background(), string(KindSalesBudget), rec.ID)
	require.NoError(t, err)
	require.Len(t, history, 3)

	created, submitted, approved := history[2], history[1], history[0]
	assert.Equal(t, audit.ActionCreated, created.Action)
	assert.Equal(t, h.salesman.ID, created.ActorID)

	assert.Equal(t, entity.StatusDraft, *submitted.FromState)
	assert.Equal(t, entity.StatusSubmitted, submitted.ToState)
	assert.Equal(t, h.salesman.ID, submitted.ActorID)

	assert.Equal(t, entity.StatusSubmitted, *approved.FromState)
	assert.Equal(t, entity.StatusApproved, approved.ToState)
	assert.Equal(t, h.manager.ID, approved.ActorID)

	h.assertStatusMatchesLastAudit(t, rec, KindSalesBudget)

	require.Len(t, h.notifier.events, 2)
	assert.Equal(t, entity.StatusApproved, h.notifier.events[1].To)
	assert.Equal(t, []string{OutcomeOK, OutcomeOK}, h.observer.outcomes)
}

func TestTransition_SalesmanCannotApproveOwnRecord(t *testing.T) {
	h := newHarness(t)
	rec := h.create(t, h.salesman, 10)
	_, err := h.move(rec, SalesBudgetSpec, entity.StatusSubmitted, h.salesman)
	require.NoError(t, err)

	_, err = h.move(rec, SalesBudgetSpec, entity.StatusApproved, h.salesman)
	assert.True(t, apperror.IsForbidden(err), "got %v", err)
	assert.Equal(t, entity.StatusSubmitted, h.store.get(rec.ID).Status)
	h.assertStatusMatchesLastAudit(t, rec, KindSalesBudget)
}

func TestTransition_IllegalEdgeLeavesRecordUnchanged(t *testing.T) {
	h := newHarness(t)
	rec := h.create(t, h.salesman, 10)
	before := len(h.audit.All())

	_, err := h.move(rec, SalesBudgetSpec, entity.StatusApproved, h.manager)
	assert.True(t, apperror.IsInvalidTransition(err), "got %v", err)
	assert.Equal(t, entity.StatusDraft, h.store.get(rec.ID).Status)
	assert.Len(t, h.audit.All(), before)
	assert.Empty(t, h.notifier.events)
	assert.Equal(t, []string{OutcomeInvalidTransition}, h.observer.outcomes)
}

func TestTransition_EdgeTable(t *testing.T) {
	for _, from := range entity.AllStatuses {
		for _, to := range entity.AllStatuses {
			want := false
			switch {
			case from == entity.StatusDraft && to == entity.StatusSubmitted:
				want = true
			case from == entity.StatusSubmitted && (to == entity.StatusInReview || to == entity.StatusApproved || to == entity.StatusRejected):
				want = true
			case from == entity.StatusInReview && (to == entity.StatusApproved || to == entity.StatusRejected):
				want = true
			case from == entity.StatusApproved && to == entity.StatusForwarded:
				want = true
			}
			if got := CanMove(WorkflowItemSpec, from, to); got != want {
				t.Errorf("CanMove(workflow, %s, %s) = %v, want %v", from, to, got, want)
			}
		}
	}
	if CanMove(SalesBudgetSpec, entity.StatusApproved, entity.StatusForwarded) {
		t.Error("budgets must not be forwardable")
	}
}

func TestTransition_OutOfScopeIsNotFound(t *testing.T) {
	h := newHarness(t)
	rec := h.create(t, h.otherSalesman, 10)

	_, err := h.move(rec, SalesBudgetSpec, entity.StatusSubmitted, h.salesman)
	assert.True(t, apperror.IsNotFound(err), "other owner's record: %v", err)

	// otherSalesman does not report to manager.
	_, err = h.move(rec, SalesBudgetSpec, entity.StatusSubmitted, h.otherSalesman)
	require.NoError(t, err)
	_, err = h.move(rec, SalesBudgetSpec, entity.StatusApproved, h.manager)
	assert.True(t, apperror.IsNotFound(err), "non-report record: %v", err)

	_, err = h.move(rec, SalesBudgetSpec, entity.StatusApproved, h.admin)
	assert.NoError(t, err)
}

func TestTransition_OnlyOwnerSubmits(t *testing.T) {
	h := newHarness(t)
	rec := h.create(t, h.salesman, 10)

	_, err := h.move(rec, SalesBudgetSpec, entity.StatusSubmitted, h.manager)
	assert.True(t, apperror.IsForbidden(err), "got %v", err)
}

func TestTransition_ReviewThenReject(t *testing.T) {
	h := newHarness(t)
	rec := h.create(t, h.salesman, 10)
	_, err := h.move(rec, ForecastSpec, entity.StatusSubmitted, h.salesman)
	require.NoError(t, err)

	_, err = h.move(rec, ForecastSpec, entity.StatusInReview, h.salesman)
	assert.True(t, apperror.IsForbidden(err))

	_, err = h.move(rec, ForecastSpec, entity.StatusInReview, h.manager)
	require.NoError(t, err)
	_, err = h.move(rec, ForecastSpec, entity.StatusRejected, h.manager)
	require.NoError(t, err)

	stored := h.store.get(rec.ID)
	assert.Equal(t, entity.StatusRejected, stored.Status)
	assert.NotNil(t, stored.ReviewedAt)
	assert.NotNil(t, stored.RejectedAt)

	_, err = h.move(rec, ForecastSpec, entity.StatusApproved, h.manager)
	assert.True(t, apperror.IsInvalidTransition(err), "rejected is terminal: %v", err)
}

func TestTransition_ForwardBySupplyChain(t *testing.T) {
	h := newHarness(t)
	rec := h.create(t, h.salesman, 10)
	for _, step := range []struct {
		to    entity.Status
		actor security.Actor
	}{
		{entity.StatusSubmitted, h.salesman},
		{entity.StatusApproved, h.manager},
	} {
		_, err := h.move(rec, WorkflowItemSpec, step.to, step.actor)
		require.NoError(t, err)
	}

	_, err := h.move(rec, WorkflowItemSpec, entity.StatusForwarded, h.salesman)
	assert.True(t, apperror.IsForbidden(err), "salesman forward: %v", err)

	_, err = h.move(rec, WorkflowItemSpec, entity.StatusForwarded, h.supply)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusForwarded, h.store.get(rec.ID).Status)
	h.assertStatusMatchesLastAudit(t, rec, KindWorkflowItem)
}

func TestTransition_ExpectedVersionMismatch(t *testing.T) {
	h := newHarness(t)
	rec := h.create(t, h.salesman, 10)

	_, err := h.machine.Transition(context.Background(), SalesBudgetSpec, h.store, Request{
		RecordID: rec.ID, Target: entity.StatusSubmitted, Actor: h.salesman, ExpectedVersion: rec.Version + 5,
	})
	assert.True(t, apperror.IsConcurrentModification(err), "got %v", err)
	assert.Equal(t, entity.StatusDraft, h.store.get(rec.ID).Status)
}

func TestTransition_NotifierFailureRollsBack(t *testing.T) {
	h := newHarness(t)
	rec := h.create(t, h.salesman, 10)
	before := len(h.audit.All())
	h.notifier.err = errors.New("inbox unavailable")

	_, err := h.move(rec, SalesBudgetSpec, entity.StatusSubmitted, h.salesman)
	require.Error(t, err)
	assert.Equal(t, entity.StatusDraft, h.store.get(rec.ID).Status)
	assert.Len(t, h.audit.All(), before)
	h.assertStatusMatchesLastAudit(t, rec, KindSalesBudget)
}

func TestTransition_GuardRule(t *testing.T) {
	guards, err := CompileGuards([]GuardRule{{
		Name:   "large-budgets-need-admin",
		Kind:   string(KindSalesBudget),
		Target: string(entity.StatusApproved),
		Expr:   `record.total_value <= 500000.0 || actor.role == "admin"`,
	}})
	require.NoError(t, err)

	h := newHarness(t, WithGuards(guards))
	rec := h.create(t, h.salesman, 400000, 300000)
	_, err = h.move(rec, SalesBudgetSpec, entity.StatusSubmitted, h.salesman)
	require.NoError(t, err)

	_, err = h.move(rec, SalesBudgetSpec, entity.StatusApproved, h.manager)
	require.True(t, apperror.IsForbidden(err), "got %v", err)
	appErr, _ := apperror.AsAppError(err)
	assert.Equal(t, "large-budgets-need-admin", appErr.Details["rule"])

	_, err = h.move(rec, SalesBudgetSpec, entity.StatusApproved, h.admin)
	assert.NoError(t, err)
}

func TestCompileGuards_RejectsBadRules(t *testing.T) {
	_, err := CompileGuards([]GuardRule{{Name: "bad", Target: "approved", Expr: `record.total_value +`}})
	assert.Error(t, err)

	_, err = CompileGuards([]GuardRule{{Name: "not-bool", Target: "approved", Expr: `1 + 2`}})
	assert.Error(t, err)

	_, err = CompileGuards([]GuardRule{{Name: "bad-state", Target: "archived", Expr: `true`}})
	assert.Error(t, err)
}

func TestAllowedTargets(t *testing.T) {
	h := newHarness(t)
	rec := &testRecord{Record: entity.NewRecord(h.salesman.ID)}

	tests := []struct {
		name   string
		status entity.Status
		kind   KindSpec
		actor  security.Actor
		want   []entity.Status
	}{
		{"owner submits draft", entity.StatusDraft, SalesBudgetSpec, h.salesman, []entity.Status{entity.StatusSubmitted}},
		{"manager can not submit for owner", entity.StatusDraft, SalesBudgetSpec, h.manager, []entity.Status{}},
		{"manager decides", entity.StatusSubmitted, SalesBudgetSpec, h.manager,
			[]entity.Status{entity.StatusInReview, entity.StatusApproved, entity.StatusRejected}},
		{"salesman waits", entity.StatusSubmitted, SalesBudgetSpec, h.salesman, []entity.Status{}},
		{"supply forwards workflow item", entity.StatusApproved, WorkflowItemSpec, h.supply, []entity.Status{entity.StatusForwarded}},
		{"budgets are never forwarded", entity.StatusApproved, SalesBudgetSpec, h.supply, []entity.Status{}},
		{"rejected is terminal", entity.StatusRejected, WorkflowItemSpec, h.admin, []entity.Status{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec.Status = tt.status
			assert.Equal(t, tt.want, h.machine.AllowedTargets(tt.kind, rec, tt.actor))
		})
	}
}
