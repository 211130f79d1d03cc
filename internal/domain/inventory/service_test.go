package inventory

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abbakari/works/internal/core/apperror"
	"github.com/abbakari/works/internal/core/entity"
	"github.com/abbakari/works/internal/core/id"
	"github.com/abbakari/works/internal/core/security"
	"github.com/abbakari/works/internal/core/tx"
	"github.com/abbakari/works/internal/core/types"
	"github.com/abbakari/works/internal/domain"
	"github.com/abbakari/works/internal/domain/audit"
	"github.com/abbakari/works/internal/domain/lifecycle"
)

type memStock struct {
	mu   sync.Mutex
	rows map[id.ID]StockItem
}

func (m *memStock) Create(_ context.Context, s *StockItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[s.ID] = *s
	return nil
}

func (m *memStock) GetByID(_ context.Context, stockID id.ID) (*StockItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.rows[stockID]
	if !ok {
		return nil, apperror.NewNotFound(EntityStock, stockID)
	}
	return &s, nil
}

func (m *memStock) GetForUpdate(ctx context.Context, stockID id.ID) (*StockItem, error) {
	return m.GetByID(ctx, stockID)
}

func (m *memStock) Update(_ context.Context, s *StockItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.rows[s.ID].Version != s.Version {
		return apperror.NewConcurrentModification(EntityStock, s.ID)
	}
	s.Version++
	m.rows[s.ID] = *s
	return nil
}

func (m *memStock) List(_ context.Context, f StockFilter) (domain.ListResult[StockItem], error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	res := domain.ListResult[StockItem]{Limit: f.Limit}
	for _, s := range m.rows {
		if len(f.Statuses) > 0 && !containsStatus(f.Statuses, s.StockStatus) {
			continue
		}
		res.Items = append(res.Items, s)
	}
	res.TotalCount = int64(len(res.Items))
	return res, nil
}

func containsStatus(list []StockStatus, v StockStatus) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

func (m *memStock) Summary(context.Context) (*Summary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sum := &Summary{ByStatus: map[StockStatus]int64{}, TotalValue: types.Zero()}
	for _, s := range m.rows {
		sum.TotalItems++
		sum.ByStatus[s.StockStatus]++
		sum.TotalValue = sum.TotalValue.Add(s.TotalValue)
	}
	return sum, nil
}

type memMovements struct{ rows []Movement }

func (m *memMovements) Create(_ context.Context, mv *Movement) error {
	m.rows = append(m.rows, *mv)
	return nil
}

func (m *memMovements) ListByStock(_ context.Context, stockID id.ID, limit int) ([]Movement, error) {
	var out []Movement
	for i := len(m.rows) - 1; i >= 0 && len(out) < limit; i-- {
		if m.rows[i].StockItemID == stockID {
			out = append(out, m.rows[i])
		}
	}
	return out, nil
}

type memRequests struct {
	mu   sync.Mutex
	rows map[id.ID]StockRequest
}

func (m *memRequests) Create(_ context.Context, r *StockRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[r.ID] = *r
	return nil
}

func (m *memRequests) GetByID(_ context.Context, requestID id.ID) (*StockRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rows[requestID]
	if !ok {
		return nil, apperror.NewNotFound(EntityStockRequest, requestID)
	}
	return &r, nil
}

func (m *memRequests) GetForUpdate(ctx context.Context, requestID id.ID) (*StockRequest, error) {
	return m.GetByID(ctx, requestID)
}

func (m *memRequests) Update(_ context.Context, r *StockRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.rows[r.ID].Version != r.Version {
		return apperror.NewConcurrentModification(EntityStockRequest, r.ID)
	}
	r.Version++
	m.rows[r.ID] = *r
	return nil
}

func (m *memRequests) List(_ context.Context, scope security.Scope, f domain.ListFilter) (domain.ListResult[StockRequest], error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var all []*StockRequest
	for _, r := range m.rows {
		r := r
		all = append(all, &r)
	}
	res := domain.ListResult[StockRequest]{Limit: f.Limit}
	for _, r := range security.Filter(scope, all) {
		res.Items = append(res.Items, *r)
	}
	res.TotalCount = int64(len(res.Items))
	return res, nil
}

type stubItems struct{}

func (stubItems) ItemInfo(context.Context, id.ID) (string, string, string, types.Money, error) {
	return "TYR-195", "Tyre 195/65", "pcs", types.MustMoney("80"), nil
}

type reports map[id.ID][]id.ID

func (r reports) DirectReports(_ context.Context, m id.ID) ([]id.ID, error) { return r[m], nil }

type fixture struct {
	svc       *Service
	movements *memMovements

	manager, salesman, supply security.Actor
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{movements: &memMovements{}}
	f.manager = security.Actor{ID: id.New(), Role: security.RoleManager}
	f.salesman = security.Actor{ID: id.New(), Role: security.RoleSalesman, ManagerID: id.Ptr(f.manager.ID)}
	f.supply = security.Actor{ID: id.New(), Role: security.RoleSupplyChain}

	perms := security.NewResolver(security.DefaultPolicy())
	scopes := security.NewScopeResolver(perms, reports{f.manager.ID: {f.salesman.ID}})
	trail := audit.NewTrail(audit.NewMemoryRepository())
	f.svc = NewService(Deps{
		Stock:     &memStock{rows: map[id.ID]StockItem{}},
		Movements: f.movements,
		Requests:  &memRequests{rows: map[id.ID]StockRequest{}},
		Items:     stubItems{},
		TxManager: tx.Passthrough{},
		Perms:     perms,
		Scopes:    scopes,
		Machine:   lifecycle.NewMachine(tx.Passthrough{}, perms, scopes, trail),
		Trail:     trail,
	})
	return f
}

func TestService_CreateStockWithOpeningBalance(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	s, err := f.svc.CreateStock(ctx, f.supply, StockInput{
		ItemID: id.New(), Location: "WH-1", MinStock: 5, MaxStock: 50, ReorderPoint: 8,
		OpeningStock: 20, UnitCost: types.MustMoney("75"),
	})
	require.NoError(t, err)
	assert.Equal(t, "TYR-195", s.SKU)
	assert.Equal(t, int64(20), s.CurrentStock)
	assert.Equal(t, StatusNormal, s.StockStatus)
	assert.True(t, s.TotalValue.Equal(types.MustMoney("1500")), "value = %s", s.TotalValue)
	require.Len(t, f.movements.rows, 1)
	assert.Equal(t, s.ID, f.movements.rows[0].StockItemID)

	_, err = f.svc.CreateStock(ctx, f.salesman, StockInput{ItemID: id.New()})
	assert.True(t, apperror.IsForbidden(err))
}

func TestService_RecordMovement(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s, err := f.svc.CreateStock(ctx, f.supply, StockInput{ItemID: id.New(), MinStock: 5, ReorderPoint: 5, OpeningStock: 10})
	require.NoError(t, err)

	_, _, err = f.svc.RecordMovement(ctx, f.supply, s.ID, MovementInput{Type: MovementOut, Reason: ReasonSale, Quantity: 11})
	assert.True(t, apperror.IsValidation(err))

	m, updated, err := f.svc.RecordMovement(ctx, f.supply, s.ID, MovementInput{Type: MovementOut, Reason: ReasonSale, Quantity: 6})
	require.NoError(t, err)
	assert.Equal(t, int64(4), updated.CurrentStock)
	assert.Equal(t, StatusLow, updated.StockStatus)
	assert.True(t, m.TotalCost.Equal(types.MustMoney("480")))

	low, err := f.svc.LowStock(ctx, domain.ListFilter{})
	require.NoError(t, err)
	assert.Len(t, low.Items, 1)

	history, err := f.svc.Movements(ctx, s.ID, 0)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, MovementOut, history[0].Type)
}

func TestService_StockRequestFlow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	r, err := f.svc.CreateRequest(ctx, f.salesman, RequestInput{ItemID: id.New(), Quantity: 3000, Urgency: UrgencyHigh})
	require.NoError(t, err)
	assert.True(t, r.Value.Equal(types.MustMoney("240000")))
	assert.Equal(t, entity.PriorityHigh, r.Priority)

	_, err = f.svc.CreateRequest(ctx, f.supply, RequestInput{ItemID: id.New(), Quantity: 1})
	assert.True(t, apperror.IsForbidden(err))

	_, err = f.svc.TransitionRequest(ctx, f.salesman, r.ID, entity.StatusSubmitted, "", 0)
	require.NoError(t, err)
	_, err = f.svc.TransitionRequest(ctx, f.manager, r.ID, entity.StatusApproved, "", 0)
	require.NoError(t, err)

	visible, err := f.svc.ListRequests(ctx, f.supply, domain.ListFilter{})
	require.NoError(t, err)
	require.Len(t, visible.Items, 1)

	fwd, err := f.svc.TransitionRequest(ctx, f.supply, r.ID, entity.StatusForwarded, "ordering", 0)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusForwarded, fwd.Status)

	history, err := f.svc.RequestHistory(ctx, f.salesman, r.ID)
	require.NoError(t, err)
	assert.Len(t, history, 4)
}
