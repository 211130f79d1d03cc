package security

import (
	"sort"
)

// Resource is the subject of a capability.
type Resource string

const (
	ResourceDashboard            Resource = "dashboard"
	ResourceUsers                Resource = "users"
	ResourceReports              Resource = "reports"
	ResourceSettings             Resource = "settings"
	ResourceApprovals            Resource = "approvals"
	ResourceSalesBudget          Resource = "sales_budget"
	ResourceForecasts            Resource = "forecasts"
	ResourceOwnData              Resource = "own_data"
	ResourceCustomers            Resource = "customers"
	ResourceFeedback             Resource = "feedback"
	ResourceTeamData             Resource = "team_data"
	ResourceSupplyChain          Resource = "supply_chain"
	ResourceApprovedBudgets      Resource = "approved_budgets"
	ResourceApprovedForecasts    Resource = "approved_forecasts"
	ResourceInventory            Resource = "inventory"
	ResourceSupplyPlanning       Resource = "supply_planning"
	ResourceCustomerSatisfaction Resource = "customer_satisfaction"
	ResourceStockRequests        Resource = "stock_requests"
	ResourceAudit                Resource = "audit"
)

// Action is what a capability allows on a resource.
type Action string

const (
	ActionRead    Action = "read"
	ActionReadAll Action = "read_all"
	ActionCreate  Action = "create"
	ActionManage  Action = "manage"
	ActionApprove Action = "approve"
	ActionSubmit  Action = "submit"
	ActionForward Action = "forward"
)

// Capability is a (resource, action) pair.
type Capability struct {
	Resource Resource `json:"resource" yaml:"resource"`
	Action   Action   `json:"action" yaml:"action"`
}

// Cap is a shorthand constructor.
func Cap(r Resource, a Action) Capability {
	return Capability{Resource: r, Action: a}
}

func (c Capability) String() string {
	return string(c.Resource) + ":" + string(c.Action)
}

// Dashboard names a UI area a role may open.
type Dashboard string

const (
	DashboardMain                   Dashboard = "Dashboard"
	DashboardSalesBudget            Dashboard = "SalesBudget"
	DashboardRollingForecast        Dashboard = "RollingForecast"
	DashboardUserManagement         Dashboard = "UserManagement"
	DashboardDataSources            Dashboard = "DataSources"
	DashboardInventoryManagement    Dashboard = "InventoryManagement"
	DashboardDistributionManagement Dashboard = "DistributionManagement"
	DashboardBi                     Dashboard = "BiDashboard"
	DashboardApprovalCenter         Dashboard = "ApprovalCenter"
	DashboardSupplyChain            Dashboard = "SupplyChainDashboard"
)

// Policy is the role to capability mapping the Resolver is built from.
// Construct it once at startup; it is not mutated afterwards.
type Policy struct {
	Capabilities map[Role][]Capability
	Dashboards   map[Role][]Dashboard
}

// DefaultPolicy returns the built-in role mapping.
func DefaultPolicy() Policy {
	p := Policy{
		Capabilities: make(map[Role][]Capability, len(AllRoles)),
		Dashboards:   make(map[Role][]Dashboard, len(AllRoles)),
	}
	for _, r := range AllRoles {
		p.Capabilities[r] = defaultCapabilities(r)
		p.Dashboards[r] = defaultDashboards(r)
	}
	return p
}

func defaultCapabilities(r Role) []Capability {
	switch r {
	case RoleAdmin:
		return []Capability{
			Cap(ResourceDashboard, ActionRead),
			Cap(ResourceUsers, ActionManage),
			Cap(ResourceReports, ActionRead),
			Cap(ResourceSettings, ActionManage),
			Cap(ResourceApprovals, ActionManage),
			Cap(ResourceApprovals, ActionApprove),
			Cap(ResourceApprovals, ActionSubmit),
			Cap(ResourceSalesBudget, ActionCreate),
			Cap(ResourceSalesBudget, ActionApprove),
			Cap(ResourceForecasts, ActionCreate),
			Cap(ResourceForecasts, ActionApprove),
			Cap(ResourceSupplyChain, ActionForward),
			Cap(ResourceInventory, ActionManage),
			Cap(ResourceStockRequests, ActionCreate),
			Cap(ResourceStockRequests, ActionApprove),
			Cap(ResourceCustomers, ActionManage),
			Cap(ResourceAudit, ActionRead),
		}
	case RoleSalesman:
		return []Capability{
			Cap(ResourceSalesBudget, ActionCreate),
			Cap(ResourceApprovals, ActionSubmit),
			Cap(ResourceForecasts, ActionCreate),
			Cap(ResourceOwnData, ActionRead),
			Cap(ResourceCustomers, ActionManage),
			Cap(ResourceStockRequests, ActionCreate),
		}
	case RoleManager:
		return []Capability{
			Cap(ResourceSalesBudget, ActionApprove),
			Cap(ResourceSalesBudget, ActionCreate),
			Cap(ResourceForecasts, ActionApprove),
			Cap(ResourceForecasts, ActionCreate),
			Cap(ResourceFeedback, ActionCreate),
			Cap(ResourceTeamData, ActionRead),
			Cap(ResourceSupplyChain, ActionForward),
			Cap(ResourceApprovals, ActionApprove),
			Cap(ResourceApprovals, ActionSubmit),
			Cap(ResourceStockRequests, ActionApprove),
			Cap(ResourceStockRequests, ActionCreate),
		}
	case RoleSupplyChain:
		return []Capability{
			Cap(ResourceApprovedBudgets, ActionRead),
			Cap(ResourceApprovedForecasts, ActionRead),
			Cap(ResourceInventory, ActionManage),
			Cap(ResourceSupplyPlanning, ActionManage),
			Cap(ResourceCustomerSatisfaction, ActionRead),
			Cap(ResourceSupplyChain, ActionForward),
		}
	case RoleUnknown:
		return nil
	}
	return nil
}

func defaultDashboards(r Role) []Dashboard {
	switch r {
	case RoleAdmin:
		return []Dashboard{
			DashboardMain, DashboardSalesBudget, DashboardRollingForecast,
			DashboardUserManagement, DashboardDataSources, DashboardInventoryManagement,
			DashboardDistributionManagement, DashboardBi,
		}
	case RoleSalesman:
		return []Dashboard{DashboardMain, DashboardSalesBudget, DashboardRollingForecast}
	case RoleManager:
		return []Dashboard{DashboardMain, DashboardSalesBudget, DashboardRollingForecast, DashboardApprovalCenter}
	case RoleSupplyChain:
		return []Dashboard{DashboardMain, DashboardInventoryManagement, DashboardDistributionManagement, DashboardSupplyChain}
	case RoleUnknown:
		return nil
	}
	return nil
}

// Resolver answers capability questions for roles. Safe for concurrent use:
// all state is built in NewResolver and only read afterwards.
type Resolver struct {
	caps       map[Role]map[Capability]struct{}
	dashboards map[Role]map[Dashboard]struct{}
}

// NewResolver builds a resolver from p. Later changes to p are not observed.
func NewResolver(p Policy) *Resolver {
	r := &Resolver{
		caps:       make(map[Role]map[Capability]struct{}, len(p.Capabilities)),
		dashboards: make(map[Role]map[Dashboard]struct{}, len(p.Dashboards)),
	}
	for role, list := range p.Capabilities {
		set := make(map[Capability]struct{}, len(list))
		for _, c := range list {
			set[c] = struct{}{}
		}
		r.caps[role] = set
	}
	for role, list := range p.Dashboards {
		set := make(map[Dashboard]struct{}, len(list))
		for _, d := range list {
			set[d] = struct{}{}
		}
		r.dashboards[role] = set
	}
	return r
}

// PermissionsFor returns the capabilities of role, sorted. Unknown role yields an empty slice.
func (r *Resolver) PermissionsFor(role Role) []Capability {
	set := r.caps[role]
	out := make([]Capability, 0, len(set))
	for c := range set {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}

// DashboardsFor returns the dashboards of role, sorted.
func (r *Resolver) DashboardsFor(role Role) []Dashboard {
	set := r.dashboards[role]
	out := make([]Dashboard, 0, len(set))
	for d := range set {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// HasPermission is a membership test on PermissionsFor(role).
func (r *Resolver) HasPermission(role Role, res Resource, act Action) bool {
	_, ok := r.caps[role][Cap(res, act)]
	return ok
}

// CanAccessDashboard is a membership test on DashboardsFor(role).
func (r *Resolver) CanAccessDashboard(role Role, d Dashboard) bool {
	_, ok := r.dashboards[role][d]
	return ok
}
