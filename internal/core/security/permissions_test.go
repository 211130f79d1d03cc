package security

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseRole(t *testing.T) {
	tests := []struct {
		in   string
		want Role
	}{
		{"admin", RoleAdmin},
		{" Manager ", RoleManager},
		{"SALESMAN", RoleSalesman},
		{"supply_chain", RoleSupplyChain},
		{"root", RoleUnknown},
		{"", RoleUnknown},
	}
	for _, tt := range tests {
		if got := ParseRole(tt.in); got != tt.want {
			t.Errorf("ParseRole(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestResolver_HasPermission(t *testing.T) {
	r := NewResolver(DefaultPolicy())

	tests := []struct {
		name string
		role Role
		res  Resource
		act  Action
		want bool
	}{
		{"admin manages users", RoleAdmin, ResourceUsers, ActionManage, true},
		{"manager approves budgets", RoleManager, ResourceSalesBudget, ActionApprove, true},
		{"salesman can not approve budgets", RoleSalesman, ResourceSalesBudget, ActionApprove, false},
		{"salesman creates forecasts", RoleSalesman, ResourceForecasts, ActionCreate, true},
		{"supply chain forwards", RoleSupplyChain, ResourceSupplyChain, ActionForward, true},
		{"supply chain can not create budgets", RoleSupplyChain, ResourceSalesBudget, ActionCreate, false},
		{"unknown role has nothing", RoleUnknown, ResourceDashboard, ActionRead, false},
		{"made up role has nothing", Role("auditor"), ResourceDashboard, ActionRead, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, r.HasPermission(tt.role, tt.res, tt.act))
		})
	}
}

func TestResolver_PermissionsForMatchesHasPermission(t *testing.T) {
	r := NewResolver(DefaultPolicy())
	for _, role := range append(AllRoles, RoleUnknown) {
		perms := r.PermissionsFor(role)
		for _, c := range perms {
			if !r.HasPermission(role, c.Resource, c.Action) {
				t.Errorf("%s: %s listed but HasPermission is false", role, c)
			}
		}
		for i := 1; i < len(perms); i++ {
			if perms[i-1].String() >= perms[i].String() {
				t.Errorf("%s: permissions not sorted at %d", role, i)
			}
		}
	}
	assert.Empty(t, r.PermissionsFor(RoleUnknown))
}

func TestResolver_Dashboards(t *testing.T) {
	r := NewResolver(DefaultPolicy())

	assert.True(t, r.CanAccessDashboard(RoleManager, DashboardApprovalCenter))
	assert.False(t, r.CanAccessDashboard(RoleSalesman, DashboardApprovalCenter))
	assert.True(t, r.CanAccessDashboard(RoleSupplyChain, DashboardSupplyChain))
	assert.False(t, r.CanAccessDashboard(RoleUnknown, DashboardMain))
	assert.Len(t, r.DashboardsFor(RoleSalesman), 3)
}

func TestResolver_IgnoresPolicyMutation(t *testing.T) {
	p := DefaultPolicy()
	r := NewResolver(p)
	p.Capabilities[RoleSalesman] = append(p.Capabilities[RoleSalesman], Cap(ResourceUsers, ActionManage))

	if r.HasPermission(RoleSalesman, ResourceUsers, ActionManage) {
		t.Fatal("resolver observed policy mutation after construction")
	}
}
