package shared

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRequireUnauthenticated(t *testing.T) {
	require.ErrorIs(t, Require(nil, RoleDirector), ErrUnauthenticated)
	require.ErrorIs(t, Require(&Actor{}, RoleDirector), ErrUnauthenticated)
}

func TestRequireRoleAllowLists(t *testing.T) {
	director := &Actor{ID: 1, Role: RoleDirector}
	accountant := &Actor{ID: 2, Role: RoleAccountant}
	cashier := &Actor{ID: 3, Role: RoleCashier}
	keeper := &Actor{ID: 4, Role: RoleStockKeeper}

	cases := []struct {
		name    string
		allowed []Role
		granted []*Actor
		denied  []*Actor
	}{
		{"purchase write", PurchaseWriteRoles, []*Actor{keeper, accountant, director}, []*Actor{cashier}},
		{"purchase delete", PurchaseDeleteRoles, []*Actor{accountant, director}, []*Actor{keeper, cashier}},
		{"sale add", SaleAddRoles, []*Actor{cashier, director}, []*Actor{keeper, accountant}},
		{"sale manage", SaleManageRoles, []*Actor{director}, []*Actor{keeper, accountant, cashier}},
		{"expense write", ExpenseWriteRoles, []*Actor{accountant, director}, []*Actor{keeper, cashier}},
		{"income write", IncomeWriteRoles, []*Actor{accountant, cashier, director}, []*Actor{keeper}},
		{"income delete", IncomeDeleteRoles, []*Actor{director}, []*Actor{keeper, accountant, cashier}},
		{"budget plan", BudgetPlanRoles, []*Actor{director}, []*Actor{keeper, accountant, cashier}},
		{"budget actuals", BudgetActualsRoles, []*Actor{accountant, director}, []*Actor{keeper, cashier}},
		{"stock manage", StockManageRoles, []*Actor{keeper}, []*Actor{accountant, cashier, director}},
		{"catalog manage", CatalogManageRoles, []*Actor{keeper}, []*Actor{accountant, cashier, director}},
		{"payroll write", PayrollWriteRoles, []*Actor{accountant, director}, []*Actor{keeper, cashier}},
		{"payroll delete", PayrollDeleteRoles, []*Actor{director}, []*Actor{keeper, accountant, cashier}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			for _, actor := range tc.granted {
				require.NoError(t, Require(actor, tc.allowed...))
			}
			for _, actor := range tc.denied {
				require.ErrorIs(t, Require(actor, tc.allowed...), ErrForbidden)
			}
		})
	}
}

func TestParseRole(t *testing.T) {
	role, err := ParseRole(" stock_keeper ")
	require.NoError(t, err)
	require.Equal(t, RoleStockKeeper, role)

	_, err = ParseRole("intern")
	require.Error(t, err)
}
