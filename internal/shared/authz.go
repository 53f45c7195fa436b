package shared

// Per-operation role allow-lists. These are part of the service contract:
// every mutating entry point checks its list through Require before touching
// any record.
var (
	// PurchaseWriteRoles may add or revise purchases.
	PurchaseWriteRoles = []Role{RoleStockKeeper, RoleAccountant, RoleDirector}
	// PurchaseDeleteRoles may delete purchases.
	PurchaseDeleteRoles = []Role{RoleAccountant, RoleDirector}

	// SaleAddRoles may record sales.
	SaleAddRoles = []Role{RoleCashier, RoleDirector}
	// SaleManageRoles may update or delete sales.
	SaleManageRoles = []Role{RoleDirector}

	// ExpenseWriteRoles may add or update expenses.
	ExpenseWriteRoles = []Role{RoleAccountant, RoleDirector}
	// ExpenseDeleteRoles may delete expenses.
	ExpenseDeleteRoles = []Role{RoleAccountant, RoleDirector}

	// IncomeWriteRoles may add or update incomes.
	IncomeWriteRoles = []Role{RoleAccountant, RoleCashier, RoleDirector}
	// IncomeDeleteRoles may delete incomes.
	IncomeDeleteRoles = []Role{RoleDirector}

	// BudgetPlanRoles may create budgets and set planned figures.
	BudgetPlanRoles = []Role{RoleDirector}
	// BudgetActualsRoles may adjust accumulated actuals by hand.
	BudgetActualsRoles = []Role{RoleAccountant, RoleDirector}

	// StockManageRoles may add, override or delete stock rows manually.
	StockManageRoles = []Role{RoleStockKeeper}
	// CatalogManageRoles may manage products and categories.
	CatalogManageRoles = []Role{RoleStockKeeper}

	// PayrollWriteRoles may create, update and mark payrolls paid.
	PayrollWriteRoles = []Role{RoleAccountant, RoleDirector}
	// PayrollDeleteRoles may delete payrolls.
	PayrollDeleteRoles = []Role{RoleDirector}
)
