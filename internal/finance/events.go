package finance

import (
	"context"
	"time"
)

// AccrualKind distinguishes which actual total a budget accrual touches.
type AccrualKind string

const (
	// AccrualIncome accumulates into the month's actual income.
	AccrualIncome AccrualKind = "INCOME"
	// AccrualExpense accumulates into the month's actual expenses.
	AccrualExpense AccrualKind = "EXPENSE"
)

// BudgetAccrualEvent carries a signed delta for the month owning Date.
// Removals and downward adjustments send negative amounts. Ref is a unique
// token guarding against double application on retry.
type BudgetAccrualEvent struct {
	Kind   AccrualKind
	Amount float64
	Date   time.Time
	Ref    string
}

// AccrualDispatcher hands a budget accrual to the deferred-postings pipeline.
// Dispatch failures are logged by the caller and never fail the journal
// entry itself.
type AccrualDispatcher interface {
	DispatchBudgetAccrual(ctx context.Context, evt BudgetAccrualEvent) error
}
