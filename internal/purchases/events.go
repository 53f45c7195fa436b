package purchases

import (
	"context"
	"time"
)

// PostingKind distinguishes the expense posting operations derived from the
// purchase lifecycle.
type PostingKind string

const (
	// PostingCreate posts a new expense equal to the purchase total cost.
	PostingCreate PostingKind = "CREATE"
	// PostingAdjust revises the linked expense to the new total cost.
	PostingAdjust PostingKind = "ADJUST"
	// PostingRemove removes the linked expense.
	PostingRemove PostingKind = "REMOVE"
)

// ExpensePostingEvent carries everything the financial journal needs to keep
// the one-expense-per-purchase invariant. Ref is a unique token guarding
// against double application on retry.
type ExpensePostingEvent struct {
	Kind       PostingKind
	PurchaseID int64
	Amount     float64
	Date       time.Time
	ActorID    int64
	Ref        string
}

// PostingDispatcher hands an expense posting to the deferred-postings
// pipeline. Dispatch failures are logged by the caller and never fail the
// purchase itself.
type PostingDispatcher interface {
	DispatchExpensePosting(ctx context.Context, evt ExpensePostingEvent) error
}
