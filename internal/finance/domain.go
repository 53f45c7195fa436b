package finance

import (
	"fmt"
	"time"

	"github.com/storekeep-erp/storekeep-erp/internal/shared"
)

// Expense is a monetary outflow entry. PurchaseID links the single expense
// that mirrors a purchase's total cost; manual expenses leave it nil.
type Expense struct {
	ID         int64
	Category   string
	Amount     float64
	Date       time.Time
	RecordedBy int64
	PurchaseID *int64
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Income is a monetary inflow entry.
type Income struct {
	ID         int64
	Source     string
	Amount     float64
	Date       time.Time
	RecordedBy int64
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// PurchaseExpenseCategory tags the expense auto-created for a purchase.
const PurchaseExpenseCategory = "purchase"

var (
	// ErrNotFound indicates the journal entry does not exist.
	ErrNotFound = fmt.Errorf("finance: %w", shared.ErrNotFound)
	// ErrValidation indicates invalid input, raised before any write.
	ErrValidation = fmt.Errorf("finance: %w", shared.ErrValidation)
)
