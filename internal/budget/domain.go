package budget

import (
	"fmt"
	"time"

	"github.com/storekeep-erp/storekeep-erp/internal/shared"
)

// MonthlyBudget holds one calendar month's plan and accumulated actuals.
// Month is always normalized to the first of the month. NetResult is derived
// from the actuals and never set independently.
type MonthlyBudget struct {
	ID              int64
	Month           time.Time
	PlannedIncome   float64
	PlannedExpenses float64
	ActualIncome    float64
	ActualExpenses  float64
	NetResult       float64
	DirectorID      int64
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

var (
	// ErrNotFound indicates the budget does not exist.
	ErrNotFound = fmt.Errorf("budget: %w", shared.ErrNotFound)
	// ErrValidation indicates invalid input, raised before any write.
	ErrValidation = fmt.Errorf("budget: %w", shared.ErrValidation)
	// ErrConflict indicates a second budget mapping to an existing month.
	ErrConflict = fmt.Errorf("budget: %w", shared.ErrConflict)
)
