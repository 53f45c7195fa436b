package payroll

import (
	"fmt"
	"time"

	"github.com/storekeep-erp/storekeep-erp/internal/shared"
)

// Payroll tracks one employee's salary accrual for a period. TotalAmount is
// always hours times rate. Paid flips exactly once, unpaid to paid.
type Payroll struct {
	ID           int64
	EmployeeID   int64
	AccountantID int64
	HoursWorked  float64
	HourlyRate   float64
	TotalAmount  float64
	PeriodStart  time.Time
	PeriodEnd    time.Time
	Paid         bool
	PaymentDate  *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

var (
	// ErrNotFound indicates the payroll does not exist.
	ErrNotFound = fmt.Errorf("payroll: %w", shared.ErrNotFound)
	// ErrValidation indicates invalid input, raised before any write.
	ErrValidation = fmt.Errorf("payroll: %w", shared.ErrValidation)
)
