package sales

import (
	"fmt"
	"time"

	"github.com/storekeep-erp/storekeep-erp/internal/shared"
)

// Sale records one outbound inventory event. TotalAmount defaults to
// quantity times the product's sell price at the time of sale.
type Sale struct {
	ID          int64
	ProductID   int64
	Quantity    int64
	CashierID   int64
	SaleDate    time.Time
	TotalAmount float64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

var (
	// ErrNotFound indicates the sale does not exist.
	ErrNotFound = fmt.Errorf("sales: %w", shared.ErrNotFound)
	// ErrValidation indicates invalid input, raised before any write.
	ErrValidation = fmt.Errorf("sales: %w", shared.ErrValidation)
)
