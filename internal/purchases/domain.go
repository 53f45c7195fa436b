package purchases

import (
	"fmt"
	"time"

	"github.com/storekeep-erp/storekeep-erp/internal/shared"
)

// Purchase records one inbound inventory event. Quantity and cost may be
// revised after the fact; deletion reverses the stock effect.
type Purchase struct {
	ID            int64
	ProductID     int64
	Quantity      int64
	StockKeeperID int64
	PurchaseDate  time.Time
	TotalCost     float64
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

var (
	// ErrNotFound indicates the purchase does not exist.
	ErrNotFound = fmt.Errorf("purchases: %w", shared.ErrNotFound)
	// ErrValidation indicates invalid input, raised before any write.
	ErrValidation = fmt.Errorf("purchases: %w", shared.ErrValidation)
)
