package stock

import (
	"fmt"
	"time"

	"github.com/storekeep-erp/storekeep-erp/internal/shared"
)

// Stock is the authoritative on-hand quantity for one product. Rows are
// created lazily on first inbound movement; a missing row reads as zero on
// the adjustment paths. Quantity is never negative at rest.
type Stock struct {
	ProductID int64
	Quantity  int64
	UpdatedAt time.Time
}

var (
	// ErrNotFound indicates no stock row exists for the product.
	ErrNotFound = fmt.Errorf("stock: %w", shared.ErrNotFound)
	// ErrValidation indicates invalid input, raised before any write.
	ErrValidation = fmt.Errorf("stock: %w", shared.ErrValidation)
	// ErrInsufficientStock is raised when an outbound adjustment would drive
	// the quantity negative. The triggering write is not committed.
	ErrInsufficientStock = fmt.Errorf("stock: %w", shared.ErrInsufficientStock)
)
