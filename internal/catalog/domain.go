package catalog

import (
	"fmt"
	"time"

	"github.com/storekeep-erp/storekeep-erp/internal/shared"
)

// Category groups products for purchasing and reporting.
type Category struct {
	ID        int64
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Product is the registry entry products are bought and sold under.
// Identity is immutable; prices are mutable by stock keepers.
type Product struct {
	ID         int64
	Name       string
	CategoryID int64
	BuyPrice   float64
	SellPrice  float64
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

var (
	// ErrNotFound indicates a missing product or category.
	ErrNotFound = fmt.Errorf("catalog: %w", shared.ErrNotFound)
	// ErrValidation indicates invalid input, raised before any write.
	ErrValidation = fmt.Errorf("catalog: %w", shared.ErrValidation)
)
