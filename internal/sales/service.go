package sales

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/storekeep-erp/storekeep-erp/internal/catalog"
	"github.com/storekeep-erp/storekeep-erp/internal/shared"
)

// RepositoryPort abstracts repository usage for service.
type RepositoryPort interface {
	Get(ctx context.Context, id int64) (Sale, error)
	List(ctx context.Context, from, to time.Time) ([]Sale, error)
	Insert(ctx context.Context, s Sale) (int64, error)
	Update(ctx context.Context, s Sale) error
	Delete(ctx context.Context, id int64) error
}

// CatalogPort exposes the product registry lookups the pipeline needs.
type CatalogPort interface {
	GetProduct(ctx context.Context, id int64) (catalog.Product, error)
}

// StockPort exposes the ledger adjustments the pipeline needs.
type StockPort interface {
	Adjust(ctx context.Context, productID int64, delta int64) (int64, error)
}

// AuditPort abstracts audit logging functionality.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service records sales and keeps the stock ledger in step with them.
// Availability is a hard precondition: the stock decrement is applied before
// the record is persisted, so an insufficient balance leaves nothing behind.
type Service struct {
	repo    RepositoryPort
	catalog CatalogPort
	stock   StockPort
	audit   AuditPort
	logger  *slog.Logger
}

// NewService builds Service.
func NewService(repo RepositoryPort, cat CatalogPort, stk StockPort, audit AuditPort, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, catalog: cat, stock: stk, audit: audit, logger: logger}
}

// AddSaleInput describes a sale creation payload. TotalAmount overrides the
// derived quantity times sell price when positive.
type AddSaleInput struct {
	ProductID   int64
	Quantity    int64
	TotalAmount float64
	SaleDate    time.Time
	CashierID   int64
}

// AddSale validates availability, applies the outbound stock delta, then
// persists the sale. The persisted record is deleted again if the stock
// decrement cannot be reversed cleanly on a later failure.
func (s *Service) AddSale(ctx context.Context, actor *shared.Actor, input AddSaleInput) (Sale, error) {
	if err := shared.Require(actor, shared.SaleAddRoles...); err != nil {
		return Sale{}, err
	}
	if input.Quantity <= 0 {
		return Sale{}, fmt.Errorf("%w: quantity must be > 0", ErrValidation)
	}
	product, err := s.catalog.GetProduct(ctx, input.ProductID)
	if err != nil {
		return Sale{}, err
	}

	sale := Sale{
		ProductID:   input.ProductID,
		Quantity:    input.Quantity,
		CashierID:   input.CashierID,
		SaleDate:    input.SaleDate,
		TotalAmount: input.TotalAmount,
	}
	if sale.TotalAmount <= 0 {
		sale.TotalAmount = product.SellPrice * float64(sale.Quantity)
	}
	if sale.SaleDate.IsZero() {
		sale.SaleDate = time.Now().UTC()
	}
	if sale.CashierID == 0 {
		sale.CashierID = actor.ID
	}

	// Availability check and decrement in one step, before any persist.
	if _, err := s.stock.Adjust(ctx, sale.ProductID, -sale.Quantity); err != nil {
		return Sale{}, err
	}

	id, err := s.repo.Insert(ctx, sale)
	if err != nil {
		if _, revErr := s.stock.Adjust(ctx, sale.ProductID, sale.Quantity); revErr != nil {
			s.logger.Error("sale compensation failed",
				slog.Int64("product_id", sale.ProductID), slog.Any("error", revErr))
		}
		return Sale{}, err
	}
	sale.ID = id

	s.recordAudit(ctx, actor, "sale:add", id, map[string]any{
		"product_id":   sale.ProductID,
		"quantity":     sale.Quantity,
		"total_amount": sale.TotalAmount,
	})
	return sale, nil
}

// UpdateSaleInput revises a sale. A zero ProductID keeps the current product.
type UpdateSaleInput struct {
	ProductID int64
	Quantity  int64
}

// UpdateSale revises product and quantity. A product change reverses stock on
// the old product and re-verifies availability on the new one; a quantity
// change verifies only the incremental difference. The total amount is
// recomputed from the effective product's current sell price.
func (s *Service) UpdateSale(ctx context.Context, actor *shared.Actor, id int64, input UpdateSaleInput) (Sale, error) {
	if err := shared.Require(actor, shared.SaleManageRoles...); err != nil {
		return Sale{}, err
	}
	if input.Quantity <= 0 {
		return Sale{}, fmt.Errorf("%w: quantity must be > 0", ErrValidation)
	}
	sale, err := s.repo.Get(ctx, id)
	if err != nil {
		return Sale{}, err
	}

	newProductID := sale.ProductID
	if input.ProductID != 0 {
		newProductID = input.ProductID
	}
	product, err := s.catalog.GetProduct(ctx, newProductID)
	if err != nil {
		return Sale{}, err
	}

	if newProductID != sale.ProductID {
		// Give back the old product first, then take from the new one.
		if _, err := s.stock.Adjust(ctx, sale.ProductID, sale.Quantity); err != nil {
			return Sale{}, err
		}
		if _, err := s.stock.Adjust(ctx, newProductID, -input.Quantity); err != nil {
			if _, revErr := s.stock.Adjust(ctx, sale.ProductID, -sale.Quantity); revErr != nil {
				s.logger.Error("sale update compensation failed",
					slog.Int64("sale_id", id), slog.Any("error", revErr))
			}
			return Sale{}, err
		}
	} else if delta := input.Quantity - sale.Quantity; delta != 0 {
		if _, err := s.stock.Adjust(ctx, sale.ProductID, -delta); err != nil {
			return Sale{}, err
		}
	}

	oldProductID, oldQuantity := sale.ProductID, sale.Quantity
	sale.ProductID = newProductID
	sale.Quantity = input.Quantity
	sale.TotalAmount = product.SellPrice * float64(input.Quantity)
	if err := s.repo.Update(ctx, sale); err != nil {
		if _, revErr := s.stock.Adjust(ctx, newProductID, input.Quantity); revErr == nil {
			_, revErr = s.stock.Adjust(ctx, oldProductID, -oldQuantity)
			if revErr != nil {
				s.logger.Error("sale update compensation failed",
					slog.Int64("sale_id", id), slog.Any("error", revErr))
			}
		} else {
			s.logger.Error("sale update compensation failed",
				slog.Int64("sale_id", id), slog.Any("error", revErr))
		}
		return Sale{}, err
	}

	s.recordAudit(ctx, actor, "sale:update", id, map[string]any{
		"product_id":   sale.ProductID,
		"quantity":     sale.Quantity,
		"total_amount": sale.TotalAmount,
	})
	return sale, nil
}

// DeleteSale removes the record and gives the quantity back to stock. The
// reversal only adds, so it never fails an availability check.
func (s *Service) DeleteSale(ctx context.Context, actor *shared.Actor, id int64) error {
	if err := shared.Require(actor, shared.SaleManageRoles...); err != nil {
		return err
	}
	sale, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	if _, err := s.stock.Adjust(ctx, sale.ProductID, sale.Quantity); err != nil {
		s.logger.Error("sale deletion stock reversal failed",
			slog.Int64("sale_id", id), slog.Any("error", err))
	}

	s.recordAudit(ctx, actor, "sale:delete", id, map[string]any{
		"product_id": sale.ProductID,
		"quantity":   sale.Quantity,
	})
	return nil
}

// GetSale fetches a sale by id.
func (s *Service) GetSale(ctx context.Context, id int64) (Sale, error) {
	return s.repo.Get(ctx, id)
}

// ListSales returns sales within whole calendar days [from, to].
func (s *Service) ListSales(ctx context.Context, from, to time.Time) ([]Sale, error) {
	start, end := shared.DayRange(from, to)
	return s.repo.List(ctx, start, end)
}

func (s *Service) recordAudit(ctx context.Context, actor *shared.Actor, action string, id int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actor.ID,
		Action:   action,
		Entity:   "sale",
		EntityID: fmt.Sprintf("%d", id),
		Meta:     meta,
	})
}
