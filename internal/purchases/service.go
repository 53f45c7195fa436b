package purchases

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/storekeep-erp/storekeep-erp/internal/catalog"
	"github.com/storekeep-erp/storekeep-erp/internal/shared"
)

// RepositoryPort abstracts repository usage for service.
type RepositoryPort interface {
	Get(ctx context.Context, id int64) (Purchase, error)
	List(ctx context.Context, from, to time.Time) ([]Purchase, error)
	Insert(ctx context.Context, p Purchase) (int64, error)
	Update(ctx context.Context, p Purchase) error
	Delete(ctx context.Context, id int64) error
}

// CatalogPort exposes the product registry lookups the pipeline needs.
type CatalogPort interface {
	GetProduct(ctx context.Context, id int64) (catalog.Product, error)
}

// StockPort exposes the ledger adjustments the pipeline needs.
type StockPort interface {
	Adjust(ctx context.Context, productID int64, delta int64) (int64, error)
	AdjustFloor(ctx context.Context, productID int64, delta int64) (int64, error)
}

// AuditPort abstracts audit logging functionality.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service records purchases and keeps the stock ledger and expense journal
// in step with them.
type Service struct {
	repo       RepositoryPort
	catalog    CatalogPort
	stock      StockPort
	dispatcher PostingDispatcher
	audit      AuditPort
	logger     *slog.Logger
}

// NewService builds Service.
func NewService(repo RepositoryPort, cat CatalogPort, stk StockPort, dispatcher PostingDispatcher, audit AuditPort, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, catalog: cat, stock: stk, dispatcher: dispatcher, audit: audit, logger: logger}
}

// AddPurchaseInput describes a purchase creation payload.
type AddPurchaseInput struct {
	ProductID     int64
	Quantity      int64
	TotalCost     float64
	PurchaseDate  time.Time
	StockKeeperID int64
}

// AddPurchase validates and persists a purchase, applies the inbound stock
// delta, then hands the expense posting to the deferred pipeline. The posting
// is best-effort: its failure is logged and never rolls back the purchase.
func (s *Service) AddPurchase(ctx context.Context, actor *shared.Actor, input AddPurchaseInput) (Purchase, error) {
	if err := shared.Require(actor, shared.PurchaseWriteRoles...); err != nil {
		return Purchase{}, err
	}
	if input.Quantity <= 0 {
		return Purchase{}, fmt.Errorf("%w: quantity must be > 0", ErrValidation)
	}
	if input.TotalCost <= 0 {
		return Purchase{}, fmt.Errorf("%w: total cost must be > 0", ErrValidation)
	}
	if _, err := s.catalog.GetProduct(ctx, input.ProductID); err != nil {
		return Purchase{}, err
	}

	purchase := Purchase{
		ProductID:     input.ProductID,
		Quantity:      input.Quantity,
		StockKeeperID: input.StockKeeperID,
		PurchaseDate:  input.PurchaseDate,
		TotalCost:     input.TotalCost,
	}
	if purchase.PurchaseDate.IsZero() {
		purchase.PurchaseDate = time.Now().UTC()
	}
	if purchase.StockKeeperID == 0 {
		purchase.StockKeeperID = actor.ID
	}

	id, err := s.repo.Insert(ctx, purchase)
	if err != nil {
		return Purchase{}, err
	}
	purchase.ID = id

	if _, err := s.stock.Adjust(ctx, purchase.ProductID, purchase.Quantity); err != nil {
		// Keep invariant 1: a purchase without its stock effect must not
		// survive. Inbound deltas only fail on infrastructure errors.
		if delErr := s.repo.Delete(ctx, id); delErr != nil {
			s.logger.Error("purchase compensation failed",
				slog.Int64("purchase_id", id), slog.Any("error", delErr))
		}
		return Purchase{}, err
	}

	s.dispatchPosting(ctx, ExpensePostingEvent{
		Kind:       PostingCreate,
		PurchaseID: id,
		Amount:     purchase.TotalCost,
		Date:       purchase.PurchaseDate,
		ActorID:    actor.ID,
		Ref:        uuid.NewString(),
	})
	s.recordAudit(ctx, actor, "purchase:add", id, map[string]any{
		"product_id": purchase.ProductID,
		"quantity":   purchase.Quantity,
		"total_cost": purchase.TotalCost,
	})
	return purchase, nil
}

// UpdatePurchase revises the quantity; the total cost is recomputed from the
// product's current buy price. The stock delta applied is the difference to
// the old quantity, never an absolute set, and insufficient stock fails the
// whole update with nothing persisted.
func (s *Service) UpdatePurchase(ctx context.Context, actor *shared.Actor, id int64, newQuantity int64) (Purchase, error) {
	if err := shared.Require(actor, shared.PurchaseWriteRoles...); err != nil {
		return Purchase{}, err
	}
	if newQuantity <= 0 {
		return Purchase{}, fmt.Errorf("%w: quantity must be > 0", ErrValidation)
	}
	purchase, err := s.repo.Get(ctx, id)
	if err != nil {
		return Purchase{}, err
	}
	product, err := s.catalog.GetProduct(ctx, purchase.ProductID)
	if err != nil {
		return Purchase{}, err
	}
	newCost := product.BuyPrice * float64(newQuantity)
	if newCost <= 0 {
		return Purchase{}, fmt.Errorf("%w: recomputed cost must be > 0", ErrValidation)
	}

	delta := newQuantity - purchase.Quantity
	if delta != 0 {
		if _, err := s.stock.Adjust(ctx, purchase.ProductID, delta); err != nil {
			return Purchase{}, err
		}
	}

	purchase.Quantity = newQuantity
	purchase.TotalCost = newCost
	if err := s.repo.Update(ctx, purchase); err != nil {
		if delta != 0 {
			if _, revErr := s.stock.Adjust(ctx, purchase.ProductID, -delta); revErr != nil {
				s.logger.Error("purchase update compensation failed",
					slog.Int64("purchase_id", id), slog.Any("error", revErr))
			}
		}
		return Purchase{}, err
	}

	s.dispatchPosting(ctx, ExpensePostingEvent{
		Kind:       PostingAdjust,
		PurchaseID: id,
		Amount:     newCost,
		Date:       purchase.PurchaseDate,
		ActorID:    actor.ID,
		Ref:        uuid.NewString(),
	})
	s.recordAudit(ctx, actor, "purchase:update", id, map[string]any{
		"quantity":   newQuantity,
		"total_cost": newCost,
	})
	return purchase, nil
}

// DeletePurchase removes the record and reverses its stock effect with the
// floor-at-zero policy: a historical correction never drives stock negative.
func (s *Service) DeletePurchase(ctx context.Context, actor *shared.Actor, id int64) error {
	if err := shared.Require(actor, shared.PurchaseDeleteRoles...); err != nil {
		return err
	}
	purchase, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	if _, err := s.stock.AdjustFloor(ctx, purchase.ProductID, -purchase.Quantity); err != nil {
		s.logger.Error("purchase deletion stock reversal failed",
			slog.Int64("purchase_id", id), slog.Any("error", err))
	}

	s.dispatchPosting(ctx, ExpensePostingEvent{
		Kind:       PostingRemove,
		PurchaseID: id,
		ActorID:    actor.ID,
		Ref:        uuid.NewString(),
	})
	s.recordAudit(ctx, actor, "purchase:delete", id, map[string]any{
		"product_id": purchase.ProductID,
		"quantity":   purchase.Quantity,
	})
	return nil
}

// GetPurchase fetches a purchase by id.
func (s *Service) GetPurchase(ctx context.Context, id int64) (Purchase, error) {
	return s.repo.Get(ctx, id)
}

// ListPurchases returns purchases within whole calendar days [from, to].
func (s *Service) ListPurchases(ctx context.Context, from, to time.Time) ([]Purchase, error) {
	start, end := shared.DayRange(from, to)
	return s.repo.List(ctx, start, end)
}

func (s *Service) dispatchPosting(ctx context.Context, evt ExpensePostingEvent) {
	if s.dispatcher == nil {
		return
	}
	if err := s.dispatcher.DispatchExpensePosting(ctx, evt); err != nil {
		s.logger.Warn("expense posting dispatch failed",
			slog.Int64("purchase_id", evt.PurchaseID),
			slog.String("kind", string(evt.Kind)),
			slog.Any("error", err))
	}
}

func (s *Service) recordAudit(ctx context.Context, actor *shared.Actor, action string, id int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actor.ID,
		Action:   action,
		Entity:   "purchase",
		EntityID: fmt.Sprintf("%d", id),
		Meta:     meta,
	})
}
