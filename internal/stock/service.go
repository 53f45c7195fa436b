package stock

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/storekeep-erp/storekeep-erp/internal/shared"
)

// RepositoryPort abstracts repository usage for service.
type RepositoryPort interface {
	Get(ctx context.Context, productID int64) (Stock, error)
	List(ctx context.Context) ([]Stock, error)
	Adjust(ctx context.Context, productID int64, delta int64) (int64, error)
	AdjustFloor(ctx context.Context, productID int64, delta int64) (int64, bool, error)
	SetAbsolute(ctx context.Context, productID int64, quantity int64) error
	Delete(ctx context.Context, productID int64) error
}

// AuditPort abstracts audit logging functionality.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service is the stock ledger: the single writer of on-hand quantities.
type Service struct {
	repo   RepositoryPort
	audit  AuditPort
	logger *slog.Logger
}

// NewService builds Service.
func NewService(repo RepositoryPort, audit AuditPort, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, audit: audit, logger: logger}
}

// GetByProduct returns the stock row, ErrNotFound when the product has never
// been stocked.
func (s *Service) GetByProduct(ctx context.Context, productID int64) (Stock, error) {
	return s.repo.Get(ctx, productID)
}

// List returns all stock rows.
func (s *Service) List(ctx context.Context) ([]Stock, error) {
	return s.repo.List(ctx)
}

// Quantity reads the current quantity with the absent-equals-zero rule.
func (s *Service) Quantity(ctx context.Context, productID int64) (int64, error) {
	row, err := s.repo.Get(ctx, productID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return 0, nil
		}
		return 0, err
	}
	return row.Quantity, nil
}

// Adjust applies a signed delta and returns the new quantity. A result below
// zero fails with ErrInsufficientStock and commits nothing; callers on the
// sale path must refuse the whole operation rather than clamp.
func (s *Service) Adjust(ctx context.Context, productID int64, delta int64) (int64, error) {
	if productID == 0 {
		return 0, fmt.Errorf("%w: product required", ErrValidation)
	}
	if delta == 0 {
		return 0, fmt.Errorf("%w: zero adjustment", ErrValidation)
	}
	return s.repo.Adjust(ctx, productID, delta)
}

// AdjustFloor applies a signed delta flooring the result at zero. This is the
// deletion-reversal policy: a historical correction never drives stock
// negative, the deficit is dropped and a warning logged.
func (s *Service) AdjustFloor(ctx context.Context, productID int64, delta int64) (int64, error) {
	if productID == 0 {
		return 0, fmt.Errorf("%w: product required", ErrValidation)
	}
	quantity, clamped, err := s.repo.AdjustFloor(ctx, productID, delta)
	if err != nil {
		return 0, err
	}
	if clamped {
		s.logger.Warn("stock reversal floored at zero",
			slog.Int64("product_id", productID),
			slog.Int64("delta", delta))
	}
	return quantity, nil
}

// SetAbsolute is the manual override. Stock keepers only; negative input is
// rejected before any write.
func (s *Service) SetAbsolute(ctx context.Context, actor *shared.Actor, productID int64, quantity int64) error {
	if err := shared.Require(actor, shared.StockManageRoles...); err != nil {
		return err
	}
	if productID == 0 {
		return fmt.Errorf("%w: product required", ErrValidation)
	}
	if quantity < 0 {
		return fmt.Errorf("%w: quantity must be >= 0", ErrValidation)
	}
	if err := s.repo.SetAbsolute(ctx, productID, quantity); err != nil {
		return err
	}
	s.recordAudit(ctx, actor, "stock:set_absolute", productID, map[string]any{"quantity": quantity})
	return nil
}

// AddManual increases stock by hand outside the purchase pipeline.
func (s *Service) AddManual(ctx context.Context, actor *shared.Actor, productID int64, quantity int64) (int64, error) {
	if err := shared.Require(actor, shared.StockManageRoles...); err != nil {
		return 0, err
	}
	if quantity <= 0 {
		return 0, fmt.Errorf("%w: quantity must be > 0", ErrValidation)
	}
	newQuantity, err := s.Adjust(ctx, productID, quantity)
	if err != nil {
		return 0, err
	}
	s.recordAudit(ctx, actor, "stock:manual_add", productID, map[string]any{"quantity": quantity})
	return newQuantity, nil
}

// DeleteRow removes a stock row entirely. Stock keepers only.
func (s *Service) DeleteRow(ctx context.Context, actor *shared.Actor, productID int64) error {
	if err := shared.Require(actor, shared.StockManageRoles...); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, productID); err != nil {
		return err
	}
	s.recordAudit(ctx, actor, "stock:delete", productID, nil)
	return nil
}

func (s *Service) recordAudit(ctx context.Context, actor *shared.Actor, action string, productID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actor.ID,
		Action:   action,
		Entity:   "stock",
		EntityID: fmt.Sprintf("%d", productID),
		Meta:     meta,
	})
}
