package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/storekeep-erp/storekeep-erp/internal/finance"
	"github.com/storekeep-erp/storekeep-erp/internal/purchases"
	"github.com/storekeep-erp/storekeep-erp/internal/shared"
)

// ExpensePoster applies purchase-linked expense postings to the journal.
type ExpensePoster interface {
	PostPurchaseExpense(ctx context.Context, purchaseID int64, amount float64, date time.Time, actorID int64) error
	AdjustPurchaseExpense(ctx context.Context, purchaseID int64, amount float64) error
	RemovePurchaseExpense(ctx context.Context, purchaseID int64) error
}

// BudgetRecorder accumulates actuals into monthly budgets.
type BudgetRecorder interface {
	RecordIncome(ctx context.Context, date time.Time, amount float64) error
	RecordExpense(ctx context.Context, date time.Time, amount float64) error
}

// IdempotencyGuard keeps each posting ref from being applied twice.
type IdempotencyGuard interface {
	CheckAndInsert(ctx context.Context, key, module string) error
	Delete(ctx context.Context, key string) error
}

// PostingMetrics counts posting outcomes per task kind.
type PostingMetrics interface {
	PostingApplied(kind string)
	PostingFailed(kind string)
}

// PostingHandlers processes deferred posting tasks. Every task carries a ref
// checked against the guard first; a ref seen before is dropped without
// retry.
type PostingHandlers struct {
	expenses ExpensePoster
	budgets  BudgetRecorder
	guard    IdempotencyGuard
	metrics  PostingMetrics
	logger   *slog.Logger
}

// NewPostingHandlers constructs PostingHandlers. metrics may be nil.
func NewPostingHandlers(expenses ExpensePoster, budgets BudgetRecorder, guard IdempotencyGuard, metrics PostingMetrics, logger *slog.Logger) *PostingHandlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostingHandlers{expenses: expenses, budgets: budgets, guard: guard, metrics: metrics, logger: logger}
}

func (h *PostingHandlers) countApplied(kind string) {
	if h.metrics != nil {
		h.metrics.PostingApplied(kind)
	}
}

func (h *PostingHandlers) countFailed(kind string) {
	if h.metrics != nil {
		h.metrics.PostingFailed(kind)
	}
}

// HandlePurchaseExpense processes TaskPurchaseExpensePosting tasks.
func (h *PostingHandlers) HandlePurchaseExpense(ctx context.Context, t *asynq.Task) error {
	var payload PurchaseExpensePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if h.guard != nil {
		if err := h.guard.CheckAndInsert(ctx, payload.Ref, "purchase_expense"); err != nil {
			if errors.Is(err, shared.ErrIdempotencyConflict) {
				return nil
			}
			return err
		}
	}

	var err error
	switch purchases.PostingKind(payload.Kind) {
	case purchases.PostingCreate:
		err = h.expenses.PostPurchaseExpense(ctx, payload.PurchaseID, payload.Amount, payload.Date, payload.ActorID)
	case purchases.PostingAdjust:
		err = h.expenses.AdjustPurchaseExpense(ctx, payload.PurchaseID, payload.Amount)
	case purchases.PostingRemove:
		err = h.expenses.RemovePurchaseExpense(ctx, payload.PurchaseID)
	default:
		h.countFailed("purchase_expense")
		return asynq.SkipRetry
	}
	if err != nil {
		h.countFailed("purchase_expense")
		// Release the ref so a retry can apply the posting.
		if h.guard != nil {
			if delErr := h.guard.Delete(ctx, payload.Ref); delErr != nil {
				h.logger.Error("release posting ref",
					slog.String("ref", payload.Ref), slog.Any("error", delErr))
			}
		}
		if errors.Is(err, shared.ErrValidation) {
			return fmt.Errorf("purchase expense posting: %w", asynq.SkipRetry)
		}
		return err
	}
	h.countApplied("purchase_expense")
	return nil
}

// HandleBudgetAccrual processes TaskBudgetAccrual tasks.
func (h *PostingHandlers) HandleBudgetAccrual(ctx context.Context, t *asynq.Task) error {
	var payload BudgetAccrualPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if h.guard != nil {
		if err := h.guard.CheckAndInsert(ctx, payload.Ref, "budget_accrual"); err != nil {
			if errors.Is(err, shared.ErrIdempotencyConflict) {
				return nil
			}
			return err
		}
	}

	var err error
	switch finance.AccrualKind(payload.Kind) {
	case finance.AccrualIncome:
		err = h.budgets.RecordIncome(ctx, payload.Date, payload.Amount)
	case finance.AccrualExpense:
		err = h.budgets.RecordExpense(ctx, payload.Date, payload.Amount)
	default:
		h.countFailed("budget_accrual")
		return asynq.SkipRetry
	}
	if err != nil {
		h.countFailed("budget_accrual")
		if h.guard != nil {
			if delErr := h.guard.Delete(ctx, payload.Ref); delErr != nil {
				h.logger.Error("release accrual ref",
					slog.String("ref", payload.Ref), slog.Any("error", delErr))
			}
		}
		return err
	}
	h.countApplied("budget_accrual")
	return nil
}
