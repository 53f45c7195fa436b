package budget

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/storekeep-erp/storekeep-erp/internal/shared"
)

// RepositoryPort abstracts repository usage for service.
type RepositoryPort interface {
	Get(ctx context.Context, id int64) (MonthlyBudget, error)
	GetByMonth(ctx context.Context, month time.Time) (MonthlyBudget, error)
	List(ctx context.Context, from, to time.Time) ([]MonthlyBudget, error)
	Insert(ctx context.Context, b MonthlyBudget) (int64, error)
	Accumulate(ctx context.Context, id int64, incomeDelta, expenseDelta float64) (MonthlyBudget, bool, error)
	UpdateActuals(ctx context.Context, b MonthlyBudget) error
	UpdatePlanned(ctx context.Context, b MonthlyBudget) error
	Totals(ctx context.Context, from, to time.Time) (RangeTotals, error)
}

// AuditPort abstracts audit logging functionality.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service maintains one budget per calendar month, accumulating actuals
// pushed in from the journal and keeping the net result derived.
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

// GetOrCreateForMonth returns the budget owning date's month, creating a
// zeroed one when absent. A concurrent create losing the unique-index race
// falls back to the winner's row.
func (s *Service) GetOrCreateForMonth(ctx context.Context, date time.Time) (MonthlyBudget, error) {
	month := shared.NormalizeMonth(date)
	b, err := s.repo.GetByMonth(ctx, month)
	if err == nil {
		return b, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return MonthlyBudget{}, err
	}
	b = MonthlyBudget{Month: month}
	id, err := s.repo.Insert(ctx, b)
	if err != nil {
		if errors.Is(err, ErrConflict) {
			return s.repo.GetByMonth(ctx, month)
		}
		return MonthlyBudget{}, err
	}
	b.ID = id
	return b, nil
}

// RecordIncome accumulates into the month's actual income and recomputes the
// net result. Called from the deferred accrual pipeline, not gated.
func (s *Service) RecordIncome(ctx context.Context, date time.Time, amount float64) error {
	return s.accumulate(ctx, date, amount, 0)
}

// RecordExpense accumulates into the month's actual expenses and recomputes
// the net result. Called from the deferred accrual pipeline, not gated.
func (s *Service) RecordExpense(ctx context.Context, date time.Time, amount float64) error {
	return s.accumulate(ctx, date, 0, amount)
}

// accumulate applies a signed delta through the repository's atomic update so
// concurrent workers cannot overwrite each other. A reversal arriving before
// its counterpart would drive an actual negative; the update floors it at zero
// and the discrepancy is logged here.
func (s *Service) accumulate(ctx context.Context, date time.Time, income, expense float64) error {
	b, err := s.GetOrCreateForMonth(ctx, date)
	if err != nil {
		return err
	}
	updated, clamped, err := s.repo.Accumulate(ctx, b.ID, income, expense)
	if err != nil {
		return err
	}
	if clamped {
		s.logger.Warn("budget accrual floored at zero",
			slog.String("month", updated.Month.Format("2006-01")),
			slog.Float64("income_delta", income),
			slog.Float64("expense_delta", expense))
	}
	return nil
}

// PlanInput carries a director's plan for a month. A zero Date keeps the
// budget's current month.
type PlanInput struct {
	Date            time.Time
	PlannedIncome   float64
	PlannedExpenses float64
}

// CreateForMonth creates a budget with a plan. Director only; a second
// budget in the same normalized month fails with Conflict.
func (s *Service) CreateForMonth(ctx context.Context, actor *shared.Actor, input PlanInput) (MonthlyBudget, error) {
	if err := shared.Require(actor, shared.BudgetPlanRoles...); err != nil {
		return MonthlyBudget{}, err
	}
	if input.PlannedIncome < 0 || input.PlannedExpenses < 0 {
		return MonthlyBudget{}, fmt.Errorf("%w: planned values must be >= 0", ErrValidation)
	}
	if input.Date.IsZero() {
		return MonthlyBudget{}, fmt.Errorf("%w: date is required", ErrValidation)
	}
	b := MonthlyBudget{
		Month:           shared.NormalizeMonth(input.Date),
		PlannedIncome:   input.PlannedIncome,
		PlannedExpenses: input.PlannedExpenses,
		DirectorID:      actor.ID,
	}
	id, err := s.repo.Insert(ctx, b)
	if err != nil {
		return MonthlyBudget{}, err
	}
	b.ID = id

	s.recordAudit(ctx, actor, "budget:create", id, map[string]any{
		"month":            b.Month.Format("2006-01"),
		"planned_income":   b.PlannedIncome,
		"planned_expenses": b.PlannedExpenses,
	})
	return b, nil
}

// UpdatePlanned revises the plan. Director only; negative values are
// rejected and a month change re-checks the one-per-month invariant.
func (s *Service) UpdatePlanned(ctx context.Context, actor *shared.Actor, id int64, input PlanInput) (MonthlyBudget, error) {
	if err := shared.Require(actor, shared.BudgetPlanRoles...); err != nil {
		return MonthlyBudget{}, err
	}
	if input.PlannedIncome < 0 || input.PlannedExpenses < 0 {
		return MonthlyBudget{}, fmt.Errorf("%w: planned values must be >= 0", ErrValidation)
	}
	b, err := s.repo.Get(ctx, id)
	if err != nil {
		return MonthlyBudget{}, err
	}
	if !input.Date.IsZero() {
		b.Month = shared.NormalizeMonth(input.Date)
	}
	b.PlannedIncome = input.PlannedIncome
	b.PlannedExpenses = input.PlannedExpenses
	if err := s.repo.UpdatePlanned(ctx, b); err != nil {
		return MonthlyBudget{}, err
	}

	s.recordAudit(ctx, actor, "budget:plan", id, map[string]any{
		"month":            b.Month.Format("2006-01"),
		"planned_income":   b.PlannedIncome,
		"planned_expenses": b.PlannedExpenses,
	})
	return b, nil
}

// AdjustActuals applies a manual correction to a budget's accumulated
// actuals. Accountants and directors only; the net result is recomputed and
// actuals may not go negative.
func (s *Service) AdjustActuals(ctx context.Context, actor *shared.Actor, id int64, incomeDelta, expenseDelta float64) (MonthlyBudget, error) {
	if err := shared.Require(actor, shared.BudgetActualsRoles...); err != nil {
		return MonthlyBudget{}, err
	}
	if incomeDelta == 0 && expenseDelta == 0 {
		return MonthlyBudget{}, fmt.Errorf("%w: nothing to adjust", ErrValidation)
	}
	b, err := s.repo.Get(ctx, id)
	if err != nil {
		return MonthlyBudget{}, err
	}
	b.ActualIncome += incomeDelta
	b.ActualExpenses += expenseDelta
	if b.ActualIncome < 0 || b.ActualExpenses < 0 {
		return MonthlyBudget{}, fmt.Errorf("%w: actuals must stay >= 0", ErrValidation)
	}
	b.NetResult = b.ActualIncome - b.ActualExpenses
	if err := s.repo.UpdateActuals(ctx, b); err != nil {
		return MonthlyBudget{}, err
	}

	s.recordAudit(ctx, actor, "budget:adjust_actuals", id, map[string]any{
		"income_delta":  incomeDelta,
		"expense_delta": expenseDelta,
	})
	return b, nil
}

// Get fetches a budget by id.
func (s *Service) Get(ctx context.Context, id int64) (MonthlyBudget, error) {
	return s.repo.Get(ctx, id)
}

// List returns budgets for months intersecting [from, to].
func (s *Service) List(ctx context.Context, from, to time.Time) ([]MonthlyBudget, error) {
	return s.repo.List(ctx, shared.NormalizeMonth(from), shared.NormalizeMonth(to))
}

// Totals sums plans and actuals for months intersecting [from, to]; an empty
// range yields zeroes, not an error.
func (s *Service) Totals(ctx context.Context, from, to time.Time) (RangeTotals, error) {
	return s.repo.Totals(ctx, shared.NormalizeMonth(from), shared.NormalizeMonth(to))
}

func (s *Service) recordAudit(ctx context.Context, actor *shared.Actor, action string, id int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actor.ID,
		Action:   action,
		Entity:   "budget",
		EntityID: fmt.Sprintf("%d", id),
		Meta:     meta,
	})
}
