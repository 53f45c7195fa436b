package finance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/storekeep-erp/storekeep-erp/internal/shared"
)

// RepositoryPort abstracts repository usage for service.
type RepositoryPort interface {
	GetExpense(ctx context.Context, id int64) (Expense, error)
	GetExpenseByPurchase(ctx context.Context, purchaseID int64) (Expense, error)
	ListExpenses(ctx context.Context, from, to time.Time) ([]Expense, error)
	InsertExpense(ctx context.Context, e Expense) (int64, error)
	UpdateExpense(ctx context.Context, e Expense) error
	DeleteExpense(ctx context.Context, id int64) error
	TotalExpenses(ctx context.Context, from, to time.Time) (float64, error)

	GetIncome(ctx context.Context, id int64) (Income, error)
	ListIncomes(ctx context.Context, from, to time.Time) ([]Income, error)
	InsertIncome(ctx context.Context, in Income) (int64, error)
	UpdateIncome(ctx context.Context, in Income) error
	DeleteIncome(ctx context.Context, id int64) error
	TotalIncome(ctx context.Context, from, to time.Time) (float64, error)
}

// AuditPort abstracts audit logging functionality.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service is the financial journal: manual expense and income entries, plus
// the single expense posting that mirrors each purchase. Every journal write
// hands a budget accrual to the deferred pipeline, best-effort.
type Service struct {
	repo       RepositoryPort
	dispatcher AccrualDispatcher
	audit      AuditPort
	logger     *slog.Logger
}

// NewService builds Service.
func NewService(repo RepositoryPort, dispatcher AccrualDispatcher, audit AuditPort, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, dispatcher: dispatcher, audit: audit, logger: logger}
}

// ExpenseInput describes a manual expense payload.
type ExpenseInput struct {
	Category string
	Amount   float64
	Date     time.Time
}

// AddExpense records a manual expense.
func (s *Service) AddExpense(ctx context.Context, actor *shared.Actor, input ExpenseInput) (Expense, error) {
	if err := shared.Require(actor, shared.ExpenseWriteRoles...); err != nil {
		return Expense{}, err
	}
	if err := validateEntry(input.Category, input.Amount); err != nil {
		return Expense{}, err
	}
	expense := Expense{
		Category:   input.Category,
		Amount:     input.Amount,
		Date:       input.Date,
		RecordedBy: actor.ID,
	}
	if expense.Date.IsZero() {
		expense.Date = time.Now().UTC()
	}
	id, err := s.repo.InsertExpense(ctx, expense)
	if err != nil {
		return Expense{}, err
	}
	expense.ID = id

	s.dispatchAccrual(ctx, AccrualExpense, expense.Amount, expense.Date)
	s.recordAudit(ctx, actor, "expense:add", "expense", id, map[string]any{"amount": expense.Amount})
	return expense, nil
}

// UpdateExpense revises a manual expense and accrues the change, moving the
// amount between months when the date leaves the original one.
func (s *Service) UpdateExpense(ctx context.Context, actor *shared.Actor, id int64, input ExpenseInput) (Expense, error) {
	if err := shared.Require(actor, shared.ExpenseWriteRoles...); err != nil {
		return Expense{}, err
	}
	if err := validateEntry(input.Category, input.Amount); err != nil {
		return Expense{}, err
	}
	expense, err := s.repo.GetExpense(ctx, id)
	if err != nil {
		return Expense{}, err
	}
	oldAmount, oldDate := expense.Amount, expense.Date
	expense.Category = input.Category
	expense.Amount = input.Amount
	if !input.Date.IsZero() {
		expense.Date = input.Date
	}
	if err := s.repo.UpdateExpense(ctx, expense); err != nil {
		return Expense{}, err
	}

	s.accrueRevision(ctx, AccrualExpense, oldAmount, oldDate, expense.Amount, expense.Date)
	s.recordAudit(ctx, actor, "expense:update", "expense", id, map[string]any{"amount": expense.Amount})
	return expense, nil
}

// DeleteExpense removes a manual expense and accrues the reversal.
func (s *Service) DeleteExpense(ctx context.Context, actor *shared.Actor, id int64) error {
	if err := shared.Require(actor, shared.ExpenseDeleteRoles...); err != nil {
		return err
	}
	expense, err := s.repo.GetExpense(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteExpense(ctx, id); err != nil {
		return err
	}

	s.dispatchAccrual(ctx, AccrualExpense, -expense.Amount, expense.Date)
	s.recordAudit(ctx, actor, "expense:delete", "expense", id, map[string]any{"amount": expense.Amount})
	return nil
}

// IncomeInput describes a manual income payload.
type IncomeInput struct {
	Source string
	Amount float64
	Date   time.Time
}

// AddIncome records a manual income.
func (s *Service) AddIncome(ctx context.Context, actor *shared.Actor, input IncomeInput) (Income, error) {
	if err := shared.Require(actor, shared.IncomeWriteRoles...); err != nil {
		return Income{}, err
	}
	if err := validateEntry(input.Source, input.Amount); err != nil {
		return Income{}, err
	}
	income := Income{
		Source:     input.Source,
		Amount:     input.Amount,
		Date:       input.Date,
		RecordedBy: actor.ID,
	}
	if income.Date.IsZero() {
		income.Date = time.Now().UTC()
	}
	id, err := s.repo.InsertIncome(ctx, income)
	if err != nil {
		return Income{}, err
	}
	income.ID = id

	s.dispatchAccrual(ctx, AccrualIncome, income.Amount, income.Date)
	s.recordAudit(ctx, actor, "income:add", "income", id, map[string]any{"amount": income.Amount})
	return income, nil
}

// UpdateIncome revises a manual income and accrues the change, moving the
// amount between months when the date leaves the original one.
func (s *Service) UpdateIncome(ctx context.Context, actor *shared.Actor, id int64, input IncomeInput) (Income, error) {
	if err := shared.Require(actor, shared.IncomeWriteRoles...); err != nil {
		return Income{}, err
	}
	if err := validateEntry(input.Source, input.Amount); err != nil {
		return Income{}, err
	}
	income, err := s.repo.GetIncome(ctx, id)
	if err != nil {
		return Income{}, err
	}
	oldAmount, oldDate := income.Amount, income.Date
	income.Source = input.Source
	income.Amount = input.Amount
	if !input.Date.IsZero() {
		income.Date = input.Date
	}
	if err := s.repo.UpdateIncome(ctx, income); err != nil {
		return Income{}, err
	}

	s.accrueRevision(ctx, AccrualIncome, oldAmount, oldDate, income.Amount, income.Date)
	s.recordAudit(ctx, actor, "income:update", "income", id, map[string]any{"amount": income.Amount})
	return income, nil
}

// DeleteIncome removes a manual income. Director only.
func (s *Service) DeleteIncome(ctx context.Context, actor *shared.Actor, id int64) error {
	if err := shared.Require(actor, shared.IncomeDeleteRoles...); err != nil {
		return err
	}
	income, err := s.repo.GetIncome(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteIncome(ctx, id); err != nil {
		return err
	}

	s.dispatchAccrual(ctx, AccrualIncome, -income.Amount, income.Date)
	s.recordAudit(ctx, actor, "income:delete", "income", id, map[string]any{"amount": income.Amount})
	return nil
}

// PostPurchaseExpense creates the expense mirroring a purchase. Applying the
// same posting twice keeps a single entry: an existing link is adjusted to
// the given amount instead of duplicated.
func (s *Service) PostPurchaseExpense(ctx context.Context, purchaseID int64, amount float64, date time.Time, actorID int64) error {
	if amount <= 0 {
		return fmt.Errorf("%w: amount must be > 0", ErrValidation)
	}
	existing, err := s.repo.GetExpenseByPurchase(ctx, purchaseID)
	if err == nil {
		return s.adjustLinkedExpense(ctx, existing, amount)
	}
	if !errors.Is(err, ErrNotFound) {
		return err
	}
	expense := Expense{
		Category:   PurchaseExpenseCategory,
		Amount:     amount,
		Date:       date,
		RecordedBy: actorID,
		PurchaseID: &purchaseID,
	}
	if expense.Date.IsZero() {
		expense.Date = time.Now().UTC()
	}
	if _, err := s.repo.InsertExpense(ctx, expense); err != nil {
		return err
	}
	s.dispatchAccrual(ctx, AccrualExpense, amount, expense.Date)
	return nil
}

// AdjustPurchaseExpense revises the linked expense to the new amount.
func (s *Service) AdjustPurchaseExpense(ctx context.Context, purchaseID int64, amount float64) error {
	if amount <= 0 {
		return fmt.Errorf("%w: amount must be > 0", ErrValidation)
	}
	expense, err := s.repo.GetExpenseByPurchase(ctx, purchaseID)
	if err != nil {
		return err
	}
	return s.adjustLinkedExpense(ctx, expense, amount)
}

// RemovePurchaseExpense deletes the linked expense. A missing link is not an
// error: the posting may never have landed.
func (s *Service) RemovePurchaseExpense(ctx context.Context, purchaseID int64) error {
	expense, err := s.repo.GetExpenseByPurchase(ctx, purchaseID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		return err
	}
	if err := s.repo.DeleteExpense(ctx, expense.ID); err != nil {
		return err
	}
	s.dispatchAccrual(ctx, AccrualExpense, -expense.Amount, expense.Date)
	return nil
}

func (s *Service) adjustLinkedExpense(ctx context.Context, expense Expense, amount float64) error {
	delta := amount - expense.Amount
	if delta == 0 {
		return nil
	}
	expense.Amount = amount
	if err := s.repo.UpdateExpense(ctx, expense); err != nil {
		return err
	}
	s.dispatchAccrual(ctx, AccrualExpense, delta, expense.Date)
	return nil
}

// GetExpense fetches an expense by id.
func (s *Service) GetExpense(ctx context.Context, id int64) (Expense, error) {
	return s.repo.GetExpense(ctx, id)
}

// GetIncome fetches an income by id.
func (s *Service) GetIncome(ctx context.Context, id int64) (Income, error) {
	return s.repo.GetIncome(ctx, id)
}

// ListExpenses returns expenses within whole calendar days [from, to].
func (s *Service) ListExpenses(ctx context.Context, from, to time.Time) ([]Expense, error) {
	start, end := shared.DayRange(from, to)
	return s.repo.ListExpenses(ctx, start, end)
}

// ListIncomes returns incomes within whole calendar days [from, to].
func (s *Service) ListIncomes(ctx context.Context, from, to time.Time) ([]Income, error) {
	start, end := shared.DayRange(from, to)
	return s.repo.ListIncomes(ctx, start, end)
}

// Summary reports journal totals over whole calendar days [from, to].
type Summary struct {
	TotalIncome   float64 `json:"total_income"`
	TotalExpenses float64 `json:"total_expenses"`
	Net           float64 `json:"net"`
}

// Summarize computes journal totals; empty ranges yield zeroes.
func (s *Service) Summarize(ctx context.Context, from, to time.Time) (Summary, error) {
	start, end := shared.DayRange(from, to)
	income, err := s.repo.TotalIncome(ctx, start, end)
	if err != nil {
		return Summary{}, err
	}
	expenses, err := s.repo.TotalExpenses(ctx, start, end)
	if err != nil {
		return Summary{}, err
	}
	return Summary{TotalIncome: income, TotalExpenses: expenses, Net: income - expenses}, nil
}

// accrueRevision keeps budget actuals in step with a revised entry. A move to
// another month reverses the old month and posts the full amount into the new
// one; within the same month only the amount delta is dispatched.
func (s *Service) accrueRevision(ctx context.Context, kind AccrualKind, oldAmount float64, oldDate time.Time, newAmount float64, newDate time.Time) {
	if shared.NormalizeMonth(oldDate).Equal(shared.NormalizeMonth(newDate)) {
		if delta := newAmount - oldAmount; delta != 0 {
			s.dispatchAccrual(ctx, kind, delta, newDate)
		}
		return
	}
	s.dispatchAccrual(ctx, kind, -oldAmount, oldDate)
	s.dispatchAccrual(ctx, kind, newAmount, newDate)
}

func (s *Service) dispatchAccrual(ctx context.Context, kind AccrualKind, amount float64, date time.Time) {
	if s.dispatcher == nil || amount == 0 {
		return
	}
	evt := BudgetAccrualEvent{Kind: kind, Amount: amount, Date: date, Ref: uuid.NewString()}
	if err := s.dispatcher.DispatchBudgetAccrual(ctx, evt); err != nil {
		s.logger.Warn("budget accrual dispatch failed",
			slog.String("kind", string(kind)),
			slog.Float64("amount", amount),
			slog.Any("error", err))
	}
}

func validateEntry(label string, amount float64) error {
	if label == "" {
		return fmt.Errorf("%w: label is required", ErrValidation)
	}
	if amount <= 0 {
		return fmt.Errorf("%w: amount must be > 0", ErrValidation)
	}
	return nil
}

func (s *Service) recordAudit(ctx context.Context, actor *shared.Actor, action, entity string, id int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actor.ID,
		Action:   action,
		Entity:   entity,
		EntityID: fmt.Sprintf("%d", id),
		Meta:     meta,
	})
}
