package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/storekeep-erp/storekeep-erp/internal/finance"
	"github.com/storekeep-erp/storekeep-erp/internal/purchases"
	"github.com/storekeep-erp/storekeep-erp/internal/shared"
)

type fakePoster struct {
	posted   []int64
	adjusted []int64
	removed  []int64
	amounts  map[int64]float64
	err      error
}

func newFakePoster() *fakePoster {
	return &fakePoster{amounts: make(map[int64]float64)}
}

func (p *fakePoster) PostPurchaseExpense(_ context.Context, purchaseID int64, amount float64, _ time.Time, _ int64) error {
	if p.err != nil {
		return p.err
	}
	p.posted = append(p.posted, purchaseID)
	p.amounts[purchaseID] = amount
	return nil
}

func (p *fakePoster) AdjustPurchaseExpense(_ context.Context, purchaseID int64, amount float64) error {
	p.adjusted = append(p.adjusted, purchaseID)
	p.amounts[purchaseID] = amount
	return nil
}

func (p *fakePoster) RemovePurchaseExpense(_ context.Context, purchaseID int64) error {
	p.removed = append(p.removed, purchaseID)
	delete(p.amounts, purchaseID)
	return nil
}

type fakeRecorder struct {
	income   float64
	expenses float64
}

func (r *fakeRecorder) RecordIncome(_ context.Context, _ time.Time, amount float64) error {
	r.income += amount
	return nil
}

func (r *fakeRecorder) RecordExpense(_ context.Context, _ time.Time, amount float64) error {
	r.expenses += amount
	return nil
}

type fakeGuard struct {
	seen map[string]bool
}

func newFakeGuard() *fakeGuard {
	return &fakeGuard{seen: make(map[string]bool)}
}

func (g *fakeGuard) CheckAndInsert(_ context.Context, key, _ string) error {
	if g.seen[key] {
		return shared.ErrIdempotencyConflict
	}
	g.seen[key] = true
	return nil
}

func (g *fakeGuard) Delete(_ context.Context, key string) error {
	delete(g.seen, key)
	return nil
}

type fakeMetrics struct {
	applied map[string]int
	failed  map[string]int
}

func newFakeMetrics() *fakeMetrics {
	return &fakeMetrics{applied: make(map[string]int), failed: make(map[string]int)}
}

func (m *fakeMetrics) PostingApplied(kind string) { m.applied[kind]++ }
func (m *fakeMetrics) PostingFailed(kind string)  { m.failed[kind]++ }

func TestHandlePurchaseExpenseLifecycle(t *testing.T) {
	poster := newFakePoster()
	handlers := NewPostingHandlers(poster, &fakeRecorder{}, newFakeGuard(), nil, nil)
	ctx := context.Background()

	create, err := NewPurchaseExpenseTask(purchases.ExpensePostingEvent{
		Kind: purchases.PostingCreate, PurchaseID: 42, Amount: 100, Date: time.Now().UTC(), Ref: "ref-1",
	})
	require.NoError(t, err)
	require.NoError(t, handlers.HandlePurchaseExpense(ctx, create))
	require.Equal(t, []int64{42}, poster.posted)
	require.Equal(t, 100.0, poster.amounts[42])

	adjust, err := NewPurchaseExpenseTask(purchases.ExpensePostingEvent{
		Kind: purchases.PostingAdjust, PurchaseID: 42, Amount: 150, Ref: "ref-2",
	})
	require.NoError(t, err)
	require.NoError(t, handlers.HandlePurchaseExpense(ctx, adjust))
	require.Equal(t, 150.0, poster.amounts[42])

	remove, err := NewPurchaseExpenseTask(purchases.ExpensePostingEvent{
		Kind: purchases.PostingRemove, PurchaseID: 42, Ref: "ref-3",
	})
	require.NoError(t, err)
	require.NoError(t, handlers.HandlePurchaseExpense(ctx, remove))
	require.Equal(t, []int64{42}, poster.removed)
}

func TestHandlePurchaseExpenseDuplicateRef(t *testing.T) {
	poster := newFakePoster()
	handlers := NewPostingHandlers(poster, &fakeRecorder{}, newFakeGuard(), nil, nil)
	ctx := context.Background()

	task, err := NewPurchaseExpenseTask(purchases.ExpensePostingEvent{
		Kind: purchases.PostingCreate, PurchaseID: 7, Amount: 50, Ref: "dup",
	})
	require.NoError(t, err)

	require.NoError(t, handlers.HandlePurchaseExpense(ctx, task))
	require.NoError(t, handlers.HandlePurchaseExpense(ctx, task))
	require.Len(t, poster.posted, 1)
}

func TestHandleBudgetAccrual(t *testing.T) {
	recorder := &fakeRecorder{}
	handlers := NewPostingHandlers(newFakePoster(), recorder, newFakeGuard(), nil, nil)
	ctx := context.Background()

	income, err := NewBudgetAccrualTask(finance.BudgetAccrualEvent{
		Kind: finance.AccrualIncome, Amount: 900, Date: time.Now().UTC(), Ref: "a-1",
	})
	require.NoError(t, err)
	require.NoError(t, handlers.HandleBudgetAccrual(ctx, income))

	expense, err := NewBudgetAccrualTask(finance.BudgetAccrualEvent{
		Kind: finance.AccrualExpense, Amount: 500, Date: time.Now().UTC(), Ref: "a-2",
	})
	require.NoError(t, err)
	require.NoError(t, handlers.HandleBudgetAccrual(ctx, expense))

	require.Equal(t, 900.0, recorder.income)
	require.Equal(t, 500.0, recorder.expenses)
}

func TestPostingOutcomeCounters(t *testing.T) {
	metrics := newFakeMetrics()
	poster := newFakePoster()
	handlers := NewPostingHandlers(poster, &fakeRecorder{}, newFakeGuard(), metrics, nil)
	ctx := context.Background()

	task, err := NewPurchaseExpenseTask(purchases.ExpensePostingEvent{
		Kind: purchases.PostingCreate, PurchaseID: 9, Amount: 80, Date: time.Now().UTC(), Ref: "m-1",
	})
	require.NoError(t, err)
	require.NoError(t, handlers.HandlePurchaseExpense(ctx, task))
	require.Equal(t, 1, metrics.applied["purchase_expense"])

	accrual, err := NewBudgetAccrualTask(finance.BudgetAccrualEvent{
		Kind: finance.AccrualExpense, Amount: 80, Date: time.Now().UTC(), Ref: "m-2",
	})
	require.NoError(t, err)
	require.NoError(t, handlers.HandleBudgetAccrual(ctx, accrual))
	require.Equal(t, 1, metrics.applied["budget_accrual"])

	poster.err = errors.New("journal down")
	failing, err := NewPurchaseExpenseTask(purchases.ExpensePostingEvent{
		Kind: purchases.PostingCreate, PurchaseID: 10, Amount: 80, Ref: "m-3",
	})
	require.NoError(t, err)
	require.Error(t, handlers.HandlePurchaseExpense(ctx, failing))
	require.Equal(t, 1, metrics.failed["purchase_expense"])
	require.Equal(t, 1, metrics.applied["purchase_expense"])
}

func TestHandleBudgetAccrualDuplicateRef(t *testing.T) {
	recorder := &fakeRecorder{}
	handlers := NewPostingHandlers(newFakePoster(), recorder, newFakeGuard(), nil, nil)
	ctx := context.Background()

	task, err := NewBudgetAccrualTask(finance.BudgetAccrualEvent{
		Kind: finance.AccrualIncome, Amount: 900, Ref: "dup",
	})
	require.NoError(t, err)

	require.NoError(t, handlers.HandleBudgetAccrual(ctx, task))
	require.NoError(t, handlers.HandleBudgetAccrual(ctx, task))
	require.Equal(t, 900.0, recorder.income)
}
