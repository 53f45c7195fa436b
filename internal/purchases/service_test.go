package purchases

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/storekeep-erp/storekeep-erp/internal/catalog"
	"github.com/storekeep-erp/storekeep-erp/internal/shared"
)

type memoryRepo struct {
	rows   map[int64]Purchase
	nextID int64
	failInsert bool
	failUpdate bool
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{rows: make(map[int64]Purchase)}
}

func (r *memoryRepo) Get(_ context.Context, id int64) (Purchase, error) {
	p, ok := r.rows[id]
	if !ok {
		return Purchase{}, ErrNotFound
	}
	return p, nil
}

func (r *memoryRepo) List(_ context.Context, from, to time.Time) ([]Purchase, error) {
	var out []Purchase
	for _, p := range r.rows {
		if !p.PurchaseDate.Before(from) && !p.PurchaseDate.After(to) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *memoryRepo) Insert(_ context.Context, p Purchase) (int64, error) {
	if r.failInsert {
		return 0, errors.New("insert failed")
	}
	r.nextID++
	p.ID = r.nextID
	r.rows[p.ID] = p
	return p.ID, nil
}

func (r *memoryRepo) Update(_ context.Context, p Purchase) error {
	if r.failUpdate {
		return errors.New("update failed")
	}
	if _, ok := r.rows[p.ID]; !ok {
		return ErrNotFound
	}
	r.rows[p.ID] = p
	return nil
}

func (r *memoryRepo) Delete(_ context.Context, id int64) error {
	if _, ok := r.rows[id]; !ok {
		return ErrNotFound
	}
	delete(r.rows, id)
	return nil
}

type fakeCatalog struct {
	products map[int64]catalog.Product
}

func (c *fakeCatalog) GetProduct(_ context.Context, id int64) (catalog.Product, error) {
	p, ok := c.products[id]
	if !ok {
		return catalog.Product{}, catalog.ErrNotFound
	}
	return p, nil
}

type fakeStock struct {
	quantities map[int64]int64
	adjusts    []int64
}

func newFakeStock() *fakeStock {
	return &fakeStock{quantities: make(map[int64]int64)}
}

func (s *fakeStock) Adjust(_ context.Context, productID int64, delta int64) (int64, error) {
	next := s.quantities[productID] + delta
	if next < 0 {
		return 0, shared.ErrInsufficientStock
	}
	s.quantities[productID] = next
	s.adjusts = append(s.adjusts, delta)
	return next, nil
}

func (s *fakeStock) AdjustFloor(_ context.Context, productID int64, delta int64) (int64, error) {
	next := s.quantities[productID] + delta
	if next < 0 {
		next = 0
	}
	s.quantities[productID] = next
	s.adjusts = append(s.adjusts, delta)
	return next, nil
}

type fakeDispatcher struct {
	events []ExpensePostingEvent
	err    error
}

func (d *fakeDispatcher) DispatchExpensePosting(_ context.Context, evt ExpensePostingEvent) error {
	if d.err != nil {
		return d.err
	}
	d.events = append(d.events, evt)
	return nil
}

var (
	keeper  = &shared.Actor{ID: 3, Name: "keeper", Role: shared.RoleStockKeeper}
	cashier = &shared.Actor{ID: 4, Name: "cashier", Role: shared.RoleCashier}
)

func newFixture() (*Service, *memoryRepo, *fakeStock, *fakeDispatcher) {
	repo := newMemoryRepo()
	stk := newFakeStock()
	dispatcher := &fakeDispatcher{}
	cat := &fakeCatalog{products: map[int64]catalog.Product{
		7: {ID: 7, Name: "Flour", BuyPrice: 10, SellPrice: 20},
	}}
	svc := NewService(repo, cat, stk, dispatcher, nil, nil)
	return svc, repo, stk, dispatcher
}

func TestAddPurchase(t *testing.T) {
	svc, repo, stk, dispatcher := newFixture()
	ctx := context.Background()

	purchase, err := svc.AddPurchase(ctx, keeper, AddPurchaseInput{ProductID: 7, Quantity: 10, TotalCost: 100})
	require.NoError(t, err)
	require.NotZero(t, purchase.ID)
	require.EqualValues(t, 10, stk.quantities[7])
	require.Equal(t, keeper.ID, purchase.StockKeeperID)
	require.False(t, purchase.PurchaseDate.IsZero())
	require.Len(t, repo.rows, 1)

	require.Len(t, dispatcher.events, 1)
	evt := dispatcher.events[0]
	require.Equal(t, PostingCreate, evt.Kind)
	require.Equal(t, purchase.ID, evt.PurchaseID)
	require.Equal(t, 100.0, evt.Amount)
	require.NotEmpty(t, evt.Ref)
}

func TestAddPurchaseValidation(t *testing.T) {
	svc, repo, stk, _ := newFixture()
	ctx := context.Background()

	_, err := svc.AddPurchase(ctx, keeper, AddPurchaseInput{ProductID: 7, Quantity: 0, TotalCost: 100})
	require.ErrorIs(t, err, ErrValidation)

	_, err = svc.AddPurchase(ctx, keeper, AddPurchaseInput{ProductID: 7, Quantity: 5, TotalCost: 0})
	require.ErrorIs(t, err, ErrValidation)

	_, err = svc.AddPurchase(ctx, keeper, AddPurchaseInput{ProductID: 99, Quantity: 5, TotalCost: 50})
	require.ErrorIs(t, err, catalog.ErrNotFound)

	require.Empty(t, repo.rows)
	require.Empty(t, stk.adjusts)
}

func TestAddPurchaseRoleGate(t *testing.T) {
	svc, _, _, _ := newFixture()
	ctx := context.Background()

	_, err := svc.AddPurchase(ctx, cashier, AddPurchaseInput{ProductID: 7, Quantity: 5, TotalCost: 50})
	require.ErrorIs(t, err, shared.ErrForbidden)

	_, err = svc.AddPurchase(ctx, nil, AddPurchaseInput{ProductID: 7, Quantity: 5, TotalCost: 50})
	require.ErrorIs(t, err, shared.ErrUnauthenticated)
}

func TestAddPurchasePostingFailureDoesNotRollBack(t *testing.T) {
	svc, repo, stk, dispatcher := newFixture()
	dispatcher.err = errors.New("queue down")
	ctx := context.Background()

	purchase, err := svc.AddPurchase(ctx, keeper, AddPurchaseInput{ProductID: 7, Quantity: 4, TotalCost: 40})
	require.NoError(t, err)
	require.Len(t, repo.rows, 1)
	require.EqualValues(t, 4, stk.quantities[7])
	require.NotZero(t, purchase.ID)
}

func TestUpdatePurchaseAppliesDelta(t *testing.T) {
	svc, _, stk, dispatcher := newFixture()
	ctx := context.Background()

	purchase, err := svc.AddPurchase(ctx, keeper, AddPurchaseInput{ProductID: 7, Quantity: 10, TotalCost: 100})
	require.NoError(t, err)

	updated, err := svc.UpdatePurchase(ctx, keeper, purchase.ID, 15)
	require.NoError(t, err)
	require.EqualValues(t, 15, updated.Quantity)
	require.Equal(t, 150.0, updated.TotalCost)
	// Delta of +5 applied, not an absolute set of 15.
	require.EqualValues(t, 15, stk.quantities[7])
	require.Equal(t, []int64{10, 5}, stk.adjusts)

	last := dispatcher.events[len(dispatcher.events)-1]
	require.Equal(t, PostingAdjust, last.Kind)
	require.Equal(t, 150.0, last.Amount)
}

func TestUpdatePurchaseInsufficientStock(t *testing.T) {
	svc, repo, stk, _ := newFixture()
	ctx := context.Background()

	purchase, err := svc.AddPurchase(ctx, keeper, AddPurchaseInput{ProductID: 7, Quantity: 10, TotalCost: 100})
	require.NoError(t, err)

	// Sales elsewhere have drained stock down to 3.
	stk.quantities[7] = 3

	_, err = svc.UpdatePurchase(ctx, keeper, purchase.ID, 1)
	require.ErrorIs(t, err, shared.ErrInsufficientStock)

	unchanged, err := svc.GetPurchase(ctx, purchase.ID)
	require.NoError(t, err)
	require.EqualValues(t, 10, unchanged.Quantity)
	require.Equal(t, 100.0, unchanged.TotalCost)
	require.EqualValues(t, 3, stk.quantities[7])
	require.Len(t, repo.rows, 1)
}

func TestDeletePurchaseRoundTrip(t *testing.T) {
	svc, repo, stk, dispatcher := newFixture()
	ctx := context.Background()

	before := stk.quantities[7]
	purchase, err := svc.AddPurchase(ctx, keeper, AddPurchaseInput{ProductID: 7, Quantity: 10, TotalCost: 100})
	require.NoError(t, err)

	accountant := &shared.Actor{ID: 6, Role: shared.RoleAccountant}
	require.NoError(t, svc.DeletePurchase(ctx, accountant, purchase.ID))
	require.Equal(t, before, stk.quantities[7])
	require.Empty(t, repo.rows)

	last := dispatcher.events[len(dispatcher.events)-1]
	require.Equal(t, PostingRemove, last.Kind)
	require.Equal(t, purchase.ID, last.PurchaseID)
}

func TestDeletePurchaseFloorsAtZero(t *testing.T) {
	svc, _, stk, _ := newFixture()
	ctx := context.Background()

	purchase, err := svc.AddPurchase(ctx, keeper, AddPurchaseInput{ProductID: 7, Quantity: 10, TotalCost: 100})
	require.NoError(t, err)

	// Most of the received goods were already sold.
	stk.quantities[7] = 3

	director := &shared.Actor{ID: 1, Role: shared.RoleDirector}
	require.NoError(t, svc.DeletePurchase(ctx, director, purchase.ID))
	require.EqualValues(t, 0, stk.quantities[7])
}

func TestDeletePurchaseRoleGate(t *testing.T) {
	svc, _, _, _ := newFixture()
	ctx := context.Background()

	purchase, err := svc.AddPurchase(ctx, keeper, AddPurchaseInput{ProductID: 7, Quantity: 2, TotalCost: 20})
	require.NoError(t, err)

	// Stock keepers can add purchases but not delete them.
	require.ErrorIs(t, svc.DeletePurchase(ctx, keeper, purchase.ID), shared.ErrForbidden)
}
