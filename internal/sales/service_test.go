package sales

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
	rows       map[int64]Sale
	nextID     int64
	failInsert bool
	failUpdate bool
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{rows: make(map[int64]Sale)}
}

func (r *memoryRepo) Get(_ context.Context, id int64) (Sale, error) {
	s, ok := r.rows[id]
	if !ok {
		return Sale{}, ErrNotFound
	}
	return s, nil
}

func (r *memoryRepo) List(_ context.Context, from, to time.Time) ([]Sale, error) {
	var out []Sale
	for _, s := range r.rows {
		if !s.SaleDate.Before(from) && !s.SaleDate.After(to) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *memoryRepo) Insert(_ context.Context, s Sale) (int64, error) {
	if r.failInsert {
		return 0, errors.New("insert failed")
	}
	r.nextID++
	s.ID = r.nextID
	r.rows[s.ID] = s
	return s.ID, nil
}

func (r *memoryRepo) Update(_ context.Context, s Sale) error {
	if r.failUpdate {
		return errors.New("update failed")
	}
	if _, ok := r.rows[s.ID]; !ok {
		return ErrNotFound
	}
	r.rows[s.ID] = s
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
}

func (s *fakeStock) Adjust(_ context.Context, productID int64, delta int64) (int64, error) {
	next := s.quantities[productID] + delta
	if next < 0 {
		return 0, shared.ErrInsufficientStock
	}
	s.quantities[productID] = next
	return next, nil
}

var (
	director = &shared.Actor{ID: 1, Name: "director", Role: shared.RoleDirector}
	cashier  = &shared.Actor{ID: 4, Name: "cashier", Role: shared.RoleCashier}
	keeper   = &shared.Actor{ID: 3, Name: "keeper", Role: shared.RoleStockKeeper}
)

func newFixture() (*Service, *memoryRepo, *fakeStock) {
	repo := newMemoryRepo()
	stk := &fakeStock{quantities: make(map[int64]int64)}
	cat := &fakeCatalog{products: map[int64]catalog.Product{
		7: {ID: 7, Name: "Flour", BuyPrice: 10, SellPrice: 20},
		8: {ID: 8, Name: "Sugar", BuyPrice: 8, SellPrice: 15},
	}}
	svc := NewService(repo, cat, stk, nil, nil)
	return svc, repo, stk
}

func TestAddSaleScenario(t *testing.T) {
	svc, repo, stk := newFixture()
	ctx := context.Background()

	// Goods received earlier leave ten on hand.
	stk.quantities[7] = 10

	sale, err := svc.AddSale(ctx, cashier, AddSaleInput{ProductID: 7, Quantity: 4})
	require.NoError(t, err)
	require.Equal(t, 80.0, sale.TotalAmount)
	require.EqualValues(t, 6, stk.quantities[7])
	require.Equal(t, cashier.ID, sale.CashierID)
	require.Len(t, repo.rows, 1)

	_, err = svc.AddSale(ctx, cashier, AddSaleInput{ProductID: 7, Quantity: 10})
	require.ErrorIs(t, err, shared.ErrInsufficientStock)
	require.EqualValues(t, 6, stk.quantities[7])
	require.Len(t, repo.rows, 1)
}

func TestAddSaleOverrideTotal(t *testing.T) {
	svc, _, stk := newFixture()
	stk.quantities[7] = 5

	sale, err := svc.AddSale(context.Background(), cashier, AddSaleInput{ProductID: 7, Quantity: 2, TotalAmount: 35})
	require.NoError(t, err)
	require.Equal(t, 35.0, sale.TotalAmount)
}

func TestAddSaleValidation(t *testing.T) {
	svc, repo, stk := newFixture()
	ctx := context.Background()
	stk.quantities[7] = 5

	_, err := svc.AddSale(ctx, cashier, AddSaleInput{ProductID: 7, Quantity: 0})
	require.ErrorIs(t, err, ErrValidation)

	_, err = svc.AddSale(ctx, cashier, AddSaleInput{ProductID: 99, Quantity: 1})
	require.ErrorIs(t, err, catalog.ErrNotFound)

	require.Empty(t, repo.rows)
	require.EqualValues(t, 5, stk.quantities[7])
}

func TestAddSaleRoleGate(t *testing.T) {
	svc, _, stk := newFixture()
	ctx := context.Background()
	stk.quantities[7] = 5

	_, err := svc.AddSale(ctx, keeper, AddSaleInput{ProductID: 7, Quantity: 1})
	require.ErrorIs(t, err, shared.ErrForbidden)

	_, err = svc.AddSale(ctx, nil, AddSaleInput{ProductID: 7, Quantity: 1})
	require.ErrorIs(t, err, shared.ErrUnauthenticated)
}

func TestAddSaleInsertFailureReversesStock(t *testing.T) {
	svc, repo, stk := newFixture()
	ctx := context.Background()
	stk.quantities[7] = 5
	repo.failInsert = true

	_, err := svc.AddSale(ctx, cashier, AddSaleInput{ProductID: 7, Quantity: 3})
	require.Error(t, err)
	require.EqualValues(t, 5, stk.quantities[7])
	require.Empty(t, repo.rows)
}

func TestUpdateSaleQuantityDelta(t *testing.T) {
	svc, _, stk := newFixture()
	ctx := context.Background()
	stk.quantities[7] = 10

	sale, err := svc.AddSale(ctx, cashier, AddSaleInput{ProductID: 7, Quantity: 4})
	require.NoError(t, err)
	require.EqualValues(t, 6, stk.quantities[7])

	updated, err := svc.UpdateSale(ctx, director, sale.ID, UpdateSaleInput{Quantity: 7})
	require.NoError(t, err)
	require.EqualValues(t, 7, updated.Quantity)
	require.Equal(t, 140.0, updated.TotalAmount)
	require.EqualValues(t, 3, stk.quantities[7])

	// The incremental difference of +4 is not available.
	_, err = svc.UpdateSale(ctx, director, sale.ID, UpdateSaleInput{Quantity: 11})
	require.ErrorIs(t, err, shared.ErrInsufficientStock)
	require.EqualValues(t, 3, stk.quantities[7])

	unchanged, err := svc.GetSale(ctx, sale.ID)
	require.NoError(t, err)
	require.EqualValues(t, 7, unchanged.Quantity)
}

func TestUpdateSaleProductChange(t *testing.T) {
	svc, _, stk := newFixture()
	ctx := context.Background()
	stk.quantities[7] = 10
	stk.quantities[8] = 5

	sale, err := svc.AddSale(ctx, cashier, AddSaleInput{ProductID: 7, Quantity: 4})
	require.NoError(t, err)

	updated, err := svc.UpdateSale(ctx, director, sale.ID, UpdateSaleInput{ProductID: 8, Quantity: 3})
	require.NoError(t, err)
	require.EqualValues(t, 8, updated.ProductID)
	require.Equal(t, 45.0, updated.TotalAmount)
	require.EqualValues(t, 10, stk.quantities[7])
	require.EqualValues(t, 2, stk.quantities[8])
}

func TestUpdateSaleProductChangeInsufficientRestoresOld(t *testing.T) {
	svc, _, stk := newFixture()
	ctx := context.Background()
	stk.quantities[7] = 10
	stk.quantities[8] = 2

	sale, err := svc.AddSale(ctx, cashier, AddSaleInput{ProductID: 7, Quantity: 4})
	require.NoError(t, err)

	_, err = svc.UpdateSale(ctx, director, sale.ID, UpdateSaleInput{ProductID: 8, Quantity: 3})
	require.ErrorIs(t, err, shared.ErrInsufficientStock)
	require.EqualValues(t, 6, stk.quantities[7])
	require.EqualValues(t, 2, stk.quantities[8])

	unchanged, err := svc.GetSale(ctx, sale.ID)
	require.NoError(t, err)
	require.EqualValues(t, 7, unchanged.ProductID)
	require.EqualValues(t, 4, unchanged.Quantity)
}

func TestUpdateSaleRoleGate(t *testing.T) {
	svc, _, stk := newFixture()
	ctx := context.Background()
	stk.quantities[7] = 10

	sale, err := svc.AddSale(ctx, cashier, AddSaleInput{ProductID: 7, Quantity: 4})
	require.NoError(t, err)

	// Cashiers record sales but only directors revise them.
	_, err = svc.UpdateSale(ctx, cashier, sale.ID, UpdateSaleInput{Quantity: 5})
	require.ErrorIs(t, err, shared.ErrForbidden)
}

func TestDeleteSaleRestoresStock(t *testing.T) {
	svc, repo, stk := newFixture()
	ctx := context.Background()
	stk.quantities[7] = 10

	sale, err := svc.AddSale(ctx, cashier, AddSaleInput{ProductID: 7, Quantity: 4})
	require.NoError(t, err)
	require.EqualValues(t, 6, stk.quantities[7])

	require.ErrorIs(t, svc.DeleteSale(ctx, cashier, sale.ID), shared.ErrForbidden)

	require.NoError(t, svc.DeleteSale(ctx, director, sale.ID))
	require.EqualValues(t, 10, stk.quantities[7])
	require.Empty(t, repo.rows)
}
