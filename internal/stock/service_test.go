package stock

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/storekeep-erp/storekeep-erp/internal/shared"
)

type memoryRepo struct {
	rows map[int64]int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{rows: make(map[int64]int64)}
}

func (r *memoryRepo) Get(_ context.Context, productID int64) (Stock, error) {
	qty, ok := r.rows[productID]
	if !ok {
		return Stock{}, ErrNotFound
	}
	return Stock{ProductID: productID, Quantity: qty}, nil
}

func (r *memoryRepo) List(_ context.Context) ([]Stock, error) {
	out := make([]Stock, 0, len(r.rows))
	for id, qty := range r.rows {
		out = append(out, Stock{ProductID: id, Quantity: qty})
	}
	return out, nil
}

func (r *memoryRepo) Adjust(_ context.Context, productID int64, delta int64) (int64, error) {
	next := r.rows[productID] + delta
	if next < 0 {
		return 0, ErrInsufficientStock
	}
	r.rows[productID] = next
	return next, nil
}

func (r *memoryRepo) AdjustFloor(_ context.Context, productID int64, delta int64) (int64, bool, error) {
	next := r.rows[productID] + delta
	clamped := next < 0
	if clamped {
		next = 0
	}
	r.rows[productID] = next
	return next, clamped, nil
}

func (r *memoryRepo) SetAbsolute(_ context.Context, productID int64, quantity int64) error {
	r.rows[productID] = quantity
	return nil
}

func (r *memoryRepo) Delete(_ context.Context, productID int64) error {
	if _, ok := r.rows[productID]; !ok {
		return ErrNotFound
	}
	delete(r.rows, productID)
	return nil
}

var keeper = &shared.Actor{ID: 5, Name: "keeper", Role: shared.RoleStockKeeper}

func TestAdjustLazyCreation(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil, nil)
	ctx := context.Background()

	qty, err := svc.Adjust(ctx, 7, 10)
	require.NoError(t, err)
	require.EqualValues(t, 10, qty)

	qty, err = svc.Adjust(ctx, 7, -4)
	require.NoError(t, err)
	require.EqualValues(t, 6, qty)
}

func TestAdjustRefusesNegativeResult(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil, nil)
	ctx := context.Background()

	_, err := svc.Adjust(ctx, 1, 5)
	require.NoError(t, err)

	_, err = svc.Adjust(ctx, 1, -6)
	require.ErrorIs(t, err, ErrInsufficientStock)
	require.ErrorIs(t, err, shared.ErrInsufficientStock)

	qty, err := svc.Quantity(ctx, 1)
	require.NoError(t, err)
	require.EqualValues(t, 5, qty)
}

func TestQuantityAbsentIsZero(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil, nil)
	qty, err := svc.Quantity(context.Background(), 99)
	require.NoError(t, err)
	require.Zero(t, qty)

	_, err = svc.GetByProduct(context.Background(), 99)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestAdjustFloorClampsAtZero(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil, nil)
	ctx := context.Background()

	_, err := svc.Adjust(ctx, 3, 4)
	require.NoError(t, err)

	qty, err := svc.AdjustFloor(ctx, 3, -10)
	require.NoError(t, err)
	require.Zero(t, qty)
}

func TestSetAbsolute(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil, nil)
	ctx := context.Background()

	require.NoError(t, svc.SetAbsolute(ctx, keeper, 2, 30))
	qty, err := svc.Quantity(ctx, 2)
	require.NoError(t, err)
	require.EqualValues(t, 30, qty)

	err = svc.SetAbsolute(ctx, keeper, 2, -1)
	require.ErrorIs(t, err, ErrValidation)

	director := &shared.Actor{ID: 1, Role: shared.RoleDirector}
	err = svc.SetAbsolute(ctx, director, 2, 10)
	require.ErrorIs(t, err, shared.ErrForbidden)
}

func TestManualAddRoleGate(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil, nil)
	ctx := context.Background()

	qty, err := svc.AddManual(ctx, keeper, 4, 12)
	require.NoError(t, err)
	require.EqualValues(t, 12, qty)

	_, err = svc.AddManual(ctx, keeper, 4, 0)
	require.ErrorIs(t, err, ErrValidation)

	cashier := &shared.Actor{ID: 8, Role: shared.RoleCashier}
	_, err = svc.AddManual(ctx, cashier, 4, 1)
	require.ErrorIs(t, err, shared.ErrForbidden)
}
