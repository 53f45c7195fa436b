package catalog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/storekeep-erp/storekeep-erp/internal/shared"
)

type memoryRepo struct {
	products   map[int64]Product
	categories map[int64]Category
	nextID     int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{products: make(map[int64]Product), categories: make(map[int64]Category)}
}

func (r *memoryRepo) GetProduct(_ context.Context, id int64) (Product, error) {
	p, ok := r.products[id]
	if !ok {
		return Product{}, ErrNotFound
	}
	return p, nil
}

func (r *memoryRepo) GetProductByName(_ context.Context, name string) (Product, error) {
	for _, p := range r.products {
		if p.Name == name {
			return p, nil
		}
	}
	return Product{}, ErrNotFound
}

func (r *memoryRepo) ListProducts(_ context.Context) ([]Product, error) {
	out := make([]Product, 0, len(r.products))
	for _, p := range r.products {
		out = append(out, p)
	}
	return out, nil
}

func (r *memoryRepo) InsertProduct(_ context.Context, p Product) (int64, error) {
	r.nextID++
	p.ID = r.nextID
	r.products[p.ID] = p
	return p.ID, nil
}

func (r *memoryRepo) UpdateProduct(_ context.Context, p Product) error {
	if _, ok := r.products[p.ID]; !ok {
		return ErrNotFound
	}
	r.products[p.ID] = p
	return nil
}

func (r *memoryRepo) DeleteProduct(_ context.Context, id int64) error {
	if _, ok := r.products[id]; !ok {
		return ErrNotFound
	}
	delete(r.products, id)
	return nil
}

func (r *memoryRepo) GetCategory(_ context.Context, id int64) (Category, error) {
	c, ok := r.categories[id]
	if !ok {
		return Category{}, ErrNotFound
	}
	return c, nil
}

func (r *memoryRepo) ListCategories(_ context.Context) ([]Category, error) {
	out := make([]Category, 0, len(r.categories))
	for _, c := range r.categories {
		out = append(out, c)
	}
	return out, nil
}

func (r *memoryRepo) InsertCategory(_ context.Context, c Category) (int64, error) {
	r.nextID++
	c.ID = r.nextID
	r.categories[c.ID] = c
	return c.ID, nil
}

func (r *memoryRepo) UpdateCategory(_ context.Context, c Category) error {
	existing, ok := r.categories[c.ID]
	if !ok {
		return ErrNotFound
	}
	existing.Name = c.Name
	r.categories[c.ID] = existing
	return nil
}

func (r *memoryRepo) DeleteCategory(_ context.Context, id int64) error {
	if _, ok := r.categories[id]; !ok {
		return ErrNotFound
	}
	delete(r.categories, id)
	return nil
}

var keeper = &shared.Actor{ID: 9, Name: "keeper", Role: shared.RoleStockKeeper}

func TestCreateProduct(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil)
	ctx := context.Background()

	product, err := svc.CreateProduct(ctx, keeper, ProductInput{Name: "Flour 1kg", BuyPrice: 2.5, SellPrice: 4})
	require.NoError(t, err)
	require.NotZero(t, product.ID)

	got, err := svc.GetProduct(ctx, product.ID)
	require.NoError(t, err)
	require.Equal(t, "Flour 1kg", got.Name)
}

func TestCreateProductRoleGate(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil)
	ctx := context.Background()

	cashier := &shared.Actor{ID: 2, Role: shared.RoleCashier}
	_, err := svc.CreateProduct(ctx, cashier, ProductInput{Name: "Flour", BuyPrice: 1, SellPrice: 2})
	require.ErrorIs(t, err, shared.ErrForbidden)

	_, err = svc.CreateProduct(ctx, nil, ProductInput{Name: "Flour", BuyPrice: 1, SellPrice: 2})
	require.ErrorIs(t, err, shared.ErrUnauthenticated)
}

func TestCreateProductValidation(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil)
	ctx := context.Background()

	_, err := svc.CreateProduct(ctx, keeper, ProductInput{Name: "  ", BuyPrice: 1, SellPrice: 2})
	require.ErrorIs(t, err, shared.ErrValidation)

	_, err = svc.CreateProduct(ctx, keeper, ProductInput{Name: "Flour", BuyPrice: -1, SellPrice: 2})
	require.ErrorIs(t, err, shared.ErrValidation)

	_, err = svc.CreateProduct(ctx, keeper, ProductInput{Name: "Flour", CategoryID: 99, BuyPrice: 1, SellPrice: 2})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateProductPrices(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil)
	ctx := context.Background()

	product, err := svc.CreateProduct(ctx, keeper, ProductInput{Name: "Rice", BuyPrice: 3, SellPrice: 5})
	require.NoError(t, err)

	updated, err := svc.UpdateProduct(ctx, keeper, product.ID, ProductInput{Name: "Rice", BuyPrice: 3.2, SellPrice: 5.5})
	require.NoError(t, err)
	require.Equal(t, 3.2, updated.BuyPrice)
	require.Equal(t, 5.5, updated.SellPrice)
	require.Equal(t, product.ID, updated.ID)
}

func TestCategoryLifecycle(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil)
	ctx := context.Background()

	category, err := svc.CreateCategory(ctx, keeper, "Dry goods")
	require.NoError(t, err)

	require.NoError(t, svc.UpdateCategory(ctx, keeper, category.ID, "Staples"))
	categories, err := svc.ListCategories(ctx)
	require.NoError(t, err)
	require.Len(t, categories, 1)
	require.Equal(t, "Staples", categories[0].Name)

	require.NoError(t, svc.DeleteCategory(ctx, keeper, category.ID))
	require.ErrorIs(t, svc.DeleteCategory(ctx, keeper, category.ID), ErrNotFound)
}
