package catalog

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GetProduct fetches a product by id.
func (r *Repository) GetProduct(ctx context.Context, id int64) (Product, error) {
	row := r.pool.QueryRow(ctx, `SELECT id, name, category_id, buy_price, sell_price, created_at, updated_at FROM products WHERE id = $1`, id)
	return scanProduct(row)
}

// GetProductByName fetches a product by exact name.
func (r *Repository) GetProductByName(ctx context.Context, name string) (Product, error) {
	row := r.pool.QueryRow(ctx, `SELECT id, name, category_id, buy_price, sell_price, created_at, updated_at FROM products WHERE name = $1`, name)
	return scanProduct(row)
}

// ListProducts returns all products ordered by name.
func (r *Repository) ListProducts(ctx context.Context) ([]Product, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, category_id, buy_price, sell_price, created_at, updated_at FROM products ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var products []Product
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.Name, &p.CategoryID, &p.BuyPrice, &p.SellPrice, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

// InsertProduct persists a new product and returns its id.
func (r *Repository) InsertProduct(ctx context.Context, p Product) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx,
		`INSERT INTO products (name, category_id, buy_price, sell_price, created_at, updated_at) VALUES ($1, $2, $3, $4, NOW(), NOW()) RETURNING id`,
		p.Name, p.CategoryID, p.BuyPrice, p.SellPrice).Scan(&id)
	return id, err
}

// UpdateProduct revises name, category and prices.
func (r *Repository) UpdateProduct(ctx context.Context, p Product) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE products SET name = $2, category_id = $3, buy_price = $4, sell_price = $5, updated_at = NOW() WHERE id = $1`,
		p.ID, p.Name, p.CategoryID, p.BuyPrice, p.SellPrice)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteProduct removes a product.
func (r *Repository) DeleteProduct(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// GetCategory fetches a category by id.
func (r *Repository) GetCategory(ctx context.Context, id int64) (Category, error) {
	var c Category
	err := r.pool.QueryRow(ctx, `SELECT id, name, created_at, updated_at FROM categories WHERE id = $1`, id).
		Scan(&c.ID, &c.Name, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Category{}, ErrNotFound
		}
		return Category{}, err
	}
	return c, nil
}

// ListCategories returns all categories ordered by name.
func (r *Repository) ListCategories(ctx context.Context) ([]Category, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, created_at, updated_at FROM categories ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var categories []Category
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

// InsertCategory persists a category.
func (r *Repository) InsertCategory(ctx context.Context, c Category) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `INSERT INTO categories (name, created_at, updated_at) VALUES ($1, NOW(), NOW()) RETURNING id`, c.Name).Scan(&id)
	return id, err
}

// UpdateCategory renames a category.
func (r *Repository) UpdateCategory(ctx context.Context, c Category) error {
	tag, err := r.pool.Exec(ctx, `UPDATE categories SET name = $2, updated_at = NOW() WHERE id = $1`, c.ID, c.Name)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteCategory removes a category.
func (r *Repository) DeleteCategory(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanProduct(row pgx.Row) (Product, error) {
	var p Product
	err := row.Scan(&p.ID, &p.Name, &p.CategoryID, &p.BuyPrice, &p.SellPrice, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Product{}, ErrNotFound
		}
		return Product{}, err
	}
	return p, nil
}
