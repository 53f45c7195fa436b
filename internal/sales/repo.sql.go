package sales

import (
	"context"
	"errors"
	"time"

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

// Get fetches a sale by id.
func (r *Repository) Get(ctx context.Context, id int64) (Sale, error) {
	var s Sale
	err := r.pool.QueryRow(ctx,
		`SELECT id, product_id, quantity, cashier_id, sale_date, total_amount, created_at, updated_at FROM sales WHERE id = $1`, id).
		Scan(&s.ID, &s.ProductID, &s.Quantity, &s.CashierID, &s.SaleDate, &s.TotalAmount, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Sale{}, ErrNotFound
		}
		return Sale{}, err
	}
	return s, nil
}

// List returns sales whose date falls within [from, to], newest first.
func (r *Repository) List(ctx context.Context, from, to time.Time) ([]Sale, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, product_id, quantity, cashier_id, sale_date, total_amount, created_at, updated_at
		 FROM sales WHERE sale_date BETWEEN $1 AND $2 ORDER BY sale_date DESC, id DESC`, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Sale
	for rows.Next() {
		var s Sale
		if err := rows.Scan(&s.ID, &s.ProductID, &s.Quantity, &s.CashierID, &s.SaleDate, &s.TotalAmount, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Insert persists a sale and returns its id.
func (r *Repository) Insert(ctx context.Context, s Sale) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx,
		`INSERT INTO sales (product_id, quantity, cashier_id, sale_date, total_amount, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, NOW(), NOW()) RETURNING id`,
		s.ProductID, s.Quantity, s.CashierID, s.SaleDate, s.TotalAmount).Scan(&id)
	return id, err
}

// Update revises product, quantity and total amount.
func (r *Repository) Update(ctx context.Context, s Sale) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE sales SET product_id = $2, quantity = $3, total_amount = $4, updated_at = NOW() WHERE id = $1`,
		s.ID, s.ProductID, s.Quantity, s.TotalAmount)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a sale.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM sales WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
