package stock

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/storekeep-erp/storekeep-erp/internal/platform/db"
)

// Repository persists stock rows in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Get fetches the stock row for a product.
func (r *Repository) Get(ctx context.Context, productID int64) (Stock, error) {
	var s Stock
	err := r.pool.QueryRow(ctx, `SELECT product_id, quantity, updated_at FROM stock WHERE product_id = $1`, productID).
		Scan(&s.ProductID, &s.Quantity, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Stock{}, ErrNotFound
		}
		return Stock{}, err
	}
	return s, nil
}

// List returns all stock rows ordered by product id.
func (r *Repository) List(ctx context.Context) ([]Stock, error) {
	rows, err := r.pool.Query(ctx, `SELECT product_id, quantity, updated_at FROM stock ORDER BY product_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var stocks []Stock
	for rows.Next() {
		var s Stock
		if err := rows.Scan(&s.ProductID, &s.Quantity, &s.UpdatedAt); err != nil {
			return nil, err
		}
		stocks = append(stocks, s)
	}
	return stocks, rows.Err()
}

// Adjust applies delta as a single compare-and-adjust at the storage
// boundary: the row is created at zero if absent, and the conditional update
// refuses to commit a negative result. Returns the new quantity.
func (r *Repository) Adjust(ctx context.Context, productID int64, delta int64) (int64, error) {
	var quantity int64
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx,
			`INSERT INTO stock (product_id, quantity, updated_at) VALUES ($1, 0, NOW()) ON CONFLICT (product_id) DO NOTHING`,
			productID); err != nil {
			return err
		}
		err := tx.QueryRow(ctx,
			`UPDATE stock SET quantity = quantity + $2, updated_at = NOW() WHERE product_id = $1 AND quantity + $2 >= 0 RETURNING quantity`,
			productID, delta).Scan(&quantity)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrInsufficientStock
			}
			return err
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return quantity, nil
}

// AdjustFloor applies delta flooring the result at zero. Returns the new
// quantity and whether clamping occurred. Used only on purchase-deletion
// reversal; a missing row is created at zero first.
func (r *Repository) AdjustFloor(ctx context.Context, productID int64, delta int64) (int64, bool, error) {
	var after int64
	var clamped bool
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx,
			`INSERT INTO stock (product_id, quantity, updated_at) VALUES ($1, 0, NOW()) ON CONFLICT (product_id) DO NOTHING`,
			productID); err != nil {
			return err
		}
		var before int64
		if err := tx.QueryRow(ctx, `SELECT quantity FROM stock WHERE product_id = $1 FOR UPDATE`, productID).Scan(&before); err != nil {
			return err
		}
		after = before + delta
		clamped = after < 0
		if clamped {
			after = 0
		}
		_, err := tx.Exec(ctx, `UPDATE stock SET quantity = $2, updated_at = NOW() WHERE product_id = $1`, productID, after)
		return err
	})
	if err != nil {
		return 0, false, err
	}
	return after, clamped, nil
}

// SetAbsolute overrides the quantity, creating the row when absent.
func (r *Repository) SetAbsolute(ctx context.Context, productID int64, quantity int64) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO stock (product_id, quantity, updated_at) VALUES ($1, $2, NOW())
		 ON CONFLICT (product_id) DO UPDATE SET quantity = EXCLUDED.quantity, updated_at = NOW()`,
		productID, quantity)
	return err
}

// Delete removes the stock row for a product.
func (r *Repository) Delete(ctx context.Context, productID int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM stock WHERE product_id = $1`, productID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
