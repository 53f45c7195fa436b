package purchases

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

// Get fetches a purchase by id.
func (r *Repository) Get(ctx context.Context, id int64) (Purchase, error) {
	var p Purchase
	err := r.pool.QueryRow(ctx,
		`SELECT id, product_id, quantity, stock_keeper_id, purchase_date, total_cost, created_at, updated_at FROM purchases WHERE id = $1`, id).
		Scan(&p.ID, &p.ProductID, &p.Quantity, &p.StockKeeperID, &p.PurchaseDate, &p.TotalCost, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Purchase{}, ErrNotFound
		}
		return Purchase{}, err
	}
	return p, nil
}

// List returns purchases whose date falls within [from, to], newest first.
func (r *Repository) List(ctx context.Context, from, to time.Time) ([]Purchase, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, product_id, quantity, stock_keeper_id, purchase_date, total_cost, created_at, updated_at
		 FROM purchases WHERE purchase_date BETWEEN $1 AND $2 ORDER BY purchase_date DESC, id DESC`, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var purchases []Purchase
	for rows.Next() {
		var p Purchase
		if err := rows.Scan(&p.ID, &p.ProductID, &p.Quantity, &p.StockKeeperID, &p.PurchaseDate, &p.TotalCost, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		purchases = append(purchases, p)
	}
	return purchases, rows.Err()
}

// Insert persists a purchase and returns its id.
func (r *Repository) Insert(ctx context.Context, p Purchase) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx,
		`INSERT INTO purchases (product_id, quantity, stock_keeper_id, purchase_date, total_cost, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, NOW(), NOW()) RETURNING id`,
		p.ProductID, p.Quantity, p.StockKeeperID, p.PurchaseDate, p.TotalCost).Scan(&id)
	return id, err
}

// Update revises quantity and total cost.
func (r *Repository) Update(ctx context.Context, p Purchase) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE purchases SET quantity = $2, total_cost = $3, updated_at = NOW() WHERE id = $1`,
		p.ID, p.Quantity, p.TotalCost)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a purchase.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM purchases WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
