package finance

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository provides PostgreSQL backed persistence for both journals.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const expenseColumns = `id, category, amount, expense_date, recorded_by, purchase_id, created_at, updated_at`

func scanExpense(row pgx.Row) (Expense, error) {
	var e Expense
	err := row.Scan(&e.ID, &e.Category, &e.Amount, &e.Date, &e.RecordedBy, &e.PurchaseID, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Expense{}, ErrNotFound
		}
		return Expense{}, err
	}
	return e, nil
}

// GetExpense fetches an expense by id.
func (r *Repository) GetExpense(ctx context.Context, id int64) (Expense, error) {
	return scanExpense(r.pool.QueryRow(ctx,
		`SELECT `+expenseColumns+` FROM expenses WHERE id = $1`, id))
}

// GetExpenseByPurchase fetches the expense linked to a purchase.
func (r *Repository) GetExpenseByPurchase(ctx context.Context, purchaseID int64) (Expense, error) {
	return scanExpense(r.pool.QueryRow(ctx,
		`SELECT `+expenseColumns+` FROM expenses WHERE purchase_id = $1`, purchaseID))
}

// ListExpenses returns expenses dated within [from, to], newest first.
func (r *Repository) ListExpenses(ctx context.Context, from, to time.Time) ([]Expense, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+expenseColumns+` FROM expenses WHERE expense_date BETWEEN $1 AND $2 ORDER BY expense_date DESC, id DESC`, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Expense
	for rows.Next() {
		var e Expense
		if err := rows.Scan(&e.ID, &e.Category, &e.Amount, &e.Date, &e.RecordedBy, &e.PurchaseID, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// InsertExpense persists an expense and returns its id.
func (r *Repository) InsertExpense(ctx context.Context, e Expense) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx,
		`INSERT INTO expenses (category, amount, expense_date, recorded_by, purchase_id, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, NOW(), NOW()) RETURNING id`,
		e.Category, e.Amount, e.Date, e.RecordedBy, e.PurchaseID).Scan(&id)
	return id, err
}

// UpdateExpense revises category, amount and date.
func (r *Repository) UpdateExpense(ctx context.Context, e Expense) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE expenses SET category = $2, amount = $3, expense_date = $4, updated_at = NOW() WHERE id = $1`,
		e.ID, e.Category, e.Amount, e.Date)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteExpense removes an expense.
func (r *Repository) DeleteExpense(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM expenses WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// TotalExpenses sums expense amounts dated within [from, to].
func (r *Repository) TotalExpenses(ctx context.Context, from, to time.Time) (float64, error) {
	var total float64
	err := r.pool.QueryRow(ctx,
		`SELECT COALESCE(SUM(amount), 0) FROM expenses WHERE expense_date BETWEEN $1 AND $2`, from, to).Scan(&total)
	return total, err
}

const incomeColumns = `id, source, amount, income_date, recorded_by, created_at, updated_at`

// GetIncome fetches an income by id.
func (r *Repository) GetIncome(ctx context.Context, id int64) (Income, error) {
	var in Income
	err := r.pool.QueryRow(ctx,
		`SELECT `+incomeColumns+` FROM incomes WHERE id = $1`, id).
		Scan(&in.ID, &in.Source, &in.Amount, &in.Date, &in.RecordedBy, &in.CreatedAt, &in.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Income{}, ErrNotFound
		}
		return Income{}, err
	}
	return in, nil
}

// ListIncomes returns incomes dated within [from, to], newest first.
func (r *Repository) ListIncomes(ctx context.Context, from, to time.Time) ([]Income, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+incomeColumns+` FROM incomes WHERE income_date BETWEEN $1 AND $2 ORDER BY income_date DESC, id DESC`, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Income
	for rows.Next() {
		var in Income
		if err := rows.Scan(&in.ID, &in.Source, &in.Amount, &in.Date, &in.RecordedBy, &in.CreatedAt, &in.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, in)
	}
	return out, rows.Err()
}

// InsertIncome persists an income and returns its id.
func (r *Repository) InsertIncome(ctx context.Context, in Income) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx,
		`INSERT INTO incomes (source, amount, income_date, recorded_by, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, NOW(), NOW()) RETURNING id`,
		in.Source, in.Amount, in.Date, in.RecordedBy).Scan(&id)
	return id, err
}

// UpdateIncome revises source, amount and date.
func (r *Repository) UpdateIncome(ctx context.Context, in Income) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE incomes SET source = $2, amount = $3, income_date = $4, updated_at = NOW() WHERE id = $1`,
		in.ID, in.Source, in.Amount, in.Date)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteIncome removes an income.
func (r *Repository) DeleteIncome(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM incomes WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// TotalIncome sums income amounts dated within [from, to].
func (r *Repository) TotalIncome(ctx context.Context, from, to time.Time) (float64, error) {
	var total float64
	err := r.pool.QueryRow(ctx,
		`SELECT COALESCE(SUM(amount), 0) FROM incomes WHERE income_date BETWEEN $1 AND $2`, from, to).Scan(&total)
	return total, err
}
