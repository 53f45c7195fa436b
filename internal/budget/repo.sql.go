package budget

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository provides PostgreSQL backed persistence. The budgets table
// carries a unique index on month.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const budgetColumns = `id, month, planned_income, planned_expenses, actual_income, actual_expenses, net_result, director_id, created_at, updated_at`

func scanBudget(row pgx.Row) (MonthlyBudget, error) {
	var b MonthlyBudget
	err := row.Scan(&b.ID, &b.Month, &b.PlannedIncome, &b.PlannedExpenses,
		&b.ActualIncome, &b.ActualExpenses, &b.NetResult, &b.DirectorID, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return MonthlyBudget{}, ErrNotFound
		}
		return MonthlyBudget{}, err
	}
	return b, nil
}

func mapUniqueViolation(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrConflict
	}
	return err
}

// Get fetches a budget by id.
func (r *Repository) Get(ctx context.Context, id int64) (MonthlyBudget, error) {
	return scanBudget(r.pool.QueryRow(ctx,
		`SELECT `+budgetColumns+` FROM budgets WHERE id = $1`, id))
}

// GetByMonth fetches the budget for a normalized month.
func (r *Repository) GetByMonth(ctx context.Context, month time.Time) (MonthlyBudget, error) {
	return scanBudget(r.pool.QueryRow(ctx,
		`SELECT `+budgetColumns+` FROM budgets WHERE month = $1`, month))
}

// List returns budgets whose month falls within [from, to], oldest first.
func (r *Repository) List(ctx context.Context, from, to time.Time) ([]MonthlyBudget, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+budgetColumns+` FROM budgets WHERE month BETWEEN $1 AND $2 ORDER BY month`, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []MonthlyBudget
	for rows.Next() {
		var b MonthlyBudget
		if err := rows.Scan(&b.ID, &b.Month, &b.PlannedIncome, &b.PlannedExpenses,
			&b.ActualIncome, &b.ActualExpenses, &b.NetResult, &b.DirectorID, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// Insert persists a budget and returns its id. A month collision maps to
// ErrConflict.
func (r *Repository) Insert(ctx context.Context, b MonthlyBudget) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx,
		`INSERT INTO budgets (month, planned_income, planned_expenses, actual_income, actual_expenses, net_result, director_id, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW()) RETURNING id`,
		b.Month, b.PlannedIncome, b.PlannedExpenses, b.ActualIncome, b.ActualExpenses, b.NetResult, b.DirectorID).Scan(&id)
	if err != nil {
		return 0, mapUniqueViolation(err)
	}
	return id, nil
}

// UpdateActuals persists accumulated actuals and the recomputed net result.
func (r *Repository) UpdateActuals(ctx context.Context, b MonthlyBudget) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE budgets SET actual_income = $2, actual_expenses = $3, net_result = $4, updated_at = NOW() WHERE id = $1`,
		b.ID, b.ActualIncome, b.ActualExpenses, b.NetResult)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Accumulate adds signed deltas to a budget's actuals in a single statement,
// flooring each actual at zero and recomputing the net result from the same
// expressions. Concurrent workers therefore never lose each other's deltas.
// clamped reports whether a delta would have driven an actual negative.
func (r *Repository) Accumulate(ctx context.Context, id int64, incomeDelta, expenseDelta float64) (MonthlyBudget, bool, error) {
	var b MonthlyBudget
	var clamped bool
	err := r.pool.QueryRow(ctx,
		`WITH prev AS (
		     SELECT actual_income, actual_expenses FROM budgets WHERE id = $1 FOR UPDATE
		 )
		 UPDATE budgets
		 SET actual_income = GREATEST(budgets.actual_income + $2, 0),
		     actual_expenses = GREATEST(budgets.actual_expenses + $3, 0),
		     net_result = GREATEST(budgets.actual_income + $2, 0) - GREATEST(budgets.actual_expenses + $3, 0),
		     updated_at = NOW()
		 FROM prev
		 WHERE budgets.id = $1
		 RETURNING budgets.id, budgets.month, budgets.planned_income, budgets.planned_expenses,
		           budgets.actual_income, budgets.actual_expenses, budgets.net_result,
		           budgets.director_id, budgets.created_at, budgets.updated_at,
		           prev.actual_income + $2 < 0 OR prev.actual_expenses + $3 < 0`,
		id, incomeDelta, expenseDelta).
		Scan(&b.ID, &b.Month, &b.PlannedIncome, &b.PlannedExpenses,
			&b.ActualIncome, &b.ActualExpenses, &b.NetResult, &b.DirectorID, &b.CreatedAt, &b.UpdatedAt, &clamped)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return MonthlyBudget{}, false, ErrNotFound
		}
		return MonthlyBudget{}, false, err
	}
	return b, clamped, nil
}

// UpdatePlanned persists the plan; a month change hitting another budget's
// month maps to ErrConflict.
func (r *Repository) UpdatePlanned(ctx context.Context, b MonthlyBudget) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE budgets SET month = $2, planned_income = $3, planned_expenses = $4, updated_at = NOW() WHERE id = $1`,
		b.ID, b.Month, b.PlannedIncome, b.PlannedExpenses)
	if err != nil {
		return mapUniqueViolation(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// RangeTotals sums one numeric column across budgets in [from, to].
type RangeTotals struct {
	PlannedIncome   float64
	PlannedExpenses float64
	ActualIncome    float64
	ActualExpenses  float64
}

// Totals sums plan and actual columns across budgets whose month falls in
// [from, to]; an empty range yields zeroes.
func (r *Repository) Totals(ctx context.Context, from, to time.Time) (RangeTotals, error) {
	var t RangeTotals
	err := r.pool.QueryRow(ctx,
		`SELECT COALESCE(SUM(planned_income), 0), COALESCE(SUM(planned_expenses), 0),
		        COALESCE(SUM(actual_income), 0), COALESCE(SUM(actual_expenses), 0)
		 FROM budgets WHERE month BETWEEN $1 AND $2`, from, to).
		Scan(&t.PlannedIncome, &t.PlannedExpenses, &t.ActualIncome, &t.ActualExpenses)
	return t, err
}
