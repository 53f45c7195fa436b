package payroll

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

const payrollColumns = `id, employee_id, accountant_id, hours_worked, hourly_rate, total_amount, period_start, period_end, paid, payment_date, created_at, updated_at`

// Get fetches a payroll by id.
func (r *Repository) Get(ctx context.Context, id int64) (Payroll, error) {
	var p Payroll
	err := r.pool.QueryRow(ctx,
		`SELECT `+payrollColumns+` FROM payrolls WHERE id = $1`, id).
		Scan(&p.ID, &p.EmployeeID, &p.AccountantID, &p.HoursWorked, &p.HourlyRate, &p.TotalAmount,
			&p.PeriodStart, &p.PeriodEnd, &p.Paid, &p.PaymentDate, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Payroll{}, ErrNotFound
		}
		return Payroll{}, err
	}
	return p, nil
}

// List returns payrolls whose period overlaps [from, to], newest first.
func (r *Repository) List(ctx context.Context, from, to time.Time) ([]Payroll, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+payrollColumns+` FROM payrolls WHERE period_start <= $2 AND period_end >= $1 ORDER BY period_start DESC, id DESC`, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Payroll
	for rows.Next() {
		var p Payroll
		if err := rows.Scan(&p.ID, &p.EmployeeID, &p.AccountantID, &p.HoursWorked, &p.HourlyRate, &p.TotalAmount,
			&p.PeriodStart, &p.PeriodEnd, &p.Paid, &p.PaymentDate, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Insert persists a payroll and returns its id.
func (r *Repository) Insert(ctx context.Context, p Payroll) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx,
		`INSERT INTO payrolls (employee_id, accountant_id, hours_worked, hourly_rate, total_amount, period_start, period_end, paid, payment_date, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, FALSE, NULL, NOW(), NOW()) RETURNING id`,
		p.EmployeeID, p.AccountantID, p.HoursWorked, p.HourlyRate, p.TotalAmount, p.PeriodStart, p.PeriodEnd).Scan(&id)
	return id, err
}

// Update revises hours, rate and total.
func (r *Repository) Update(ctx context.Context, p Payroll) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE payrolls SET hours_worked = $2, hourly_rate = $3, total_amount = $4, period_start = $5, period_end = $6, updated_at = NOW() WHERE id = $1`,
		p.ID, p.HoursWorked, p.HourlyRate, p.TotalAmount, p.PeriodStart, p.PeriodEnd)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkPaid flips paid in one conditional statement so the transition stays
// monotonic under concurrent calls. Returns false when already paid.
func (r *Repository) MarkPaid(ctx context.Context, id int64, paymentDate time.Time) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE payrolls SET paid = TRUE, payment_date = $2, updated_at = NOW() WHERE id = $1 AND paid = FALSE`,
		id, paymentDate)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// Delete removes a payroll.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM payrolls WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
