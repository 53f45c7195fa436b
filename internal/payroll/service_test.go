package payroll

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/storekeep-erp/storekeep-erp/internal/shared"
)

type memoryRepo struct {
	rows   map[int64]Payroll
	nextID int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{rows: make(map[int64]Payroll)}
}

func (r *memoryRepo) Get(_ context.Context, id int64) (Payroll, error) {
	p, ok := r.rows[id]
	if !ok {
		return Payroll{}, ErrNotFound
	}
	return p, nil
}

func (r *memoryRepo) List(_ context.Context, from, to time.Time) ([]Payroll, error) {
	var out []Payroll
	for _, p := range r.rows {
		if !p.PeriodStart.After(to) && !p.PeriodEnd.Before(from) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *memoryRepo) Insert(_ context.Context, p Payroll) (int64, error) {
	r.nextID++
	p.ID = r.nextID
	r.rows[p.ID] = p
	return p.ID, nil
}

func (r *memoryRepo) Update(_ context.Context, p Payroll) error {
	existing, ok := r.rows[p.ID]
	if !ok {
		return ErrNotFound
	}
	existing.HoursWorked = p.HoursWorked
	existing.HourlyRate = p.HourlyRate
	existing.TotalAmount = p.TotalAmount
	existing.PeriodStart = p.PeriodStart
	existing.PeriodEnd = p.PeriodEnd
	r.rows[p.ID] = existing
	return nil
}

func (r *memoryRepo) MarkPaid(_ context.Context, id int64, paymentDate time.Time) (bool, error) {
	p, ok := r.rows[id]
	if !ok || p.Paid {
		return false, nil
	}
	p.Paid = true
	p.PaymentDate = &paymentDate
	r.rows[id] = p
	return true, nil
}

func (r *memoryRepo) Delete(_ context.Context, id int64) error {
	if _, ok := r.rows[id]; !ok {
		return ErrNotFound
	}
	delete(r.rows, id)
	return nil
}

var (
	director   = &shared.Actor{ID: 1, Name: "director", Role: shared.RoleDirector}
	accountant = &shared.Actor{ID: 2, Name: "accountant", Role: shared.RoleAccountant}
	cashier    = &shared.Actor{ID: 4, Name: "cashier", Role: shared.RoleCashier}
)

func validInput() PayrollInput {
	return PayrollInput{
		EmployeeID:  9,
		HoursWorked: 160,
		HourlyRate:  12.5,
		PeriodStart: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		PeriodEnd:   time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC),
	}
}

func newFixture() (*Service, *memoryRepo) {
	repo := newMemoryRepo()
	return NewService(repo, nil, nil), repo
}

func TestCreateComputesTotal(t *testing.T) {
	svc, _ := newFixture()

	p, err := svc.Create(context.Background(), accountant, validInput())
	require.NoError(t, err)
	require.Equal(t, 2000.0, p.TotalAmount)
	require.Equal(t, accountant.ID, p.AccountantID)
	require.False(t, p.Paid)
	require.Nil(t, p.PaymentDate)
}

func TestCreateValidation(t *testing.T) {
	svc, repo := newFixture()
	ctx := context.Background()

	input := validInput()
	input.HoursWorked = 0
	_, err := svc.Create(ctx, accountant, input)
	require.ErrorIs(t, err, ErrValidation)

	input = validInput()
	input.HourlyRate = -1
	_, err = svc.Create(ctx, accountant, input)
	require.ErrorIs(t, err, ErrValidation)

	input = validInput()
	input.PeriodEnd = input.PeriodStart.AddDate(0, 0, -1)
	_, err = svc.Create(ctx, accountant, input)
	require.ErrorIs(t, err, ErrValidation)

	require.Empty(t, repo.rows)
}

func TestCreateRoleGate(t *testing.T) {
	svc, _ := newFixture()

	_, err := svc.Create(context.Background(), cashier, validInput())
	require.ErrorIs(t, err, shared.ErrForbidden)
}

func TestMarkPaidMonotonic(t *testing.T) {
	svc, repo := newFixture()
	ctx := context.Background()

	p, err := svc.Create(ctx, accountant, validInput())
	require.NoError(t, err)

	changed, err := svc.MarkPaid(ctx, accountant, p.ID)
	require.NoError(t, err)
	require.True(t, changed)

	firstDate := *repo.rows[p.ID].PaymentDate

	// Second call is a no-op and keeps the original payment date.
	changed, err = svc.MarkPaid(ctx, accountant, p.ID)
	require.NoError(t, err)
	require.False(t, changed)
	require.Equal(t, firstDate, *repo.rows[p.ID].PaymentDate)
	require.True(t, repo.rows[p.ID].Paid)
}

func TestMarkPaidNotFound(t *testing.T) {
	svc, _ := newFixture()

	_, err := svc.MarkPaid(context.Background(), accountant, 404)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestPaidImmutableExceptDirector(t *testing.T) {
	svc, _ := newFixture()
	ctx := context.Background()

	p, err := svc.Create(ctx, accountant, validInput())
	require.NoError(t, err)
	_, err = svc.MarkPaid(ctx, accountant, p.ID)
	require.NoError(t, err)

	revised := validInput()
	revised.HoursWorked = 170

	_, err = svc.Update(ctx, accountant, p.ID, revised)
	require.ErrorIs(t, err, shared.ErrForbidden)

	updated, err := svc.Update(ctx, director, p.ID, revised)
	require.NoError(t, err)
	require.Equal(t, 2125.0, updated.TotalAmount)
	require.True(t, updated.Paid)
}

func TestDeleteDirectorOnly(t *testing.T) {
	svc, repo := newFixture()
	ctx := context.Background()

	p, err := svc.Create(ctx, accountant, validInput())
	require.NoError(t, err)

	require.ErrorIs(t, svc.Delete(ctx, accountant, p.ID), shared.ErrForbidden)
	require.NoError(t, svc.Delete(ctx, director, p.ID))
	require.Empty(t, repo.rows)
}
