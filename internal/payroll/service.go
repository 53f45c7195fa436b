package payroll

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/storekeep-erp/storekeep-erp/internal/shared"
)

// RepositoryPort abstracts repository usage for service.
type RepositoryPort interface {
	Get(ctx context.Context, id int64) (Payroll, error)
	List(ctx context.Context, from, to time.Time) ([]Payroll, error)
	Insert(ctx context.Context, p Payroll) (int64, error)
	Update(ctx context.Context, p Payroll) error
	MarkPaid(ctx context.Context, id int64, paymentDate time.Time) (bool, error)
	Delete(ctx context.Context, id int64) error
}

// AuditPort abstracts audit logging functionality.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service tracks salary accruals and their one-way payment transition.
type Service struct {
	repo   RepositoryPort
	audit  AuditPort
	logger *slog.Logger
}

// NewService builds Service.
func NewService(repo RepositoryPort, audit AuditPort, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, audit: audit, logger: logger}
}

// PayrollInput describes an accrual payload.
type PayrollInput struct {
	EmployeeID  int64
	HoursWorked float64
	HourlyRate  float64
	PeriodStart time.Time
	PeriodEnd   time.Time
}

func (in PayrollInput) validate() error {
	if in.EmployeeID == 0 {
		return fmt.Errorf("%w: employee is required", ErrValidation)
	}
	if in.HoursWorked <= 0 {
		return fmt.Errorf("%w: hours worked must be > 0", ErrValidation)
	}
	if in.HourlyRate <= 0 {
		return fmt.Errorf("%w: hourly rate must be > 0", ErrValidation)
	}
	if in.PeriodStart.IsZero() || in.PeriodEnd.IsZero() || in.PeriodEnd.Before(in.PeriodStart) {
		return fmt.Errorf("%w: period must be a valid [start, end] range", ErrValidation)
	}
	return nil
}

// Create records a salary accrual with totalAmount = hours x rate.
func (s *Service) Create(ctx context.Context, actor *shared.Actor, input PayrollInput) (Payroll, error) {
	if err := shared.Require(actor, shared.PayrollWriteRoles...); err != nil {
		return Payroll{}, err
	}
	if err := input.validate(); err != nil {
		return Payroll{}, err
	}
	p := Payroll{
		EmployeeID:   input.EmployeeID,
		AccountantID: actor.ID,
		HoursWorked:  input.HoursWorked,
		HourlyRate:   input.HourlyRate,
		TotalAmount:  input.HoursWorked * input.HourlyRate,
		PeriodStart:  input.PeriodStart,
		PeriodEnd:    input.PeriodEnd,
	}
	id, err := s.repo.Insert(ctx, p)
	if err != nil {
		return Payroll{}, err
	}
	p.ID = id

	s.recordAudit(ctx, actor, "payroll:create", id, map[string]any{
		"employee_id":  p.EmployeeID,
		"total_amount": p.TotalAmount,
	})
	return p, nil
}

// Update revises an accrual, recomputing the total. A paid payroll is
// immutable for everyone but a director.
func (s *Service) Update(ctx context.Context, actor *shared.Actor, id int64, input PayrollInput) (Payroll, error) {
	if err := shared.Require(actor, shared.PayrollWriteRoles...); err != nil {
		return Payroll{}, err
	}
	if err := input.validate(); err != nil {
		return Payroll{}, err
	}
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return Payroll{}, err
	}
	if p.Paid && actor.Role != shared.RoleDirector {
		return Payroll{}, shared.ErrForbidden
	}
	p.HoursWorked = input.HoursWorked
	p.HourlyRate = input.HourlyRate
	p.TotalAmount = input.HoursWorked * input.HourlyRate
	p.PeriodStart = input.PeriodStart
	p.PeriodEnd = input.PeriodEnd
	if err := s.repo.Update(ctx, p); err != nil {
		return Payroll{}, err
	}

	s.recordAudit(ctx, actor, "payroll:update", id, map[string]any{
		"total_amount": p.TotalAmount,
	})
	return p, nil
}

// MarkPaid flips unpaid to paid and stamps the payment date. A second call
// reports false and leaves the original payment date untouched. There is no
// way back to unpaid.
func (s *Service) MarkPaid(ctx context.Context, actor *shared.Actor, id int64) (bool, error) {
	if err := shared.Require(actor, shared.PayrollWriteRoles...); err != nil {
		return false, err
	}
	if _, err := s.repo.Get(ctx, id); err != nil {
		return false, err
	}
	changed, err := s.repo.MarkPaid(ctx, id, time.Now().UTC())
	if err != nil {
		return false, err
	}
	if changed {
		s.recordAudit(ctx, actor, "payroll:paid", id, nil)
	}
	return changed, nil
}

// Delete removes an accrual. Director only.
func (s *Service) Delete(ctx context.Context, actor *shared.Actor, id int64) error {
	if err := shared.Require(actor, shared.PayrollDeleteRoles...); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.recordAudit(ctx, actor, "payroll:delete", id, nil)
	return nil
}

// Get fetches a payroll by id.
func (s *Service) Get(ctx context.Context, id int64) (Payroll, error) {
	return s.repo.Get(ctx, id)
}

// List returns payrolls whose period overlaps whole calendar days [from, to].
func (s *Service) List(ctx context.Context, from, to time.Time) ([]Payroll, error) {
	start, end := shared.DayRange(from, to)
	return s.repo.List(ctx, start, end)
}

func (s *Service) recordAudit(ctx context.Context, actor *shared.Actor, action string, id int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actor.ID,
		Action:   action,
		Entity:   "payroll",
		EntityID: fmt.Sprintf("%d", id),
		Meta:     meta,
	})
}
