package jobs

import (
	"context"

	"github.com/hibiken/asynq"

	"github.com/storekeep-erp/storekeep-erp/internal/finance"
	"github.com/storekeep-erp/storekeep-erp/internal/purchases"
)

// Enqueuer hands posting events to the queue. It is the production wiring of
// the dispatcher ports; callers treat failures as best-effort and log them.
type Enqueuer struct {
	client *asynq.Client
}

// NewEnqueuer constructs an Enqueuer.
func NewEnqueuer(redisOpts asynq.RedisClientOpt) *Enqueuer {
	return &Enqueuer{client: asynq.NewClient(redisOpts)}
}

// DispatchExpensePosting enqueues a purchase expense posting task.
func (e *Enqueuer) DispatchExpensePosting(ctx context.Context, evt purchases.ExpensePostingEvent) error {
	task, err := NewPurchaseExpenseTask(evt)
	if err != nil {
		return err
	}
	_, err = e.client.EnqueueContext(ctx, task, asynq.Queue(QueueDefault), asynq.MaxRetry(10))
	return err
}

// DispatchBudgetAccrual enqueues a budget accrual task.
func (e *Enqueuer) DispatchBudgetAccrual(ctx context.Context, evt finance.BudgetAccrualEvent) error {
	task, err := NewBudgetAccrualTask(evt)
	if err != nil {
		return err
	}
	_, err = e.client.EnqueueContext(ctx, task, asynq.Queue(QueueDefault), asynq.MaxRetry(10))
	return err
}

// Close releases client resources.
func (e *Enqueuer) Close() error {
	return e.client.Close()
}

var (
	_ purchases.PostingDispatcher = (*Enqueuer)(nil)
	_ finance.AccrualDispatcher   = (*Enqueuer)(nil)
)
