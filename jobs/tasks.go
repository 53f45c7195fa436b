package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"

	"github.com/storekeep-erp/storekeep-erp/internal/finance"
	"github.com/storekeep-erp/storekeep-erp/internal/purchases"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskPurchaseExpensePosting applies a purchase's expense posting.
	TaskPurchaseExpensePosting = "posting:purchase_expense"
	// TaskBudgetAccrual accumulates a journal delta into the monthly budget.
	TaskBudgetAccrual = "posting:budget_accrual"
	// TaskIdempotencyCleanup prunes processed posting refs.
	TaskIdempotencyCleanup = "posting:cleanup"
)

// PurchaseExpensePayload is the wire form of a purchase expense posting.
type PurchaseExpensePayload struct {
	Kind       string    `json:"kind"`
	PurchaseID int64     `json:"purchase_id"`
	Amount     float64   `json:"amount"`
	Date       time.Time `json:"date"`
	ActorID    int64     `json:"actor_id"`
	Ref        string    `json:"ref"`
}

// NewPurchaseExpenseTask constructs an Asynq task from a posting event.
func NewPurchaseExpenseTask(evt purchases.ExpensePostingEvent) (*asynq.Task, error) {
	body, err := json.Marshal(PurchaseExpensePayload{
		Kind:       string(evt.Kind),
		PurchaseID: evt.PurchaseID,
		Amount:     evt.Amount,
		Date:       evt.Date,
		ActorID:    evt.ActorID,
		Ref:        evt.Ref,
	})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskPurchaseExpensePosting, body, asynq.Queue(QueueDefault)), nil
}

// BudgetAccrualPayload is the wire form of a budget accrual.
type BudgetAccrualPayload struct {
	Kind   string    `json:"kind"`
	Amount float64   `json:"amount"`
	Date   time.Time `json:"date"`
	Ref    string    `json:"ref"`
}

// NewBudgetAccrualTask constructs an Asynq task from an accrual event.
func NewBudgetAccrualTask(evt finance.BudgetAccrualEvent) (*asynq.Task, error) {
	body, err := json.Marshal(BudgetAccrualPayload{
		Kind:   string(evt.Kind),
		Amount: evt.Amount,
		Date:   evt.Date,
		Ref:    evt.Ref,
	})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskBudgetAccrual, body, asynq.Queue(QueueDefault)), nil
}

// NewIdempotencyCleanupTask constructs the periodic cleanup task.
func NewIdempotencyCleanupTask() *asynq.Task {
	return asynq.NewTask(TaskIdempotencyCleanup, nil, asynq.Queue(QueueDefault))
}
