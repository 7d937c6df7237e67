package tasks

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/mikestefanello/backlite"
)

// CounterRecomputer rebuilds the denormalized counters from the ledger.
type CounterRecomputer interface {
	Recompute(now time.Time) error
}

// ReconcileCountersTask recomputes every download counter from the ledger.
// The counters are a best-effort cache that drifts when individual
// propagation writes fail; the ledger stays authoritative, so a periodic
// recompute converges the cache back to the truth.
type ReconcileCountersTask struct{}

// Config returns the queue configuration for reconciliation tasks.
func (t ReconcileCountersTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "reconcile_counters",
		MaxAttempts: 1,
		Backoff:     time.Minute,
		Timeout:     10 * time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// ReconcileCountersProcessor creates a processor function for
// ReconcileCountersTask.
func ReconcileCountersProcessor(recomputer CounterRecomputer) backlite.QueueProcessor[ReconcileCountersTask] {
	return func(ctx context.Context, task ReconcileCountersTask) error {
		if recomputer == nil {
			return fmt.Errorf("counter recomputer not configured")
		}

		start := time.Now()
		if err := recomputer.Recompute(time.Now()); err != nil {
			return fmt.Errorf("reconcile counters: %w", err)
		}

		log.Printf("[TASK] Reconciled download counters in %v", time.Since(start).Round(time.Millisecond))
		return nil
	}
}

// NewReconcileCountersQueue creates a backlite queue for reconciliation.
func NewReconcileCountersQueue(recomputer CounterRecomputer) backlite.Queue {
	return backlite.NewQueue(ReconcileCountersProcessor(recomputer))
}

// ReconcileDispatcher enqueues reconciliation onto the task queue.
type ReconcileDispatcher struct {
	client *Client
}

// NewReconcileDispatcher creates a dispatcher backed by the task client.
func NewReconcileDispatcher(client *Client) *ReconcileDispatcher {
	return &ReconcileDispatcher{client: client}
}

// Dispatch enqueues a reconciliation task.
func (d *ReconcileDispatcher) Dispatch() error {
	_, err := d.client.Add(ReconcileCountersTask{}).Save()
	return err
}
