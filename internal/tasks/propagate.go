package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/mikestefanello/backlite"
)

// CounterApplier applies the denormalized counter increments for one
// download record.
type CounterApplier interface {
	Apply(recordID uint) error
}

// PropagateCountersTask carries the counter propagation for one completed
// billable download. The applier claims a per-record idempotency latch before
// writing, so the at-least-once retry semantics of the queue cannot
// double-increment the aggregates.
type PropagateCountersTask struct {
	RecordID uint `json:"record_id"`
}

// Config returns the queue configuration for counter propagation tasks.
func (t PropagateCountersTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "propagate_counters",
		MaxAttempts: 3,
		Backoff:     30 * time.Second,
		Timeout:     time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// PropagateCountersProcessor creates a processor function for
// PropagateCountersTask.
func PropagateCountersProcessor(applier CounterApplier) backlite.QueueProcessor[PropagateCountersTask] {
	return func(ctx context.Context, task PropagateCountersTask) error {
		if applier == nil {
			return fmt.Errorf("counter applier not configured")
		}
		if err := applier.Apply(task.RecordID); err != nil {
			return fmt.Errorf("propagate counters for record %d: %w", task.RecordID, err)
		}
		return nil
	}
}

// NewPropagateCountersQueue creates a backlite queue for counter propagation.
func NewPropagateCountersQueue(applier CounterApplier) backlite.Queue {
	return backlite.NewQueue(PropagateCountersProcessor(applier))
}

// QueueDispatcher enqueues counter propagation onto the task queue. It
// implements the downloads.Dispatcher interface.
type QueueDispatcher struct {
	client *Client
}

// NewQueueDispatcher creates a dispatcher backed by the task client.
func NewQueueDispatcher(client *Client) *QueueDispatcher {
	return &QueueDispatcher{client: client}
}

// Dispatch enqueues a propagation task for the record.
func (d *QueueDispatcher) Dispatch(recordID uint) error {
	_, err := d.client.Add(PropagateCountersTask{RecordID: recordID}).Save()
	return err
}
