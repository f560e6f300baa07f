// Package jobs contains the background tasks of the document manager:
// offline aggregate reconciliation and sequence gap scanning. Jobs audit and
// report; the live write path owns every mutation.
package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskAggregateReconcile recomputes client running totals from documents
	// and reports drift against the stored aggregates.
	TaskAggregateReconcile = "aggregates:reconcile"
	// TaskSequenceGapScan compares allocated sequence values against existing
	// documents and reports numbers that were allocated but never persisted.
	TaskSequenceGapScan = "sequences:gapscan"
)

// AggregateReconcilePayload scopes a reconciliation run. ClientID zero means
// every client.
type AggregateReconcilePayload struct {
	ClientID int64 `json:"client_id"`
}

// NewAggregateReconcileTask constructs an Asynq task.
func NewAggregateReconcileTask(payload AggregateReconcilePayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskAggregateReconcile, data), nil
}

// SequenceGapScanPayload scopes a gap scan. Year zero means every year.
type SequenceGapScanPayload struct {
	Year int `json:"year"`
}

// NewSequenceGapScanTask constructs an Asynq task.
func NewSequenceGapScanTask(payload SequenceGapScanPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskSequenceGapScan, data), nil
}
