package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskAuditRetention prunes audit events older than the retention horizon.
	TaskAuditRetention = "audit:retention"
	// TaskStaleSessionScan reports operator accounts idle past the ceiling.
	TaskStaleSessionScan = "session:stale_scan"
)

// AuditRetentionPayload parameterises the retention sweep.
type AuditRetentionPayload struct {
	RetentionHours int `json:"retention_hours"`
}

// NewAuditRetentionTask constructs an audit retention task.
func NewAuditRetentionTask(payload AuditRetentionPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskAuditRetention, data), nil
}

// StaleSessionScanPayload parameterises the stale session scan.
type StaleSessionScanPayload struct {
	IdleMinutes int `json:"idle_minutes"`
}

// NewStaleSessionScanTask constructs a stale session scan task.
func NewStaleSessionScanTask(payload StaleSessionScanPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskStaleSessionScan, data), nil
}
