package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
)

// AuditRetentionJob prunes audit events past the retention horizon. The
// pipeline itself never deletes audit records; retention is an operational
// sweep that runs out of band.
type AuditRetentionJob struct {
	Pool   *pgxpool.Pool
	Logger *slog.Logger
	clock  func() time.Time
}

// NewAuditRetentionJob initialises the retention handler.
func NewAuditRetentionJob(pool *pgxpool.Pool, logger *slog.Logger) *AuditRetentionJob {
	return &AuditRetentionJob{
		Pool:   pool,
		Logger: logger,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle executes the retention sweep.
func (j *AuditRetentionJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Pool == nil {
		return errors.New("audit retention: handler not configured")
	}
	var payload AuditRetentionPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if payload.RetentionHours <= 0 {
		payload.RetentionHours = 24 * 90
	}

	horizon := j.clock().Add(-time.Duration(payload.RetentionHours) * time.Hour)
	tag, err := j.Pool.Exec(ctx, `DELETE FROM audit_events WHERE occurred_at < $1`, horizon)
	if err != nil {
		return fmt.Errorf("audit retention: %w", err)
	}
	if j.Logger != nil {
		j.Logger.Info("audit retention sweep",
			slog.Int64("pruned", tag.RowsAffected()),
			slog.Time("horizon", horizon))
	}
	return nil
}
