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

// StaleSessionScanJob reports operator accounts whose last activity is past
// the inactivity ceiling. Purely observational; expiry enforcement happens
// in-request in the session guard.
type StaleSessionScanJob struct {
	Pool   *pgxpool.Pool
	Logger *slog.Logger
	clock  func() time.Time
}

// NewStaleSessionScanJob initialises the scan handler.
func NewStaleSessionScanJob(pool *pgxpool.Pool, logger *slog.Logger) *StaleSessionScanJob {
	return &StaleSessionScanJob{
		Pool:   pool,
		Logger: logger,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle executes the scan.
func (j *StaleSessionScanJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Pool == nil {
		return errors.New("stale session scan: handler not configured")
	}
	var payload StaleSessionScanPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if payload.IdleMinutes <= 0 {
		payload.IdleMinutes = 30
	}

	cutoff := j.clock().Add(-time.Duration(payload.IdleMinutes) * time.Minute)
	rows, err := j.Pool.Query(ctx,
		`SELECT id FROM operators WHERE last_activity_at IS NOT NULL AND last_activity_at < $1 AND is_active`, cutoff)
	if err != nil {
		return fmt.Errorf("stale session scan: %w", err)
	}
	defer rows.Close()

	var stale []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return fmt.Errorf("stale session scan: scan row: %w", err)
		}
		stale = append(stale, id)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("stale session scan: rows: %w", err)
	}
	if j.Logger != nil {
		j.Logger.Info("stale session scan",
			slog.Int("stale", len(stale)),
			slog.Time("cutoff", cutoff))
	}
	return nil
}
