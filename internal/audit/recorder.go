package audit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Recorder appends audit events to a durable sink. Implementations must be
// safe for concurrent use by many in-flight requests.
type Recorder interface {
	Record(ctx context.Context, event Event) error
}

// PGRecorder writes events into audit_events.
type PGRecorder struct {
	pool    *pgxpool.Pool
	timeout time.Duration
}

// NewPGRecorder returns a PGRecorder with the given write timeout.
func NewPGRecorder(pool *pgxpool.Pool, timeout time.Duration) *PGRecorder {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &PGRecorder{pool: pool, timeout: timeout}
}

// Record persists the event. The write is detached from the caller's
// cancellation so that events emitted mid-pipeline are still flushed when
// the caller disconnects; only the recorder's own timeout bounds it.
func (r *PGRecorder) Record(ctx context.Context, event Event) error {
	if r == nil || r.pool == nil {
		return errors.New("audit: recorder not initialised")
	}
	if event.Kind == "" || event.Action == "" {
		return errors.New("audit: event requires kind and action")
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.At.IsZero() {
		event.At = time.Now().UTC()
	}
	metaJSON, err := json.Marshal(event.Meta)
	if err != nil {
		return fmt.Errorf("audit: marshal meta: %w", err)
	}

	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.timeout)
	defer cancel()

	const query = `INSERT INTO audit_events (id, kind, actor_id, action, outcome, origin, meta, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err = r.pool.Exec(writeCtx, query,
		event.ID, string(event.Kind), event.Actor, event.Action, event.Outcome, event.Origin, metaJSON, event.At)
	if err != nil {
		return fmt.Errorf("audit: record: %w", err)
	}
	return nil
}

var _ Recorder = (*PGRecorder)(nil)
