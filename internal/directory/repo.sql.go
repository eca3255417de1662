package directory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// FindByID fetches an operator account by its identifier.
func (r *PGRepository) FindByID(ctx context.Context, id string) (*Principal, error) {
	const query = `SELECT id, callsign, role, is_active, last_activity_at, command_hash, created_at, updated_at
		FROM operators WHERE id = $1`

	var (
		p            Principal
		lastActivity pgtype.Timestamptz
		createdAt    pgtype.Timestamptz
		updatedAt    pgtype.Timestamptz
	)
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&p.ID, &p.Callsign, &p.Role, &p.IsActive, &lastActivity, &p.CommandHash, &createdAt, &updatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("directory: find by id: %w", err)
	}
	if lastActivity.Valid {
		t := lastActivity.Time
		p.LastActivity = &t
	}
	p.CreatedAt = createdAt.Time
	p.UpdatedAt = updatedAt.Time
	return &p, nil
}

// UpdateLastActivity persists the activity timestamp for a principal.
// The single UPDATE keeps the write last-writer-wins without holding any
// lock across the round trip.
func (r *PGRepository) UpdateLastActivity(ctx context.Context, id string, at time.Time) error {
	const query = `UPDATE operators SET last_activity_at = $2, updated_at = NOW() WHERE id = $1`

	tag, err := r.pool.Exec(ctx, query, id, pgtype.Timestamptz{Time: at.UTC(), Valid: true})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			return fmt.Errorf("directory: update last activity (sqlstate %s): %w", pgErr.Code, err)
		}
		return fmt.Errorf("directory: update last activity: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

var _ Repository = (*PGRepository)(nil)
