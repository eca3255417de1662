package directory

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound indicates the requested principal does not exist.
var ErrNotFound = errors.New("directory: principal not found")

// Repository defines the user-directory operations consumed by the admission
// pipeline. Lookups must not mutate directory state; UpdateLastActivity is a
// last-writer-wins write (near-simultaneous updates for the same principal
// may resolve arbitrarily).
type Repository interface {
	FindByID(ctx context.Context, id string) (*Principal, error)
	UpdateLastActivity(ctx context.Context, id string, at time.Time) error
}
