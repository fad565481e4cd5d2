package cart

import (
	"context"
	"errors"
	"time"
)

// ErrCartNotFound is returned by a Repository when no cart is stored for a session.
var ErrCartNotFound = errors.New("cart not found")

// Repository persists session carts outside the process.
type Repository interface {
	Load(ctx context.Context, sessionID string) (Persisted, error)
	Save(ctx context.Context, sessionID string, cart Persisted) error
	Delete(ctx context.Context, sessionID string) error
}

// IdlePurger is implemented by repositories that cannot expire carts on their
// own. Sweep uses it to drop carts untouched since before.
type IdlePurger interface {
	PurgeIdle(ctx context.Context, before time.Time) (int64, error)
}
