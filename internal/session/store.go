package session

import (
	"context"
	"errors"

	"github.com/learnd-dev/learnd/internal/config"
)

// Namespace keys for the three portal session records. Each portal writes its
// own key; a single browser context may hold records for several roles at
// once, so readers must consider all three.
const (
	KeyStudent  = "userInfo"
	KeyLecturer = "lecturerInfo"
	KeyAdmin    = "adminInfo"
)

// Keys lists all namespace keys in evaluation order.
var Keys = []string{KeyStudent, KeyLecturer, KeyAdmin}

// ErrNotFound is returned by Store.Get when no record exists under a key.
var ErrNotFound = errors.New("session record not found")

// Store is the persistent key/value service holding per-role session records.
// Implementations must be safe for concurrent use; writes to the same key are
// last-write-wins and records persist until overwritten or deleted (no expiry
// policy is enforced here).
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// KeyFor returns the namespace key a portal's session record is stored under.
func KeyFor(portal config.Portal) string {
	switch portal {
	case config.PortalLecturer:
		return KeyLecturer
	case config.PortalAdmin:
		return KeyAdmin
	default:
		return KeyStudent
	}
}
