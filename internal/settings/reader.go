package settings

import (
	"context"

	"codeberg.org/mutker/btapmd/internal/logger"
)

// Reader normalizes store failures to the caller's default so the policy
// code never sees an error. Failures are logged, not returned.
type Reader struct {
	store  Store
	logger logger.Logger
}

func NewReader(store Store, log logger.Logger) *Reader {
	return &Reader{store: store, logger: log}
}

// Int returns the stored value, or def when missing or unreadable.
func (r *Reader) Int(ctx context.Context, scope Scope, name string, def int) int {
	v, err := r.store.GetInt(ctx, scope, name, def)
	if err != nil {
		r.logger.Warn().Err(err).
			Str("scope", scope.String()).
			Str("name", name).
			Int("default", def).
			Msg("Failed to read setting, using default")
		return def
	}

	return v
}

// Enabled reports whether the stored value equals 1.
func (r *Reader) Enabled(ctx context.Context, scope Scope, name string, def int) bool {
	return r.Int(ctx, scope, name, def) == 1
}

// NonZero reports whether the stored value is anything but 0.
func (r *Reader) NonZero(ctx context.Context, scope Scope, name string, def int) bool {
	return r.Int(ctx, scope, name, def) != 0
}

// Store returns the underlying store for writes.
func (r *Reader) Store() Store {
	return r.store
}

// BoolToInt is the storage encoding of booleans.
func BoolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
