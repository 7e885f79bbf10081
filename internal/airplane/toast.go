package airplane

import (
	"context"

	"codeberg.org/mutker/btapmd/internal/logger"
	"codeberg.org/mutker/btapmd/internal/metrics"
	"codeberg.org/mutker/btapmd/internal/settings"
)

// MaxToastCount is the number of times the legacy toast may ever be shown.
const MaxToastCount = 10

// ToastThrottle gates the legacy toast with a persisted counter that only
// grows and stops at MaxToastCount.
type ToastThrottle struct {
	store  settings.Store
	logger logger.Logger
}

func NewToastThrottle(store settings.Store, log logger.Logger) *ToastThrottle {
	return &ToastThrottle{store: store, logger: log}
}

// ShouldNotify consumes one unit of budget and reports whether the toast
// may be shown. Storage failures deny the toast.
func (t *ToastThrottle) ShouldNotify(ctx context.Context) bool {
	count, err := t.store.GetInt(ctx, settings.Global, settings.KeyToastCount, settings.DefaultToastCount)
	if err != nil {
		t.logger.Warn().Err(err).Msg("Failed to read toast counter, suppressing toast")
		return false
	}

	if count >= MaxToastCount {
		metrics.ToastBudgetRemaining.Set(0)
		return false
	}

	count++
	if err := t.store.PutInt(ctx, settings.Global, settings.KeyToastCount, count); err != nil {
		t.logger.Warn().Err(err).Int("count", count).Msg("Failed to persist toast counter, suppressing toast")
		return false
	}

	metrics.ToastBudgetRemaining.Set(float64(MaxToastCount - count))
	t.logger.Debug().Int("count", count).Msg("Legacy toast budget consumed")

	return true
}

// Count returns the persisted counter, 0 when unreadable.
func (t *ToastThrottle) Count(ctx context.Context) int {
	count, err := t.store.GetInt(ctx, settings.Global, settings.KeyToastCount, settings.DefaultToastCount)
	if err != nil {
		return settings.DefaultToastCount
	}

	return count
}
