package airplane

import (
	"context"
	"testing"

	"codeberg.org/mutker/btapmd/internal/logger"
	"codeberg.org/mutker/btapmd/internal/settings"
	"github.com/stretchr/testify/assert"
)

func TestToastThrottleCeiling(t *testing.T) {
	ctx := context.Background()
	store := settings.NewMemoryStore()
	throttle := NewToastThrottle(store, logger.New("test"))

	for i := 1; i <= MaxToastCount; i++ {
		assert.True(t, throttle.ShouldNotify(ctx), "call %d", i)
		assert.Equal(t, i, throttle.Count(ctx))
	}

	for range 3 {
		assert.False(t, throttle.ShouldNotify(ctx))
	}
	assert.Equal(t, MaxToastCount, throttle.Count(ctx))
}

func TestToastThrottleNeverLowersCounter(t *testing.T) {
	ctx := context.Background()
	store := settings.NewMemoryStore()
	assert.NoError(t, store.PutInt(ctx, settings.Global, settings.KeyToastCount, 42))

	throttle := NewToastThrottle(store, logger.New("test"))
	assert.False(t, throttle.ShouldNotify(ctx))
	assert.Equal(t, 42, throttle.Count(ctx))
}

func TestToastThrottleFailsClosed(t *testing.T) {
	ctx := context.Background()
	log := logger.New("test")

	writes := NewToastThrottle(&writeFailingStore{Store: settings.NewMemoryStore()}, log)
	assert.False(t, writes.ShouldNotify(ctx))
	assert.Equal(t, 0, writes.Count(ctx))

	reads := NewToastThrottle(&failingStore{Store: settings.NewMemoryStore()}, log)
	assert.False(t, reads.ShouldNotify(ctx))
}
