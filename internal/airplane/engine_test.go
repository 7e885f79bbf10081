package airplane

import (
	"context"
	"testing"

	"codeberg.org/mutker/btapmd/internal/logger"
	"codeberg.org/mutker/btapmd/internal/notify"
	"codeberg.org/mutker/btapmd/internal/settings"
	"github.com/stretchr/testify/assert"
)

func TestEngineLegacyToastIsThrottled(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.put(t, settings.Global, settings.KeyToastCount, 9)

	d := f.engine.Evaluate(ctx, testUser, true, Observed(true), true)
	assert.False(t, d.EffectiveMode)
	assert.Equal(t, notify.KindLegacyToast, d.Notification)
	assert.Equal(t, 10, f.get(t, settings.Global, settings.KeyToastCount))

	d = f.engine.Evaluate(ctx, testUser, true, Observed(true), true)
	assert.False(t, d.EffectiveMode, "override still applies once the budget is gone")
	assert.Equal(t, notify.None, d.Notification)
	assert.Equal(t, 10, f.get(t, settings.Global, settings.KeyToastCount))

	assert.Equal(t, []notify.Kind{notify.KindLegacyToast}, f.notifier.Kinds())
}

func TestEngineEnhancementNotificationsAreNotThrottled(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.userPrefersBluetoothOn(t, false)
	f.put(t, settings.Global, settings.KeyToastCount, MaxToastCount)

	for range 3 {
		d := f.engine.Evaluate(ctx, testUser, true, Observed(true), true)
		assert.False(t, d.EffectiveMode)
		assert.Equal(t, notify.KindBt, d.Notification)
	}

	assert.Len(t, f.notifier.Kinds(), 3)
	assert.Equal(t, MaxToastCount, f.get(t, settings.Global, settings.KeyToastCount))
}

func TestEngineWifiNotificationNeedsWifiOn(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.userPrefersBluetoothOn(t, true)

	d := f.engine.Evaluate(ctx, testUser, true, Observed(true), false)
	assert.Equal(t, notify.KindWifiBt, d.Notification)

	f.put(t, settings.Global, settings.KeyWifiOn, 0)
	d = f.engine.Evaluate(ctx, testUser, true, Observed(true), false)
	assert.Equal(t, notify.KindBt, d.Notification)
}

func TestEngineWithheldAdapterIsSilent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	d := f.engine.Evaluate(ctx, testUser, true, Withheld, true)
	assert.False(t, d.EffectiveMode)
	assert.Equal(t, notify.None, d.Notification)
	assert.Equal(t, 0, f.engine.ToastCount(ctx), "silent evaluation consumes no budget")

	f.userPrefersBluetoothOn(t, false)
	d = f.engine.Evaluate(ctx, testUser, true, Withheld, false)
	assert.False(t, d.EffectiveMode)
	assert.Equal(t, notify.None, d.Notification)

	assert.Empty(t, f.notifier.Kinds())
}

func TestEnginePreferenceIsPerUser(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.userPrefersBluetoothOn(t, false)

	assert.True(t, f.engine.Preference(ctx, testUser).BluetoothStaysOn)
	assert.False(t, f.engine.Preference(ctx, testUser+1).BluetoothStaysOn)

	d := f.engine.Evaluate(ctx, testUser+1, true, Observed(true), false)
	assert.True(t, d.EffectiveMode)
}

func TestEngineUnreadableSettingsUseDefaults(t *testing.T) {
	ctx := context.Background()
	log := logger.New("test")
	store := &failingStore{Store: settings.NewMemoryStore(), failWrites: true}
	notifier := &recordingNotifier{}
	engine := NewEngine(settings.NewReader(store, log), NewToastThrottle(store, log), notifier, log)

	assert.True(t, engine.EnhancementEnabled(ctx))
	assert.Equal(t, UserPreference{}, engine.Preference(ctx, testUser))

	d := engine.Evaluate(ctx, testUser, true, Observed(true), true)
	assert.Equal(t, BranchLegacy, d.Branch)
	assert.False(t, d.EffectiveMode)
	assert.Equal(t, notify.None, d.Notification, "throttle fails closed")
	assert.Empty(t, notifier.Kinds())
}
