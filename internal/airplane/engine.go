package airplane

import (
	"context"

	"codeberg.org/mutker/btapmd/internal/logger"
	"codeberg.org/mutker/btapmd/internal/metrics"
	"codeberg.org/mutker/btapmd/internal/notify"
	"codeberg.org/mutker/btapmd/internal/settings"
)

// Engine feeds stored settings into Decide and delivers the resulting
// notification. It writes nothing except the toast counter.
type Engine struct {
	settings *settings.Reader
	throttle *ToastThrottle
	notifier notify.Notifier
	logger   logger.Logger
}

func NewEngine(reader *settings.Reader, throttle *ToastThrottle, notifier notify.Notifier, log logger.Logger) *Engine {
	return &Engine{
		settings: reader,
		throttle: throttle,
		notifier: notifier,
		logger:   log,
	}
}

// EnhancementEnabled reads the global enhancement switch.
func (e *Engine) EnhancementEnabled(ctx context.Context) bool {
	return e.settings.Enabled(ctx, settings.Global, settings.KeyApmEnhancement, settings.DefaultApmEnhancement)
}

// Preference reads the stored preference of a user. Wifi only counts as
// staying on when the radio is currently on.
func (e *Engine) Preference(ctx context.Context, user int) UserPreference {
	scope := settings.User(user)
	wifiOn := e.settings.NonZero(ctx, settings.Global, settings.KeyWifiOn, settings.DefaultWifiOn)

	return UserPreference{
		HasToggledApm:    e.settings.Enabled(ctx, scope, settings.KeyUserToggledBluetooth, settings.DefaultUserToggledBluetooth),
		BluetoothStaysOn: e.settings.Enabled(ctx, scope, settings.KeyBluetoothApmState, settings.DefaultBluetoothApmState),
		WifiStaysOn:      wifiOn && e.settings.Enabled(ctx, scope, settings.KeyWifiApmState, settings.DefaultWifiApmState),
	}
}

// Evaluate decides the effective mode for one airplane signal. With a
// Withheld adapter state nothing is shown. The returned Notification is the
// one actually delivered, so a throttled toast comes back as notify.None.
func (e *Engine) Evaluate(ctx context.Context, user int, airplaneOn bool, bt Observation, media bool) Decision {
	in := Inputs{
		AirplaneOn:     airplaneOn,
		Bluetooth:      bt,
		MediaConnected: media,
	}
	// Settings are only consulted past the passthrough rule.
	if airplaneOn && !bt.observedOff() {
		in.EnhancementEnabled = e.EnhancementEnabled(ctx)
		in.Preference = e.Preference(ctx, user)
	}

	d := Decide(in)
	metrics.DecisionsTotal.WithLabelValues(string(d.Branch)).Inc()

	e.logger.Debug().
		Bool("airplane", airplaneOn).
		Stringer("bluetooth", bt).
		Bool("media", media).
		Bool("enhancement", in.EnhancementEnabled).
		Bool("effective_mode", d.EffectiveMode).
		Str("branch", string(d.Branch)).
		Str("notification", string(d.Notification)).
		Msg("Override decision")

	if d.Notification == notify.None {
		return d
	}

	if !bt.Known() {
		d.Notification = notify.None
		return d
	}

	if d.Notification == notify.KindLegacyToast && !e.throttle.ShouldNotify(ctx) {
		metrics.NotificationsTotal.WithLabelValues(string(notify.KindLegacyToast), metrics.ResultThrottled).Inc()
		e.logger.Debug().Msg("Legacy toast budget exhausted")
		d.Notification = notify.None
		return d
	}

	e.notifier.Notify(user, d.Notification)

	return d
}

// ToastCount returns how much of the legacy toast budget is used.
func (e *Engine) ToastCount(ctx context.Context) int {
	return e.throttle.Count(ctx)
}
