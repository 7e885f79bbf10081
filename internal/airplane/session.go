package airplane

import (
	"context"
	"time"

	"codeberg.org/mutker/btapmd/internal/logger"
	"codeberg.org/mutker/btapmd/internal/metrics"
	"codeberg.org/mutker/btapmd/internal/notify"
	"codeberg.org/mutker/btapmd/internal/settings"
	"codeberg.org/mutker/btapmd/internal/telemetry"
	"github.com/google/uuid"
)

// QuickToggleWindow is how soon after airplane mode a toggle counts as quick.
const QuickToggleWindow = time.Minute

// Session is the state collected during one airplane-mode-on period.
type Session struct {
	ID                         string    `json:"id"`
	StartedAt                  time.Time `json:"started_at"`
	BluetoothOnBeforeToggle    bool      `json:"bluetooth_on_before_toggle"`
	BluetoothOnAfterToggle     bool      `json:"bluetooth_on_after_toggle"`
	MediaConnectedBeforeToggle bool      `json:"media_connected_before_toggle"`
	UserToggled                bool      `json:"user_toggled"`
	ToggledWithinOneMinute     bool      `json:"toggled_within_one_minute"`
}

// SessionTracker holds at most one open Session. It is not safe for
// concurrent use; the controller loop is its only caller.
type SessionTracker struct {
	user      int
	settings  *settings.Reader
	notifier  notify.Notifier
	collector telemetry.Collector
	logger    logger.Logger
	now       func() time.Time

	active *Session
}

type SessionOption func(*SessionTracker)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) SessionOption {
	return func(t *SessionTracker) {
		t.now = now
	}
}

func NewSessionTracker(
	user int,
	reader *settings.Reader,
	notifier notify.Notifier,
	collector telemetry.Collector,
	log logger.Logger,
	opts ...SessionOption,
) *SessionTracker {
	t := &SessionTracker{
		user:      user,
		settings:  reader,
		notifier:  notifier,
		collector: collector,
		logger:    log,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}

	return t
}

// Active returns a copy of the open session.
func (t *SessionTracker) Active() (Session, bool) {
	if t.active == nil {
		return Session{}, false
	}

	return *t.active, true
}

// HandleModeChange opens a session when airplane mode turns on and reports
// and closes it when airplane mode turns off. effectiveMode is the decision
// just made for the same event.
func (t *SessionTracker) HandleModeChange(ctx context.Context, airplaneOn, bluetoothOn, media, effectiveMode bool) {
	if airplaneOn {
		t.open(bluetoothOn, media, effectiveMode)
		return
	}

	if t.active == nil {
		return
	}

	t.report(ctx, bluetoothOn)
	t.active = nil
}

func (t *SessionTracker) open(bluetoothOn, media, effectiveMode bool) {
	if t.active != nil {
		// An "on" event without a matching "off" loses the open session.
		// TODO: decide whether the replaced session should be reported.
		metrics.SessionsReplacedTotal.Inc()
		t.logger.Warn().
			Str("session", t.active.ID).
			Time("started_at", t.active.StartedAt).
			Msg("Airplane session replaced before it ended, report dropped")
	}

	t.active = &Session{
		ID:                         uuid.NewString(),
		StartedAt:                  t.now(),
		BluetoothOnBeforeToggle:    bluetoothOn,
		BluetoothOnAfterToggle:     !effectiveMode,
		MediaConnectedBeforeToggle: media,
	}
	metrics.SessionsStartedTotal.Inc()

	t.logger.Debug().
		Str("session", t.active.ID).
		Bool("bluetooth_before", bluetoothOn).
		Bool("bluetooth_after", t.active.BluetoothOnAfterToggle).
		Bool("media", media).
		Msg("Airplane session opened")
}

func (t *SessionTracker) report(ctx context.Context, finalBluetoothOn bool) {
	s := t.active
	rep := &telemetry.SessionReport{
		ID:                         s.ID,
		StartedAt:                  s.StartedAt,
		EndedAt:                    t.now(),
		BluetoothOnBeforeToggle:    s.BluetoothOnBeforeToggle,
		BluetoothOnAfterToggle:     s.BluetoothOnAfterToggle,
		FinalBluetoothOn:           finalBluetoothOn,
		HasUserEverToggledApm:      t.hasToggledApm(ctx),
		UserToggledDuringSession:   s.UserToggled,
		ToggledWithinOneMinute:     s.ToggledWithinOneMinute,
		MediaConnectedBeforeToggle: s.MediaConnectedBeforeToggle,
	}

	if err := t.collector.Record(ctx, rep); err != nil {
		metrics.SessionReportErrors.Inc()
		t.logger.Warn().Err(err).Str("session", s.ID).Msg("Failed to record airplane session")
		return
	}

	metrics.SessionsReportedTotal.Inc()
	t.logger.Info().
		Str("session", s.ID).
		Dur("duration", rep.Duration()).
		Bool("user_toggled", rep.UserToggledDuringSession).
		Msg("Airplane session reported")
}

// NotifyUserToggledBluetooth records a user toggle in the open session. Only
// the first toggle's timing is kept. With enhancement enabled the new
// adapter state becomes the user's stored preference.
func (t *SessionTracker) NotifyUserToggledBluetooth(ctx context.Context, bluetoothOn bool) {
	if t.active == nil {
		t.logger.Debug().Bool("bluetooth", bluetoothOn).Msg("Bluetooth toggled outside airplane session")
		return
	}

	metrics.UserTogglesTotal.WithLabelValues(metrics.BoolLabel(bluetoothOn)).Inc()

	if !t.active.UserToggled {
		t.active.ToggledWithinOneMinute = t.now().Sub(t.active.StartedAt) < QuickToggleWindow
		t.active.UserToggled = true
	}

	if !t.settings.Enabled(ctx, settings.Global, settings.KeyApmEnhancement, settings.DefaultApmEnhancement) {
		return
	}

	scope := settings.User(t.user)
	store := t.settings.Store()
	if err := store.PutInt(ctx, scope, settings.KeyBluetoothApmState, settings.BoolToInt(bluetoothOn)); err != nil {
		t.logger.Warn().Err(err).Msg("Failed to store Bluetooth airplane preference")
	}
	if err := store.PutInt(ctx, scope, settings.KeyUserToggledBluetooth, 1); err != nil {
		t.logger.Warn().Err(err).Msg("Failed to store airplane toggle marker")
	}

	if bluetoothOn {
		t.notifier.Notify(t.user, notify.KindBtEnabled)
	}
}

func (t *SessionTracker) hasToggledApm(ctx context.Context) bool {
	return t.settings.Enabled(ctx, settings.User(t.user), settings.KeyUserToggledBluetooth, settings.DefaultUserToggledBluetooth)
}
