package airplane

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"codeberg.org/mutker/btapmd/internal/bluetooth"
	"codeberg.org/mutker/btapmd/internal/errors"
	"codeberg.org/mutker/btapmd/internal/logger"
	"codeberg.org/mutker/btapmd/internal/metrics"
	"codeberg.org/mutker/btapmd/internal/settings"
)

const DefaultQueueSize = 32

// OverrideListener is told about every change of the effective mode.
type OverrideListener interface {
	OnOverrideChanged(active bool)
}

// OverrideListenerFunc adapts a function to OverrideListener.
type OverrideListenerFunc func(active bool)

func (f OverrideListenerFunc) OnOverrideChanged(active bool) {
	f(active)
}

// Adapter is the read side of the Bluetooth adapter owner.
type Adapter interface {
	bluetooth.StateReader
	bluetooth.MediaReader
}

// Status is a read-only snapshot of the controller, published after every
// processed event.
type Status struct {
	User          int       `json:"user"`
	AirplaneOn    bool      `json:"airplane_on"`
	EffectiveMode bool      `json:"effective_mode"`
	Branch        Branch    `json:"branch"`
	Session       *Session  `json:"session,omitempty"`
	ToastCount    int       `json:"toast_count"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type eventKind int

const (
	eventMode eventKind = iota
	eventToggle
)

type event struct {
	kind  eventKind
	value bool
}

type Options struct {
	User      int
	QueueSize int
}

// Controller runs the airplane policy on a single event loop. Mode changes
// and user toggles are queued by ModeChanged and UserToggledBluetooth and
// processed in order by Run.
type Controller struct {
	user      int
	engine    *Engine
	tracker   *SessionTracker
	adapter   Adapter
	settings  *settings.Reader
	listeners []OverrideListener
	logger    logger.Logger

	events chan event

	mu      sync.RWMutex
	stopped bool

	initialized   atomic.Bool
	running       atomic.Bool
	airplaneOn    bool
	effectiveMode bool
	branch        Branch
	status        atomic.Pointer[Status]
}

func NewController(
	opts Options,
	engine *Engine,
	tracker *SessionTracker,
	adapter Adapter,
	reader *settings.Reader,
	log logger.Logger,
	listeners ...OverrideListener,
) (*Controller, error) {
	if opts.QueueSize < 0 {
		return nil, errors.New().WithData(ErrInvalidQueueSize, opts.QueueSize)
	}
	if opts.QueueSize == 0 {
		opts.QueueSize = DefaultQueueSize
	}

	c := &Controller{
		user:      opts.User,
		engine:    engine,
		tracker:   tracker,
		adapter:   adapter,
		settings:  reader,
		listeners: listeners,
		logger:    log,
		events:    make(chan event, opts.QueueSize),
	}
	c.status.Store(&Status{User: opts.User})

	return c, nil
}

// Init resolves the boot-time mode silently and hands it to the listeners.
// It must be called once before Run.
func (c *Controller) Init(ctx context.Context, airplaneOn bool) Decision {
	// Sibling radios read this key to learn the feature is supported.
	enhancement := c.settings.Int(ctx, settings.Global, settings.KeyApmEnhancement, settings.DefaultApmEnhancement)
	if err := c.settings.Store().PutInt(ctx, settings.Global, settings.KeyApmEnhancement, enhancement); err != nil {
		c.logger.Warn().Err(err).Msg("Failed to write back enhancement setting")
	}

	c.airplaneOn = airplaneOn
	d := c.engine.Evaluate(ctx, c.user, airplaneOn, Withheld, false)
	c.tracker.HandleModeChange(ctx, airplaneOn, false, false, d.EffectiveMode)
	c.effectiveMode = d.EffectiveMode
	c.branch = d.Branch

	c.logger.Info().
		Bool("airplane", airplaneOn).
		Bool("effective_mode", d.EffectiveMode).
		Msg("Airplane mode resolved at boot")

	c.notifyListeners(d.EffectiveMode)
	c.publish(ctx)
	c.initialized.Store(true)

	return d
}

// ModeChanged queues an airplane mode change. It never blocks.
func (c *Controller) ModeChanged(airplaneOn bool) error {
	return c.enqueue(event{kind: eventMode, value: airplaneOn})
}

// UserToggledBluetooth queues a user-initiated Bluetooth toggle. It never
// blocks.
func (c *Controller) UserToggledBluetooth(bluetoothOn bool) error {
	return c.enqueue(event{kind: eventToggle, value: bluetoothOn})
}

func (c *Controller) enqueue(ev event) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.stopped {
		return errors.New().New(ErrLoopNotRunning)
	}

	select {
	case c.events <- ev:
		return nil
	default:
		metrics.EventsDroppedTotal.Inc()
		c.logger.Warn().Int("kind", int(ev.kind)).Bool("value", ev.value).Msg("Event queue full, dropping event")
		return errors.New().New(ErrQueueFull)
	}
}

// Run processes queued events until ctx is done. Events still queued at
// that point are discarded.
func (c *Controller) Run(ctx context.Context) error {
	if !c.initialized.Load() {
		return errors.New().New(ErrNotInitialized)
	}
	if !c.running.CompareAndSwap(false, true) {
		return errors.New().New(ErrAlreadyRunning)
	}
	defer c.stop()

	c.logger.Debug().Int("queue_size", cap(c.events)).Msg("Airplane event loop started")

	for {
		select {
		case <-ctx.Done():
			c.logger.Debug().Int("pending", len(c.events)).Msg("Airplane event loop stopped")
			return nil
		case ev := <-c.events:
			switch ev.kind {
			case eventMode:
				c.handleModeChange(ctx, ev.value)
			case eventToggle:
				c.tracker.NotifyUserToggledBluetooth(ctx, ev.value)
			}
			c.publish(ctx)
		}
	}
}

func (c *Controller) stop() {
	c.mu.Lock()
	c.stopped = true
	c.mu.Unlock()
}

func (c *Controller) handleModeChange(ctx context.Context, airplaneOn bool) {
	metrics.ModeEventsTotal.WithLabelValues(metrics.BoolLabel(airplaneOn)).Inc()

	state := c.adapter.State()
	bluetoothOn := state.IsPowered()
	media := bluetoothOn && c.adapter.IsMediaConnected()

	c.airplaneOn = airplaneOn
	previous := c.effectiveMode

	d := c.engine.Evaluate(ctx, c.user, airplaneOn, Observed(bluetoothOn), media)
	c.tracker.HandleModeChange(ctx, airplaneOn, bluetoothOn, media, d.EffectiveMode)
	c.effectiveMode = d.EffectiveMode
	c.branch = d.Branch

	var reason, msg string
	switch {
	case previous == d.EffectiveMode:
		reason, msg = metrics.ReasonSameState, "Ignoring mode change to same state"
	case !d.EffectiveMode && state == bluetooth.StateOn:
		reason, msg = metrics.ReasonAdapterOn, "Ignoring mode change as Bluetooth is on"
	}

	if reason != "" {
		metrics.OverrideSuppressedTotal.WithLabelValues(reason).Inc()
		c.logger.Debug().
			Bool("previous", previous).
			Bool("airplane", airplaneOn).
			Bool("effective_mode", d.EffectiveMode).
			Stringer("adapter", state).
			Bool("media", media).
			Msg(msg)
		return
	}

	c.logger.Info().
		Bool("airplane", airplaneOn).
		Bool("effective_mode", d.EffectiveMode).
		Str("branch", string(d.Branch)).
		Msg("Effective airplane mode changed")

	c.notifyListeners(d.EffectiveMode)
}

func (c *Controller) notifyListeners(active bool) {
	metrics.OverrideCallbacksTotal.WithLabelValues(metrics.BoolLabel(active)).Inc()

	for _, l := range c.listeners {
		l.OnOverrideChanged(active)
	}
}

func (c *Controller) publish(ctx context.Context) {
	st := &Status{
		User:          c.user,
		AirplaneOn:    c.airplaneOn,
		EffectiveMode: c.effectiveMode,
		Branch:        c.branch,
		ToastCount:    c.engine.ToastCount(ctx),
		UpdatedAt:     time.Now(),
	}
	if s, ok := c.tracker.Active(); ok {
		st.Session = &s
	}

	c.status.Store(st)
}

// Status returns the snapshot published after the last processed event.
func (c *Controller) Status() Status {
	return *c.status.Load()
}
