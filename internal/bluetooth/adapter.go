package bluetooth

import (
	"sort"
	"sync"

	"codeberg.org/mutker/btapmd/internal/logger"
)

// Adapter owns the adapter state and the set of connected media profiles.
// It is safe for concurrent use: the HTTP API writes, the airplane
// controller reads.
type Adapter struct {
	mu        sync.RWMutex
	state     State
	media     map[Profile]bool
	restoreOn bool
	logger    logger.Logger
}

func NewAdapter(initial State, log logger.Logger) *Adapter {
	return &Adapter{
		state:  initial,
		media:  make(map[Profile]bool),
		logger: log,
	}
}

func (a *Adapter) State() State {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.state
}

// SetState records a state reported by the adapter stack. Turning the
// adapter off drops every media connection. An explicit state cancels any
// pending restore.
func (a *Adapter) SetState(st State) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.restoreOn = false
	if a.state == st {
		return
	}

	a.logger.Debug().
		Str("from", a.state.String()).
		Str("to", st.String()).
		Msg("Adapter state changed")

	a.state = st
	if st == StateOff {
		clear(a.media)
	}
}

// SetProfileConnected records a media profile (dis)connection. Connections
// reported while the adapter is off are ignored.
func (a *Adapter) SetProfileConnected(p Profile, connected bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if connected && !a.state.IsPowered() {
		a.logger.Debug().Str("profile", string(p)).Msg("Ignoring media connection while adapter is off")
		return
	}

	if connected {
		a.media[p] = true
	} else {
		delete(a.media, p)
	}
}

func (a *Adapter) IsMediaConnected() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.media) > 0
}

// ConnectedProfiles returns the connected profiles in a stable order.
func (a *Adapter) ConnectedProfiles() []Profile {
	a.mu.RLock()
	defer a.mu.RUnlock()

	profiles := make([]Profile, 0, len(a.media))
	for p := range a.media {
		profiles = append(profiles, p)
	}
	sort.Slice(profiles, func(i, j int) bool { return profiles[i] < profiles[j] })

	return profiles
}

// OnOverrideChanged applies the effective airplane mode to the adapter.
// When airplane mode takes effect a powered adapter is shut down and marked
// for restore; when it stops taking effect a marked adapter is powered back.
func (a *Adapter) OnOverrideChanged(active bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if active {
		if !a.state.IsPowered() {
			a.restoreOn = false
			return
		}
		a.logger.Info().Str("state", a.state.String()).Msg("Airplane mode applies, turning Bluetooth off")
		a.restoreOn = true
		a.state = StateOff
		clear(a.media)
		return
	}

	if !a.restoreOn {
		return
	}
	a.restoreOn = false
	if a.state.IsPowered() {
		return
	}
	a.logger.Info().Msg("Airplane mode lifted, restoring Bluetooth")
	a.state = StateOn
}
