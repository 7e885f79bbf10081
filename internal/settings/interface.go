package settings

import (
	"context"
	"strconv"
	"strings"

	"codeberg.org/mutker/btapmd/internal/errors"
)

// Keys read or written by the daemon. All values are integers; booleans are
// stored as 0 or 1.
const (
	// Whether the "airplane enhancement mode" feature is enabled (global).
	KeyApmEnhancement = "apm_enhancement_enabled"
	// Whether the user already used the enhancement feature (per user).
	KeyUserToggledBluetooth = "apm_user_toggled_bluetooth"
	// Whether Bluetooth should stay on during airplane mode (per user).
	KeyBluetoothApmState = "bluetooth_apm_state"
	// Whether Wifi should stay on during airplane mode (per user).
	KeyWifiApmState = "wifi_apm_state"
	// Legacy toast budget consumed so far (global).
	KeyToastCount = "bluetooth_airplane_toast_count"
	// Wifi radio on/off, owned by the wifi stack (global, read-only here).
	KeyWifiOn = "wifi_on"
)

// Defaults for the keys above.
const (
	DefaultApmEnhancement       = 1
	DefaultUserToggledBluetooth = 0
	DefaultBluetoothApmState    = 0
	DefaultWifiApmState         = 0
	DefaultToastCount           = 0
	DefaultWifiOn               = 0
)

// Scope selects the global namespace or a per-user one.
type Scope int

// Global is the device-wide scope. User scopes are non-negative user ids.
const Global Scope = -1

// User returns the scope of the given user id.
func User(id int) Scope {
	return Scope(id)
}

func (s Scope) IsGlobal() bool {
	return s == Global
}

func (s Scope) String() string {
	if s.IsGlobal() {
		return "global"
	}

	return "user:" + strconv.Itoa(int(s))
}

// Store is the persistent key-value port. Implementations report a missing
// key by returning def with a nil error.
type Store interface {
	GetInt(ctx context.Context, scope Scope, name string, def int) (int, error)
	PutInt(ctx context.Context, scope Scope, name string, value int) error
	Close() error
}

// Entry is a single stored value, used for listings.
type Entry struct {
	Scope Scope
	Name  string
	Value int
}

// Lister is implemented by stores that can enumerate their content.
type Lister interface {
	List(ctx context.Context, scope Scope) ([]Entry, error)
}

var defaults = map[string]int{
	KeyApmEnhancement:       DefaultApmEnhancement,
	KeyUserToggledBluetooth: DefaultUserToggledBluetooth,
	KeyBluetoothApmState:    DefaultBluetoothApmState,
	KeyWifiApmState:         DefaultWifiApmState,
	KeyToastCount:           DefaultToastCount,
	KeyWifiOn:               DefaultWifiOn,
}

// Default returns the documented default of a known key.
func Default(name string) (int, bool) {
	v, ok := defaults[name]
	return v, ok
}

// ParseScope accepts "global", "user:N", or "user" which resolves to the
// given active user.
func ParseScope(s string, activeUser int) (Scope, error) {
	switch {
	case s == "global":
		return Global, nil
	case s == "user":
		return User(activeUser), nil
	case strings.HasPrefix(s, "user:"):
		id, err := strconv.Atoi(strings.TrimPrefix(s, "user:"))
		if err != nil || id < 0 {
			return Global, errors.New().WithMessage(ErrInvalidScope, "invalid user scope "+strconv.Quote(s))
		}
		return User(id), nil
	default:
		return Global, errors.New().WithMessage(ErrInvalidScope, "unknown scope "+strconv.Quote(s))
	}
}
