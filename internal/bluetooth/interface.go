package bluetooth

import (
	"fmt"
	"strings"
)

// State is the adapter power state as reported by its owner.
type State int

const (
	StateOff State = iota
	StateTurningOn
	StateOn
	StateTurningOff
)

var stateNames = map[State]string{
	StateOff:        "off",
	StateTurningOn:  "turning_on",
	StateOn:         "on",
	StateTurningOff: "turning_off",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}

	return fmt.Sprintf("state(%d)", int(s))
}

// OneOf reports whether s matches any of the given states.
func (s State) OneOf(states ...State) bool {
	for _, st := range states {
		if s == st {
			return true
		}
	}

	return false
}

// IsPowered reports whether the radio is on or transitioning. Airplane mode
// decisions treat all of these as "Bluetooth was on".
func (s State) IsPowered() bool {
	return s.OneOf(StateOn, StateTurningOn, StateTurningOff)
}

// ParseState accepts the names produced by String.
func ParseState(name string) (State, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for st, n := range stateNames {
		if n == name {
			return st, nil
		}
	}

	return StateOff, fmt.Errorf("unknown adapter state %q", name)
}

// Profile is a media profile whose connection justifies keeping the radio
// on under the legacy airplane policy.
type Profile string

const (
	ProfileA2DP       Profile = "a2dp"
	ProfileHearingAid Profile = "hearing_aid"
	ProfileLeAudio    Profile = "le_audio"
)

// ParseProfile validates a profile name.
func ParseProfile(name string) (Profile, error) {
	switch p := Profile(strings.ToLower(strings.TrimSpace(name))); p {
	case ProfileA2DP, ProfileHearingAid, ProfileLeAudio:
		return p, nil
	default:
		return "", fmt.Errorf("unknown media profile %q", name)
	}
}

// StateReader exposes the adapter state to the airplane controller.
type StateReader interface {
	State() State
}

// MediaReader reports whether any media profile is connected.
type MediaReader interface {
	IsMediaConnected() bool
}
