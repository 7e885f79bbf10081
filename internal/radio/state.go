package radio

import (
	"os"
	"strings"

	"codeberg.org/mutker/btapmd/internal/errors"
	"gopkg.in/yaml.v3"
)

// RadioBluetooth is the name of Bluetooth in the airplane radios list.
const RadioBluetooth = "bluetooth"

// State is the content of the radio state file, e.g.
//
//	airplane_mode_on: 1
//	airplane_mode_radios: cell,bluetooth,wifi
type State struct {
	AirplaneModeOn int    `yaml:"airplane_mode_on"`
	Radios         string `yaml:"airplane_mode_radios"`
}

// AffectsBluetooth reports whether airplane mode applies to Bluetooth. An
// empty radios list applies to every radio.
func (s State) AffectsBluetooth() bool {
	if strings.TrimSpace(s.Radios) == "" {
		return true
	}

	for _, r := range strings.Split(s.Radios, ",") {
		if strings.EqualFold(strings.TrimSpace(r), RadioBluetooth) {
			return true
		}
	}

	return false
}

// Mode is the airplane signal as seen by Bluetooth.
func (s State) Mode() bool {
	return s.AirplaneModeOn == 1 && s.AffectsBluetooth()
}

// ParseState decodes a radio state file. Empty input is airplane mode off.
func ParseState(data []byte) (State, error) {
	var st State
	if err := yaml.Unmarshal(data, &st); err != nil {
		return State{}, errors.New().Wrap(ErrParseState, err)
	}

	return st, nil
}

// WriteState replaces the state file atomically.
func WriteState(path string, st State) error {
	data, err := yaml.Marshal(st)
	if err != nil {
		return errors.New().Wrap(ErrParseState, err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return errors.New().Wrap(ErrWriteState, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return errors.New().Wrap(ErrWriteState, err)
	}

	return nil
}
