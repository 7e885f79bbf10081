package airplane

import (
	"testing"

	"codeberg.org/mutker/btapmd/internal/notify"
	"github.com/stretchr/testify/assert"
)

// allInputs enumerates every combination of the boolean inputs for one
// airplane signal and adapter observation.
func allInputs(airplaneOn bool, bt Observation) []Inputs {
	var out []Inputs
	for mask := 0; mask < 1<<5; mask++ {
		out = append(out, Inputs{
			AirplaneOn:         airplaneOn,
			Bluetooth:          bt,
			EnhancementEnabled: mask&1 != 0,
			Preference: UserPreference{
				HasToggledApm:    mask&2 != 0,
				BluetoothStaysOn: mask&4 != 0,
				WifiStaysOn:      mask&8 != 0,
			},
			MediaConnected: mask&16 != 0,
		})
	}
	return out
}

func TestDecideAirplaneOffPassesThrough(t *testing.T) {
	for _, bt := range []Observation{Withheld, Observed(true), Observed(false)} {
		for _, in := range allInputs(false, bt) {
			d := Decide(in)
			assert.False(t, d.EffectiveMode, "%+v", in)
			assert.Equal(t, notify.None, d.Notification, "%+v", in)
			assert.Equal(t, BranchPassthrough, d.Branch)
		}
	}
}

func TestDecideBluetoothOffPassesThrough(t *testing.T) {
	for _, airplane := range []bool{false, true} {
		for _, in := range allInputs(airplane, Observed(false)) {
			d := Decide(in)
			assert.Equal(t, airplane, d.EffectiveMode, "%+v", in)
			assert.Equal(t, notify.None, d.Notification, "%+v", in)
		}
	}
}

func TestDecidePreferenceBranch(t *testing.T) {
	tests := []struct {
		name   string
		pref   UserPreference
		media  bool
		mode   bool
		notify notify.Kind
	}{
		{
			name:   "bluetooth and wifi stay on",
			pref:   UserPreference{HasToggledApm: true, BluetoothStaysOn: true, WifiStaysOn: true},
			mode:   false,
			notify: notify.KindWifiBt,
		},
		{
			name:   "bluetooth stays on",
			pref:   UserPreference{HasToggledApm: true, BluetoothStaysOn: true},
			mode:   false,
			notify: notify.KindBt,
		},
		{
			name: "bluetooth turns off",
			pref: UserPreference{HasToggledApm: true, WifiStaysOn: true},
			mode: true,
		},
		{
			name:  "media is ignored once the user chose",
			pref:  UserPreference{HasToggledApm: true},
			media: true,
			mode:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Decide(Inputs{
				AirplaneOn:         true,
				Bluetooth:          Observed(true),
				EnhancementEnabled: true,
				Preference:         tt.pref,
				MediaConnected:     tt.media,
			})
			assert.Equal(t, tt.mode, d.EffectiveMode)
			assert.Equal(t, tt.notify, d.Notification)
			assert.Equal(t, BranchPreference, d.Branch)
			assert.Equal(t, !tt.mode, d.Overridden())
		})
	}
}

func TestDecideLegacyBranch(t *testing.T) {
	pref := UserPreference{HasToggledApm: true, BluetoothStaysOn: true}

	// Enhancement disabled: the stored preference does not apply.
	d := Decide(Inputs{AirplaneOn: true, Bluetooth: Observed(true), Preference: pref, MediaConnected: true})
	assert.Equal(t, Decision{EffectiveMode: false, Notification: notify.KindLegacyToast, Branch: BranchLegacy}, d)

	d = Decide(Inputs{AirplaneOn: true, Bluetooth: Observed(true), Preference: pref})
	assert.Equal(t, Decision{EffectiveMode: true, Branch: BranchLegacy}, d)

	// User never toggled: media decides.
	d = Decide(Inputs{AirplaneOn: true, Bluetooth: Observed(true), EnhancementEnabled: true, MediaConnected: true})
	assert.Equal(t, notify.KindLegacyToast, d.Notification)
	assert.False(t, d.EffectiveMode)
}

func TestDecideWithheldAdapter(t *testing.T) {
	d := Decide(Inputs{AirplaneOn: true, Bluetooth: Withheld})
	assert.Equal(t, Decision{EffectiveMode: true, Branch: BranchLegacy}, d)

	d = Decide(Inputs{
		AirplaneOn:         true,
		Bluetooth:          Withheld,
		EnhancementEnabled: true,
		Preference:         UserPreference{HasToggledApm: true, BluetoothStaysOn: true},
	})
	assert.False(t, d.EffectiveMode, "stored preference applies at boot")
}

func TestObservation(t *testing.T) {
	assert.False(t, Withheld.Known())
	assert.False(t, Withheld.On())
	assert.Equal(t, "withheld", Withheld.String())

	assert.True(t, Observed(true).Known())
	assert.True(t, Observed(true).On())
	assert.Equal(t, "on", Observed(true).String())
	assert.Equal(t, "off", Observed(false).String())
}
