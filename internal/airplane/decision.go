package airplane

import "codeberg.org/mutker/btapmd/internal/notify"

// Observation is the adapter state handed to Decide. The zero value is
// Withheld: the caller deliberately did not sample the adapter (boot).
type Observation struct {
	known bool
	on    bool
}

// Withheld means no adapter state was sampled.
var Withheld = Observation{}

// Observed wraps a sampled adapter state.
func Observed(on bool) Observation {
	return Observation{known: true, on: on}
}

// Known reports whether an adapter state was sampled.
func (o Observation) Known() bool {
	return o.known
}

// On reports the sampled state. It is false for Withheld.
func (o Observation) On() bool {
	return o.known && o.on
}

func (o Observation) observedOff() bool {
	return o.known && !o.on
}

func (o Observation) String() string {
	switch {
	case !o.known:
		return "withheld"
	case o.on:
		return "on"
	default:
		return "off"
	}
}

// UserPreference is the per-user airplane mode preference.
type UserPreference struct {
	HasToggledApm    bool
	BluetoothStaysOn bool
	WifiStaysOn      bool
}

// Inputs is a snapshot of every signal the policy depends on.
type Inputs struct {
	AirplaneOn         bool
	Bluetooth          Observation
	EnhancementEnabled bool
	Preference         UserPreference
	MediaConnected     bool
}

// Branch names the rule that produced a decision.
type Branch string

const (
	BranchPassthrough Branch = "passthrough"
	BranchPreference  Branch = "preference"
	BranchLegacy      Branch = "legacy"
)

// Decision is the outcome of the override policy.
type Decision struct {
	// EffectiveMode is true when airplane mode turns Bluetooth off and false
	// when the override keeps it on.
	EffectiveMode bool
	Notification  notify.Kind
	Branch        Branch
}

// Overridden reports whether Bluetooth is kept on despite airplane mode.
func (d Decision) Overridden() bool {
	return !d.EffectiveMode
}

// Decide applies the override policy. Rules are evaluated in order and the
// first match wins. Decide has no side effects.
func Decide(in Inputs) Decision {
	if !in.AirplaneOn || in.Bluetooth.observedOff() {
		return Decision{EffectiveMode: in.AirplaneOn, Branch: BranchPassthrough}
	}

	// Once the user has expressed a preference, media no longer matters.
	if in.EnhancementEnabled && in.Preference.HasToggledApm {
		if !in.Preference.BluetoothStaysOn {
			return Decision{EffectiveMode: true, Branch: BranchPreference}
		}

		kind := notify.KindBt
		if in.Preference.WifiStaysOn {
			kind = notify.KindWifiBt
		}

		return Decision{EffectiveMode: false, Notification: kind, Branch: BranchPreference}
	}

	if in.MediaConnected {
		return Decision{EffectiveMode: false, Notification: notify.KindLegacyToast, Branch: BranchLegacy}
	}

	return Decision{EffectiveMode: true, Branch: BranchLegacy}
}
