package notify

import "context"

// Kind identifies a notification. The empty Kind means "no notification".
type Kind string

const (
	None Kind = ""
	// Airplane mode turned on but Bluetooth stays on.
	KindBt Kind = "apm_bt_notification"
	// Airplane mode turned on but Bluetooth and Wifi stay on.
	KindWifiBt Kind = "apm_wifi_bt_notification"
	// Bluetooth was turned back on during airplane mode.
	KindBtEnabled Kind = "apm_bt_enabled_notification"
	// Legacy toast shown when a media profile keeps Bluetooth on.
	KindLegacyToast Kind = "bluetooth_airplane_mode_toast"
)

var messages = map[Kind]string{
	KindBt:          "Bluetooth will stay on during airplane mode. Turn it off if you don't want it on next time.",
	KindWifiBt:      "Wi-Fi and Bluetooth will stay on during airplane mode. Turn them off if you don't want them on next time.",
	KindBtEnabled:   "Your device will remember to keep Bluetooth on in airplane mode.",
	KindLegacyToast: "Bluetooth will stay on during airplane mode",
}

// Message returns the user-facing text of a notification kind.
func Message(k Kind) string {
	return messages[k]
}

// Notifier is the port used by the airplane policy. Implementations must
// return immediately.
type Notifier interface {
	Notify(user int, kind Kind)
}

// Sink renders a notification. It may block; the dispatcher bounds it
// with a timeout.
type Sink interface {
	Show(ctx context.Context, user int, kind Kind, text string) error
}
