package api

import (
	"time"

	"codeberg.org/mutker/btapmd/internal/airplane"
	"codeberg.org/mutker/btapmd/internal/telemetry"
)

// StatusResponse is the payload of GET /v1/status.
type StatusResponse struct {
	airplane.Status
	Adapter     string   `json:"adapter"`
	Media       []string `json:"media"`
	GeneratedAt string   `json:"generated_at"`
}

// AdapterRequest is the body of POST /v1/adapter.
type AdapterRequest struct {
	State string `json:"state"`
}

// MediaRequest is the body of POST /v1/media.
type MediaRequest struct {
	Profile   string `json:"profile"`
	Connected bool   `json:"connected"`
}

// ToggleRequest is the body of POST /v1/toggle.
type ToggleRequest struct {
	BluetoothOn bool `json:"bluetooth_on"`
}

// AirplaneRequest is the body of POST /v1/airplane.
type AirplaneRequest struct {
	On     bool   `json:"on"`
	Radios string `json:"radios"`
}

// SettingRequest is the body of PUT /v1/settings.
type SettingRequest struct {
	Scope string `json:"scope"`
	Name  string `json:"name"`
	Value *int   `json:"value"`
}

// SettingView is a single stored value.
type SettingView struct {
	Scope string `json:"scope"`
	Name  string `json:"name"`
	Value int    `json:"value"`
}

// SessionView is one reported airplane session.
type SessionView struct {
	ID                         string `json:"id"`
	StartedAt                  string `json:"started_at"`
	EndedAt                    string `json:"ended_at"`
	DurationSec                int64  `json:"duration_sec"`
	BluetoothOnBeforeToggle    bool   `json:"bluetooth_on_before_toggle"`
	BluetoothOnAfterToggle     bool   `json:"bluetooth_on_after_toggle"`
	FinalBluetoothOn           bool   `json:"final_bluetooth_on"`
	HasUserEverToggledApm      bool   `json:"has_user_ever_toggled_apm"`
	UserToggledDuringSession   bool   `json:"user_toggled_during_session"`
	ToggledWithinOneMinute     bool   `json:"toggled_within_one_minute"`
	MediaConnectedBeforeToggle bool   `json:"media_connected_before_toggle"`
}

func fromSessionReport(r telemetry.SessionReport) SessionView {
	return SessionView{
		ID:                         r.ID,
		StartedAt:                  r.StartedAt.UTC().Format(time.RFC3339),
		EndedAt:                    r.EndedAt.UTC().Format(time.RFC3339),
		DurationSec:                int64(r.Duration().Seconds()),
		BluetoothOnBeforeToggle:    r.BluetoothOnBeforeToggle,
		BluetoothOnAfterToggle:     r.BluetoothOnAfterToggle,
		FinalBluetoothOn:           r.FinalBluetoothOn,
		HasUserEverToggledApm:      r.HasUserEverToggledApm,
		UserToggledDuringSession:   r.UserToggledDuringSession,
		ToggledWithinOneMinute:     r.ToggledWithinOneMinute,
		MediaConnectedBeforeToggle: r.MediaConnectedBeforeToggle,
	}
}

// APIError is a standard error payload.
type APIError struct {
	Error     string `json:"error"`
	Code      string `json:"code,omitempty"`
	Timestamp string `json:"timestamp"` // RFC3339
}

// TimeNow abstracts time for tests.
var TimeNow = time.Now
