package telemetry

import (
	"context"
	"time"
)

// Collector defines the core domain interface
type Collector interface {
	Record(ctx context.Context, report *SessionReport) error
	Close() error
}

// Reader gives access to stored reports.
type Reader interface {
	Recent(ctx context.Context, limit int) ([]SessionReport, error)
}

// SessionReport is the immutable summary of one airplane mode session,
// emitted when airplane mode turns off.
type SessionReport struct {
	ID        string
	StartedAt time.Time
	EndedAt   time.Time

	BluetoothOnBeforeToggle    bool
	BluetoothOnAfterToggle     bool
	FinalBluetoothOn           bool
	HasUserEverToggledApm      bool
	UserToggledDuringSession   bool
	ToggledWithinOneMinute     bool
	MediaConnectedBeforeToggle bool
}

// Duration is the length of the session.
func (r SessionReport) Duration() time.Duration {
	return r.EndedAt.Sub(r.StartedAt)
}

// Service is a Collector that can also read back what it stored.
type Service interface {
	Collector
	Reader
}
