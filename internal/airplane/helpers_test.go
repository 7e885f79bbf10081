package airplane

import (
	"context"
	"sync"
	"testing"
	"time"

	"codeberg.org/mutker/btapmd/internal/bluetooth"
	"codeberg.org/mutker/btapmd/internal/errors"
	"codeberg.org/mutker/btapmd/internal/logger"
	"codeberg.org/mutker/btapmd/internal/notify"
	"codeberg.org/mutker/btapmd/internal/settings"
	"codeberg.org/mutker/btapmd/internal/telemetry"
)

const testUser = 10

type recordingNotifier struct {
	mu    sync.Mutex
	kinds []notify.Kind
}

func (n *recordingNotifier) Notify(_ int, kind notify.Kind) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.kinds = append(n.kinds, kind)
}

func (n *recordingNotifier) Kinds() []notify.Kind {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]notify.Kind(nil), n.kinds...)
}

type recordingCollector struct {
	mu      sync.Mutex
	reports []telemetry.SessionReport
	err     error
}

func (c *recordingCollector) Record(_ context.Context, r *telemetry.SessionReport) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.reports = append(c.reports, *r)
	return nil
}

func (c *recordingCollector) Close() error {
	return nil
}

func (c *recordingCollector) Reports() []telemetry.SessionReport {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]telemetry.SessionReport(nil), c.reports...)
}

type fakeAdapter struct {
	mu    sync.Mutex
	state bluetooth.State
	media bool
}

func (a *fakeAdapter) State() bluetooth.State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

func (a *fakeAdapter) IsMediaConnected() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.media
}

func (a *fakeAdapter) set(state bluetooth.State, media bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.state = state
	a.media = media
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// failingStore fails every read and optionally every write.
type failingStore struct {
	settings.Store
	failWrites bool
}

func (s *failingStore) GetInt(context.Context, settings.Scope, string, int) (int, error) {
	return 0, errors.New().New(settings.ErrStorageAccess)
}

func (s *failingStore) PutInt(ctx context.Context, scope settings.Scope, name string, value int) error {
	if s.failWrites {
		return errors.New().New(settings.ErrStorageAccess)
	}
	return s.Store.PutInt(ctx, scope, name, value)
}

// writeFailingStore reads normally and fails every write.
type writeFailingStore struct {
	settings.Store
}

func (s *writeFailingStore) PutInt(context.Context, settings.Scope, string, int) error {
	return errors.New().New(settings.ErrStorageAccess)
}

type fixture struct {
	store     *settings.MemoryStore
	reader    *settings.Reader
	notifier  *recordingNotifier
	collector *recordingCollector
	clock     *fakeClock
	engine    *Engine
	tracker   *SessionTracker
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	log := logger.New("test")
	f := &fixture{
		store:     settings.NewMemoryStore(),
		notifier:  &recordingNotifier{},
		collector: &recordingCollector{},
		clock:     newFakeClock(),
	}
	f.reader = settings.NewReader(f.store, log)
	f.engine = NewEngine(f.reader, NewToastThrottle(f.store, log), f.notifier, log)
	f.tracker = NewSessionTracker(testUser, f.reader, f.notifier, f.collector, log, WithClock(f.clock.Now))

	return f
}

func (f *fixture) put(t *testing.T, scope settings.Scope, name string, value int) {
	t.Helper()
	if err := f.store.PutInt(context.Background(), scope, name, value); err != nil {
		t.Fatalf("put %s: %v", name, err)
	}
}

func (f *fixture) get(t *testing.T, scope settings.Scope, name string) int {
	t.Helper()
	v, err := f.store.GetInt(context.Background(), scope, name, -1)
	if err != nil {
		t.Fatalf("get %s: %v", name, err)
	}
	return v
}

func (f *fixture) userPrefersBluetoothOn(t *testing.T, wifi bool) {
	t.Helper()
	user := settings.User(testUser)
	f.put(t, user, settings.KeyUserToggledBluetooth, 1)
	f.put(t, user, settings.KeyBluetoothApmState, 1)
	if wifi {
		f.put(t, user, settings.KeyWifiApmState, 1)
		f.put(t, settings.Global, settings.KeyWifiOn, 1)
	}
}
