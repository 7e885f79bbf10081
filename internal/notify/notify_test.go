package notify_test

import (
	"context"
	stderrors "errors"
	"sync"
	"testing"
	"time"

	"codeberg.org/mutker/btapmd/internal/logger"
	"codeberg.org/mutker/btapmd/internal/notify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type shown struct {
	user int
	kind notify.Kind
	text string
}

type recordingSink struct {
	mu    sync.Mutex
	shown []shown
	gate  chan struct{}
	err   error
}

func (s *recordingSink) Show(ctx context.Context, user int, kind notify.Kind, text string) error {
	if s.gate != nil {
		select {
		case <-s.gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.shown = append(s.shown, shown{user: user, kind: kind, text: text})

	return s.err
}

func (s *recordingSink) all() []shown {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]shown(nil), s.shown...)
}

func TestDispatcherDeliversInOrder(t *testing.T) {
	sink := &recordingSink{}
	d := notify.NewDispatcher(sink, 4, logger.New("test"))

	d.Notify(10, notify.KindBt)
	d.Notify(10, notify.None)
	d.Notify(11, notify.KindBtEnabled)
	d.Close()

	assert.Equal(t, []shown{
		{user: 10, kind: notify.KindBt, text: notify.Message(notify.KindBt)},
		{user: 11, kind: notify.KindBtEnabled, text: notify.Message(notify.KindBtEnabled)},
	}, sink.all())
}

func TestDispatcherDropsWhenFull(t *testing.T) {
	sink := &recordingSink{gate: make(chan struct{})}
	d := notify.NewDispatcher(sink, 1, logger.New("test"))

	start := time.Now()
	for i := 0; i < 10; i++ {
		d.Notify(0, notify.KindLegacyToast)
	}
	assert.Less(t, time.Since(start), time.Second, "Notify never blocks")

	close(sink.gate)
	d.Close()

	// One request may be in flight in the sink plus one buffered.
	assert.LessOrEqual(t, len(sink.all()), 2)
	assert.NotEmpty(t, sink.all())
}

func TestDispatcherSurvivesSinkErrors(t *testing.T) {
	sink := &recordingSink{err: stderrors.New("no display")}
	d := notify.NewDispatcher(sink, 4, logger.New("test"))

	d.Notify(0, notify.KindWifiBt)
	d.Notify(0, notify.KindBt)
	d.Close()

	require.Len(t, sink.all(), 2)
}

func TestNotifyAfterCloseIsDropped(t *testing.T) {
	sink := &recordingSink{}
	d := notify.NewDispatcher(sink, 4, logger.New("test"))
	d.Close()
	d.Close()

	d.Notify(0, notify.KindBt)
	assert.Empty(t, sink.all())
}

func TestMessages(t *testing.T) {
	for _, k := range []notify.Kind{notify.KindBt, notify.KindWifiBt, notify.KindBtEnabled, notify.KindLegacyToast} {
		assert.NotEmpty(t, notify.Message(k), k)
	}
	assert.Empty(t, notify.Message(notify.None))
}

func TestCommandSink(t *testing.T) {
	sink := notify.CommandSink{
		Command: "/bin/sh",
		Args:    []string{"-c", `test "$BTAPMD_KIND" = apm_bt_notification && test "$BTAPMD_USER" = 7 && test -n "$1"`, "sh"},
	}

	err := sink.Show(context.Background(), 7, notify.KindBt, notify.Message(notify.KindBt))
	require.NoError(t, err)

	err = sink.Show(context.Background(), 7, notify.KindWifiBt, notify.Message(notify.KindWifiBt))
	assert.Error(t, err, "script rejects other kinds")
}
