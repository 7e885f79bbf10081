package radio

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"codeberg.org/mutker/btapmd/internal/errors"
	"codeberg.org/mutker/btapmd/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestStateMode(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want bool
	}{
		{"empty file", "", false},
		{"off", "airplane_mode_on: 0\n", false},
		{"on, all radios", "airplane_mode_on: 1\n", true},
		{"on, bluetooth listed", "airplane_mode_on: 1\nairplane_mode_radios: cell,bluetooth,wifi\n", true},
		{"on, bluetooth excluded", "airplane_mode_on: 1\nairplane_mode_radios: cell,wifi\n", false},
		{"spacing and case", "airplane_mode_on: 1\nairplane_mode_radios: \"cell, Bluetooth\"\n", true},
		{"non-boolean value", "airplane_mode_on: 2\n", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st, err := ParseState([]byte(tt.in))
			require.NoError(t, err)
			assert.Equal(t, tt.want, st.Mode())
		})
	}
}

func TestParseStateRejectsGarbage(t *testing.T) {
	_, err := ParseState([]byte("airplane_mode_on: [1"))
	assert.Equal(t, ErrParseState, errors.CodeOf(err))
}

func TestInitial(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "radio.yaml")

	l, err := NewModeListener(path, 0, logger.New("test"))
	require.NoError(t, err)

	on, err := l.Initial()
	require.NoError(t, err)
	assert.False(t, on, "missing file is off")

	require.NoError(t, WriteState(path, State{AirplaneModeOn: 1}))
	on, err = l.Initial()
	require.NoError(t, err)
	assert.True(t, on)
	assert.True(t, l.Current())

	require.NoError(t, os.WriteFile(path, []byte("{{"), 0o644))
	_, err = l.Initial()
	assert.Error(t, err)
}

func TestNewModeListenerNeedsPath(t *testing.T) {
	_, err := NewModeListener("", 0, logger.New("test"))
	assert.Equal(t, ErrInvalidPath, errors.CodeOf(err))
}

type modeLog struct {
	mu    sync.Mutex
	modes []bool
}

func (m *modeLog) handle(on bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.modes = append(m.modes, on)
}

func (m *modeLog) get() []bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]bool(nil), m.modes...)
}

func TestRunReportsChangesOnly(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "radio.yaml")
	require.NoError(t, WriteState(path, State{}))

	l, err := NewModeListener(path, 10*time.Millisecond, logger.New("test"))
	require.NoError(t, err)
	_, err = l.Initial()
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := &modeLog{}
	done := make(chan error, 1)
	go func() { done <- l.Run(ctx, got.handle) }()

	eventually := func(want []bool) {
		t.Helper()
		require.Eventually(t, func() bool {
			return assert.ObjectsAreEqual(want, got.get())
		}, 2*time.Second, 10*time.Millisecond)
	}

	// The watch may not be armed yet; keep writing until the change lands.
	require.Eventually(t, func() bool {
		_ = WriteState(path, State{AirplaneModeOn: 1, Radios: "bluetooth"})
		time.Sleep(30 * time.Millisecond)
		return len(got.get()) > 0
	}, 2*time.Second, 10*time.Millisecond)
	eventually([]bool{true})

	// Same signal, different radios list: no report.
	require.NoError(t, WriteState(path, State{AirplaneModeOn: 1, Radios: "cell,bluetooth"}))
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, []bool{true}, got.get())

	require.NoError(t, os.Remove(path))
	eventually([]bool{true, false})

	cancel()
	require.NoError(t, <-done)
}

func TestRunMissingDirectory(t *testing.T) {
	l, err := NewModeListener(filepath.Join(t.TempDir(), "missing", "radio.yaml"), 0, logger.New("test"))
	require.NoError(t, err)

	err = l.Run(context.Background(), func(bool) {})
	assert.Equal(t, ErrWatcherInit, errors.CodeOf(err))
}
