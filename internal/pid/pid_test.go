package pid_test

import (
	"os"
	"strconv"
	"testing"

	"codeberg.org/mutker/btapmd/internal/errors"
	"codeberg.org/mutker/btapmd/internal/pid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteAndRemove(t *testing.T) {
	f := pid.New(t.TempDir())

	require.NoError(t, f.Write())
	data, err := os.ReadFile(f.Path())
	require.NoError(t, err)
	assert.Equal(t, strconv.Itoa(os.Getpid()), string(data))

	// Our own pid is not another instance.
	require.NoError(t, f.Write())

	require.NoError(t, f.Remove())
	_, err = os.Stat(f.Path())
	assert.True(t, os.IsNotExist(err))

	assert.NoError(t, f.Remove(), "removing twice is fine")
}

func TestWriteDetectsRunningInstance(t *testing.T) {
	f := pid.New(t.TempDir())

	// The parent of the test binary is alive for the whole test.
	require.NoError(t, os.WriteFile(f.Path(), []byte(strconv.Itoa(os.Getppid())+"\n"), 0o600))

	err := f.Write()
	assert.Equal(t, errors.ErrAlreadyRunning, errors.CodeOf(err))
}

func TestWriteReplacesStaleFile(t *testing.T) {
	f := pid.New(t.TempDir())

	for _, stale := range []string{"not a pid", "-4", ""} {
		require.NoError(t, os.WriteFile(f.Path(), []byte(stale), 0o600))
		require.NoError(t, f.Write(), "content %q", stale)
	}
}

func TestNewDefaultsToTempDir(t *testing.T) {
	assert.Contains(t, pid.New("").Path(), os.TempDir())
}
