package radio

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"codeberg.org/mutker/btapmd/internal/errors"
	"codeberg.org/mutker/btapmd/internal/logger"
	"github.com/fsnotify/fsnotify"
)

const DefaultDebounce = 50 * time.Millisecond

// Handler receives the new airplane signal.
type Handler func(airplaneOn bool)

// ModeListener follows the radio state file and reports changes of the
// airplane signal. Writes that leave the signal unchanged are not reported.
type ModeListener struct {
	path     string
	debounce time.Duration
	logger   logger.Logger

	mu      sync.Mutex
	current bool
}

func NewModeListener(path string, debounce time.Duration, log logger.Logger) (*ModeListener, error) {
	if path == "" {
		return nil, errors.New().WithMessage(ErrInvalidPath, "radio state path is empty")
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	return &ModeListener{
		path:     filepath.Clean(path),
		debounce: debounce,
		logger:   log,
	}, nil
}

// Initial reads the signal at boot and makes it the baseline for changes.
func (l *ModeListener) Initial() (bool, error) {
	mode, err := l.read()
	if err != nil {
		return false, err
	}

	l.mu.Lock()
	l.current = mode
	l.mu.Unlock()

	return mode, nil
}

// Current returns the last known signal.
func (l *ModeListener) Current() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.current
}

// Run watches the state file until ctx is done. The parent directory is
// watched so atomic replaces and deletes are seen.
func (l *ModeListener) Run(ctx context.Context, handle Handler) error {
	errFactory := errors.New()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errFactory.Wrap(ErrWatcherInit, err)
	}
	defer watcher.Close()

	dir := filepath.Dir(l.path)
	if err := watcher.Add(dir); err != nil {
		return errFactory.WithData(ErrWatcherInit, struct {
			Path  string
			Error string
		}{
			Path:  dir,
			Error: err.Error(),
		})
	}

	l.logger.Info().Str("path", l.path).Msg("Watching radio state")

	// Catch anything written between Initial and the watch.
	l.refresh(handle)

	var pending <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != l.path || ev.Op == fsnotify.Chmod {
				continue
			}
			l.logger.Debug().Str("op", ev.Op.String()).Msg("Radio state file event")
			pending = time.After(l.debounce)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			l.logger.Warn().Err(err).Msg("Radio state watcher error")

		case <-pending:
			pending = nil
			l.refresh(handle)
		}
	}
}

func (l *ModeListener) refresh(handle Handler) {
	mode, err := l.read()
	if err != nil {
		l.logger.Warn().Err(err).Str("path", l.path).Msg("Ignoring unreadable radio state")
		return
	}

	l.mu.Lock()
	changed := mode != l.current
	l.current = mode
	l.mu.Unlock()

	if !changed {
		return
	}

	l.logger.Info().Bool("airplane", mode).Msg("Airplane mode changed")
	handle(mode)
}

// read returns the signal in the file. A missing file means off.
func (l *ModeListener) read() (bool, error) {
	data, err := os.ReadFile(l.path)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, errors.New().Wrap(ErrReadState, err)
	}

	st, err := ParseState(data)
	if err != nil {
		return false, err
	}

	return st.Mode(), nil
}
