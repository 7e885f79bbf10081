package telemetry

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"sync"
	"time"

	"codeberg.org/mutker/btapmd/internal/errors"
	"codeberg.org/mutker/btapmd/internal/logger"
	_ "github.com/mattn/go-sqlite3"
)

// Repository stores session reports. Writes are buffered and flushed when
// the batch is full, on a timer, before reads and on Close. A failed flush
// drops the whole batch; the buffer never holds more than one batch.
type Repository interface {
	Store(ctx context.Context, report *SessionReport) error
	Recent(ctx context.Context, limit int) ([]SessionReport, error)
	Close() error
}

type sqliteRepository struct {
	db     *sql.DB
	logger logger.Logger
	cfg    Config

	mu     sync.Mutex
	buffer []*SessionReport
	closed bool

	flushTicker   *time.Ticker
	shutdownChan  chan struct{}
	flushDoneChan chan struct{}
}

func NewRepository(cfg Config, log logger.Logger) (Repository, error) {
	errFactory := errors.New()

	if cfg.DBPath == "" {
		return nil, errFactory.New(ErrInvalidDBPath)
	}

	log.Debug().Str("path", cfg.DBPath).Msg("Initializing telemetry repository")

	// Ensure the directory exists
	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), defaultDirPerm); err != nil {
		return nil, errFactory.WithData(ErrStorageInit, struct {
			Phase string
			Path  string
			Error string
		}{
			Phase: "create_directory",
			Path:  cfg.DBPath,
			Error: err.Error(),
		})
	}

	db, err := sql.Open("sqlite3", cfg.DBPath+"?_journal=WAL&_auto_vacuum=2")
	if err != nil {
		return nil, errFactory.Wrap(ErrStorageInit, err)
	}

	if err := ValidateAndUpdateSchema(db, cfg.BackupDir, log); err != nil {
		db.Close()
		return nil, errFactory.Wrap(ErrStorageInit, err)
	}

	repo := &sqliteRepository{
		db:            db,
		logger:        log,
		cfg:           cfg,
		buffer:        make([]*SessionReport, 0, max(cfg.BatchSize, 1)),
		shutdownChan:  make(chan struct{}),
		flushDoneChan: make(chan struct{}),
	}

	// Periodic flushing only makes sense when batching
	if cfg.BatchSize > 1 && cfg.BatchTimeout > 0 {
		repo.flushTicker = time.NewTicker(cfg.BatchTimeout)
		go repo.flusher()
	} else {
		close(repo.flushDoneChan)
	}

	log.Info().
		Str("path", cfg.DBPath).
		Int("schema_version", SchemaVersion).
		Int("batch_size", cfg.BatchSize).
		Dur("batch_timeout", cfg.BatchTimeout).
		Msg("Telemetry repository initialized")

	return repo, nil
}

func (r *sqliteRepository) Store(_ context.Context, report *SessionReport) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return errors.New().New(ErrServiceShutdown)
	}

	r.buffer = append(r.buffer, report)

	if len(r.buffer) >= r.cfg.BatchSize {
		return r.flush()
	}

	return nil
}

func (r *sqliteRepository) Recent(ctx context.Context, limit int) ([]SessionReport, error) {
	errFactory := errors.New()

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.flush(); err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, selectRecentSQL, limit)
	if err != nil {
		return nil, errFactory.Wrap(ErrStorageAccess, err)
	}
	defer rows.Close()

	var reports []SessionReport
	for rows.Next() {
		var (
			rep                  SessionReport
			started, ended       int64
			before, after, final int
			ever, toggled        int
			within, media        int
		)
		if err := rows.Scan(&rep.ID, &started, &ended,
			&before, &after, &final,
			&ever, &toggled, &within,
			&media); err != nil {
			return nil, errFactory.Wrap(ErrStorageAccess, err)
		}

		rep.StartedAt = time.UnixMilli(started)
		rep.EndedAt = time.UnixMilli(ended)
		rep.BluetoothOnBeforeToggle = before == 1
		rep.BluetoothOnAfterToggle = after == 1
		rep.FinalBluetoothOn = final == 1
		rep.HasUserEverToggledApm = ever == 1
		rep.UserToggledDuringSession = toggled == 1
		rep.ToggledWithinOneMinute = within == 1
		rep.MediaConnectedBeforeToggle = media == 1
		reports = append(reports, rep)
	}

	if err := rows.Err(); err != nil {
		return nil, errFactory.Wrap(ErrStorageAccess, err)
	}

	return reports, nil
}

func (r *sqliteRepository) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	r.mu.Unlock()

	// Signal the flusher goroutine to stop and wait for its final flush
	close(r.shutdownChan)
	if r.flushTicker != nil {
		r.flushTicker.Stop()
	}
	<-r.flushDoneChan

	r.mu.Lock()
	defer r.mu.Unlock()

	flushErr := r.flush()

	// Checkpoint WAL and cleanup on close
	if _, err := r.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		r.logger.Debug().Err(err).Msg("Failed to checkpoint telemetry WAL")
	}

	if err := r.db.Close(); err != nil {
		return errors.New().WithData(ErrStorageClose, struct {
			Phase string
			Error string
		}{
			Phase: "close_database",
			Error: err.Error(),
		})
	}

	r.logger.Info().Msg("Telemetry repository closed")

	return flushErr
}

func (r *sqliteRepository) flusher() {
	defer close(r.flushDoneChan)

	for {
		select {
		case <-r.flushTicker.C:
			r.mu.Lock()
			if err := r.flush(); err != nil {
				r.logger.Warn().Err(err).Msg("Periodic telemetry flush failed")
			}
			r.mu.Unlock()
		case <-r.shutdownChan:
			return
		}
	}
}

// flush writes the buffer in one transaction. Callers hold r.mu. On failure
// the buffered reports are discarded.
func (r *sqliteRepository) flush() error {
	if len(r.buffer) == 0 {
		return nil
	}

	errFactory := errors.New()

	tx, err := r.db.Begin()
	if err != nil {
		return r.discard(errFactory.Wrap(ErrTransactionFailed, err))
	}

	stmt, err := tx.Prepare(insertSessionSQL)
	if err != nil {
		if err := tx.Rollback(); err != nil {
			r.logger.Error().Err(err).Msg("Failed to roll back transaction")
		}
		return r.discard(errFactory.Wrap(ErrTransactionFailed, err))
	}
	defer stmt.Close()

	for _, rep := range r.buffer {
		if _, err := stmt.Exec(
			rep.ID,
			rep.StartedAt.UnixMilli(),
			rep.EndedAt.UnixMilli(),
			boolToInt(rep.BluetoothOnBeforeToggle),
			boolToInt(rep.BluetoothOnAfterToggle),
			boolToInt(rep.FinalBluetoothOn),
			boolToInt(rep.HasUserEverToggledApm),
			boolToInt(rep.UserToggledDuringSession),
			boolToInt(rep.ToggledWithinOneMinute),
			boolToInt(rep.MediaConnectedBeforeToggle),
		); err != nil {
			if err := tx.Rollback(); err != nil {
				r.logger.Error().Err(err).Msg("Failed to roll back transaction")
			}
			return r.discard(errFactory.Wrap(ErrTransactionFailed, err))
		}
	}

	if err := tx.Commit(); err != nil {
		return r.discard(errFactory.Wrap(ErrTransactionFailed, err))
	}

	r.logger.Debug().Int("records", len(r.buffer)).Msg("Flushed session reports to database")
	r.buffer = r.buffer[:0]

	return nil
}

func (r *sqliteRepository) discard(err error) error {
	r.logger.Warn().Err(err).Int("records", len(r.buffer)).Msg("Dropping session reports after failed flush")
	r.buffer = r.buffer[:0]

	return err
}
