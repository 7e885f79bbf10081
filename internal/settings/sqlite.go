package settings

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"sync"

	"codeberg.org/mutker/btapmd/internal/errors"
	"codeberg.org/mutker/btapmd/internal/logger"
	_ "github.com/mattn/go-sqlite3"
)

const defaultDirPerm = 0o755

type sqliteStore struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteStore opens (creating if needed) the settings database at path.
func NewSQLiteStore(path string, log logger.Logger) (Store, error) {
	errFactory := errors.New()

	if path == "" {
		return nil, errFactory.New(ErrInvalidDBPath)
	}

	// Ensure the directory exists
	if err := os.MkdirAll(filepath.Dir(path), defaultDirPerm); err != nil {
		return nil, errFactory.WithData(ErrStorageInit, struct {
			Phase string
			Path  string
			Error string
		}{
			Phase: "create_directory",
			Path:  path,
			Error: err.Error(),
		})
	}

	db, err := sql.Open("sqlite3", path+"?_journal=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, errFactory.Wrap(ErrStorageInit, err)
	}

	if _, err := db.Exec(createTableSQL); err != nil {
		db.Close()
		return nil, errFactory.Wrap(ErrStorageInit, err)
	}

	log.Debug().Str("path", path).Msg("Settings store opened")

	return &sqliteStore{db: db}, nil
}

func (s *sqliteStore) GetInt(ctx context.Context, scope Scope, name string, def int) (int, error) {
	if name == "" {
		return def, errors.New().New(ErrInvalidKey)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var value int
	err := s.db.QueryRowContext(ctx, selectValueSQL, int(scope), name).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return def, nil
	}
	if err != nil {
		return def, errors.New().Wrap(ErrStorageAccess, err)
	}

	return value, nil
}

func (s *sqliteStore) PutInt(ctx context.Context, scope Scope, name string, value int) error {
	if name == "" {
		return errors.New().New(ErrInvalidKey)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.ExecContext(ctx, upsertValueSQL, int(scope), name, value); err != nil {
		return errors.New().Wrap(ErrStorageAccess, err)
	}

	return nil
}

func (s *sqliteStore) List(ctx context.Context, scope Scope) ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.QueryContext(ctx, listValuesSQL, int(scope))
	if err != nil {
		return nil, errors.New().Wrap(ErrStorageAccess, err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e   Entry
			raw int
		)
		if err := rows.Scan(&raw, &e.Name, &e.Value); err != nil {
			return nil, errors.New().Wrap(ErrStorageAccess, err)
		}
		e.Scope = Scope(raw)
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.New().Wrap(ErrStorageAccess, err)
	}

	return entries, nil
}

func (s *sqliteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.db.Close(); err != nil {
		return errors.New().Wrap(ErrStorageClose, err)
	}

	return nil
}
