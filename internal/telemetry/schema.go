package telemetry

import (
	"database/sql"

	"codeberg.org/mutker/btapmd/internal/errors"
	"codeberg.org/mutker/btapmd/internal/logger"
)

const (
	SchemaVersion = 1

	createTablesSQL = `
	   CREATE TABLE IF NOT EXISTS schema_versions (
	       version     INTEGER PRIMARY KEY,
	       applied_at  TEXT NOT NULL
	   );
	   CREATE TABLE IF NOT EXISTS sessions (
	       id                            TEXT PRIMARY KEY,
	       started_at                    INTEGER NOT NULL CHECK (typeof(started_at) = 'integer'),
	       ended_at                      INTEGER NOT NULL CHECK (typeof(ended_at) = 'integer'),
	       bluetooth_on_before_toggle    INTEGER NOT NULL CHECK (bluetooth_on_before_toggle IN (0, 1)),
	       bluetooth_on_after_toggle     INTEGER NOT NULL CHECK (bluetooth_on_after_toggle IN (0, 1)),
	       final_bluetooth_on            INTEGER NOT NULL CHECK (final_bluetooth_on IN (0, 1)),
	       has_user_ever_toggled_apm     INTEGER NOT NULL CHECK (has_user_ever_toggled_apm IN (0, 1)),
	       user_toggled_during_session   INTEGER NOT NULL CHECK (user_toggled_during_session IN (0, 1)),
	       toggled_within_one_minute     INTEGER NOT NULL CHECK (toggled_within_one_minute IN (0, 1)),
	       media_connected_before_toggle INTEGER NOT NULL CHECK (media_connected_before_toggle IN (0, 1))
	   );
	   CREATE INDEX IF NOT EXISTS sessions_ended_at ON sessions (ended_at);`

	insertSessionSQL = `
    INSERT INTO sessions (
        id, started_at, ended_at,
        bluetooth_on_before_toggle, bluetooth_on_after_toggle, final_bluetooth_on,
        has_user_ever_toggled_apm, user_toggled_during_session, toggled_within_one_minute,
        media_connected_before_toggle
    ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	selectRecentSQL = `
    SELECT
        id, started_at, ended_at,
        bluetooth_on_before_toggle, bluetooth_on_after_toggle, final_bluetooth_on,
        has_user_ever_toggled_apm, user_toggled_during_session, toggled_within_one_minute,
        media_connected_before_toggle
    FROM sessions
    ORDER BY ended_at DESC, id
    LIMIT ?`
)

// InitSchema creates a new database schema with the current version
func InitSchema(db *sql.DB, log logger.Logger) error {
	errFactory := errors.New()

	log.Debug().Msg("Creating telemetry database...")

	tx, err := db.Begin()
	if err != nil {
		return errFactory.Wrap(ErrSchemaInitFailed, err)
	}

	// Track transaction state
	committed := false
	defer func() {
		if !committed {
			if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
				log.Debug().Err(err).Msg("Failed to rollback transaction")
			}
		}
	}()

	if _, err := tx.Exec(createTablesSQL); err != nil {
		return errFactory.WithData(ErrSchemaInitFailed, struct {
			Error string
			Phase string
		}{
			Error: err.Error(),
			Phase: "create_tables",
		})
	}

	if _, err := tx.Exec(`
        INSERT INTO schema_versions (version, applied_at)
        VALUES (?, datetime('now'))
    `, SchemaVersion); err != nil {
		return errFactory.WithData(ErrSchemaInitFailed, struct {
			Error string
			Phase string
		}{
			Error: err.Error(),
			Phase: "record_version",
		})
	}

	if err := tx.Commit(); err != nil {
		return errFactory.Wrap(ErrSchemaInitFailed, err)
	}
	committed = true

	log.Info().
		Int("version", SchemaVersion).
		Msg("Telemetry schema initialized")

	return nil
}

// GetSchemaVersion returns the current schema version, 0 for an empty database
func GetSchemaVersion(db *sql.DB) (int, error) {
	errFactory := errors.New()

	exists, err := TableExists(db, "schema_versions")
	if err != nil {
		return 0, errFactory.Wrap(ErrSchemaValidationFailed, err)
	}
	if !exists {
		return 0, nil
	}

	var version int
	err = db.QueryRow(`
        SELECT version
        FROM schema_versions
        ORDER BY version DESC
        LIMIT 1
    `).Scan(&version)

	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, errFactory.WithData(ErrSchemaValidationFailed, struct {
			Phase string
			Error string
		}{
			Phase: "get_version",
			Error: err.Error(),
		})
	}

	return version, nil
}

// TableExists checks if a table exists
func TableExists(db *sql.DB, tableName string) (bool, error) {
	var exists bool
	err := db.QueryRow(`
        SELECT EXISTS (
            SELECT 1 FROM sqlite_master
            WHERE type='table' AND name=?
        )
    `, tableName).Scan(&exists)
	if err != nil {
		return false, errors.New().WithData(ErrSchemaValidationFailed, struct {
			Phase string
			Table string
			Error string
		}{
			Phase: "check_table_exists",
			Table: tableName,
			Error: err.Error(),
		})
	}

	return exists, nil
}
