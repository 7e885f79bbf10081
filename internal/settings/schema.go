package settings

const (
	createTableSQL = `
	   CREATE TABLE IF NOT EXISTS settings (
	       scope      INTEGER NOT NULL CHECK (typeof(scope) = 'integer'),
	       name       TEXT    NOT NULL,
	       value      INTEGER NOT NULL CHECK (typeof(value) = 'integer'),
	       updated_at TEXT    NOT NULL,
	       PRIMARY KEY (scope, name)
	   );`

	selectValueSQL = `SELECT value FROM settings WHERE scope = ? AND name = ?`

	upsertValueSQL = `
    INSERT INTO settings (scope, name, value, updated_at)
    VALUES (?, ?, ?, datetime('now'))
    ON CONFLICT(scope, name) DO UPDATE SET
        value = excluded.value,
        updated_at = excluded.updated_at`

	listValuesSQL = `SELECT scope, name, value FROM settings WHERE scope = ? ORDER BY name`
)
