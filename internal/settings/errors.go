package settings

import "codeberg.org/mutker/btapmd/internal/errors"

const (
	ErrInvalidDBPath = errors.ErrorCode("settings_invalid_db_path")
	ErrStorageInit   = errors.ErrorCode("settings_storage_init_failed")
	ErrStorageAccess = errors.ErrorCode("settings_storage_access_failed")
	ErrStorageClose  = errors.ErrorCode("settings_storage_close_failed")
	ErrInvalidKey    = errors.ErrorCode("settings_invalid_key")
	ErrInvalidScope  = errors.ErrorCode("settings_invalid_scope")
)
