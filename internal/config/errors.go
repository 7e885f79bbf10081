package config

import "codeberg.org/mutker/btapmd/internal/errors"

const (
	ErrInvalidConfig = errors.ErrInvalidConfig
	ErrReadConfig    = errors.ErrReadConfig
	ErrBindFlags     = errors.ErrBindFlags
	ErrInvalidPath   = errors.ErrInvalidPath
	ErrInvalidUser   = errors.ErrInvalidUser
	ErrParseFlags    = errors.ErrorCode("config_parse_flags_failed")
	ErrInvalidValue  = errors.ErrorCode("config_invalid_value")
)
