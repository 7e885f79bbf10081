package api

import "codeberg.org/mutker/btapmd/internal/errors"

const (
	ErrListen       = errors.ErrorCode("api_listen_failed")
	ErrServe        = errors.ErrorCode("api_serve_failed")
	ErrNotSupported = errors.ErrorCode("api_not_supported")

	ErrReadOnlySetting = errors.ErrorCode("api_read_only_setting")
)
