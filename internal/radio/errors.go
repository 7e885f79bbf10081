package radio

import "codeberg.org/mutker/btapmd/internal/errors"

const (
	ErrInvalidPath  = errors.ErrInvalidPath
	ErrReadState    = errors.ErrorCode("radio_read_state_failed")
	ErrWriteState   = errors.ErrorCode("radio_write_state_failed")
	ErrParseState   = errors.ErrorCode("radio_parse_state_failed")
	ErrWatcherInit  = errors.ErrorCode("radio_watcher_init_failed")
	ErrWatcherError = errors.ErrorCode("radio_watcher_error")
)
