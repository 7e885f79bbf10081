package airplane

import "codeberg.org/mutker/btapmd/internal/errors"

const (
	ErrQueueFull        = errors.ErrQueueFull
	ErrNotInitialized   = errors.ErrNotInitialized
	ErrAlreadyRunning   = errors.ErrLoopRunning
	ErrLoopNotRunning   = errors.ErrLoopNotRunning
	ErrInvalidQueueSize = errors.ErrorCode("airplane_invalid_queue_size")
)
