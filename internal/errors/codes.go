package errors

// Common error codes
const (
	// System errors
	ErrInternal        ErrorCode = "internal_error"
	ErrInvalidArgument ErrorCode = "invalid_argument"
	ErrUnavailable     ErrorCode = "service_unavailable"

	// Configuration errors
	ErrInvalidConfig ErrorCode = "invalid_configuration"
	ErrReadConfig    ErrorCode = "read_config_failed"
	ErrBindFlags     ErrorCode = "bind_flags_failed"
	ErrInvalidPath   ErrorCode = "invalid_path"
	ErrInvalidUser   ErrorCode = "invalid_user"

	// Initialization errors
	ErrInitFailed      ErrorCode = "initialization_failed"
	ErrShutdownFailed  ErrorCode = "shutdown_failed"
	ErrAlreadyRunning  ErrorCode = "already_running"
	ErrQueueFull       ErrorCode = "queue_full"
	ErrLoopNotRunning  ErrorCode = "event_loop_not_running"
	ErrLoopRunning     ErrorCode = "event_loop_already_running"
	ErrNotInitialized  ErrorCode = "not_initialized"
	ErrTimeout         ErrorCode = "operation_timeout"
	ErrOperationFailed ErrorCode = "operation_failed"

	// Application errors
	ErrInitApp        ErrorCode = "init_app_failed"
	ErrMainLoop       ErrorCode = "main_loop_failed"
	ErrOpenSettings   ErrorCode = "open_settings_failed"
	ErrInitTelemetry  ErrorCode = "init_telemetry_failed"
	ErrCloseTelemetry ErrorCode = "close_telemetry_failed"
)

// Common error messages
var errorMessages = map[ErrorCode]string{
	ErrInternal:        "Internal error occurred",
	ErrInvalidArgument: "Invalid argument provided",
	ErrUnavailable:     "Service unavailable",
	ErrInvalidConfig:   "Invalid configuration",
	ErrReadConfig:      "Failed to read config file",
	ErrBindFlags:       "Failed to bind flags",
	ErrInvalidPath:     "Invalid path",
	ErrInvalidUser:     "Invalid user id",
	ErrInitFailed:      "Initialization failed",
	ErrShutdownFailed:  "Shutdown failed",
	ErrAlreadyRunning:  "Another instance is already running",
	ErrQueueFull:       "Event queue is full",
	ErrLoopNotRunning:  "Event loop is not running",
	ErrLoopRunning:     "Event loop is already running",
	ErrNotInitialized:  "Controller was not initialized",
	ErrTimeout:         "Operation timed out",
	ErrOperationFailed: "Operation failed",
	ErrInitApp:         "Failed to initialize application",
	ErrMainLoop:        "Error in main loop",
	ErrOpenSettings:    "Failed to open settings store",
	ErrInitTelemetry:   "Failed to initialize telemetry",
	ErrCloseTelemetry:  "Failed to close telemetry",
}

// GetErrorMessage returns the message for a given error code
func GetErrorMessage(code ErrorCode) string {
	if msg, ok := errorMessages[code]; ok {
		return msg
	}

	return string(code)
}
