package errors

// ErrorCode is a stable, machine-readable error identifier. Codes are
// logged as error_code and returned to API clients.
type ErrorCode string

// Error is an error tagged with an ErrorCode. The With* methods return a
// copy; the receiver is never modified.
type Error interface {
	error
	Code() ErrorCode
	WithMessage(msg string) Error
	WithData(data any) Error
	GetData() any
	Unwrap() error
}

// Factory builds coded errors.
type Factory interface {
	New(code ErrorCode) Error
	Wrap(code ErrorCode, err error) Error
	WithMessage(code ErrorCode, msg string) Error
	WithData(code ErrorCode, data any) Error
}
