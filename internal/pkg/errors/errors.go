package errors

import "errors"

var (
	ErrNotFound = errors.New("not found")
	ErrInvalid  = errors.New("invalid")
	ErrConflict = errors.New("conflict")
	ErrTooMany  = errors.New("too many requests")
	ErrInternal = errors.New("internal")
)

// Verification rejections. The text is returned to clients as is.
var (
	ErrCodeInvalid = errors.New("Invalid code")
	ErrCodeUsed    = errors.New("Code already used")
	ErrCodeExpired = errors.New("Code expired")
)

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}

// IsRejection reports whether err is an expected verification outcome rather
// than a failure of the service.
func IsRejection(err error) bool {
	return errors.Is(err, ErrCodeInvalid) || errors.Is(err, ErrCodeUsed) || errors.Is(err, ErrCodeExpired)
}
