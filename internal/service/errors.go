package service

import "errors"

var (
	// ErrValidation indicates missing or malformed input the client can fix.
	ErrValidation = errors.New("validation error")
	// ErrConflict indicates a uniqueness violation.
	ErrConflict = errors.New("conflict")
	// ErrForbidden indicates a role-cardinality violation.
	ErrForbidden = errors.New("forbidden")
	// ErrInvalidCredentials indicates that provided login credentials are incorrect.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInternal indicates an unexpected hashing, signing or storage failure.
	ErrInternal = errors.New("internal error")
)

// Error carries a client-facing message for one of the sentinel kinds above.
type Error struct {
	kind error
	msg  string
	err  error
}

func (e *Error) Error() string { return e.msg }

// Unwrap exposes both the kind and the underlying cause to errors.Is/As.
func (e *Error) Unwrap() []error {
	if e.err == nil {
		return []error{e.kind}
	}
	return []error{e.kind, e.err}
}

// Cause returns the underlying error, if any.
func (e *Error) Cause() error { return e.err }

func newError(kind error, msg string) error {
	return &Error{kind: kind, msg: msg}
}

func internalError(msg string, cause error) error {
	return &Error{kind: ErrInternal, msg: msg, err: cause}
}
