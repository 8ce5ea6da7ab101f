package billing

import (
	"errors"
	"strings"

	"github.com/myket-community/bridge-server/bridge"
	"github.com/myket-community/bridge-server/model"
)

var (
	// ErrNotInitialized is returned when an operation runs before a
	// successful initialize.
	ErrNotInitialized = errors.New("billing not initialized")

	// ErrAlreadyInitialized is returned by Session.Setup when a helper is
	// already bound. Re-initializing is a no-op, not a failure.
	ErrAlreadyInitialized = errors.New("billing already initialized")
)

// Kind classifies a host-facing failure.
type Kind uint8

const (
	KindInvalidArgument Kind = iota + 1
	KindNotInitialized
	KindSetupFailed
	KindLaunchError
	KindCancelled
	KindFailed
	KindQueryFailed
)

// Error is a failure surfaced to the host via call rejection. Code is the
// host-visible code and may be empty; Cause is the underlying error, when
// one exists.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Cause }

func invalidArgument(param string) *Error {
	return &Error{
		Kind:    KindInvalidArgument,
		Message: param + " is required",
	}
}

func notInitialized(code string) *Error {
	return &Error{
		Kind:    KindNotInitialized,
		Code:    code,
		Message: "Billing not initialized",
		Cause:   ErrNotInitialized,
	}
}

// reject surfaces err on the call. Every error reaches the host; none are
// swallowed.
func reject(call bridge.Call, err *Error) {
	call.Reject(err.Message, err.Code)
}

// classifyFailureCode maps an asynchronous purchase failure message to the
// host-visible rejection code. The provider reports cancellation only
// through its message text, so the check lives here and nowhere else.
func classifyFailureCode(message string) string {
	if strings.Contains(message, "User cancelled") {
		return model.StateCancelled
	}
	return model.StateFailed
}
