package billing

import (
	"github.com/myket-community/bridge-server/bridge"
)

// Guard is the precondition filter applied at the top of every operation
// that needs a bound helper. It never touches the helper itself.
type Guard struct {
	session *Session
}

func NewGuard(session *Session) *Guard {
	return &Guard{session: session}
}

// CheckInitialized rejects with KindNotInitialized when setup has not
// completed. code is the host-visible code to attach, empty for operations
// that reject without one.
func (g *Guard) CheckInitialized(code string) *Error {
	if !g.session.Initialized() {
		return notInitialized(code)
	}
	return nil
}

// RequireString reads a required string option from the call, rejecting
// with KindInvalidArgument when it is missing or empty.
func RequireString(call bridge.Call, key string) (string, *Error) {
	value := call.GetString(key, "")
	if value == "" {
		return "", invalidArgument(key)
	}
	return value, nil
}
