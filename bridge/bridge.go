// Package bridge declares the capabilities the embedding host runtime
// provides to the billing core: pending calls that survive asynchronous
// completion, named event fan-out, and access to the current UI activity.
package bridge

import (
	"github.com/myket-community/bridge-server/iab"
	"github.com/myket-community/bridge-server/model"
)

// Call is one host invocation. The host keeps it alive until exactly one of
// Resolve or Reject fires; implementations must ignore any terminal
// resolution after the first.
type Call interface {
	// GetString reads a string option, falling back to def when the key is
	// absent or not a string.
	GetString(key, def string) string

	// GetStringArray reads a string-array option. Absent keys yield nil;
	// entries that are not strings are skipped.
	GetStringArray(key string) []string

	// SetKeepAlive marks the call as surviving past the handler's return,
	// to be resolved from a provider callback.
	SetKeepAlive(keepAlive bool)

	// Resolve completes the call successfully.
	Resolve(data model.Object)

	// Reject fails the call. code may be empty when no host-visible code
	// applies.
	Reject(message, code string)
}

// EventEmitter fans a named event out to host subscribers registered at
// emission time. Best-effort: no retention, no replay, never fails the
// caller.
type EventEmitter interface {
	Emit(event string, data model.Object)
}

// ActivityProvider hands out the current UI activity for the purchase flow.
type ActivityProvider interface {
	CurrentActivity() iab.Activity
}

// ActivityProviderFunc adapts a function to an ActivityProvider.
type ActivityProviderFunc func() iab.Activity

func (f ActivityProviderFunc) CurrentActivity() iab.Activity { return f() }
