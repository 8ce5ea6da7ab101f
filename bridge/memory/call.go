package memory

import (
	"sync"

	"github.com/myket-community/bridge-server/bridge"
	"github.com/myket-community/bridge-server/model"
)

// Call is an in-memory bridge.Call that records its terminal resolution.
type Call struct {
	mu sync.Mutex

	options model.Object

	keepAlive bool
	settled   bool
	doubled   bool

	resolved   bool
	data       model.Object
	rejected   bool
	rejectMsg  string
	rejectCode string
}

// NewCall builds a call carrying the given options.
func NewCall(options model.Object) *Call {
	if options == nil {
		options = model.Object{}
	}
	return &Call{options: options}
}

func (c *Call) GetString(key, def string) string {
	if v, ok := c.options[key].(string); ok {
		return v
	}
	return def
}

func (c *Call) GetStringArray(key string) []string {
	raw, ok := c.options[key]
	if !ok {
		return nil
	}
	switch vs := raw.(type) {
	case []string:
		return vs
	case []any:
		out := make([]string, 0, len(vs))
		for _, v := range vs {
			if s, ok := v.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

func (c *Call) SetKeepAlive(keepAlive bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.keepAlive = keepAlive
}

func (c *Call) Resolve(data model.Object) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.settled {
		c.doubled = true
		return
	}
	c.settled = true
	c.resolved = true
	c.data = data
}

func (c *Call) Reject(message, code string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.settled {
		c.doubled = true
		return
	}
	c.settled = true
	c.rejected = true
	c.rejectMsg = message
	c.rejectCode = code
}

// Settled reports whether the call saw a terminal resolution.
func (c *Call) Settled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.settled
}

// DoubleSettled reports whether a second terminal resolution was attempted.
func (c *Call) DoubleSettled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.doubled
}

// KeptAlive reports the last SetKeepAlive value.
func (c *Call) KeptAlive() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.keepAlive
}

// Resolved returns the resolution payload, or ok=false if the call was not
// resolved.
func (c *Call) Resolved() (data model.Object, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.data, c.resolved
}

// Rejected returns the rejection message and code, or ok=false if the call
// was not rejected.
func (c *Call) Rejected() (message, code string, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rejectMsg, c.rejectCode, c.rejected
}

var _ bridge.Call = (*Call)(nil)
