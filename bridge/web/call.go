package web

import (
	"sync"

	"github.com/myket-community/bridge-server/bridge"
	"github.com/myket-community/bridge-server/model"
)

// outcome is the terminal resolution of one HTTP-backed call.
type outcome struct {
	data     model.Object
	rejected bool
	message  string
	code     string
}

// httpCall adapts one HTTP exchange to a bridge.Call. The exchange itself
// is the pending call: the handler blocks on Done until the first terminal
// resolution arrives. Later resolutions are ignored.
type httpCall struct {
	options model.Object

	mu      sync.Mutex
	settled bool
	done    chan outcome
}

func newHTTPCall(options model.Object) *httpCall {
	if options == nil {
		options = model.Object{}
	}
	return &httpCall{
		options: options,
		done:    make(chan outcome, 1),
	}
}

func (c *httpCall) GetString(key, def string) string {
	if v, ok := c.options[key].(string); ok {
		return v
	}
	return def
}

func (c *httpCall) GetStringArray(key string) []string {
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

// SetKeepAlive is a no-op: the HTTP exchange stays open until the call
// settles regardless.
func (c *httpCall) SetKeepAlive(bool) {}

func (c *httpCall) Resolve(data model.Object) {
	c.settle(outcome{data: data})
}

func (c *httpCall) Reject(message, code string) {
	c.settle(outcome{rejected: true, message: message, code: code})
}

func (c *httpCall) settle(o outcome) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.settled {
		return
	}
	c.settled = true
	c.done <- o
}

// Done yields the terminal resolution exactly once.
func (c *httpCall) Done() <-chan outcome {
	return c.done
}

var _ bridge.Call = (*httpCall)(nil)
