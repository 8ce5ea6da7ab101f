package model

// Object is a host-neutral dictionary, the shape every call resolution and
// event payload crosses the bridge in.
type Object map[string]any

// Merged returns a shallow copy of base with every entry of extra layered on
// top. Either side may be nil.
func Merged(base, extra Object) Object {
	out := make(Object, len(base)+len(extra))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range extra {
		out[k] = v
	}
	return out
}
