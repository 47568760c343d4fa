package eventstream

import (
	"github.com/samber/lo"
	"github.com/samber/mo"
)

// Header is a single event header: a name and a typed value.
type Header struct {
	Name  string
	Value Value
}

// Headers is an insertion-ordered collection of event headers. Names are
// unique within a frame; encoding rejects duplicates.
type Headers []Header

// Set replaces the value of an existing header or appends a new one.
func (hs *Headers) Set(name string, value Value) {
	for i := range *hs {
		if (*hs)[i].Name == name {
			(*hs)[i].Value = value
			return
		}
	}
	*hs = append(*hs, Header{Name: name, Value: value})
}

// Get returns the value for name, or nil if the header is absent.
func (hs Headers) Get(name string) Value {
	return hs.Lookup(name).OrElse(nil)
}

// Lookup returns the value for name, if present.
func (hs Headers) Lookup(name string) mo.Option[Value] {
	h, ok := lo.Find(hs, func(h Header) bool { return h.Name == name })
	if !ok {
		return mo.None[Value]()
	}
	return mo.Some(h.Value)
}

// GetString returns the string value for name. The second return is false
// when the header is absent or not a string.
func (hs Headers) GetString(name string) (string, bool) {
	v, ok := hs.Lookup(name).Get()
	if !ok {
		return "", false
	}
	s, ok := v.(StringValue)
	return string(s), ok
}

// Names returns the header names in insertion order.
func (hs Headers) Names() []string {
	return lo.Map(hs, func(h Header, _ int) string { return h.Name })
}

// Clone returns a shallow copy of the headers.
func (hs Headers) Clone() Headers {
	out := make(Headers, len(hs))
	copy(out, hs)
	return out
}
