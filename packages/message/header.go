package message

import (
	"sort"
	"strings"
)

// CanonicalHeaderName title-cases each word of a header name, e.g.
// "content-type" -> "Content-Type" and "X-API-KEY" -> "X-Api-Key".
func CanonicalHeaderName(name string) string {
	b := []byte(name)
	upper := true
	for i, c := range b {
		switch {
		case c >= 'a' && c <= 'z':
			if upper {
				b[i] = c - ('a' - 'A')
			}
			upper = false
		case c >= 'A' && c <= 'Z':
			if !upper {
				b[i] = c + ('a' - 'A')
			}
			upper = false
		case c >= '0' && c <= '9':
			upper = false
		default:
			upper = true
		}
	}
	return string(b)
}

// Header maps canonical header names to their values.
type Header map[string][]string

// Get returns the first value for name, or "".
func (h Header) Get(name string) string {
	values := h[CanonicalHeaderName(name)]
	if len(values) == 0 {
		return ""
	}
	return values[0]
}

// Values returns all values for name.
func (h Header) Values(name string) []string {
	return h[CanonicalHeaderName(name)]
}

// Line returns all values for name joined with a comma.
func (h Header) Line(name string) string {
	return strings.Join(h[CanonicalHeaderName(name)], ",")
}

func (h Header) Has(name string) bool {
	_, ok := h[CanonicalHeaderName(name)]
	return ok
}

// Set replaces the values stored under name.
func (h Header) Set(name string, values ...string) {
	h[CanonicalHeaderName(name)] = append([]string(nil), values...)
}

func (h Header) Del(name string) {
	delete(h, CanonicalHeaderName(name))
}

// Names returns the header names in sorted order.
func (h Header) Names() []string {
	names := make([]string, 0, len(h))
	for name := range h {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Clone returns a deep copy of h.
func (h Header) Clone() Header {
	if h == nil {
		return Header{}
	}
	out := make(Header, len(h))
	for name, values := range h {
		out[name] = append([]string(nil), values...)
	}
	return out
}

// environmentKey maps a header name to its HTTP_* environment key.
func environmentKey(name string) string {
	return "HTTP_" + strings.ToUpper(strings.ReplaceAll(name, "-", "_"))
}
