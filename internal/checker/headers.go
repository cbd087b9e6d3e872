package checker

import (
	"net/http"
	"sort"
	"strings"
)

// Header is one observed response header with its name as received.
type Header struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Headers is an ordered, case-preserving set of observed response headers.
// Lookups are case-insensitive and return the first match.
type Headers []Header

// HeadersFromMap converts a name/value map. Keys are sorted so that repeated
// conversions of the same map always produce the same order.
func HeadersFromMap(m map[string]string) Headers {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make(Headers, 0, len(names))
	for _, name := range names {
		out = append(out, Header{Name: name, Value: m[name]})
	}
	return out
}

// HeadersFromHTTP converts an http.Header. Repeated fields are joined with
// ", " the way HTTP list headers are combined.
func HeadersFromHTTP(h http.Header) Headers {
	names := make([]string, 0, len(h))
	for name := range h {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make(Headers, 0, len(names))
	for _, name := range names {
		out = append(out, Header{Name: name, Value: strings.Join(h[name], ", ")})
	}
	return out
}

// FindHeader searches headers for name, ignoring case.
func FindHeader(headers Headers, name string) (Header, bool) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Header{}, false
	}
	for _, h := range headers {
		if strings.EqualFold(strings.TrimSpace(h.Name), name) {
			return h, true
		}
	}
	return Header{}, false
}

// Get returns the value of the first header called name, or "".
func (h Headers) Get(name string) string {
	found, _ := FindHeader(h, name)
	return found.Value
}
