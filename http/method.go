package http

import (
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// Method is an HTTP request method.
//
// See https://tools.ietf.org/html/rfc7231#section-4.3
type Method string

// Supported HTTP methods.
const (
	MethodOptions Method = http.MethodOptions
	MethodGet     Method = http.MethodGet
	MethodHead    Method = http.MethodHead
	MethodPost    Method = http.MethodPost
	MethodPut     Method = http.MethodPut
	MethodPatch   Method = http.MethodPatch
	MethodDelete  Method = http.MethodDelete
	MethodTrace   Method = http.MethodTrace
	MethodConnect Method = http.MethodConnect
)

var methods = []Method{
	MethodOptions, MethodGet, MethodHead, MethodPost, MethodPut,
	MethodPatch, MethodDelete, MethodTrace, MethodConnect,
}

// ParseMethod returns the Method named by s, ignoring case.
func ParseMethod(s string) (Method, error) {
	upper := Method(strings.ToUpper(strings.TrimSpace(s)))
	for _, m := range methods {
		if m == upper {
			return m, nil
		}
	}
	return "", fmt.Errorf("unsupported HTTP method %q", s)
}

// String returns the wire form of the method.
func (m Method) String() string {
	return string(m)
}

// Valid reports whether m is one of the supported methods.
func (m Method) Valid() bool {
	for _, known := range methods {
		if known == m {
			return true
		}
	}
	return false
}

// encodesInURL reports whether method-dependent URL encoding places
// parameters in the query string for this method.
func (m Method) encodesInURL() bool {
	switch m {
	case MethodGet, MethodHead, MethodDelete:
		return true
	default:
		return false
	}
}

// Header is a set of HTTP header fields. Keys are matched case-insensitively
// once applied to a request.
type Header map[string]string

// apply writes the header fields into dst in sorted key order, so that
// keys differing only in case resolve the same way on every call.
func (h Header) apply(dst http.Header) {
	keys := make([]string, 0, len(h))
	for k := range h {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		dst.Set(k, h[k])
	}
}
