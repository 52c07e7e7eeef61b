package http

import (
	"errors"
	"net/http"
	"net/url"
)

// URLConvertible is implemented by values that can produce an absolute URL.
type URLConvertible interface {
	AsURL() (*url.URL, error)
}

// URLString is a URL in its textual form.
type URLString string

// AsURL parses s. The result must be absolute.
func (s URLString) AsURL() (*url.URL, error) {
	if s == "" {
		return nil, &InvalidURLError{Source: string(s), Err: errors.New("empty url")}
	}
	u, err := url.Parse(string(s))
	if err != nil {
		return nil, &InvalidURLError{Source: string(s), Err: err}
	}
	if !u.IsAbs() {
		return nil, &InvalidURLError{Source: string(s), Err: errors.New("url has no scheme")}
	}
	return u, nil
}

// Components is a URL described by its parts. Query values are appended
// after RawQuery.
type Components struct {
	Scheme   string
	User     *url.Userinfo
	Host     string
	Path     string
	RawQuery string
	Query    url.Values
	Fragment string
}

// AsURL assembles the components. Scheme and Host are required.
func (c Components) AsURL() (*url.URL, error) {
	if c.Scheme == "" {
		return nil, &InvalidURLError{Source: c, Err: errors.New("missing scheme")}
	}
	if c.Host == "" {
		return nil, &InvalidURLError{Source: c, Err: errors.New("missing host")}
	}
	u := &url.URL{
		Scheme:   c.Scheme,
		User:     c.User,
		Host:     c.Host,
		Path:     c.Path,
		RawQuery: c.RawQuery,
		Fragment: c.Fragment,
	}
	if len(c.Query) > 0 {
		u.RawQuery = appendQuery(u.RawQuery, c.Query.Encode())
	}
	return u, nil
}

type staticURL struct {
	u *url.URL
}

// FromURL wraps an already parsed URL.
func FromURL(u *url.URL) URLConvertible {
	return staticURL{u: u}
}

func (s staticURL) AsURL() (*url.URL, error) {
	if s.u == nil {
		return nil, &InvalidURLError{Source: s.u, Err: errors.New("nil url")}
	}
	return cloneURL(s.u), nil
}

// Resolve converts a URL-like value into an absolute URL. It accepts
// strings, *url.URL, url.URL, *net/http.Request and any URLConvertible,
// including *Request. Already-built URLs and requests resolve to a copy of
// their own URL.
func Resolve(value any) (*url.URL, error) {
	switch v := value.(type) {
	case nil:
		return nil, &InvalidURLError{Source: value, Err: errors.New("nil url")}
	case URLConvertible:
		return v.AsURL()
	case string:
		return URLString(v).AsURL()
	case *url.URL:
		return FromURL(v).AsURL()
	case url.URL:
		return FromURL(&v).AsURL()
	case *http.Request:
		if v == nil || v.URL == nil {
			return nil, &InvalidURLError{Source: value, Err: errors.New("request has no url")}
		}
		return cloneURL(v.URL), nil
	default:
		return nil, &InvalidURLError{Source: value, Err: errors.New("unsupported url type")}
	}
}

func cloneURL(u *url.URL) *url.URL {
	c := *u
	if u.User != nil {
		user := *u.User
		c.User = &user
	}
	return &c
}

// appendQuery joins an encoded query onto an existing one, keeping the
// existing pairs first.
func appendQuery(existing, encoded string) string {
	switch {
	case encoded == "":
		return existing
	case existing == "":
		return encoded
	default:
		return existing + "&" + encoded
	}
}
