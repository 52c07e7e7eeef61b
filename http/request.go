package http

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"
)

// Request is a fully resolved wire request: absolute URL, method, header
// and optional body. A Request is immutable; the accessors return copies and
// parameter encodings produce new requests.
type Request struct {
	url    *url.URL
	method Method
	header http.Header
	body   []byte
}

// RequestConvertible is implemented by values that can produce a wire
// request.
type RequestConvertible interface {
	AsRequest() (*Request, error)
}

// NewRequest resolves u and creates a request with the given method and
// header fields.
//
// Example:
//
//	req, err := http.NewRequest(http.URLString("https://api.example.com/items"),
//	    http.MethodGet, http.Header{"Accept": "application/json"})
func NewRequest(u URLConvertible, method Method, header Header) (*Request, error) {
	if u == nil {
		return nil, &InvalidURLError{Source: u, Err: errors.New("nil url")}
	}
	resolved, err := u.AsURL()
	if err != nil {
		return nil, err
	}
	if method == "" {
		method = MethodGet
	}
	r := &Request{
		url:    resolved,
		method: method,
		header: make(http.Header),
	}
	header.apply(r.header)
	return r, nil
}

// URL returns a copy of the request URL.
func (r *Request) URL() *url.URL {
	if r.url == nil {
		return nil
	}
	return cloneURL(r.url)
}

// Method returns the request method.
func (r *Request) Method() Method {
	return r.method
}

// Header returns a copy of the request header.
func (r *Request) Header() http.Header {
	return r.header.Clone()
}

// HeaderValue returns the first value of the named header field.
func (r *Request) HeaderValue(key string) string {
	return r.header.Get(key)
}

// Body returns a copy of the body, or nil when the request has none.
func (r *Request) Body() []byte {
	if r.body == nil {
		return nil
	}
	return bytes.Clone(r.body)
}

// HasBody reports whether a body is set.
func (r *Request) HasBody() bool {
	return r.body != nil
}

// AsURL returns the request URL, making a Request usable wherever a
// URL-like value is accepted.
func (r *Request) AsURL() (*url.URL, error) {
	if r == nil || r.url == nil {
		return nil, &InvalidURLError{Source: r, Err: errors.New("request has no url")}
	}
	return cloneURL(r.url), nil
}

// AsRequest returns r itself.
func (r *Request) AsRequest() (*Request, error) {
	return r, nil
}

// WithHeader returns a copy of r with the header field set.
func (r *Request) WithHeader(key, value string) *Request {
	c := r.clone()
	c.header.Set(key, value)
	return c
}

// HTTPRequest converts r into a *net/http.Request bound to ctx.
func (r *Request) HTTPRequest(ctx context.Context) (*http.Request, error) {
	var body io.Reader
	if r.body != nil {
		body = bytes.NewReader(r.body)
	}
	req, err := http.NewRequestWithContext(ctx, r.method.String(), r.url.String(), body)
	if err != nil {
		return nil, err
	}
	req.Header = r.header.Clone()
	return req, nil
}

func (r *Request) clone() *Request {
	c := &Request{
		method: r.method,
		header: r.header.Clone(),
	}
	if c.header == nil {
		c.header = make(http.Header)
	}
	if r.url != nil {
		c.url = cloneURL(r.url)
	}
	if r.body != nil {
		c.body = bytes.Clone(r.body)
	}
	return c
}

// requestFrom resolves a convertible into a request, reporting a missing
// request or URL as a parameter encoding failure.
func requestFrom(rc RequestConvertible) (*Request, error) {
	if rc == nil {
		return nil, &ParameterEncodingError{Reason: ReasonMissingURL}
	}
	req, err := rc.AsRequest()
	if err != nil || req == nil || req.url == nil {
		return nil, &ParameterEncodingError{Reason: ReasonMissingURL, Err: err}
	}
	return req, nil
}
