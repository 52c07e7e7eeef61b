package http

import (
	"fmt"
)

// Content types set by the parameter encodings.
const (
	ContentTypeJSON         = "application/json"
	ContentTypeForm         = "application/x-www-form-urlencoded; charset=utf-8"
	ContentTypePropertyList = "application/x-plist"
)

// ParameterEncoding applies a parameter payload to a request. Encode never
// modifies the request it is given; it returns a new one. On failure no
// request is returned.
type ParameterEncoding interface {
	Encode(rc RequestConvertible, params any) (*Request, error)
}

// Destination defines where URL-encoded parameters are placed.
type Destination int

const (
	// DestinationMethodDependent places parameters in the query string for
	// GET, HEAD and DELETE requests and in the body for any other method.
	DestinationMethodDependent Destination = iota
	// DestinationQueryString always appends parameters to the query string.
	DestinationQueryString
	// DestinationHTTPBody always places parameters in the body.
	DestinationHTTPBody
)

func (d Destination) String() string {
	switch d {
	case DestinationMethodDependent:
		return "method-dependent"
	case DestinationQueryString:
		return "query-string"
	case DestinationHTTPBody:
		return "http-body"
	default:
		return fmt.Sprintf("Destination(%d)", int(d))
	}
}

// ArrayEncoding configures how array parameters are keyed.
type ArrayEncoding int

const (
	// ArrayBrackets appends an empty pair of brackets to the key of every
	// element. This is the default.
	ArrayBrackets ArrayEncoding = iota
	// ArrayNoBrackets repeats the key as is.
	ArrayNoBrackets
)

func (a ArrayEncoding) key(key string) string {
	if a == ArrayNoBrackets {
		return key
	}
	return key + "[]"
}

// BoolEncoding configures how boolean parameters are rendered.
type BoolEncoding int

const (
	// BoolNumeric renders true as 1 and false as 0. This is the default.
	BoolNumeric BoolEncoding = iota
	// BoolLiteral renders true and false as literals.
	BoolLiteral
)

func (b BoolEncoding) value(v bool) string {
	switch {
	case b == BoolLiteral && v:
		return "true"
	case b == BoolLiteral:
		return "false"
	case v:
		return "1"
	default:
		return "0"
	}
}

// URLEncoding renders parameters as percent-escaped key=value pairs. The
// zero value is method-dependent with bracketed arrays and numeric booleans.
type URLEncoding struct {
	Destination   Destination
	ArrayEncoding ArrayEncoding
	BoolEncoding  BoolEncoding
}

// Encode implements ParameterEncoding.
func (e URLEncoding) Encode(rc RequestConvertible, params any) (*Request, error) {
	base, err := requestFrom(rc)
	if err != nil {
		return nil, err
	}
	req := base.clone()
	if params == nil {
		return req, nil
	}

	query, err := e.Query(params)
	if err != nil {
		return nil, err
	}

	if e.inURL(req.method) {
		if query != "" {
			req.url.RawQuery = appendQuery(req.url.RawQuery, query)
		}
		return req, nil
	}

	if req.header.Get("Content-Type") == "" {
		req.header.Set("Content-Type", ContentTypeForm)
	}
	req.body = []byte(query)
	return req, nil
}

// Query renders params as an encoded query string without touching a
// request.
func (e URLEncoding) Query(params any) (string, error) {
	data, err := JSONCoder{}.Encode(params)
	if err != nil {
		return "", &ParameterEncodingError{Reason: ReasonURLEncodingFailed, Err: err}
	}
	pairs, err := flatten(data, e.ArrayEncoding, e.BoolEncoding)
	if err != nil {
		return "", &ParameterEncodingError{Reason: ReasonURLEncodingFailed, Err: err}
	}
	return pairs.encode(), nil
}

func (e URLEncoding) inURL(m Method) bool {
	switch e.Destination {
	case DestinationQueryString:
		return true
	case DestinationHTTPBody:
		return false
	default:
		return m.encodesInURL()
	}
}

// JSONEncoding serializes parameters as the JSON body of the request.
type JSONEncoding struct {
	// Pretty writes indented JSON instead of the compact form.
	Pretty bool
}

// Encode implements ParameterEncoding.
func (e JSONEncoding) Encode(rc RequestConvertible, params any) (*Request, error) {
	base, err := requestFrom(rc)
	if err != nil {
		return nil, err
	}
	req := base.clone()
	if params == nil {
		return req, nil
	}

	coder := JSONCoder{}
	if e.Pretty {
		coder.Indent = "  "
	}
	data, err := coder.Encode(params)
	if err != nil {
		return nil, &ParameterEncodingError{Reason: ReasonJSONEncodingFailed, Err: err}
	}

	if req.header.Get("Content-Type") == "" {
		req.header.Set("Content-Type", ContentTypeJSON)
	}
	req.body = data
	return req, nil
}
