package http

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidURL matches any InvalidURLError.
	ErrInvalidURL = errors.New("invalid url")

	// ErrParameterEncodingFailed matches any ParameterEncodingError.
	ErrParameterEncodingFailed = errors.New("parameter encoding failed")

	// ErrInvalidURLRequest matches any InvalidURLRequestError.
	ErrInvalidURLRequest = errors.New("invalid url request")

	// ErrCancelled is the result error of a task cancelled before it completed.
	ErrCancelled = errors.New("request cancelled")

	// ErrSessionClosed is returned for dispatches on a closed SessionManager.
	ErrSessionClosed = errors.New("session manager closed")
)

// InvalidURLError reports a URL-like value that could not be resolved
// to an absolute URL.
type InvalidURLError struct {
	Source any
	Err    error
}

func (e *InvalidURLError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid url: %v: %v", e.Source, e.Err)
	}
	return fmt.Sprintf("invalid url: %v", e.Source)
}

func (e *InvalidURLError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrInvalidURL) hold.
func (e *InvalidURLError) Is(target error) bool { return target == ErrInvalidURL }

// EncodingFailureReason is the underlying reason a parameter encoding failed.
type EncodingFailureReason int

const (
	// ReasonMissingURL means the request to encode had no URL.
	ReasonMissingURL EncodingFailureReason = iota + 1
	// ReasonJSONEncodingFailed means JSON serialization of the parameters failed.
	ReasonJSONEncodingFailed
	// ReasonPropertyListEncodingFailed means property list serialization failed.
	ReasonPropertyListEncodingFailed
	// ReasonURLEncodingFailed means the parameters could not be rendered as
	// key/value pairs.
	ReasonURLEncodingFailed
)

func (r EncodingFailureReason) String() string {
	switch r {
	case ReasonMissingURL:
		return "URL request to encode was missing a URL"
	case ReasonJSONEncodingFailed:
		return "JSON could not be encoded"
	case ReasonPropertyListEncodingFailed:
		return "property list could not be encoded"
	case ReasonURLEncodingFailed:
		return "parameters could not be URL encoded"
	default:
		return "unknown encoding failure"
	}
}

// ParameterEncodingError reports a failure to apply parameters to a request.
type ParameterEncodingError struct {
	Reason EncodingFailureReason
	Err    error
}

func (e *ParameterEncodingError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("parameter encoding failed: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("parameter encoding failed: %s", e.Reason)
}

func (e *ParameterEncodingError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrParameterEncodingFailed) hold.
func (e *ParameterEncodingError) Is(target error) bool { return target == ErrParameterEncodingFailed }

// InvalidURLRequestError is the dispatch error for a descriptor that could
// not be built into a wire request. Err holds the cause.
type InvalidURLRequestError struct {
	Err error
}

func (e *InvalidURLRequestError) Error() string {
	return fmt.Sprintf("invalid url request: %v", e.Err)
}

func (e *InvalidURLRequestError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrInvalidURLRequest) hold.
func (e *InvalidURLRequestError) Is(target error) bool { return target == ErrInvalidURLRequest }

// TransportError is a network-level failure. StatusCode is set when the
// server answered with a non-2xx status; otherwise Err carries the
// transport's error unmodified.
type TransportError struct {
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("transport: unacceptable status code %d: %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("transport: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// DecodeError reports a response body, or a date field, that did not match
// the expected shape. Path is the dotted field path when known.
type DecodeError struct {
	Path     string
	Expected string
	Err      error
}

func (e *DecodeError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("decode: field %q: expected %s: %v", e.Path, e.Expected, e.Err)
	}
	return fmt.Sprintf("decode: expected %s: %v", e.Expected, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// IsInvalidURL reports whether err is, or wraps, an InvalidURLError.
func IsInvalidURL(err error) bool {
	return errors.Is(err, ErrInvalidURL)
}

// IsParameterEncodingFailed reports whether err is, or wraps, a
// ParameterEncodingError.
func IsParameterEncodingFailed(err error) bool {
	return errors.Is(err, ErrParameterEncodingFailed)
}
