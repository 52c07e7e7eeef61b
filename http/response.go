package http

import (
	"net/http"
	"time"
)

// TimingInfo stores detailed timing information for an HTTP exchange.
// Phases the transport could not observe are left at zero.
type TimingInfo struct {
	// StartTime is when the transport started the exchange
	StartTime time.Time

	// DNSLookupTime is the time spent looking up the DNS address
	DNSLookupTime time.Duration

	// TCPConnectTime is the time spent establishing a TCP connection
	TCPConnectTime time.Duration

	// TLSHandshakeTime is the time spent performing the TLS handshake (for HTTPS)
	TLSHandshakeTime time.Duration

	// TimeToFirstByte is the time from the last completed connection phase to the first response byte
	TimeToFirstByte time.Duration

	// ContentTransferTime is the time spent reading the response body
	ContentTransferTime time.Duration

	// TotalTime is the total time from start to the end of the body
	TotalTime time.Duration
}

// Response is the raw outcome of a transport exchange. The body is read
// in full by the transport.
type Response struct {
	// StatusCode is the HTTP status code (e.g., 200, 404, 500)
	StatusCode int

	// Status is the HTTP status string (e.g., "200 OK")
	Status string

	// Headers contains the response headers
	Headers http.Header

	// Body is the complete response body
	Body []byte

	// Timing contains detailed timing information
	Timing TimingInfo
}

// String returns the body as a string.
func (r *Response) String() string {
	return string(r.Body)
}

// JSON decodes the body into v with the shared JSON coder.
func (r *Response) JSON(v any) error {
	return JSONCoder{}.Decode(r.Body, v)
}

// Header returns the first value of the named response header.
func (r *Response) Header(key string) string {
	return r.Headers.Get(key)
}

// IsSuccess returns true if the response status code is in the 2xx range
func (r *Response) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// IsRedirect returns true if the response status code is in the 3xx range
func (r *Response) IsRedirect() bool {
	return r.StatusCode >= 300 && r.StatusCode < 400
}

// IsClientError returns true if the response status code is in the 4xx range
func (r *Response) IsClientError() bool {
	return r.StatusCode >= 400 && r.StatusCode < 500
}

// IsServerError returns true if the response status code is in the 5xx range
func (r *Response) IsServerError() bool {
	return r.StatusCode >= 500 && r.StatusCode < 600
}

// ResponseTimeMillis returns the total exchange time in milliseconds.
func (r *Response) ResponseTimeMillis() int64 {
	return r.Timing.TotalTime.Milliseconds()
}
