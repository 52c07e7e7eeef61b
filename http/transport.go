package http

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"net/http/httptrace"
	"time"
)

// Transport executes wire requests. Implementations must be safe for
// concurrent use; the session manager calls Execute from one goroutine per
// task.
type Transport interface {
	Execute(ctx context.Context, req *Request) (*Response, error)
}

// TransportFunc adapts a function to the Transport interface.
type TransportFunc func(ctx context.Context, req *Request) (*Response, error)

// Execute calls f(ctx, req).
func (f TransportFunc) Execute(ctx context.Context, req *Request) (*Response, error) {
	return f(ctx, req)
}

// NetTransport executes requests with a *net/http.Client and records
// per-phase timing through httptrace.
type NetTransport struct {
	client *http.Client
}

// NetTransportOption configures a NetTransport.
type NetTransportOption func(*NetTransport)

// NewNetTransport creates a NetTransport. The default client has a 30
// second timeout.
func NewNetTransport(options ...NetTransportOption) *NetTransport {
	t := &NetTransport{
		client: &http.Client{Timeout: 30 * time.Second},
	}
	for _, option := range options {
		option(t)
	}
	return t
}

// WithTimeout sets the overall timeout of each exchange.
func WithTimeout(timeout time.Duration) NetTransportOption {
	return func(t *NetTransport) {
		t.client.Timeout = timeout
	}
}

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(client *http.Client) NetTransportOption {
	return func(t *NetTransport) {
		t.client = client
	}
}

// CloseIdleConnections releases idle connections of the underlying client.
func (t *NetTransport) CloseIdleConnections() {
	t.client.CloseIdleConnections()
}

// Execute implements Transport.
func (t *NetTransport) Execute(ctx context.Context, req *Request) (*Response, error) {
	timing := TimingInfo{StartTime: time.Now()}

	var dnsStart, connectStart, tlsStart time.Time
	var connectDone bool
	lastPhaseEnd := timing.StartTime

	trace := &httptrace.ClientTrace{
		DNSStart: func(httptrace.DNSStartInfo) {
			dnsStart = time.Now()
		},
		DNSDone: func(httptrace.DNSDoneInfo) {
			now := time.Now()
			timing.DNSLookupTime = now.Sub(dnsStart)
			lastPhaseEnd = now
		},
		ConnectStart: func(string, string) {
			connectStart = time.Now()
		},
		ConnectDone: func(_, _ string, err error) {
			if err != nil {
				return
			}
			now := time.Now()
			timing.TCPConnectTime = now.Sub(connectStart)
			connectDone = true
			lastPhaseEnd = now
		},
		TLSHandshakeStart: func() {
			tlsStart = time.Now()
		},
		TLSHandshakeDone: func(_ tls.ConnectionState, err error) {
			if err != nil || !connectDone {
				return
			}
			now := time.Now()
			timing.TLSHandshakeTime = now.Sub(tlsStart)
			lastPhaseEnd = now
		},
		GotFirstResponseByte: func() {
			timing.TimeToFirstByte = time.Since(lastPhaseEnd)
		},
	}

	httpReq, err := req.HTTPRequest(httptrace.WithClientTrace(ctx, trace))
	if err != nil {
		return nil, fmt.Errorf("build http request: %w", err)
	}

	httpResp, err := t.client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()

	transferStart := time.Now()
	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	timing.ContentTransferTime = time.Since(transferStart)
	timing.TotalTime = time.Since(timing.StartTime)

	return &Response{
		StatusCode: httpResp.StatusCode,
		Status:     httpResp.Status,
		Headers:    httpResp.Header,
		Body:       body,
		Timing:     timing,
	}, nil
}
