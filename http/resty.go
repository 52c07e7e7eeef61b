package http

import (
	"context"
	"time"

	"github.com/go-resty/resty/v2"
)

// RestyTransport executes requests with a go-resty client. Resty's retry
// machinery is switched off; a failed exchange is reported once.
type RestyTransport struct {
	client *resty.Client
}

// NewRestyTransport creates a RestyTransport with the given timeout. A zero
// timeout means 30 seconds.
func NewRestyTransport(timeout time.Duration) *RestyTransport {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	client := resty.New().
		SetTimeout(timeout).
		SetRetryCount(0)
	return &RestyTransport{client: client}
}

// NewRestyTransportWithClient wraps an existing resty client.
func NewRestyTransportWithClient(client *resty.Client) *RestyTransport {
	return &RestyTransport{client: client}
}

// Execute implements Transport.
func (t *RestyTransport) Execute(ctx context.Context, req *Request) (*Response, error) {
	r := t.client.R().
		SetContext(ctx).
		EnableTrace()
	r.Header = req.Header()
	if req.HasBody() {
		r.SetBody(req.Body())
	}

	resp, err := r.Execute(req.Method().String(), req.URL().String())
	if err != nil {
		return nil, err
	}

	trace := resp.Request.TraceInfo()
	return &Response{
		StatusCode: resp.StatusCode(),
		Status:     resp.Status(),
		Headers:    resp.Header(),
		Body:       resp.Body(),
		Timing: TimingInfo{
			StartTime:           resp.ReceivedAt().Add(-resp.Time()),
			DNSLookupTime:       trace.DNSLookup,
			TCPConnectTime:      trace.TCPConnTime,
			TLSHandshakeTime:    trace.TLSHandshake,
			TimeToFirstByte:     trace.ServerTime,
			ContentTransferTime: trace.ResponseTime,
			TotalTime:           trace.TotalTime,
		},
	}, nil
}
