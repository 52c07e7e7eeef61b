package http

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// SessionManager dispatches typed request descriptors to a Transport.
// Create one per API client, reuse it for every call, and Close it when
// done. A SessionManager is safe for concurrent use.
type SessionManager struct {
	id               string
	transport        Transport
	headers          Header
	limiter          *rate.Limiter
	logger           *zap.Logger
	metrics          *Metrics
	startImmediately bool

	// queue serializes submission bookkeeping.
	queue *serialQueue

	mu     sync.Mutex
	closed bool
	tasks  map[string]context.CancelFunc
}

// Option configures a SessionManager.
type Option func(*SessionManager)

// NewSessionManager creates a session manager. Without options it uses a
// NetTransport, logs nothing and starts requests immediately.
//
// Example:
//
//	manager := http.NewSessionManager(
//	    http.WithHeader("Accept", "application/json"),
//	    http.WithLogger(logger),
//	)
//	defer manager.Close()
func NewSessionManager(options ...Option) *SessionManager {
	m := &SessionManager{
		id:               uuid.NewString(),
		headers:          make(Header),
		logger:           zap.NewNop(),
		startImmediately: true,
		queue:            newSerialQueue(false),
		tasks:            make(map[string]context.CancelFunc),
	}
	for _, option := range options {
		option(m)
	}
	if m.transport == nil {
		m.transport = NewNetTransport()
	}
	m.logger = m.logger.With(zap.String("session_id", m.id))
	return m
}

// WithTransport sets the transport that executes wire requests.
func WithTransport(t Transport) Option {
	return func(m *SessionManager) {
		m.transport = t
	}
}

// WithHeader adds a default header to every dispatched request. Headers
// set by the descriptor or its encoding take precedence.
func WithHeader(key, value string) Option {
	return func(m *SessionManager) {
		m.headers[key] = value
	}
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger *zap.Logger) Option {
	return func(m *SessionManager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithMetrics records dispatch metrics into m.
func WithMetrics(metrics *Metrics) Option {
	return func(m *SessionManager) {
		m.metrics = metrics
	}
}

// WithRateLimit limits transport submissions to rps per second with the
// given burst. A non-positive rps disables limiting.
func WithRateLimit(rps float64, burst int) Option {
	return func(m *SessionManager) {
		if rps <= 0 {
			m.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		m.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithStartRequestsImmediately controls whether dispatched tasks are
// resumed right away. When false, callers must call Task.Resume.
func WithStartRequestsImmediately(start bool) Option {
	return func(m *SessionManager) {
		m.startImmediately = start
	}
}

// ID returns the session identifier.
func (m *SessionManager) ID() string { return m.id }

// Close cancels every in-flight task and rejects further dispatches with
// ErrSessionClosed. Close is idempotent.
func (m *SessionManager) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	cancels := make([]context.CancelFunc, 0, len(m.tasks))
	for _, cancel := range m.tasks {
		cancels = append(cancels, cancel)
	}
	m.mu.Unlock()

	for _, cancel := range cancels {
		cancel()
	}
	if c, ok := m.transport.(interface{ CloseIdleConnections() }); ok {
		c.CloseIdleConnections()
	}
	m.logger.Debug("session closed", zap.Int("cancelled", len(cancels)))
	return nil
}

// Dispatch builds the wire request for r and submits it to the transport.
// It never blocks on the network. When the request cannot be built the
// returned task has already failed with an *InvalidURLRequestError and no
// transport call is made.
//
// Example:
//
//	task := http.Dispatch[Item](ctx, manager, GetItem{ID: "42"})
//	result, err := task.Wait(ctx)
func Dispatch[T any](ctx context.Context, m *SessionManager, r Requestable) *Task[T] {
	if ctx == nil {
		ctx = context.Background()
	}
	t := newTask[T](m)

	req, err := AsRequest(r)
	if err != nil {
		m.logger.Warn("request build failed", zap.String("task_id", t.id), zap.Error(err))
		t.finish(Result[T]{Err: &InvalidURLRequestError{Err: err}})
		return t
	}
	t.resolve(m.decorate(req))

	submitted := false
	m.queue.sync(func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if m.closed {
			return
		}
		t.attach(ctx)
		m.tasks[t.id] = t.Cancel
		submitted = true
	})
	if !submitted {
		t.finish(Result[T]{Err: ErrSessionClosed})
		return t
	}

	m.logger.Debug("request submitted",
		zap.String("task_id", t.id),
		zap.String("method", req.Method().String()),
		zap.String("url", req.URL().String()),
	)
	if m.startImmediately {
		t.Resume()
	}
	return t
}

// DispatchFunc is the callback form of Dispatch. onComplete is invoked
// exactly once: synchronously when the request cannot be built, otherwise
// on a background goroutine after completion.
func DispatchFunc[T any](ctx context.Context, m *SessionManager, r Requestable, onComplete func(Result[T])) *Task[T] {
	t := Dispatch[T](ctx, m, r)
	if t.Request() == nil {
		onComplete(t.Result())
		return t
	}
	return t.Response(onComplete)
}

// decorate adds the default headers the request does not already carry.
func (m *SessionManager) decorate(req *Request) *Request {
	for key, value := range m.headers {
		if req.HeaderValue(key) == "" {
			req = req.WithHeader(key, value)
		}
	}
	return req
}

func (m *SessionManager) started() {
	if m.metrics != nil {
		m.metrics.RequestsInFlight.Inc()
	}
}

func (m *SessionManager) stopped() {
	if m.metrics != nil {
		m.metrics.RequestsInFlight.Dec()
	}
}

// completed records the end of a task in logs and metrics.
func (m *SessionManager) completed(id string, req *Request, resp *Response, err error, start time.Time) {
	m.mu.Lock()
	delete(m.tasks, id)
	m.mu.Unlock()

	method := ""
	if req != nil {
		method = req.Method().String()
	}
	outcome := outcomeOf(err)

	fields := []zap.Field{
		zap.String("task_id", id),
		zap.String("method", method),
		zap.String("outcome", outcome),
	}
	if req != nil {
		fields = append(fields, zap.String("url", req.URL().String()))
	}
	if resp != nil {
		fields = append(fields, zap.Int("status", resp.StatusCode), zap.Duration("duration", resp.Timing.TotalTime))
	} else if !start.IsZero() {
		fields = append(fields, zap.Duration("duration", time.Since(start)))
	}

	if err != nil {
		m.logger.Warn("request failed", append(fields, zap.Error(err))...)
	} else {
		m.logger.Debug("request completed", fields...)
	}

	if m.metrics != nil {
		label := NormalizeMethod(method)
		m.metrics.RequestsTotal.WithLabelValues(label, outcome).Inc()
		if resp != nil {
			m.metrics.RequestDuration.WithLabelValues(label).Observe(resp.Timing.TotalTime.Seconds())
		}
	}
}

// outcomeOf classifies a task error for metrics labels.
func outcomeOf(err error) string {
	var (
		transportErr *TransportError
		decodeErr    *DecodeError
	)
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrCancelled):
		return "cancelled"
	case errors.Is(err, ErrInvalidURLRequest):
		return "invalid_request"
	case errors.Is(err, ErrSessionClosed):
		return "session_closed"
	case errors.As(err, &decodeErr):
		return "decode_error"
	case errors.As(err, &transportErr) && transportErr.StatusCode != 0:
		return "status_error"
	default:
		return "transport_error"
	}
}
