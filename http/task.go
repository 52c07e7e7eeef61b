package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
)

// State is the lifecycle stage of a task.
type State int32

const (
	// StateCreated is a task whose wire request has not been built yet.
	StateCreated State = iota
	// StateResolved is a task with a built wire request.
	StateResolved
	// StateSubmitted is a task handed to the session manager's transport.
	StateSubmitted
	// StateSucceeded is a task that completed with a decoded value.
	StateSucceeded
	// StateFailed is a task that completed with an error.
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateResolved:
		return "resolved"
	case StateSubmitted:
		return "submitted"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Result is the outcome of one dispatch: either a decoded value or an
// error. Response is set whenever the transport returned one.
type Result[T any] struct {
	Value    T
	Response *Response
	Err      error
}

// IsSuccess reports whether the result carries a value.
func (r Result[T]) IsSuccess() bool {
	return r.Err == nil
}

// Task is one in-flight dispatch. Its completion is delivered exactly once,
// through Done/Wait/Result and to every handler registered with Response.
type Task[T any] struct {
	id      string
	manager *SessionManager

	// queue starts suspended and is released on completion. Its first
	// operation records the end time and its second closes done; completion
	// handlers follow in registration order.
	queue *serialQueue
	done  chan struct{}
	once  sync.Once

	mu         sync.Mutex
	state      State
	request    *Request
	ctx        context.Context
	cancel     context.CancelFunc
	gate       *gate
	launched   bool
	startTime  time.Time
	endTime    time.Time
	retryCount uint
	result     Result[T]
}

func newTask[T any](m *SessionManager) *Task[T] {
	t := &Task[T]{
		id:      uuid.NewString(),
		manager: m,
		queue:   newSerialQueue(true),
		done:    make(chan struct{}),
		state:   StateCreated,
	}
	t.queue.async(func() {
		t.mu.Lock()
		t.endTime = time.Now()
		t.mu.Unlock()
	})
	t.queue.async(func() { close(t.done) })
	return t
}

// ID returns the task identifier used in logs.
func (t *Task[T]) ID() string { return t.id }

// State returns the current lifecycle state.
func (t *Task[T]) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Request returns the wire request, or nil if it could not be built.
func (t *Task[T]) Request() *Request {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.request
}

// RetryCount returns the number of times the request has been retried.
// Tasks are never retried automatically, so this stays zero unless a
// caller-side policy re-dispatches.
func (t *Task[T]) RetryCount() uint {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.retryCount
}

// StartTime returns when the task was first resumed.
func (t *Task[T]) StartTime() time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.startTime
}

// EndTime returns when completion was recorded. It is set before Done is
// closed.
func (t *Task[T]) EndTime() time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.endTime
}

// Done is closed once the task has completed.
func (t *Task[T]) Done() <-chan struct{} { return t.done }

// Result returns the completion result. It is the zero Result until Done
// is closed.
func (t *Task[T]) Result() Result[T] {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.result
}

// Wait blocks until the task completes or ctx ends. The returned error is
// the result's error, or ctx's error if waiting was abandoned.
func (t *Task[T]) Wait(ctx context.Context) (Result[T], error) {
	select {
	case <-t.done:
		r := t.Result()
		return r, r.Err
	case <-ctx.Done():
		return Result[T]{}, ctx.Err()
	}
}

// Response registers a completion handler. Handlers run once, after
// completion, one at a time in registration order, on a background
// goroutine.
func (t *Task[T]) Response(handler func(Result[T])) *Task[T] {
	t.queue.async(func() { handler(t.Result()) })
	return t
}

// Resume starts the underlying transport exchange if it has not started
// and releases a suspended task. The start time is recorded once. Resume
// is a no-op when the task has no underlying exchange.
func (t *Task[T]) Resume() {
	t.mu.Lock()
	if t.gate == nil {
		t.mu.Unlock()
		return
	}
	if t.startTime.IsZero() {
		t.startTime = time.Now()
	}
	launch := !t.launched && t.state == StateSubmitted
	t.launched = true
	g := t.gate
	t.mu.Unlock()

	g.open()
	if launch {
		go t.run()
	}
}

// Suspend holds the task: an exchange that has not started waits, and the
// completion of one in flight is not delivered until Resume or Cancel.
// Suspend is a no-op when the task has no underlying exchange.
func (t *Task[T]) Suspend() {
	t.mu.Lock()
	g := t.gate
	t.mu.Unlock()
	if g != nil {
		g.close()
	}
}

// Cancel aborts the task. Completion is still delivered once, with
// ErrCancelled. Cancel is a no-op when the task has no underlying exchange.
func (t *Task[T]) Cancel() {
	t.mu.Lock()
	cancel := t.cancel
	launched := t.launched
	t.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	if !launched {
		t.finish(Result[T]{Err: ErrCancelled})
	}
}

func (t *Task[T]) resolve(req *Request) {
	t.mu.Lock()
	t.request = req
	t.state = StateResolved
	t.mu.Unlock()
}

// attach creates the underlying exchange state. It runs on the session
// manager's queue.
func (t *Task[T]) attach(parent context.Context) {
	ctx, cancel := context.WithCancel(parent)
	t.mu.Lock()
	t.ctx = ctx
	t.cancel = cancel
	t.gate = newGate(false)
	t.state = StateSubmitted
	t.mu.Unlock()
}

func (t *Task[T]) run() {
	m := t.manager
	m.started()
	defer m.stopped()

	if err := t.gate.wait(t.ctx); err != nil {
		t.finish(Result[T]{Err: contextError(err)})
		return
	}
	if m.limiter != nil {
		if err := m.limiter.Wait(t.ctx); err != nil {
			t.finish(Result[T]{Err: contextError(err)})
			return
		}
	}

	resp, err := m.transport.Execute(t.ctx, t.request)

	// A suspended task holds its completion until resumed.
	if werr := t.gate.wait(t.ctx); werr != nil {
		t.finish(Result[T]{Response: resp, Err: contextError(werr)})
		return
	}
	if err != nil {
		if ctxErr := t.ctx.Err(); ctxErr != nil {
			err = contextError(ctxErr)
		} else {
			err = &TransportError{Err: err}
		}
		t.finish(Result[T]{Err: err})
		return
	}
	t.finish(decodeResult[T](resp))
}

func (t *Task[T]) finish(result Result[T]) {
	t.once.Do(func() {
		t.mu.Lock()
		t.result = result
		if result.Err == nil {
			t.state = StateSucceeded
		} else {
			t.state = StateFailed
		}
		cancel := t.cancel
		req := t.request
		start := t.startTime
		t.mu.Unlock()

		if cancel != nil {
			cancel()
		}
		t.manager.completed(t.id, req, result.Response, result.Err, start)
		t.queue.resume()
	})
}

// contextError maps a context error to the task's error: cancellation
// becomes ErrCancelled, anything else is a transport failure.
func contextError(err error) error {
	if errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %w", ErrCancelled, err)
	}
	return &TransportError{Err: err}
}

// decodeResult turns a transport response into a Result. Non-2xx statuses
// fail; []byte receives the raw body; string receives a JSON string body
// decoded and any other body as raw text; empty bodies decode to the
// zero value; anything else goes through the JSON coder.
func decodeResult[T any](resp *Response) Result[T] {
	r := Result[T]{Response: resp}
	if resp == nil {
		r.Err = &TransportError{Err: errors.New("transport returned no response")}
		return r
	}
	if !resp.IsSuccess() {
		status := resp.Status
		if status == "" {
			status = fmt.Sprintf("%d %s", resp.StatusCode, http.StatusText(resp.StatusCode))
		}
		r.Err = &TransportError{StatusCode: resp.StatusCode, Err: errors.New(status)}
		return r
	}

	switch v := any(&r.Value).(type) {
	case *[]byte:
		*v = bytes.Clone(resp.Body)
		return r
	case *string:
		// A JSON string body decodes to its contents; any other body is
		// taken as text.
		if body := bytes.TrimSpace(resp.Body); len(body) > 0 && body[0] == '"' {
			if err := json.Unmarshal(body, v); err == nil {
				return r
			}
		}
		*v = string(resp.Body)
		return r
	}

	if len(bytes.TrimSpace(resp.Body)) == 0 {
		return r
	}
	if err := (JSONCoder{}).Decode(resp.Body, &r.Value); err != nil {
		r.Err = err
	}
	return r
}

// gate is a reopenable barrier used to implement Suspend and Resume.
type gate struct {
	mu     sync.Mutex
	isOpen bool
	ch     chan struct{}
}

func newGate(open bool) *gate {
	g := &gate{isOpen: open, ch: make(chan struct{})}
	if open {
		close(g.ch)
	}
	return g
}

func (g *gate) open() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.isOpen {
		g.isOpen = true
		close(g.ch)
	}
}

func (g *gate) close() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.isOpen {
		g.isOpen = false
		g.ch = make(chan struct{})
	}
}

// wait returns nil once the gate is open, or ctx's error. A done context
// wins over an open gate.
func (g *gate) wait(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	g.mu.Lock()
	ch := g.ch
	g.mu.Unlock()
	select {
	case <-ch:
		return ctx.Err()
	case <-ctx.Done():
		return ctx.Err()
	}
}
