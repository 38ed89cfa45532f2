package denly

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strconv"
	"time"
)

// requestMessage is the message of the per-request log record.
const requestMessage = "request"

// stage is a step of the per-request pipeline. Requests move through the
// stages strictly in order; stageFailed is terminal.
type stage int

const (
	stageReceived stage = iota
	stageDecoded
	stageResolved
	stageInvoked
	stageComposed
	stageSent
	stageFailed
)

func (s stage) String() string {
	switch s {
	case stageReceived:
		return "received"
	case stageDecoded:
		return "decoded"
	case stageResolved:
		return "resolved"
	case stageInvoked:
		return "invoked"
	case stageComposed:
		return "composed"
	case stageSent:
		return "sent"
	case stageFailed:
		return "failed"
	default:
		return "stage(" + strconv.Itoa(int(s)) + ")"
	}
}

// outcome is what a request ends up with before transmission: a body with
// status 200, or a failure with the stage it happened in and its status.
// An answered outcome was already written by group middleware.
type outcome struct {
	status   int
	body     any
	err      error
	at       stage
	answered bool
	size     int64
}

func (o outcome) failed() bool { return o.err != nil }

func failure(at stage, err error) outcome {
	return outcome{
		status: ErrorStatus(err),
		body:   errorBody(err),
		err:    err,
		at:     at,
	}
}

// dispatch runs one request through decode, resolve, invoke, compose, and
// transmit. Every failure stays inside this call.
func (r *Router) dispatch(w http.ResponseWriter, req *http.Request) {
	start := time.Now()

	c := acquireContext()
	defer releaseContext(c)

	if r.admission != nil {
		release, rejected := r.admission.admit(req)
		if rejected != nil {
			r.reject(w, req, rejected, start)
			return
		}
		defer release()
	}

	// Received → Decoded.
	path := ParsePath(req.URL.RequestURI())
	args, form, decodeErr := decodePayload(req, r.bodyLimit)
	c.reset(req, args, form)
	c.requestID = r.requestID(req)
	c.header.Set(r.requestIDHeader, c.requestID)

	ctx := context.WithValue(req.Context(), contextKey[*Context]{}, c)
	if decodeErr != nil {
		r.logger.LogAttrs(ctx, slog.LevelWarn, "request body dropped",
			slog.String("url", req.URL.RequestURI()),
			slog.String("request_id", c.requestID),
			slog.Any("err", decodeErr),
		)
	}

	// Decoded → Resolved → Invoked → Composed.
	resp, out := r.settle(ctx, w, req, c, path)
	if out.answered {
		r.logRequest(ctx, req, c, out, out.status, out.size, start)
		return
	}

	// Composed → Sent.
	status, size, err := r.send(w, req, c, resp)
	if err != nil {
		r.logger.LogAttrs(ctx, slog.LevelWarn, "response write failed",
			slog.String("url", req.URL.RequestURI()),
			slog.String("request_id", c.requestID),
			slog.Any("err", err),
		)
	}

	r.logRequest(ctx, req, c, out, status, size, start)

	// The status line is already out; dropping the connection is the only
	// way left to tell the client the body is incomplete.
	var pe *PanicError
	if errors.As(err, &pe) {
		panic(http.ErrAbortHandler)
	}
}

// settle resolves the route, invokes it, and composes the response. A panic
// in any of these steps, including one raised while turning the handler's
// error or body into a response, becomes an empty 500.
func (r *Router) settle(ctx context.Context, w http.ResponseWriter, req *http.Request, c *Context, path []string) (resp composed, out outcome) {
	at := stageInvoked
	defer func() {
		if rec := recover(); rec != nil {
			out = outcome{
				status: http.StatusInternalServerError,
				err:    &PanicError{Value: rec, Stack: debug.Stack()},
				at:     at,
			}
			resp = emptyResponse(out.status, c)
		}
	}()

	out = r.run(ctx, w, req, c, path)
	if out.answered {
		return composed{}, out
	}

	at = stageComposed
	return r.composeOutcome(req, c, out)
}

// run resolves the route and invokes its handler, through the route's group
// middleware when it has any.
func (r *Router) run(ctx context.Context, w http.ResponseWriter, req *http.Request, c *Context, path []string) outcome {
	m, ok := r.resolve(req.Method, path)
	if !ok {
		return outcome{status: http.StatusNotFound, err: ErrNotFound, at: stageResolved}
	}
	c.params = m.params

	if len(m.route.middleware) == 0 {
		return call(ctx, m.route.handler, c)
	}
	return r.runChain(ctx, w, req, c, m.route)
}

// runChain passes the request through the route's group middleware. The
// handler's response is written after the chain returns; middleware that
// does not call the next handler answers the request itself.
func (r *Router) runChain(ctx context.Context, w http.ResponseWriter, req *http.Request, c *Context, ri *routeInfo) outcome {
	var (
		out     outcome
		reached bool
	)
	h := chain(http.HandlerFunc(func(_ http.ResponseWriter, inner *http.Request) {
		reached = true
		c.req = inner
		out = call(inner.Context(), ri.handler, c)
	}), ri.middleware)

	w.Header().Set(r.requestIDHeader, c.requestID)
	rw := &routeWriter{ResponseWriter: w}
	h.ServeHTTP(rw, req.WithContext(ctx))
	if reached {
		return out
	}

	status := rw.status
	if status == 0 {
		status = http.StatusOK
	}
	return outcome{status: status, at: stageInvoked, answered: true, size: rw.size}
}

// call invokes h and turns its result into an outcome.
func call(ctx context.Context, h Handler, c *Context) outcome {
	body, err := invoke(ctx, h, c)
	if err != nil {
		return failure(stageInvoked, err)
	}
	return outcome{status: http.StatusOK, body: body}
}

// invoke calls h, converting a panic into a *PanicError.
func invoke(ctx context.Context, h Handler, c *Context) (body any, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			body = nil
			err = &PanicError{Value: rec, Stack: debug.Stack()}
		}
	}()
	return h(ctx, c)
}

// composeOutcome renders the outcome. A body that cannot be encoded turns
// the request into a 500.
func (r *Router) composeOutcome(req *http.Request, c *Context, out outcome) (composed, outcome) {
	if out.failed() && out.body == nil {
		return emptyResponse(out.status, c), out
	}

	resp, err := r.compose(req, c, out.status, out.body)
	if err != nil {
		out = outcome{status: http.StatusInternalServerError, err: err, at: stageComposed}
		return emptyResponse(out.status, c), out
	}
	return resp, out
}

// send transmits resp, converting a panic while the body is streamed into
// a *PanicError.
func (r *Router) send(w http.ResponseWriter, req *http.Request, c *Context, resp composed) (status int, size int64, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			status = resp.status
			err = &PanicError{Value: rec, Stack: debug.Stack()}
		}
	}()
	return r.transmit(w, req, c, resp)
}

// transmit writes the response. When the handler set a redirect, a 301 goes
// out first and the regular response follows on the same connection, which
// is then closed. Transports that cannot carry two responses only get the
// redirect. It returns the status of the last response sent.
func (r *Router) transmit(w http.ResponseWriter, req *http.Request, c *Context, resp composed) (int, int64, error) {
	target := c.RedirectTarget()
	if target == "" {
		return resp.status, resp.writeTo(w, req), nil
	}

	redirect := composed{
		status: http.StatusMovedPermanently,
		header: http.Header{"Location": {target}},
	}
	redirect.header.Set(r.requestIDHeader, c.requestID)

	conn, bw, err := http.NewResponseController(w).Hijack()
	if err != nil {
		if !errors.Is(err, http.ErrNotSupported) {
			return resp.status, 0, err
		}
		r.logger.LogAttrs(req.Context(), slog.LevelWarn, "connection cannot carry redirect and response; response dropped",
			slog.String("url", req.URL.RequestURI()),
			slog.String("location", target),
		)
		redirect.writeTo(w, req)
		return redirect.status, 0, nil
	}
	defer func() {
		//nolint:errcheck,gosec // connection is done either way
		conn.Close()
	}()

	base := w.Header()
	redirect.header = mergeHeader(base, redirect.header)
	resp.header = mergeHeader(base, resp.header)

	if _, err := redirect.writeWire(bw.Writer, req, false); err != nil {
		return resp.status, 0, err
	}
	n, err := resp.writeWire(bw.Writer, req, true)
	return resp.status, n, err
}

// mergeHeader returns base overlaid with over.
func mergeHeader(base, over http.Header) http.Header {
	h := base.Clone()
	if h == nil {
		h = make(http.Header, len(over))
	}
	for k, v := range over {
		h[k] = v
	}
	return h
}

// reject answers a request the admission policy turned away.
func (r *Router) reject(w http.ResponseWriter, req *http.Request, rej *rejection, start time.Time) {
	if rej.retryAfter != "" {
		w.Header().Set("Retry-After", rej.retryAfter)
	}
	w.WriteHeader(rej.status)

	r.logger.LogAttrs(req.Context(), slog.LevelWarn, requestMessage,
		slog.String("proto", req.Proto),
		slog.String("method", req.Method),
		slog.String("url", req.URL.RequestURI()),
		slog.Int("status", rej.status),
		slog.Duration("latency", time.Since(start)),
		slog.String("stage", stageReceived.String()),
		slog.String("err", rej.reason),
	)
}

// logRequest emits the per-request record on the terminal transition.
func (r *Router) logRequest(ctx context.Context, req *http.Request, c *Context, out outcome, status int, size int64, start time.Time) {
	attrs := []slog.Attr{
		slog.String("proto", req.Proto),
		slog.String("method", req.Method),
		slog.String("url", req.URL.RequestURI()),
		slog.Int("status", status),
		slog.Duration("latency", time.Since(start)),
		slog.Int64("size", size),
		slog.String("request_id", c.requestID),
	}
	if target := c.RedirectTarget(); target != "" {
		attrs = append(attrs, slog.String("location", target))
	}

	level := slog.LevelInfo
	if out.failed() {
		attrs = append(attrs,
			slog.String("stage", out.at.String()),
			slog.String("err", out.err.Error()),
		)
		if status >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		var pe *PanicError
		if errors.As(out.err, &pe) && r.debug {
			attrs = append(attrs, slog.String("stack", string(pe.Stack)))
		}
	}

	r.logger.LogAttrs(ctx, level, requestMessage, attrs...)
}
