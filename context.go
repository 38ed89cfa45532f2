package denly

import (
	"context"
	"net/http"
	"sync"
)

// NoRedirect is the redirect target of a request whose handler did not
// redirect. An empty target means the same.
const NoRedirect = "#"

type contextKey[T any] struct{}

// SetValue stores a typed value in the request context. For use in middleware.
func SetValue[T any](r *http.Request, val T) *http.Request {
	ctx := context.WithValue(r.Context(), contextKey[T]{}, val)
	return r.WithContext(ctx)
}

// GetValue retrieves a typed value from the request context. For use in handlers.
func GetValue[T any](ctx context.Context) (T, bool) {
	val, ok := ctx.Value(contextKey[T]{}).(T)
	return val, ok
}

// Param is a value bound from a route placeholder.
type Param struct {
	Name  string
	Value string
}

// Context is the state of one request while it runs through the pipeline:
// the decoded arguments the handler reads and the response headers and
// redirect target the handler writes. Each in-flight request owns its own
// Context; it must not be retained after the handler returns.
type Context struct {
	req       *http.Request
	requestID string

	params []Param
	args   Arguments
	form   Arguments

	header   http.Header
	redirect string
}

var contextPool = sync.Pool{
	New: func() any { return new(Context) },
}

func acquireContext() *Context {
	//nolint:forcetypeassert // pool only holds *Context
	return contextPool.Get().(*Context)
}

func releaseContext(c *Context) {
	*c = Context{}
	contextPool.Put(c)
}

// reset prepares c for a new request. Nothing from a previous request
// survives it.
func (c *Context) reset(r *http.Request, args, form Arguments) {
	*c = Context{
		req:      r,
		args:     args,
		form:     form,
		header:   make(http.Header),
		redirect: NoRedirect,
	}
}

// FromContext returns the request Context stored in ctx by the pipeline.
func FromContext(ctx context.Context) (*Context, bool) {
	return GetValue[*Context](ctx)
}

// Request returns the underlying HTTP request.
func (c *Context) Request() *http.Request { return c.req }

// RequestID returns the request's correlation ID.
func (c *Context) RequestID() string { return c.requestID }

// Params returns the bound route parameters in pattern order.
func (c *Context) Params() []Param { return c.params }

// Param returns the bound route parameter with the given name, or "".
func (c *Context) Param(name string) string {
	for _, p := range c.params {
		if p.Name == name {
			return p.Value
		}
	}
	return ""
}

// Args returns the query-string arguments of a read-only request.
func (c *Context) Args() Arguments { return c.args }

// Form returns the body arguments of a mutating request.
func (c *Context) Form() Arguments { return c.form }

// Value returns the first query argument named key, falling back to the form.
func (c *Context) Value(key string) string {
	if arg, ok := c.args.Lookup(key); ok {
		return arg.Value
	}
	return c.form.Get(key)
}

// Header returns the response headers the handler wants sent.
func (c *Context) Header() http.Header { return c.header }

// Redirect asks the pipeline to send a 301 to target ahead of the regular
// response. A handler that redirects should not also return a body.
func (c *Context) Redirect(target string) { c.redirect = target }

// RedirectTarget returns the redirect target, or "" when none was set.
func (c *Context) RedirectTarget() string {
	if c.redirect == NoRedirect {
		return ""
	}
	return c.redirect
}
