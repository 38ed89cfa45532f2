package denly

import "net/http"

// Registrar is the interface accepted by the registration functions.
// Both *Router and *Group implement it.
type Registrar interface {
	addRoute(ri routeInfo)
	routeMiddleware() []Middleware
}

func (r *Router) routeMiddleware() []Middleware { return nil }

// register compiles pattern and hands the route to reg. Malformed patterns
// panic, as they do with http.ServeMux.
func register(reg Registrar, method, pattern string, h Handler, opts ...RouteOption) {
	if h == nil {
		panic("denly: nil handler for " + method + " " + pattern)
	}

	ri := routeInfo{
		method:     method,
		pattern:    pattern,
		handler:    h,
		middleware: reg.routeMiddleware(),
	}
	for _, opt := range opts {
		opt(&ri)
	}

	reg.addRoute(ri)
}

// Handle registers a handler for an arbitrary method.
func Handle(reg Registrar, method, pattern string, h Handler, opts ...RouteOption) {
	register(reg, method, pattern, h, opts...)
}

// Get registers a GET handler.
func Get(reg Registrar, pattern string, h Handler, opts ...RouteOption) {
	register(reg, http.MethodGet, pattern, h, opts...)
}

// Post registers a POST handler.
func Post(reg Registrar, pattern string, h Handler, opts ...RouteOption) {
	register(reg, http.MethodPost, pattern, h, opts...)
}

// Put registers a PUT handler.
func Put(reg Registrar, pattern string, h Handler, opts ...RouteOption) {
	register(reg, http.MethodPut, pattern, h, opts...)
}

// Patch registers a PATCH handler.
func Patch(reg Registrar, pattern string, h Handler, opts ...RouteOption) {
	register(reg, http.MethodPatch, pattern, h, opts...)
}

// Delete registers a DELETE handler.
func Delete(reg Registrar, pattern string, h Handler, opts ...RouteOption) {
	register(reg, http.MethodDelete, pattern, h, opts...)
}

// Any registers a handler that matches every method.
func Any(reg Registrar, pattern string, h Handler, opts ...RouteOption) {
	register(reg, MethodAny, pattern, h, opts...)
}
