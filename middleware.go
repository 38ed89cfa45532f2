package denly

import "net/http"

// Middleware is the standard middleware signature compatible with the entire
// Go middleware ecosystem. Router middleware wraps the whole pipeline, so it
// sees every request before decoding and every response after composition.
// Group middleware runs after the route is resolved and only for that
// group's routes.
type Middleware func(next http.Handler) http.Handler

// chain wraps h so that mw[0] runs first.
func chain(h http.Handler, mw []Middleware) http.Handler {
	for i := len(mw) - 1; i >= 0; i-- {
		h = mw[i](h)
	}
	return h
}

// routeWriter records what group middleware wrote when it answers a request
// without calling the route.
type routeWriter struct {
	http.ResponseWriter
	status int
	size   int64
}

func (w *routeWriter) WriteHeader(code int) {
	if w.status == 0 {
		w.status = code
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *routeWriter) Write(p []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	n, err := w.ResponseWriter.Write(p)
	w.size += int64(n)
	return n, err
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (w *routeWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
