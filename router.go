package denly

import (
	"log/slog"
	"net/http"
	"sync"
	"time"
)

// Router is the central type that holds routes, middleware, and configuration.
// It implements http.Handler.
type Router struct {
	middleware []Middleware
	routes     []routeInfo

	logger *slog.Logger
	debug  bool

	bodyLimit       int64
	requestIDHeader string
	codecs          *codecRegistry
	encoders        []Encoder

	admission *admission

	memoryInterval  time.Duration
	reclaim         func()
	shutdownTimeout time.Duration

	mu sync.RWMutex
}

// RouterOption configures a Router.
type RouterOption func(*Router)

// WithLogger sets the logger used for request lines and lifecycle events.
func WithLogger(l *slog.Logger) RouterOption {
	return func(r *Router) {
		r.logger = l
	}
}

// WithDebug turns on debug mode. The server warns about it at startup.
func WithDebug(debug bool) RouterOption {
	return func(r *Router) {
		r.debug = debug
	}
}

// WithBodyLimit caps how many body bytes are buffered for decoding. Larger
// bodies decode to an empty form.
func WithBodyLimit(maxBytes int64) RouterOption {
	return func(r *Router) {
		r.bodyLimit = maxBytes
	}
}

// WithRequestIDHeader sets the header carrying request IDs (default X-Request-ID).
func WithRequestIDHeader(name string) RouterOption {
	return func(r *Router) {
		r.requestIDHeader = name
	}
}

// WithEncoder registers an additional response encoder.
func WithEncoder(enc Encoder) RouterOption {
	return func(r *Router) {
		r.encoders = append(r.encoders, enc)
	}
}

// WithAdmission bounds how many requests run at once and how fast clients
// may send them. Without it admission is unbounded.
func WithAdmission(cfg AdmissionConfig) RouterOption {
	return func(r *Router) {
		r.admission = newAdmission(cfg)
	}
}

// WithMemoryInterval sets how often the memory monitor runs a reclamation
// pass while the server is up. Zero or negative disables it.
func WithMemoryInterval(d time.Duration) RouterOption {
	return func(r *Router) {
		r.memoryInterval = d
	}
}

// WithReclaimer replaces the memory monitor's reclamation pass.
func WithReclaimer(fn func()) RouterOption {
	return func(r *Router) {
		r.reclaim = fn
	}
}

// WithShutdownTimeout bounds how long a graceful shutdown waits for
// in-flight requests (default 30s).
func WithShutdownTimeout(d time.Duration) RouterOption {
	return func(r *Router) {
		r.shutdownTimeout = d
	}
}

// New creates a new Router with the given options.
func New(opts ...RouterOption) *Router {
	r := &Router{
		logger:          slog.Default(),
		bodyLimit:       defaultBodyLimit,
		requestIDHeader: defaultRequestIDHeader,
		memoryInterval:  defaultMemoryInterval,
		shutdownTimeout: 30 * time.Second,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.codecs = newCodecRegistry(r.encoders)
	return r
}

// Use adds middleware to the router. Middleware is applied in the order added.
func (r *Router) Use(mw ...Middleware) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.middleware = append(r.middleware, mw...)
}

// ServeHTTP implements http.Handler.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mu.RLock()
	mw := r.middleware
	r.mu.RUnlock()

	chain(http.HandlerFunc(r.dispatch), mw).ServeHTTP(w, req)
}

// addRoute compiles and stores a route. Routes resolve in the order they
// were added.
func (r *Router) addRoute(ri routeInfo) {
	segments, err := compilePattern(ri.pattern)
	if err != nil {
		panic("denly: " + err.Error())
	}
	ri.segments = segments

	r.mu.Lock()
	defer r.mu.Unlock()
	r.routes = append(r.routes, ri)
}

// match is a resolved route: the handler and its bound parameters.
type match struct {
	route  *routeInfo
	params []Param
}

// resolve returns the first registered route accepting method and path.
func (r *Router) resolve(method string, path []string) (match, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for i := range r.routes {
		if params, ok := r.routes[i].match(method, path); ok {
			return match{route: &r.routes[i], params: params}, true
		}
	}
	return match{}, false
}
