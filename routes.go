package denly

import (
	"context"
	"encoding/json"
	"io"

	"gopkg.in/yaml.v3"
)

// RouteInfo describes a registered route.
type RouteInfo struct {
	Method  string   `json:"method" yaml:"method" xml:"method"`
	Pattern string   `json:"pattern" yaml:"pattern" xml:"pattern"`
	Name    string   `json:"name,omitempty" yaml:"name,omitempty" xml:"name,omitempty"`
	Summary string   `json:"summary,omitempty" yaml:"summary,omitempty" xml:"summary,omitempty"`
	Tags    []string `json:"tags,omitempty" yaml:"tags,omitempty" xml:"tag,omitempty"`
}

// Routes returns the route table in resolution order.
func (r *Router) Routes() []RouteInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]RouteInfo, len(r.routes))
	for i, ri := range r.routes {
		out[i] = RouteInfo{
			Method:  ri.method,
			Pattern: ri.pattern,
			Name:    ri.name,
			Summary: ri.summary,
			Tags:    ri.tags,
		}
	}
	return out
}

// ServeRoutes registers a GET route at pattern that answers with the route
// table, encoded per the request's Accept header.
func (r *Router) ServeRoutes(pattern string) {
	Get(r, pattern, func(_ context.Context, _ *Context) (any, error) {
		return r.Routes(), nil
	}, WithName("routes"), WithSummary("List registered routes"))
}

// WriteRoutes writes the route table as indented JSON to w.
func (r *Router) WriteRoutes(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r.Routes())
}

// WriteRoutesYAML writes the route table as YAML to w.
func (r *Router) WriteRoutesYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	if err := enc.Encode(r.Routes()); err != nil {
		return err
	}
	return enc.Close()
}
