package denly

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// MethodAny registers a route for every HTTP method.
const MethodAny = "*"

// routeInfo holds a registered route: the compiled pattern used for
// resolution and the metadata used for route listings.
type routeInfo struct {
	method  string
	pattern string
	name    string
	summary string
	tags    []string

	segments   []segment
	handler    Handler
	middleware []Middleware
}

// RouteOption configures a route at registration time.
type RouteOption func(*routeInfo)

// WithName sets the route name shown in route listings.
func WithName(name string) RouteOption {
	return func(ri *routeInfo) {
		ri.name = name
	}
}

// WithSummary sets a one-line description shown in route listings.
func WithSummary(s string) RouteOption {
	return func(ri *routeInfo) {
		ri.summary = s
	}
}

// WithTags adds tags to the route.
func WithTags(tags ...string) RouteOption {
	return func(ri *routeInfo) {
		ri.tags = append(ri.tags, tags...)
	}
}

type segmentKind int

const (
	segStatic   segmentKind = iota // literal text
	segParam                       // :name or :name<type>
	segWildcard                    // *name, binds the remaining segments
)

// segment is one compiled component of a route pattern.
type segment struct {
	kind  segmentKind
	text  string // literal for static segments, parameter name otherwise
	check func(string) bool
}

// placeholderTypes are the value checks available to typed placeholders.
var placeholderTypes = map[string]func(string) bool{
	"int": func(s string) bool {
		_, err := strconv.ParseInt(s, 10, 64)
		return err == nil
	},
	"float": func(s string) bool {
		_, err := strconv.ParseFloat(s, 64)
		return err == nil
	},
	"bool": func(s string) bool {
		_, err := strconv.ParseBool(s)
		return err == nil
	},
	"alpha": func(s string) bool {
		for _, r := range s {
			if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') {
				return false
			}
		}
		return s != ""
	},
	"uuid": func(s string) bool {
		return uuid.Validate(s) == nil
	},
}

// compilePattern turns a route pattern into matchable segments.
func compilePattern(pattern string) ([]segment, error) {
	parts := ParsePath(pattern)
	segments := make([]segment, 0, len(parts))

	for i, part := range parts {
		switch part[0] {
		case ':':
			seg, err := compileParam(part[1:])
			if err != nil {
				return nil, fmt.Errorf("pattern %q: %w", pattern, err)
			}
			segments = append(segments, seg)
		case '*':
			if i != len(parts)-1 {
				return nil, fmt.Errorf("pattern %q: wildcard must be the last segment", pattern)
			}
			if len(part) == 1 {
				return nil, fmt.Errorf("pattern %q: wildcard needs a name", pattern)
			}
			segments = append(segments, segment{kind: segWildcard, text: part[1:]})
		default:
			segments = append(segments, segment{kind: segStatic, text: unescapePath(part)})
		}
	}

	return segments, nil
}

// compileParam parses "name" or "name<type>".
func compileParam(def string) (segment, error) {
	name, typ, typed := strings.Cut(def, "<")
	if name == "" {
		return segment{}, fmt.Errorf("placeholder needs a name")
	}
	seg := segment{kind: segParam, text: name}
	if !typed {
		return seg, nil
	}

	typ, ok := strings.CutSuffix(typ, ">")
	if !ok {
		return segment{}, fmt.Errorf("placeholder %q: unterminated type", name)
	}
	check, ok := placeholderTypes[typ]
	if !ok {
		return segment{}, fmt.Errorf("placeholder %q: unknown type %q", name, typ)
	}
	seg.check = check
	return seg, nil
}

// match reports whether the route accepts method and path segments and
// returns the bound parameters in pattern order.
func (ri *routeInfo) match(method string, path []string) ([]Param, bool) {
	if !ri.accepts(method) {
		return nil, false
	}

	var params []Param
	for i, seg := range ri.segments {
		if seg.kind == segWildcard {
			rest := path[i:]
			if len(rest) == 0 || isRoot(rest) {
				return nil, false
			}
			values := make([]string, len(rest))
			for j, s := range rest {
				values[j] = unescapePath(s)
			}
			return append(params, Param{Name: seg.text, Value: strings.Join(values, "/")}), true
		}

		if i >= len(path) {
			return nil, false
		}
		value := unescapePath(path[i])

		switch seg.kind {
		case segStatic:
			if value != seg.text {
				return nil, false
			}
		case segParam:
			if path[i] == RootSegment && len(path) == 1 {
				return nil, false
			}
			if seg.check != nil && !seg.check(value) {
				return nil, false
			}
			params = append(params, Param{Name: seg.text, Value: value})
		}
	}

	if len(path) != len(ri.segments) {
		return nil, false
	}
	return params, true
}

// accepts reports whether the route serves method. GET routes also serve
// HEAD, as they do with http.ServeMux.
func (ri *routeInfo) accepts(method string) bool {
	switch ri.method {
	case MethodAny, method:
		return true
	case http.MethodGet:
		return method == http.MethodHead
	default:
		return false
	}
}

func unescapePath(s string) string {
	u, err := url.PathUnescape(s)
	if err != nil {
		return s
	}
	return u
}
