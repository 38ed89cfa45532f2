package denly_test

import (
	"context"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/bjaus/denly"
	"github.com/bjaus/denly/denlytest"
)

func TestMatchPattern(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		pattern    string
		url        string
		wantOK     bool
		wantParams []denly.Param
	}{
		"root": {
			pattern: "/",
			url:     "/",
			wantOK:  true,
		},
		"root does not match segment": {
			pattern: "/",
			url:     "/users",
		},
		"static": {
			pattern: "/users/list",
			url:     "/users/list?page=2",
			wantOK:  true,
		},
		"static mismatch": {
			pattern: "/users/list",
			url:     "/users/all",
		},
		"extra segment": {
			pattern: "/users",
			url:     "/users/42",
		},
		"missing segment": {
			pattern: "/users/:id",
			url:     "/users",
		},
		"param": {
			pattern:    "/users/:id",
			url:        "/users/42",
			wantOK:     true,
			wantParams: []denly.Param{{Name: "id", Value: "42"}},
		},
		"param is unescaped": {
			pattern:    "/tags/:name",
			url:        "/tags/go%20lang",
			wantOK:     true,
			wantParams: []denly.Param{{Name: "name", Value: "go lang"}},
		},
		"param does not match root": {
			pattern: "/:slug",
			url:     "/",
		},
		"two params in order": {
			pattern: "/orgs/:org/repos/:repo",
			url:     "/orgs/acme/repos/web",
			wantOK:  true,
			wantParams: []denly.Param{
				{Name: "org", Value: "acme"},
				{Name: "repo", Value: "web"},
			},
		},
		"int accepts digits": {
			pattern:    "/users/:id<int>",
			url:        "/users/-7",
			wantOK:     true,
			wantParams: []denly.Param{{Name: "id", Value: "-7"}},
		},
		"int rejects text": {
			pattern: "/users/:id<int>",
			url:     "/users/me",
		},
		"float": {
			pattern:    "/price/:v<float>",
			url:        "/price/1.5",
			wantOK:     true,
			wantParams: []denly.Param{{Name: "v", Value: "1.5"}},
		},
		"bool rejects text": {
			pattern: "/flag/:on<bool>",
			url:     "/flag/maybe",
		},
		"alpha": {
			pattern:    "/lang/:code<alpha>",
			url:        "/lang/en",
			wantOK:     true,
			wantParams: []denly.Param{{Name: "code", Value: "en"}},
		},
		"alpha rejects digits": {
			pattern: "/lang/:code<alpha>",
			url:     "/lang/e1",
		},
		"uuid": {
			pattern:    "/orders/:id<uuid>",
			url:        "/orders/6ba7b810-9dad-11d1-80b4-00c04fd430c8",
			wantOK:     true,
			wantParams: []denly.Param{{Name: "id", Value: "6ba7b810-9dad-11d1-80b4-00c04fd430c8"}},
		},
		"uuid rejects text": {
			pattern: "/orders/:id<uuid>",
			url:     "/orders/42",
		},
		"wildcard binds rest": {
			pattern:    "/files/*path",
			url:        "/files/a/b//c.txt",
			wantOK:     true,
			wantParams: []denly.Param{{Name: "path", Value: "a/b/c.txt"}},
		},
		"wildcard needs a segment": {
			pattern: "/files/*path",
			url:     "/files",
		},
		"root wildcard does not match root": {
			pattern: "/*rest",
			url:     "/",
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			params, ok, err := denly.MatchPattern(tc.pattern, http.MethodGet, tc.url)
			require.NoError(t, err)
			assert.Equal(t, tc.wantOK, ok)
			if tc.wantOK {
				assert.Equal(t, tc.wantParams, params)
			}
		})
	}
}

func TestMatchPattern_method(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		method string
		wantOK bool
	}{
		"same method":    {method: http.MethodGet, wantOK: true},
		"head on get":    {method: http.MethodHead, wantOK: true},
		"other method":   {method: http.MethodPost},
		"options on get": {method: http.MethodOptions},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			_, ok, err := denly.MatchPattern("/users", tc.method, "/users")
			require.NoError(t, err)
			assert.Equal(t, tc.wantOK, ok)
		})
	}
}

func TestDispatch_head_does_not_reach_post_route(t *testing.T) {
	t.Parallel()

	r := denly.New()
	denly.Post(r, "/users", func(context.Context, *denly.Context) (any, error) {
		return "created", nil
	})

	c := denlytest.NewClient(t, r)
	resp := c.Request(t, http.MethodHead, "/users", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.Status)
}

func TestMatchPattern_invalid(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"wildcard not last":   "/files/*path/meta",
		"unnamed wildcard":    "/files/*",
		"unnamed placeholder": "/users/:",
		"unknown type":        "/users/:id<date>",
		"unterminated type":   "/users/:id<int",
		"unnamed typed":       "/users/:<int>",
	}

	for name, pattern := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			_, _, err := denly.MatchPattern(pattern, http.MethodGet, "/")
			assert.Error(t, err)
		})
	}
}

func TestRegister_invalid_pattern_panics(t *testing.T) {
	t.Parallel()

	r := denly.New()
	assert.PanicsWithValue(t, `denly: pattern "/users/:id<date>": placeholder "id": unknown type "date"`, func() {
		denly.Get(r, "/users/:id<date>", func(context.Context, *denly.Context) (any, error) {
			return nil, nil
		})
	})
}

func TestRegister_nil_handler_panics(t *testing.T) {
	t.Parallel()

	r := denly.New()
	assert.Panics(t, func() {
		denly.Get(r, "/", nil)
	})
}

func TestMatchPattern_properties(t *testing.T) {
	t.Parallel()

	rapid.Check(t, func(t *rapid.T) {
		parts := rapid.SliceOfN(rapid.SampledFrom([]string{"a", "b", ":x", ":n<int>"}), 0, 4).Draw(t, "pattern")
		segs := rapid.SliceOfN(rapid.SampledFrom([]string{"a", "b", "1", "42", "zz"}), 0, 5).Draw(t, "path")
		pattern := "/" + strings.Join(parts, "/")
		url := "/" + strings.Join(segs, "/")

		params, ok, err := denly.MatchPattern(pattern, http.MethodGet, url)
		if err != nil {
			t.Fatalf("compile %q: %v", pattern, err)
		}

		again, okAgain, _ := denly.MatchPattern(pattern, http.MethodGet, url)
		if ok != okAgain || !reflect.DeepEqual(params, again) {
			t.Fatalf("%q against %q is not deterministic", pattern, url)
		}
		if !ok {
			return
		}

		placeholders := 0
		for _, p := range parts {
			if strings.HasPrefix(p, ":") {
				placeholders++
			}
		}
		if len(params) != placeholders {
			t.Fatalf("%q against %q bound %d params, want %d", pattern, url, len(params), placeholders)
		}
		for _, p := range params {
			if _, err := strconv.Atoi(p.Value); p.Name == "n" && err != nil {
				t.Fatalf("int placeholder bound %q", p.Value)
			}
		}
	})
}
