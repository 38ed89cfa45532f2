package denly_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/bjaus/denly"
	"github.com/bjaus/denly/denlytest"
)

func newRoutesRouter() *denly.Router {
	r := denly.New()
	denly.Get(r, "/users/:id<int>", echoMethod, denly.WithName("user"), denly.WithSummary("Get a user"), denly.WithTags("users"))
	denly.Post(r, "/users", echoMethod)
	denly.Any(r, "/files/*path", echoMethod)
	return r
}

var wantRoutes = []denly.RouteInfo{
	{Method: http.MethodGet, Pattern: "/users/:id<int>", Name: "user", Summary: "Get a user", Tags: []string{"users"}},
	{Method: http.MethodPost, Pattern: "/users"},
	{Method: denly.MethodAny, Pattern: "/files/*path"},
}

func TestRoutes(t *testing.T) {
	t.Parallel()

	assert.Equal(t, wantRoutes, newRoutesRouter().Routes())
}

func TestWriteRoutes_json(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, newRoutesRouter().WriteRoutes(&buf))

	var got []denly.RouteInfo
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, wantRoutes, got)
	assert.Contains(t, buf.String(), "\n  {")
}

func TestWriteRoutes_yaml(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, newRoutesRouter().WriteRoutesYAML(&buf))

	var got []denly.RouteInfo
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, wantRoutes, got)
}

func TestServeRoutes(t *testing.T) {
	t.Parallel()

	r := newRoutesRouter()
	r.ServeRoutes("/_routes")

	c := denlytest.NewClient(t, r)

	t.Run("json by default", func(t *testing.T) {
		t.Parallel()

		resp, got := denlytest.GetJSON[[]denly.RouteInfo](t, c, "/_routes")
		assert.Equal(t, http.StatusOK, resp.Status)
		assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
		require.Len(t, got, 4)
		assert.Equal(t, "/_routes", got[3].Pattern)
		assert.Equal(t, "routes", got[3].Name)
	})

	t.Run("yaml when accepted", func(t *testing.T) {
		t.Parallel()

		req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, c.Server.URL+"/_routes", nil)
		require.NoError(t, err)
		req.Header.Set("Accept", "application/yaml")

		resp := c.Do(t, req)
		assert.Equal(t, "application/yaml", resp.Header.Get("Content-Type"))

		var got []map[string]any
		require.NoError(t, yaml.Unmarshal(resp.Body, &got))
		require.Len(t, got, 4)
		assert.Equal(t, "/users/:id<int>", got[0]["pattern"])
	})
}
