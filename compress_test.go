package denly_test

import (
	"compress/gzip"
	"context"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bjaus/denly"
	"github.com/bjaus/denly/denlytest"
)

func newCompressedClient(t *testing.T, body string, cfg ...denly.CompressConfig) *denlytest.Client {
	t.Helper()

	mw, err := denly.Compress(cfg...)
	require.NoError(t, err)

	r := denly.New()
	r.Use(mw)
	denly.Get(r, "/", func(_ context.Context, c *denly.Context) (any, error) {
		c.Header().Set("Content-Type", "application/json")
		return body, nil
	})
	return denlytest.NewClient(t, r)
}

func getWithEncoding(t *testing.T, c *denlytest.Client, encoding string) *denlytest.Response {
	t.Helper()

	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, c.Server.URL+"/", nil)
	require.NoError(t, err)
	if encoding != "" {
		req.Header.Set("Accept-Encoding", encoding)
	}
	return c.Do(t, req)
}

func TestCompress_gzip_large_json(t *testing.T) {
	t.Parallel()

	body := strings.Repeat(`{"key":"value"},`, 200) // >1024 bytes
	c := newCompressedClient(t, body)

	resp := getWithEncoding(t, c, "gzip")
	assert.Equal(t, http.StatusOK, resp.Status)
	assert.Equal(t, "gzip", resp.Header.Get("Content-Encoding"))
	assert.Equal(t, "Accept-Encoding", resp.Header.Get("Vary"))
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))

	gz, err := gzip.NewReader(strings.NewReader(resp.Text()))
	require.NoError(t, err)
	defer func() { require.NoError(t, gz.Close()) }()

	got, err := io.ReadAll(gz)
	require.NoError(t, err)
	assert.Equal(t, body, string(got))
}

func TestCompress_not_applied(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		body     string
		encoding string
		cfg      []denly.CompressConfig
	}{
		"no accept encoding": {
			body: strings.Repeat("hello world ", 200),
		},
		"small response": {
			body:     `{"ok":true}`,
			encoding: "gzip",
		},
		"below configured minimum": {
			body:     strings.Repeat("a", 300),
			encoding: "gzip",
			cfg:      []denly.CompressConfig{{MinSize: 4096}},
		},
		"content type not listed": {
			body:     strings.Repeat("hello world ", 200),
			encoding: "gzip",
			cfg:      []denly.CompressConfig{{Types: []string{"text/html"}}},
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			resp := getWithEncoding(t, newCompressedClient(t, tc.body, tc.cfg...), tc.encoding)

			assert.Equal(t, http.StatusOK, resp.Status)
			assert.Empty(t, resp.Header.Get("Content-Encoding"))
			assert.Equal(t, tc.body, resp.Text())
		})
	}
}

func TestCompress_invalid_level(t *testing.T) {
	t.Parallel()

	_, err := denly.Compress(denly.CompressConfig{Level: 42})
	assert.Error(t, err)
}
