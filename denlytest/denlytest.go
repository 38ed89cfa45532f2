// Package denlytest provides test helpers for denly routers.
package denlytest

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"
)

// Client wraps an httptest.Server for convenient router testing. It never
// follows redirects, never negotiates compression, and opens a fresh
// connection per request.
type Client struct {
	Server *httptest.Server
	HTTP   *http.Client
}

// NewClient starts a test server for h and returns a client for it.
func NewClient(t testing.TB, h http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return &Client{
		Server: srv,
		HTTP: &http.Client{
			Transport: &http.Transport{
				DisableCompression: true,
				DisableKeepAlives:  true,
			},
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

// Response holds a fully read response.
type Response struct {
	Status        int
	Header        http.Header
	Body          []byte
	ContentLength int64
	Close         bool // the server asked to close the connection
}

// Text returns the body as a string.
func (r *Response) Text() string {
	return string(r.Body)
}

// Do sends req and reads the whole response.
func (c *Client) Do(t testing.TB, req *http.Request) *Response {
	t.Helper()

	resp, err := c.HTTP.Do(req)
	if err != nil {
		t.Fatalf("denlytest: execute request: %v", err)
	}
	return read(t, resp)
}

// Request builds and sends a request with an optional body and content type.
func (c *Client) Request(t testing.TB, method, path, contentType string, body io.Reader) *Response {
	t.Helper()

	req, err := http.NewRequestWithContext(context.Background(), method, c.Server.URL+path, body)
	if err != nil {
		t.Fatalf("denlytest: create request: %v", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	return c.Do(t, req)
}

// Get sends a GET request.
func (c *Client) Get(t testing.TB, path string) *Response {
	t.Helper()
	return c.Request(t, http.MethodGet, path, "", nil)
}

// PostForm sends a url-encoded POST request.
func (c *Client) PostForm(t testing.TB, path string, form url.Values) *Response {
	t.Helper()
	return c.Request(t, http.MethodPost, path, "application/x-www-form-urlencoded", strings.NewReader(form.Encode()))
}

// GetJSON sends a GET request and decodes the JSON response body into T.
func GetJSON[T any](t testing.TB, c *Client, path string) (*Response, T) {
	t.Helper()

	resp := c.Get(t, path)
	var v T
	if err := json.Unmarshal(resp.Body, &v); err != nil {
		t.Fatalf("denlytest: decode %s: %v", path, err)
	}
	return resp, v
}

// Exchange writes req on a fresh connection to addr and reads every response
// the server sends until it closes the connection. Use it where a single
// request may be answered more than once.
func Exchange(t testing.TB, addr string, req *http.Request) []*Response {
	t.Helper()

	conn, err := net.Dial("tcp", addr)
	if err != nil {
		t.Fatalf("denlytest: dial %s: %v", addr, err)
	}
	defer func() {
		//nolint:errcheck,gosec // test connection
		conn.Close()
	}()

	if err := conn.SetDeadline(time.Now().Add(5 * time.Second)); err != nil {
		t.Fatalf("denlytest: set deadline: %v", err)
	}
	if err := req.Write(conn); err != nil {
		t.Fatalf("denlytest: write request: %v", err)
	}

	var out []*Response
	br := bufio.NewReader(conn)
	for {
		resp, err := http.ReadResponse(br, req)
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return out
		}
		if err != nil {
			t.Fatalf("denlytest: read response %d: %v", len(out)+1, err)
		}
		out = append(out, read(t, resp))
	}
}

// Addr returns the host:port of the client's test server.
func (c *Client) Addr() string {
	return c.Server.Listener.Addr().String()
}

func read(t testing.TB, resp *http.Response) *Response {
	t.Helper()
	defer func() {
		if err := resp.Body.Close(); err != nil {
			t.Errorf("denlytest: close body: %v", err)
		}
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("denlytest: read body: %v", err)
	}
	return &Response{
		Status:        resp.StatusCode,
		Header:        resp.Header,
		Body:          body,
		ContentLength: resp.ContentLength,
		Close:         resp.Close,
	}
}
