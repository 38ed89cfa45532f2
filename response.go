package denly

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Stream is a handler result for binary or streamed bodies with an explicit
// content type and, optionally, status.
type Stream struct {
	ContentType string
	Status      int
	Body        io.Reader
}

// composed is a response ready for the wire.
type composed struct {
	status int
	header http.Header
	body   io.Reader
	size   int64 // -1 when unknown
}

// compose turns a status and handler body into a wire-ready response. The
// handler's headers win over the defaults picked here.
func (r *Router) compose(req *http.Request, c *Context, status int, body any) (composed, error) {
	out := composed{
		status: status,
		header: c.Header().Clone(),
	}

	var contentType string

	switch v := body.(type) {
	case nil:
	case string:
		contentType = "text/plain; charset=utf-8"
		out.body, out.size = strings.NewReader(v), int64(len(v))
	case []byte:
		contentType = "application/octet-stream"
		out.body, out.size = bytes.NewReader(v), int64(len(v))
	case *Stream:
		contentType = v.ContentType
		if validStatus(v.Status) {
			out.status = v.Status
		}
		out.body, out.size = v.Body, -1
		if v.Body == nil {
			out.size = 0
		}
	case io.Reader:
		contentType = "application/octet-stream"
		out.body, out.size = v, -1
	default:
		if sc, ok := v.(StatusCoder); ok && status < http.StatusBadRequest {
			if code := sc.StatusCode(); validStatus(code) {
				out.status = code
			}
		}
		enc := r.codecs.negotiate(req.Header.Get("Accept"))
		var buf bytes.Buffer
		if err := enc.Encode(&buf, v); err != nil {
			return composed{}, fmt.Errorf("encode %T as %s: %w", v, enc.ContentType(), err)
		}
		contentType = enc.ContentType()
		out.body, out.size = &buf, int64(buf.Len())
	}

	if contentType != "" && out.header.Get("Content-Type") == "" {
		out.header.Set("Content-Type", contentType)
	}
	return out, nil
}

// emptyResponse is the body-less answer for failures without a chosen body.
func emptyResponse(status int, c *Context) composed {
	return composed{status: status, header: c.Header().Clone()}
}

// writeTo sends the response through an http.ResponseWriter and returns
// the number of body bytes written.
func (resp composed) writeTo(w http.ResponseWriter, req *http.Request) int64 {
	h := w.Header()
	for k, v := range resp.header {
		h[k] = v
	}
	if resp.size >= 0 {
		h.Set("Content-Length", strconv.FormatInt(resp.size, 10))
	}
	w.WriteHeader(resp.status)

	if resp.body == nil || req.Method == http.MethodHead {
		return 0
	}
	//nolint:errcheck,gosec // best-effort after WriteHeader
	n, _ := io.Copy(w, resp.body)
	return n
}

// writeWire serializes the response onto a hijacked connection. Responses
// of unknown length are delimited by closing the connection, so closing must
// be set for them.
func (resp composed) writeWire(bw *bufio.Writer, req *http.Request, closing bool) (int64, error) {
	proto := "HTTP/1.1"
	if !req.ProtoAtLeast(1, 1) {
		proto = "HTTP/1.0"
	}
	if _, err := fmt.Fprintf(bw, "%s %03d %s\r\n", proto, resp.status, http.StatusText(resp.status)); err != nil {
		return 0, err
	}

	h := resp.header.Clone()
	if h == nil {
		h = make(http.Header)
	}
	h.Del("Transfer-Encoding")
	h.Del("Connection")
	h.Del("Content-Length")
	if h.Get("Date") == "" {
		h.Set("Date", time.Now().UTC().Format(http.TimeFormat))
	}
	if resp.size >= 0 {
		h.Set("Content-Length", strconv.FormatInt(resp.size, 10))
	}
	if closing {
		h.Set("Connection", "close")
	}
	if err := h.Write(bw); err != nil {
		return 0, err
	}
	if _, err := bw.WriteString("\r\n"); err != nil {
		return 0, err
	}

	var n int64
	if resp.body != nil && req.Method != http.MethodHead {
		var err error
		if n, err = io.Copy(bw, resp.body); err != nil {
			return n, err
		}
	}
	return n, bw.Flush()
}
