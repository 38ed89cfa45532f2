package denly

import (
	"bytes"
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
)

// defaultBodyLimit caps how much of a request body is buffered for decoding (32 MB).
const defaultBodyLimit = 32 << 20

// RawKey is the key of the single argument produced for bodies whose content
// type is neither url-encoded nor multipart.
const RawKey = "raw"

// Source tells where a request argument came from.
type Source int

const (
	SourceQuery Source = iota // query string pair
	SourceForm                // url-encoded, multipart, or raw body field
	SourceFile                // multipart file part
)

// String returns the source name.
func (s Source) String() string {
	switch s {
	case SourceQuery:
		return "query"
	case SourceForm:
		return "form"
	case SourceFile:
		return "file"
	default:
		return "unknown"
	}
}

// Argument is one decoded request value. Text values live in Value; file
// parts and raw bodies also keep their bytes in Data.
type Argument struct {
	Key         string
	Value       string
	Data        []byte
	Source      Source
	Filename    string
	ContentType string
}

// Arguments is an ordered list of decoded request values. Duplicate keys are
// kept in arrival order.
type Arguments []Argument

// Get returns the first value for key, or "".
func (a Arguments) Get(key string) string {
	for _, arg := range a {
		if arg.Key == key {
			return arg.Value
		}
	}
	return ""
}

// Lookup returns the first argument for key.
func (a Arguments) Lookup(key string) (Argument, bool) {
	for _, arg := range a {
		if arg.Key == key {
			return arg, true
		}
	}
	return Argument{}, false
}

// Values returns every value for key in arrival order.
func (a Arguments) Values(key string) []string {
	var out []string
	for _, arg := range a {
		if arg.Key == key {
			out = append(out, arg.Value)
		}
	}
	return out
}

// Has reports whether any argument has the given key.
func (a Arguments) Has(key string) bool {
	_, ok := a.Lookup(key)
	return ok
}

// Files returns the file arguments in arrival order.
func (a Arguments) Files() Arguments {
	var out Arguments
	for _, arg := range a {
		if arg.Source == SourceFile {
			out = append(out, arg)
		}
	}
	return out
}

// isReadOnly reports whether a request of this method carries its arguments
// in the query string and must not have its body read.
func isReadOnly(method string) bool {
	return method == http.MethodGet || method == http.MethodHead
}

// decodePayload extracts the request arguments. Read-only methods decode the
// query string and never touch the body; every other method reads the whole
// body (up to limit bytes) and decodes it by content type. Decoding never
// fails: malformed input degrades to empty or raw arguments, and the returned
// error only reports why the body was dropped.
func decodePayload(r *http.Request, limit int64) (args, form Arguments, err error) {
	if isReadOnly(r.Method) {
		return decodeQuery(r.URL.RawQuery, SourceQuery), nil, nil
	}

	body, err := readBody(r, limit)
	if err != nil {
		return nil, Arguments{}, err
	}
	return nil, decodeBody(body, r.Header.Get("Content-Type")), nil
}

func readBody(r *http.Request, limit int64) ([]byte, error) {
	if r.Body == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = defaultBodyLimit
	}

	// Read one byte past the limit so an oversized body is detectable.
	data, err := io.ReadAll(io.LimitReader(r.Body, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, &http.MaxBytesError{Limit: limit}
	}
	return data, nil
}

// decodeBody decodes a fully buffered body according to its content type.
func decodeBody(body []byte, contentType string) Arguments {
	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = ""
	}

	switch mediaType {
	case "application/x-www-form-urlencoded":
		return decodeQuery(string(body), SourceForm)
	case "multipart/form-data":
		if form, ok := decodeMultipart(body, params["boundary"]); ok {
			return form
		}
	}

	return Arguments{{
		Key:         RawKey,
		Value:       string(body),
		Data:        body,
		Source:      SourceForm,
		ContentType: contentType,
	}}
}

// decodeQuery parses k=v pairs separated by '&' while keeping their order.
// Pairs that fail to unescape keep their raw text.
func decodeQuery(raw string, src Source) Arguments {
	args := Arguments{}
	for pair := range strings.SplitSeq(raw, "&") {
		if pair == "" {
			continue
		}
		key, value, _ := strings.Cut(pair, "=")
		args = append(args, Argument{
			Key:    unescapeQuery(key),
			Value:  unescapeQuery(value),
			Source: src,
		})
	}
	return args
}

func unescapeQuery(s string) string {
	u, err := url.QueryUnescape(s)
	if err != nil {
		return s
	}
	return u
}

// decodeMultipart walks the parts in order. A broken stream keeps whatever
// parts decoded cleanly before the fault; a body with no readable parts at all
// reports !ok so the caller can fall back to a raw payload.
func decodeMultipart(body []byte, boundary string) (Arguments, bool) {
	if boundary == "" {
		return nil, false
	}

	mr := multipart.NewReader(bytes.NewReader(body), boundary)
	form := Arguments{}
	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			return form, true
		}
		if err != nil {
			return form, len(form) > 0
		}

		data, err := io.ReadAll(part)
		//nolint:errcheck,gosec // in-memory part
		part.Close()
		if err != nil {
			return form, len(form) > 0
		}

		arg := Argument{
			Key:    part.FormName(),
			Value:  string(data),
			Source: SourceForm,
		}
		if name := part.FileName(); name != "" {
			arg.Source = SourceFile
			arg.Value = name
			arg.Filename = name
			arg.Data = data
			arg.ContentType = part.Header.Get("Content-Type")
		}
		form = append(form, arg)
	}
}
