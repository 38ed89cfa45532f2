package denly

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrNotFound is the failure recorded when no route matches a request.
var ErrNotFound = errors.New("route not found")

// StatusCoder is implemented by errors or responses that carry an HTTP status code.
type StatusCoder interface {
	StatusCode() int
}

// HTTPError is a handler failure tagged with the status to answer with.
// Body, when set, is sent as the response body; Message is only logged.
type HTTPError struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
	Body    any    `json:"-"`
}

// Error returns the error message.
func (e *HTTPError) Error() string {
	if e == nil || e.Message == "" {
		return http.StatusText(e.StatusCode())
	}
	return e.Message
}

// StatusCode returns the HTTP status code. An untagged status, or a nil
// error, reads as 500.
func (e *HTTPError) StatusCode() int {
	if e == nil || e.Status == 0 {
		return http.StatusInternalServerError
	}
	return e.Status
}

// Error returns an error with the given HTTP status code and message.
func Error(status int, message string) error {
	return &HTTPError{Status: status, Message: message}
}

// Errorf returns a formatted error with the given HTTP status code.
func Errorf(status int, format string, args ...any) error {
	return &HTTPError{Status: status, Message: fmt.Sprintf(format, args...)}
}

// ErrorBody returns an error that answers with status and the given body.
func ErrorBody(status int, body any) error {
	return &HTTPError{Status: status, Body: body}
}

// ErrorStatus extracts the HTTP status code from an error. Returns
// http.StatusInternalServerError if the error does not implement StatusCoder
// or reports a code outside 100-999.
func ErrorStatus(err error) int {
	var sc StatusCoder
	if errors.As(err, &sc) {
		if code := sc.StatusCode(); validStatus(code) {
			return code
		}
	}
	return http.StatusInternalServerError
}

// validStatus reports whether code can be written as a response status.
func validStatus(code int) bool {
	return code >= 100 && code <= 999
}

// errorBody returns the body a failed request answers with. Only explicitly
// tagged errors carry one.
func errorBody(err error) any {
	var he *HTTPError
	if errors.As(err, &he) && he != nil {
		return he.Body
	}
	return nil
}

// PanicError wraps a value recovered from a panicking handler.
type PanicError struct {
	Value any
	Stack []byte
}

// Error describes the recovered value.
func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// Unwrap returns the recovered value when it is an error.
func (e *PanicError) Unwrap() error {
	err, _ := e.Value.(error)
	return err
}
