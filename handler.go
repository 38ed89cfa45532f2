package denly

import "context"

// Handler is the signature of route handlers. The pipeline decodes the
// request into c before the call and turns the result into the response:
// the returned value becomes the body, and a non-nil error selects the
// failure status (see ErrorStatus).
//
// Supported bodies are nil, string, []byte, io.Reader, *Stream, and any value
// the negotiated encoder can serialize.
type Handler func(ctx context.Context, c *Context) (any, error)
