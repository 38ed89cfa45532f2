package denly

import "net/http"

// Test-only exports for internal functions.
var (
	DecodeQuery   = decodeQuery
	DecodeBody    = decodeBody
	DecodePayload = decodePayload
	IsReadOnly    = isReadOnly
)

// MatchPattern compiles pattern and matches it against a request line.
func MatchPattern(pattern, method, rawURL string) ([]Param, bool, error) {
	segments, err := compilePattern(pattern)
	if err != nil {
		return nil, false, err
	}
	ri := routeInfo{method: http.MethodGet, pattern: pattern, segments: segments}
	params, ok := ri.match(method, ParsePath(rawURL))
	return params, ok, nil
}

// Negotiate returns the content type picked for an Accept header.
func Negotiate(accept string, encoders ...Encoder) string {
	return newCodecRegistry(encoders).negotiate(accept).ContentType()
}
