package denly_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bjaus/denly"
)

func TestAdmission_rate_limit(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		rate        float64
		burst       int
		numReqs     int
		wantOK      int
		wantLimited int
	}{
		"requests within rate succeed": {
			rate:    100,
			burst:   10,
			numReqs: 5,
			wantOK:  5,
		},
		"requests exceeding rate get 429": {
			rate:        1,
			burst:       1,
			numReqs:     5,
			wantOK:      1,
			wantLimited: 4,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			logs, logger := newLogRecorder()
			r := denly.New(denly.WithLogger(logger), denly.WithAdmission(denly.AdmissionConfig{
				Rate:  tc.rate,
				Burst: tc.burst,
			}))
			denly.Get(r, "/", echoMethod)

			okCount, limitedCount := 0, 0
			for range tc.numReqs {
				rec := serve(r, httptest.NewRequest(http.MethodGet, "/", nil))
				switch rec.Code {
				case http.StatusOK:
					okCount++
				case http.StatusTooManyRequests:
					limitedCount++
					assert.Equal(t, "1", rec.Header().Get("Retry-After"))
				}
			}

			assert.Equal(t, tc.wantOK, okCount, "expected OK responses")
			assert.Equal(t, tc.wantLimited, limitedCount, "expected rate-limited responses")

			lines := logs.find("request")
			require.Len(t, lines, tc.numReqs)
		})
	}
}

func TestAdmission_rate_limit_per_client(t *testing.T) {
	t.Parallel()

	r := denly.New(denly.WithAdmission(denly.AdmissionConfig{
		Rate:    1,
		KeyFunc: func(r *http.Request) string { return r.Header.Get("X-Client") },
	}))
	denly.Get(r, "/", echoMethod)

	for _, client := range []string{"a", "b", "c"} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Client", client)
		assert.Equal(t, http.StatusOK, serve(r, req).Code, client)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Client", "a")
	assert.Equal(t, http.StatusTooManyRequests, serve(r, req).Code)
}

func TestAdmission_in_flight_limit(t *testing.T) {
	t.Parallel()

	entered := make(chan struct{}, 4)
	release := make(chan struct{})

	r := denly.New(denly.WithAdmission(denly.AdmissionConfig{
		MaxInFlight:  1,
		QueueTimeout: 20 * time.Millisecond,
	}))
	denly.Get(r, "/slow", func(context.Context, *denly.Context) (any, error) {
		entered <- struct{}{}
		<-release
		return "done", nil
	})

	first := make(chan *httptest.ResponseRecorder, 1)
	go func() {
		first <- serve(r, httptest.NewRequest(http.MethodGet, "/slow", nil))
	}()
	<-entered

	rec := serve(r, httptest.NewRequest(http.MethodGet, "/slow", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))

	close(release)
	assert.Equal(t, http.StatusOK, (<-first).Code)

	rec = serve(r, httptest.NewRequest(http.MethodGet, "/slow", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
