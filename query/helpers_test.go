package query

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/newmo-oss/ctxtime/ctxtimetest"
	"github.com/newmo-oss/testid"

	"github.com/jonwraymond/courseops/cache"
	"github.com/jonwraymond/courseops/resilience"
)

var t0 = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

func at(t *testing.T, offset time.Duration) context.Context {
	t.Helper()
	ctx := testid.WithValue(context.Background(), uuid.NewString())
	ctxtimetest.SetFixedNow(t, ctx, t0.Add(offset))
	return ctx
}

type statusError struct{ status int }

func (e *statusError) Error() string   { return fmt.Sprintf("status %d", e.status) }
func (e *statusError) HTTPStatus() int { return e.status }

// fastRetry is QueryRetryConfig with millisecond delays.
func fastRetry() resilience.RetryConfig {
	cfg := resilience.QueryRetryConfig()
	cfg.InitialDelay = time.Millisecond
	cfg.MaxDelay = 4 * time.Millisecond
	return cfg
}

func newTestClient(t *testing.T, opts ...Option) *Client {
	t.Helper()
	c := NewClient(cache.NewStore(cache.DefaultPolicy()), append([]Option{WithRetry(fastRetry())}, opts...)...)
	t.Cleanup(c.Close)
	return c
}

// counter is a fetch function that counts calls.
type counter struct {
	calls atomic.Int32
	fn    func(n int32) (string, error)
}

func (f *counter) fetch(context.Context) (string, error) {
	n := f.calls.Add(1)
	return f.fn(n)
}

func constant(v string) *counter {
	return &counter{fn: func(int32) (string, error) { return v, nil }}
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(time.Millisecond)
	}
}
