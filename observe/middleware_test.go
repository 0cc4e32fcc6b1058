package observe

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

type testHarness struct {
	spans  *tracetest.SpanRecorder
	reader *sdkmetric.ManualReader
	logs   *bytes.Buffer
	mw     *Middleware
}

func newHarness(t *testing.T) *testHarness {
	t.Helper()
	spans := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(spans))

	metrics, reader := newTestMetrics(t)
	var logs bytes.Buffer

	return &testHarness{
		spans:  spans,
		reader: reader,
		logs:   &logs,
		mw:     NewMiddleware(NewTracer(tp.Tracer("test")), metrics, NewLoggerWithWriter("debug", &logs)),
	}
}

func TestMiddleware_SuccessPath(t *testing.T) {
	h := newHarness(t)
	meta := OpMeta{Kind: OpQuery, Name: "course.detail", Key: `["courses","detail","c1"]`}

	err := h.mw.Run(context.Background(), meta, func(context.Context) error { return nil })
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	spans := h.spans.Ended()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	if spans[0].Name() != "courseops.query.course.detail" {
		t.Errorf("span name = %q", spans[0].Name())
	}
	if spans[0].Status().Code != codes.Ok {
		t.Errorf("span status = %v, want Ok", spans[0].Status().Code)
	}
	if got := sumValue(t, collect(t, h.reader), "courseops.op.total"); got != 1 {
		t.Errorf("op.total = %d, want 1", got)
	}
	if !strings.Contains(h.logs.String(), "query attempt completed") {
		t.Errorf("missing completion log: %s", h.logs.String())
	}
}

func TestMiddleware_ErrorPath(t *testing.T) {
	h := newHarness(t)
	meta := OpMeta{Kind: OpMutation, Name: "course.delete"}
	wantErr := errors.New("server exploded")

	err := h.mw.Run(context.Background(), meta, func(context.Context) error { return wantErr })
	if err != wantErr {
		t.Fatalf("Run() error = %v, want the original error", err)
	}

	spans := h.spans.Ended()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	if spans[0].Status().Code != codes.Error {
		t.Errorf("span status = %v, want Error", spans[0].Status().Code)
	}
	if got := sumValue(t, collect(t, h.reader), "courseops.op.errors"); got != 1 {
		t.Errorf("op.errors = %d, want 1", got)
	}
	if !strings.Contains(h.logs.String(), "server exploded") {
		t.Errorf("missing error in log: %s", h.logs.String())
	}
}

func TestMiddleware_PropagatesSpanContext(t *testing.T) {
	h := newHarness(t)

	var inner trace.SpanContext
	_ = h.mw.Run(context.Background(), OpMeta{Kind: OpQuery, Name: "x"}, func(ctx context.Context) error {
		inner = trace.SpanContextFromContext(ctx)
		return nil
	})

	if !inner.IsValid() {
		t.Fatal("wrapped function did not receive a span context")
	}
	if inner.SpanID() != h.spans.Ended()[0].SpanContext().SpanID() {
		t.Error("wrapped function saw a different span")
	}
}

func TestNopMiddleware(t *testing.T) {
	mw := NopMiddleware()
	called := false
	err := mw.Run(context.Background(), OpMeta{Kind: OpQuery, Name: "x"}, func(context.Context) error {
		called = true
		return nil
	})
	if err != nil || !called {
		t.Fatalf("Run() err=%v called=%v", err, called)
	}
	mw.RecordLookup(context.Background(), OpMeta{}, true)
}

func TestOpMeta_SpanName(t *testing.T) {
	tests := []struct {
		meta OpMeta
		want string
	}{
		{OpMeta{Kind: OpQuery, Name: "course.list"}, "courseops.query.course.list"},
		{OpMeta{Kind: OpMutation, Name: "enrollment.create"}, "courseops.mutation.enrollment.create"},
		{OpMeta{Kind: OpQuery}, "courseops.query.anonymous"},
	}
	for _, tt := range tests {
		if got := tt.meta.SpanName(); got != tt.want {
			t.Errorf("SpanName() = %q, want %q", got, tt.want)
		}
	}
}
