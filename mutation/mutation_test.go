package mutation

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/jonwraymond/courseops/cache"
	"github.com/jonwraymond/courseops/resilience"
)

type statusError struct{ status int }

func (e *statusError) Error() string   { return fmt.Sprintf("status %d", e.status) }
func (e *statusError) HTTPStatus() int { return e.status }

type course struct {
	ID    string
	Title string
}

func fastRunner() *Runner {
	cfg := resilience.MutationRetryConfig()
	cfg.InitialDelay = time.Millisecond
	cfg.MaxDelay = time.Millisecond
	return NewRunner(cache.NewStore(cache.DefaultPolicy()), WithRetry(cfg))
}

func createCourse(calls *int, errs ...error) Descriptor[string, course] {
	return Descriptor[string, course]{
		Name: "course.create",
		Mutate: func(_ context.Context, title string) (course, error) {
			*calls++
			if len(errs) >= *calls && errs[*calls-1] != nil {
				return course{}, errs[*calls-1]
			}
			return course{ID: "abc", Title: title}, nil
		},
		Rules: func(_ string, out course) []cache.Rule {
			return []cache.Rule{
				cache.Invalidate(cache.NewKey("courses", "list")),
				cache.Set(cache.NewKey("courses", "detail", out.ID), out),
			}
		},
	}
}

func TestMutate_SuccessAppliesRules(t *testing.T) {
	r := fastRunner()
	ctx := context.Background()
	_ = r.Store().Set(ctx, cache.NewKey("courses", "list"), []course{})

	var calls int
	got, err := Mutate(ctx, r, createCourse(&calls), "Go")
	if err != nil {
		t.Fatalf("Mutate failed: %v", err)
	}
	if diff := cmp.Diff(course{ID: "abc", Title: "Go"}, got); diff != "" {
		t.Errorf("result (-want +got):\n%s", diff)
	}

	list, _ := r.Store().Get(ctx, cache.NewKey("courses", "list"))
	if !list.Stale {
		t.Error("list not invalidated")
	}
	detail, ok := r.Store().Get(ctx, cache.NewKey("courses", "detail", "abc"))
	if !ok || detail.Value != got {
		t.Errorf("detail entry = %+v", detail)
	}
}

func TestMutate_FailureAppliesNoRules(t *testing.T) {
	r := fastRunner()
	ctx := context.Background()
	list := cache.NewKey("courses", "list")
	_ = r.Store().Set(ctx, list, []course{})

	conflict := &statusError{409}
	var calls int
	_, err := Mutate(ctx, r, createCourse(&calls, conflict), "Go")
	if !errors.Is(err, conflict) {
		t.Fatalf("Mutate error = %v, want the original error", err)
	}

	if e, _ := r.Store().Get(ctx, list); e.Stale {
		t.Error("rule applied after a failed write")
	}
	if r.Store().Len() != 1 {
		t.Errorf("Len() = %d, want 1", r.Store().Len())
	}
}

func TestMutate_RetryPolicy(t *testing.T) {
	tests := []struct {
		name      string
		errs      []error
		wantCalls int
		wantErr   bool
	}{
		{"transport failure retried once", []error{&statusError{0}}, 2, false},
		{"transport failure twice surfaces", []error{&statusError{0}, &statusError{0}}, 2, true},
		{"400 not retried", []error{&statusError{400}}, 1, true},
		{"409 not retried", []error{&statusError{409}}, 1, true},
		{"500 not retried", []error{&statusError{500}}, 1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls int
			_, err := Mutate(context.Background(), fastRunner(), createCourse(&calls, tt.errs...), "Go")
			if (err != nil) != tt.wantErr {
				t.Errorf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if calls != tt.wantCalls {
				t.Errorf("calls = %d, want %d", calls, tt.wantCalls)
			}
		})
	}
}

func TestMutate_Hooks(t *testing.T) {
	var events []string
	hooks := Hooks[string, course]{
		OnSuccess: func(in string, out course) { events = append(events, "success:"+out.ID) },
		OnError:   func(in string, err error) { events = append(events, "error:"+err.Error()) },
		OnSettled: func(in string, _ course, err error) { events = append(events, fmt.Sprintf("settled:%v", err != nil)) },
	}

	var calls int
	_, _ = Mutate(context.Background(), fastRunner(), createCourse(&calls), "Go", hooks)
	calls = 0
	_, _ = Mutate(context.Background(), fastRunner(), createCourse(&calls, &statusError{404}), "Go", hooks)

	want := []string{"success:abc", "settled:false", "error:status 404", "settled:true"}
	if diff := cmp.Diff(want, events); diff != "" {
		t.Errorf("hook order (-want +got):\n%s", diff)
	}
}

func TestMutate_RulesSeeResult(t *testing.T) {
	r := fastRunner()
	d := Descriptor[int, int]{
		Mutate: func(_ context.Context, in int) (int, error) { return in * 2, nil },
		Rules: func(in, out int) []cache.Rule {
			return []cache.Rule{cache.Set(cache.NewKey("double", in), out)}
		},
	}
	if _, err := Mutate(context.Background(), r, d, 21); err != nil {
		t.Fatal(err)
	}
	e, _ := r.Store().Get(context.Background(), cache.NewKey("double", 21))
	if e.Value != 42 {
		t.Errorf("value = %v, want 42", e.Value)
	}
}

func TestMutate_RuleFailureDoesNotFailWrite(t *testing.T) {
	d := Descriptor[int, int]{
		Mutate: func(_ context.Context, in int) (int, error) { return in, nil },
		Rules:  func(int, int) []cache.Rule { return []cache.Rule{cache.Set(cache.Key{}, 1)} },
	}
	if _, err := Mutate(context.Background(), fastRunner(), d, 1); err != nil {
		t.Errorf("Mutate = %v, want nil", err)
	}
}

func TestMutate_NoMutate(t *testing.T) {
	_, err := Mutate(context.Background(), fastRunner(), Descriptor[int, int]{}, 1)
	if !errors.Is(err, ErrNoMutate) {
		t.Errorf("err = %v, want ErrNoMutate", err)
	}
}
