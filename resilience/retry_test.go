package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

type statusErr int

func (e statusErr) Error() string   { return "status error" }
func (e statusErr) HTTPStatus() int { return int(e) }

func TestNewRetry_Defaults(t *testing.T) {
	r := NewRetry(RetryConfig{})

	if r.config.MaxAttempts != 3 {
		t.Errorf("MaxAttempts = %d, want 3", r.config.MaxAttempts)
	}
	if r.config.InitialDelay != 100*time.Millisecond {
		t.Errorf("InitialDelay = %v, want 100ms", r.config.InitialDelay)
	}
	if r.config.MaxDelay != 30*time.Second {
		t.Errorf("MaxDelay = %v, want 30s", r.config.MaxDelay)
	}
	if r.config.Multiplier != 2.0 {
		t.Errorf("Multiplier = %f, want 2.0", r.config.Multiplier)
	}
	if r.config.RetryIf == nil {
		t.Error("RetryIf should default to IsTransient")
	}
}

func TestRetry_SuccessOnFirstAttempt(t *testing.T) {
	r := NewRetry(RetryConfig{MaxAttempts: 3})

	attempts := 0
	err := r.Execute(context.Background(), func(ctx context.Context) error {
		attempts++
		return nil
	})

	if err != nil {
		t.Errorf("Execute() error = %v", err)
	}
	if attempts != 1 {
		t.Errorf("attempts = %d, want 1", attempts)
	}
}

func TestRetry_NilOperation(t *testing.T) {
	r := NewRetry(RetryConfig{})
	if err := r.Execute(context.Background(), nil); !errors.Is(err, ErrNilOperation) {
		t.Errorf("Execute(nil) error = %v, want ErrNilOperation", err)
	}
}

func TestRetry_QueryPolicy(t *testing.T) {
	tests := []struct {
		name         string
		err          error
		wantAttempts int
	}{
		{name: "server error retried three times", err: statusErr(500), wantAttempts: 4},
		{name: "bad gateway retried three times", err: statusErr(502), wantAttempts: 4},
		{name: "transport failure retried three times", err: statusErr(0), wantAttempts: 4},
		{name: "not found never retried", err: statusErr(404), wantAttempts: 1},
		{name: "conflict never retried", err: statusErr(409), wantAttempts: 1},
		{name: "bad request never retried", err: statusErr(400), wantAttempts: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := QueryRetryConfig()
			cfg.InitialDelay = time.Millisecond
			cfg.MaxDelay = 2 * time.Millisecond
			r := NewRetry(cfg)

			attempts := 0
			err := r.Execute(context.Background(), func(ctx context.Context) error {
				attempts++
				return tt.err
			})

			if !errors.Is(err, tt.err) {
				t.Errorf("Execute() error = %v, want %v", err, tt.err)
			}
			if attempts != tt.wantAttempts {
				t.Errorf("attempts = %d, want %d", attempts, tt.wantAttempts)
			}
		})
	}
}

func TestRetry_MutationPolicy(t *testing.T) {
	tests := []struct {
		name         string
		err          error
		wantAttempts int
	}{
		{name: "transport failure retried once", err: statusErr(0), wantAttempts: 2},
		{name: "server error not retried", err: statusErr(503), wantAttempts: 1},
		{name: "validation error not retried", err: statusErr(400), wantAttempts: 1},
		{name: "conflict not retried", err: statusErr(409), wantAttempts: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := MutationRetryConfig()
			cfg.InitialDelay = time.Millisecond
			r := NewRetry(cfg)

			attempts := 0
			_ = r.Execute(context.Background(), func(ctx context.Context) error {
				attempts++
				return tt.err
			})

			if attempts != tt.wantAttempts {
				t.Errorf("attempts = %d, want %d", attempts, tt.wantAttempts)
			}
		})
	}
}

func TestRetry_SuccessOnRetry(t *testing.T) {
	r := NewRetry(RetryConfig{
		MaxAttempts:  3,
		InitialDelay: time.Millisecond,
	})

	attempts := 0
	err := r.Execute(context.Background(), func(ctx context.Context) error {
		attempts++
		if attempts < 3 {
			return statusErr(503)
		}
		return nil
	})

	if err != nil {
		t.Errorf("Execute() error = %v", err)
	}
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3", attempts)
	}
}

func TestRetry_ContextCancellation(t *testing.T) {
	r := NewRetry(RetryConfig{
		MaxAttempts:  10,
		InitialDelay: 100 * time.Millisecond,
	})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	err := r.Execute(ctx, func(ctx context.Context) error {
		return statusErr(500)
	})

	if !errors.Is(err, context.Canceled) {
		t.Errorf("Execute() error = %v, want context.Canceled", err)
	}
}

func TestRetry_OnRetry(t *testing.T) {
	var attempts []int
	var delays []time.Duration

	r := NewRetry(RetryConfig{
		MaxAttempts:  3,
		InitialDelay: time.Millisecond,
		OnRetry: func(attempt int, err error, delay time.Duration) {
			attempts = append(attempts, attempt)
			delays = append(delays, delay)
		},
	})

	_ = r.Execute(context.Background(), func(ctx context.Context) error {
		return statusErr(500)
	})

	if len(attempts) != 2 {
		t.Fatalf("callbacks = %d, want 2", len(attempts))
	}
	if attempts[0] != 1 || attempts[1] != 2 {
		t.Errorf("callback attempts = %v, want [1 2]", attempts)
	}
	if delays[1] != 2*time.Millisecond {
		t.Errorf("second delay = %v, want 2ms", delays[1])
	}
}

func TestRetry_Delay(t *testing.T) {
	tests := []struct {
		name    string
		config  RetryConfig
		attempt int
		want    time.Duration
	}{
		{
			name:    "query backoff first retry",
			config:  QueryRetryConfig(),
			attempt: 1,
			want:    time.Second,
		},
		{
			name:    "query backoff third retry",
			config:  QueryRetryConfig(),
			attempt: 3,
			want:    4 * time.Second,
		},
		{
			name:    "query backoff capped at 30s",
			config:  QueryRetryConfig(),
			attempt: 10,
			want:    30 * time.Second,
		},
		{
			name:    "linear",
			config:  RetryConfig{InitialDelay: 10 * time.Millisecond, Strategy: BackoffLinear},
			attempt: 3,
			want:    30 * time.Millisecond,
		},
		{
			name:    "constant",
			config:  MutationRetryConfig(),
			attempt: 5,
			want:    time.Second,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NewRetry(tt.config).Delay(tt.attempt); got != tt.want {
				t.Errorf("Delay(%d) = %v, want %v", tt.attempt, got, tt.want)
			}
		})
	}
}

func TestRetry_DelayJitterBounds(t *testing.T) {
	r := NewRetry(RetryConfig{InitialDelay: 100 * time.Millisecond, Strategy: BackoffConstant, Jitter: true})
	for i := 0; i < 50; i++ {
		d := r.Delay(1)
		if d < 100*time.Millisecond || d >= 125*time.Millisecond {
			t.Fatalf("Delay() = %v, want within [100ms, 125ms)", d)
		}
	}
}

func TestParseBackoffStrategy(t *testing.T) {
	for _, s := range []BackoffStrategy{BackoffExponential, BackoffLinear, BackoffConstant} {
		if got := ParseBackoffStrategy(s.String()); got != s {
			t.Errorf("ParseBackoffStrategy(%q) = %v, want %v", s.String(), got, s)
		}
	}
	if got := ParseBackoffStrategy("bogus"); got != BackoffExponential {
		t.Errorf("ParseBackoffStrategy(bogus) = %v, want exponential", got)
	}
}

func TestNoRetryConfig(t *testing.T) {
	r := NewRetry(NoRetryConfig())
	attempts := 0
	_ = r.Execute(context.Background(), func(ctx context.Context) error {
		attempts++
		return statusErr(500)
	})
	if attempts != 1 {
		t.Errorf("attempts = %d, want 1", attempts)
	}
}
