package auth

import (
	"context"
	"errors"
	"sync"
	"testing"
)

func TestMemoryTokenStore(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryTokenStore()

	if _, err := s.Token(ctx); !errors.Is(err, ErrNoToken) {
		t.Fatalf("Token() on empty store error = %v, want ErrNoToken", err)
	}
	if err := s.SetToken(ctx, ""); !errors.Is(err, ErrEmptyToken) {
		t.Fatalf("SetToken(\"\") error = %v, want ErrEmptyToken", err)
	}
	if err := s.SetToken(ctx, "abc"); err != nil {
		t.Fatalf("SetToken() error = %v", err)
	}
	got, err := s.Token(ctx)
	if err != nil || got != "abc" {
		t.Fatalf("Token() = %q, %v", got, err)
	}

	for i := 0; i < 2; i++ {
		if err := s.Clear(ctx); err != nil {
			t.Fatalf("Clear() error = %v", err)
		}
	}
	if _, err := s.Token(ctx); !errors.Is(err, ErrNoToken) {
		t.Fatalf("Token() after Clear error = %v, want ErrNoToken", err)
	}
}

func TestMemoryTokenStore_Concurrent(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryTokenStore()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = s.SetToken(ctx, "tok")
		}()
		go func() {
			defer wg.Done()
			_, _ = s.Token(ctx)
		}()
	}
	wg.Wait()
}
