package cache

import (
	"testing"
	"time"
)

func TestPolicy_EffectiveStaleTime(t *testing.T) {
	zero := time.Duration(0)
	minute := time.Minute
	negative := -time.Second

	tests := []struct {
		name     string
		policy   Policy
		override *time.Duration
		want     time.Duration
	}{
		{"default", DefaultPolicy(), nil, 5 * time.Minute},
		{"override", DefaultPolicy(), &minute, time.Minute},
		{"explicit zero", DefaultPolicy(), &zero, 0},
		{"negative override", DefaultPolicy(), &negative, 0},
		{"negative policy", Policy{StaleTime: -1}, nil, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.policy.EffectiveStaleTime(tt.override); got != tt.want {
				t.Errorf("EffectiveStaleTime() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEntry_IsFresh(t *testing.T) {
	fetched := Entry{Status: StatusSuccess, LastFetchedAt: t0}
	staleTime := time.Second

	tests := []struct {
		name  string
		entry Entry
		now   time.Time
		want  bool
	}{
		{"999ms", fetched, t0.Add(999 * time.Millisecond), true},
		{"1001ms", fetched, t0.Add(1001 * time.Millisecond), false},
		{"exactly stale time", fetched, t0.Add(time.Second), false},
		{"invalidated", Entry{Status: StatusSuccess, LastFetchedAt: t0, Stale: true}, t0, false},
		{"pending", Entry{Status: StatusPending, LastFetchedAt: t0}, t0, false},
		{"never fetched", Entry{Status: StatusSuccess}, t0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.entry.IsFresh(tt.now, staleTime); got != tt.want {
				t.Errorf("IsFresh() = %v, want %v", got, tt.want)
			}
		})
	}

	if fetched.IsFresh(t0, 0) {
		t.Error("zero stale time must always be stale")
	}
}
