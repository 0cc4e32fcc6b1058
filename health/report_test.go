package health

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestReport_MarshalJSON(t *testing.T) {
	report := Report{
		Status:    StatusUnhealthy,
		CheckedAt: t0,
		Checks: map[string]Result{
			"api":   Unhealthy("course service unreachable", errors.New("dial tcp: refused")).WithDuration(time.Millisecond),
			"cache": Healthy("cache available").WithDetails(map[string]any{"entries": 2}),
		},
	}

	raw, err := json.Marshal(report)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	var got map[string]any
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}

	want := map[string]any{
		"status":    "unhealthy",
		"timestamp": "2024-03-01T09:00:00Z",
		"checks": map[string]any{
			"api": map[string]any{
				"status":   "unhealthy",
				"message":  "course service unreachable",
				"duration": "1ms",
				"error":    "dial tcp: refused",
			},
			"cache": map[string]any{
				"status":   "healthy",
				"message":  "cache available",
				"duration": "0s",
				"details":  map[string]any{"entries": float64(2)},
			},
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("report JSON mismatch (-want +got):\n%s", diff)
	}
}

func TestReport_Healthy(t *testing.T) {
	tests := []struct {
		status Status
		want   bool
	}{
		{StatusHealthy, true},
		{StatusDegraded, true},
		{StatusUnhealthy, false},
	}
	for _, tt := range tests {
		t.Run(tt.status.String(), func(t *testing.T) {
			if got := (Report{Status: tt.status}).Healthy(); got != tt.want {
				t.Errorf("Healthy() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestStatus_String(t *testing.T) {
	if got := Status(42).String(); got != "unknown" {
		t.Errorf("String() = %q, want unknown", got)
	}
}
