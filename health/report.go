package health

import (
	"encoding/json"
	"time"
)

// Report is the outcome of one Aggregator.Run.
type Report struct {
	Status    Status
	CheckedAt time.Time
	Checks    map[string]Result
}

// Healthy reports whether the overall status is not unhealthy. A degraded
// console can still serve cached data.
func (r Report) Healthy() bool {
	return r.Status != StatusUnhealthy
}

type reportJSON struct {
	Status    string               `json:"status"`
	Timestamp string               `json:"timestamp"`
	Checks    map[string]checkJSON `json:"checks,omitempty"`
}

type checkJSON struct {
	Status   string         `json:"status"`
	Message  string         `json:"message,omitempty"`
	Duration string         `json:"duration,omitempty"`
	Details  map[string]any `json:"details,omitempty"`
	Error    string         `json:"error,omitempty"`
}

// MarshalJSON renders the report for status output.
func (r Report) MarshalJSON() ([]byte, error) {
	out := reportJSON{
		Status:    r.Status.String(),
		Timestamp: r.CheckedAt.UTC().Format(time.RFC3339),
		Checks:    make(map[string]checkJSON, len(r.Checks)),
	}
	for name, result := range r.Checks {
		check := checkJSON{
			Status:   result.Status.String(),
			Message:  result.Message,
			Duration: result.Duration.String(),
			Details:  result.Details,
		}
		if result.Error != nil {
			check.Error = result.Error.Error()
		}
		out.Checks[name] = check
	}
	return json.Marshal(out)
}
