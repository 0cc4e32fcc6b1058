package health

import (
	"context"

	"github.com/jonwraymond/courseops/apiclient"
	"github.com/jonwraymond/courseops/cache"
)

// Prober reports remote API reachability. *apiclient.Client implements it.
type Prober interface {
	Health(ctx context.Context) (*apiclient.HealthStatus, error)
}

// APIChecker checks that the course service answers.
type APIChecker struct {
	api Prober
}

// NewAPIChecker creates a checker named "api".
func NewAPIChecker(api Prober) *APIChecker {
	return &APIChecker{api: api}
}

// Name returns the name of this checker.
func (c *APIChecker) Name() string { return "api" }

// Check probes the service. Auth failures mean the service is up but the
// session is not, which is reported as degraded.
func (c *APIChecker) Check(ctx context.Context) Result {
	status, err := c.api.Health(ctx)
	if err != nil {
		if apiErr, ok := apiclient.AsError(err); ok && apiErr.Kind() == apiclient.KindAuth {
			return Degraded(apiErr.Message).WithDetails(map[string]any{"status_code": apiErr.Status})
		}
		return Unhealthy("course service unreachable", err)
	}
	return Healthy("course service reachable").WithDetails(map[string]any{
		"status":    status.Status,
		"timestamp": status.Timestamp,
	})
}

// StoreChecker reports cache store occupancy and failed entries.
type StoreChecker struct {
	store      *cache.Store
	maxEntries int
}

// NewStoreChecker creates a checker named "cache". When maxEntries is
// positive, holding more entries than that is reported as degraded, which
// usually means idle collection is not running.
func NewStoreChecker(store *cache.Store, maxEntries int) *StoreChecker {
	return &StoreChecker{store: store, maxEntries: maxEntries}
}

// Name returns the name of this checker.
func (c *StoreChecker) Name() string { return "cache" }

// Check counts entries by state.
func (c *StoreChecker) Check(ctx context.Context) Result {
	var total, failed, stale, pending int
	for _, key := range c.store.Keys() {
		e, ok := c.store.Get(ctx, key)
		if !ok {
			continue
		}
		total++
		switch e.Status {
		case cache.StatusError:
			failed++
		case cache.StatusPending:
			pending++
		}
		if e.Stale {
			stale++
		}
	}

	details := map[string]any{
		"entries": total,
		"errors":  failed,
		"stale":   stale,
		"pending": pending,
	}
	if c.maxEntries > 0 && total > c.maxEntries {
		return Degraded("cache holds more entries than expected").WithDetails(details)
	}
	return Healthy("cache available").WithDetails(details)
}

// Pinger is a dependency that can be pinged, such as the Redis token store.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingChecker wraps a Pinger under a name.
type PingChecker struct {
	name   string
	target Pinger
}

// NewPingChecker creates a checker that is healthy while target answers.
func NewPingChecker(name string, target Pinger) *PingChecker {
	return &PingChecker{name: name, target: target}
}

// Name returns the name of this checker.
func (c *PingChecker) Name() string { return c.name }

// Check pings the target.
func (c *PingChecker) Check(ctx context.Context) Result {
	if err := c.target.Ping(ctx); err != nil {
		return Unhealthy(c.name+" unreachable", err)
	}
	return Healthy(c.name + " reachable")
}
