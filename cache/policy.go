package cache

import "time"

// Defaults for Policy.
const (
	DefaultStaleTime = 5 * time.Minute
	DefaultGCTime    = 10 * time.Minute
)

// Policy configures staleness and idle eviction.
type Policy struct {
	// StaleTime is how long a successful result stays fresh when a query
	// does not set its own. Zero means always stale.
	StaleTime time.Duration

	// GCTime is how long an entry without subscribers is kept.
	// Zero or negative disables eviction.
	GCTime time.Duration
}

// DefaultPolicy returns StaleTime 5 minutes and GCTime 10 minutes.
func DefaultPolicy() Policy {
	return Policy{
		StaleTime: DefaultStaleTime,
		GCTime:    DefaultGCTime,
	}
}

// EffectiveStaleTime returns override when set, else the policy default.
func (p Policy) EffectiveStaleTime(override *time.Duration) time.Duration {
	if override != nil {
		if *override < 0 {
			return 0
		}
		return *override
	}
	if p.StaleTime < 0 {
		return 0
	}
	return p.StaleTime
}

// ShouldCollect reports whether idle eviction is enabled.
func (p Policy) ShouldCollect() bool {
	return p.GCTime > 0
}
