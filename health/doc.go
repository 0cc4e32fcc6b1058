// Package health reports whether the console can do its job: whether the
// course service answers, whether the cache store is in a sane state and
// whether the token store backend is reachable.
//
// A Checker reports a Status of Healthy, Degraded or Unhealthy. The
// Aggregator runs every registered checker under one timeout and folds the
// results into a Report:
//
//	agg := health.NewAggregator(health.AggregatorConfig{Logger: logger})
//	agg.Register(health.NewAPIChecker(api))
//	agg.Register(health.NewStoreChecker(store, 0))
//	agg.Register(health.NewPingChecker("tokens", redisTokens))
//
//	report := agg.Run(ctx)
//	if !report.Healthy() {
//	    ...
//	}
//
// Report implements json.Marshaler for status output.
package health
