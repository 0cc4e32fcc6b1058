// Package resilience provides the retry policy shared by the query and
// mutation orchestrators.
//
// A Retry runs an operation, classifies its failure and sleeps with
// exponential, linear or constant backoff before trying again. Failures are
// classified through the StatusCoder interface so that the policy does not
// depend on any particular API client:
//
//   - status 0 (no response received) is a transport failure
//   - 400-499 is a client error and is never retried by the presets
//   - 500-599 is a server error and is retried with backoff
//
// # Presets
//
//	// Queries: initial attempt + 3 retries, 1s doubling, capped at 30s.
//	r := resilience.NewRetry(resilience.QueryRetryConfig())
//
//	// Mutations: one retry after 1s, transport failures only.
//	r := resilience.NewRetry(resilience.MutationRetryConfig())
//
//	err := r.Execute(ctx, func(ctx context.Context) error {
//	    return callRemoteAPI(ctx)
//	})
package resilience
