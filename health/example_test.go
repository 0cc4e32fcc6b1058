package health_test

import (
	"context"
	"errors"
	"fmt"

	"github.com/jonwraymond/courseops/cache"
	"github.com/jonwraymond/courseops/health"
)

func ExampleAggregator_Run() {
	ctx := context.Background()
	store := cache.NewStore(cache.DefaultPolicy())
	_ = store.Set(ctx, cache.Key{"courses", "list"}, []string{"Go 101"})

	agg := health.NewAggregator()
	agg.Register(health.NewStoreChecker(store, 100))
	agg.Register(health.NewCheckerFunc("api", func(context.Context) health.Result {
		return health.Unhealthy("course service unreachable", errors.New("connection refused"))
	}))

	report := agg.Run(ctx)
	fmt.Println("overall:", report.Status)
	for _, name := range agg.CheckerNames() {
		fmt.Printf("%s: %s\n", name, report.Checks[name].Status)
	}
	// Output:
	// overall: unhealthy
	// cache: healthy
	// api: unhealthy
}
