package query_test

import (
	"context"
	"fmt"

	"github.com/jonwraymond/courseops/cache"
	"github.com/jonwraymond/courseops/query"
)

func ExampleQuery() {
	ctx := context.Background()
	client := query.NewClient(cache.NewStore(cache.DefaultPolicy()))
	defer client.Close()

	calls := 0
	detail := query.NewDescriptor("course.detail", cache.NewKey("courses", "detail", "c1"),
		func(context.Context) (string, error) {
			calls++
			return "Intro to Go", nil
		})

	first := query.Query(ctx, client, detail)
	second := query.Query(ctx, client, detail)

	fmt.Println(first.Data, second.Data)
	fmt.Println("fetches:", calls)
	// Output:
	// Intro to Go Intro to Go
	// fetches: 1
}
