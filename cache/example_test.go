package cache_test

import (
	"context"
	"fmt"

	"github.com/jonwraymond/courseops/cache"
)

func ExampleStore_Invalidate() {
	ctx := context.Background()
	store := cache.NewStore(cache.DefaultPolicy())

	_ = store.Set(ctx, cache.NewKey("courses", "list"), []string{"Go 101"})
	_ = store.Set(ctx, cache.NewKey("courses", "detail", "c1"), "Go 101")
	_ = store.Set(ctx, cache.NewKey("students", "admin"), []string{})

	n := store.Invalidate(ctx, cache.NewKey("courses"))
	entry, _ := store.Get(ctx, cache.NewKey("courses", "list"))

	fmt.Println("invalidated:", n)
	fmt.Println("stale:", entry.Stale)
	fmt.Println("value kept:", entry.Value)
	// Output:
	// invalidated: 2
	// stale: true
	// value kept: [Go 101]
}

func ExampleStore_Apply() {
	ctx := context.Background()
	store := cache.NewStore(cache.DefaultPolicy())
	detail := cache.NewKey("courses", "detail", "c9")

	_ = store.Apply(ctx,
		cache.Invalidate(cache.NewKey("courses", "list")),
		cache.Set(detail, "Distributed Systems"),
	)

	entry, ok := store.Get(ctx, detail)
	fmt.Println(ok, entry.Status, entry.Value)
	// Output:
	// true success Distributed Systems
}

func ExampleKey_Equal() {
	type filters struct {
		Search string `json:"search"`
		Page   int    `json:"page"`
	}
	a := cache.NewKey("courses", "search", filters{Search: "go", Page: 1})
	b := cache.NewKey("courses", "search", map[string]any{"page": 1, "search": "go"})

	fmt.Println(a.Equal(b))
	fmt.Println(a)
	// Output:
	// true
	// ["courses","search",{"page":1,"search":"go"}]
}
