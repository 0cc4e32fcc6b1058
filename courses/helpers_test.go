package courses

import (
	"context"
	"testing"
	"time"

	"github.com/jonwraymond/courseops/apiclient"
	"github.com/jonwraymond/courseops/apiclient/apitest"
	"github.com/jonwraymond/courseops/cache"
	"github.com/jonwraymond/courseops/mutation"
	"github.com/jonwraymond/courseops/query"
	"github.com/jonwraymond/courseops/resilience"
)

type env struct {
	srv     *apitest.Server
	api     *apiclient.Client
	store   *cache.Store
	queries *query.Client
	svc     *Service
}

func newEnv(t *testing.T) *env {
	t.Helper()
	srv := apitest.New()
	t.Cleanup(srv.Close)

	api, err := apiclient.New(apiclient.Config{BaseURL: srv.BaseURL()})
	if err != nil {
		t.Fatalf("apiclient.New() error = %v", err)
	}
	t.Cleanup(func() { _ = api.Close() })

	qcfg := resilience.QueryRetryConfig()
	qcfg.InitialDelay, qcfg.MaxDelay = time.Millisecond, 4*time.Millisecond
	mcfg := resilience.MutationRetryConfig()
	mcfg.InitialDelay, mcfg.MaxDelay = time.Millisecond, time.Millisecond

	store := cache.NewStore(cache.DefaultPolicy())
	queries := query.NewClient(store, query.WithRetry(qcfg))
	t.Cleanup(queries.Close)

	return &env{
		srv:     srv,
		api:     api,
		store:   store,
		queries: queries,
		svc:     NewService(api, mutation.NewRunner(store, mutation.WithRetry(mcfg))),
	}
}

func (e *env) seedCourse(title string, d apiclient.Difficulty) apiclient.Course {
	return e.srv.AddCourse(apiclient.Course{Title: title, Description: title + " description", Difficulty: d})
}

func (e *env) entry(t *testing.T, key cache.Key) cache.Entry {
	t.Helper()
	got, ok := e.store.Get(context.Background(), key)
	if !ok {
		t.Fatalf("no entry for %s", key)
	}
	return got
}
