package console

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/newmo-oss/ctxtime"
	"github.com/redis/go-redis/v9"

	"github.com/jonwraymond/courseops/apiclient"
	"github.com/jonwraymond/courseops/auth"
	"github.com/jonwraymond/courseops/cache"
	"github.com/jonwraymond/courseops/config"
	"github.com/jonwraymond/courseops/courses"
	"github.com/jonwraymond/courseops/health"
	"github.com/jonwraymond/courseops/mutation"
	"github.com/jonwraymond/courseops/observe"
	"github.com/jonwraymond/courseops/query"
)

// ErrClosed is returned by operations on a closed Console.
var ErrClosed = errors.New("console: closed")

type options struct {
	transport      http.RoundTripper
	tokens         auth.TokenStore
	redis          redis.UniversalClient
	observer       observe.Observer
	onUnauthorized func(context.Context)
}

// Option customizes New.
type Option func(*options)

// WithTransport sets the HTTP transport under the auth layer.
func WithTransport(rt http.RoundTripper) Option {
	return func(o *options) { o.transport = rt }
}

// WithTokenStore replaces the token store selected by auth.store.
func WithTokenStore(s auth.TokenStore) Option {
	return func(o *options) { o.tokens = s }
}

// WithRedisClient supplies the client for the redis token store instead of
// dialing auth.redis.addr. The console does not close it.
func WithRedisClient(c redis.UniversalClient) Option {
	return func(o *options) { o.redis = c }
}

// WithObserver supplies telemetry instead of building it from config. The
// console does not shut it down.
func WithObserver(obs observe.Observer) Option {
	return func(o *options) { o.observer = obs }
}

// WithOnUnauthorized runs fn after a 401 cleared the session, for example
// to send the user back to the login prompt.
func WithOnUnauthorized(fn func(context.Context)) Option {
	return func(o *options) { o.onUnauthorized = fn }
}

// Console owns one session against the course service.
//
// Contract:
// - Concurrency: safe for concurrent use.
// - Lifecycle: Close stops the cache janitor and releases connections.
type Console struct {
	cfg     *config.Config
	logger  observe.Logger
	tokens  auth.TokenStore
	api     *apiclient.Client
	store   *cache.Store
	queries *query.Client
	service *courses.Service
	health  *health.Aggregator

	closers []func(context.Context) error

	stopJanitor context.CancelFunc
	janitorDone chan struct{}

	mu     sync.Mutex
	closed bool
}

// New builds a Console. cfg must be valid; New calls cfg.Validate.
func New(ctx context.Context, cfg *config.Config, opts ...Option) (*Console, error) {
	if cfg == nil {
		return nil, errors.New("console: nil config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	c := &Console{cfg: cfg}

	obs := o.observer
	if obs == nil {
		var err error
		obs, err = observe.NewObserver(ctx, cfg.ObserveConfig())
		if err != nil {
			return nil, fmt.Errorf("console: telemetry: %w", err)
		}
		c.closers = append(c.closers, obs.Shutdown)
	}
	c.logger = obs.Logger()

	mw, err := observe.MiddlewareFromObserver(obs)
	if err != nil {
		c.shutdown(ctx)
		return nil, fmt.Errorf("console: middleware: %w", err)
	}

	tokens, pinger, err := c.tokenStore(cfg, o)
	if err != nil {
		c.shutdown(ctx)
		return nil, err
	}
	c.tokens = tokens

	c.store = cache.NewStore(cfg.CachePolicy(), cache.WithLogger(c.logger))

	api, err := apiclient.New(apiclient.Config{
		BaseURL:   cfg.API.BaseURL,
		Version:   cfg.API.Version,
		Timeout:   cfg.API.Timeout,
		Tokens:    tokens,
		Transport: o.transport,
		Logger:    c.logger,
		OnUnauthorized: func(ctx context.Context) {
			c.store.Clear(ctx)
			if o.onUnauthorized != nil {
				o.onUnauthorized(ctx)
			}
		},
	})
	if err != nil {
		c.shutdown(ctx)
		return nil, fmt.Errorf("console: api client: %w", err)
	}
	c.api = api
	c.closers = append(c.closers, func(context.Context) error { return api.Close() })

	c.queries = query.NewClient(c.store,
		query.WithRetry(cfg.QueryRetry()),
		query.WithMiddleware(mw),
	)
	runner := mutation.NewRunner(c.store,
		mutation.WithRetry(cfg.MutationRetry()),
		mutation.WithMiddleware(mw),
	)
	c.service = courses.NewService(api, runner)

	c.health = health.NewAggregator(health.AggregatorConfig{
		Timeout: cfg.Health.Timeout,
		Logger:  c.logger,
	})
	c.health.Register(health.NewAPIChecker(api))
	c.health.Register(health.NewStoreChecker(c.store, cfg.Health.MaxCacheEntries))
	if pinger != nil {
		c.health.Register(health.NewPingChecker("tokens", pinger))
	}

	if interval := cfg.Query.JanitorInterval; interval > 0 && cfg.Query.GCTime > 0 {
		jctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		c.stopJanitor = cancel
		c.janitorDone = make(chan struct{})
		go func() {
			defer close(c.janitorDone)
			c.store.RunJanitor(jctx, interval)
		}()
	}

	c.logger.Info(ctx, "console ready",
		observe.Field{Key: "base_url", Value: api.BaseURL()},
		observe.Field{Key: "token_store", Value: cfg.Auth.Store},
	)
	return c, nil
}

func (c *Console) tokenStore(cfg *config.Config, o options) (auth.TokenStore, health.Pinger, error) {
	if o.tokens != nil {
		pinger, _ := o.tokens.(health.Pinger)
		return o.tokens, pinger, nil
	}

	switch cfg.Auth.Store {
	case config.TokenStoreRedis:
		client := o.redis
		if client == nil {
			rc := redis.NewClient(&redis.Options{
				Addr:     cfg.Auth.Redis.Addr,
				Password: cfg.Auth.Redis.Password,
				DB:       cfg.Auth.Redis.DB,
			})
			c.closers = append(c.closers, func(context.Context) error { return rc.Close() })
			client = rc
		}
		var ropts []auth.RedisOption
		if cfg.Auth.Redis.Key != "" {
			ropts = append(ropts, auth.WithRedisKey(cfg.Auth.Redis.Key))
		}
		store := auth.NewRedisTokenStore(client, ropts...)
		return store, store, nil
	default:
		return auth.NewMemoryTokenStore(), nil, nil
	}
}

// Config returns the configuration the console was built from.
func (c *Console) Config() *config.Config { return c.cfg }

// Logger returns the console logger.
func (c *Console) Logger() observe.Logger { return c.logger }

// API returns the remote API client.
func (c *Console) API() *apiclient.Client { return c.api }

// Store returns the console's cache store.
func (c *Console) Store() *cache.Store { return c.store }

// Queries returns the query client for the course query descriptors.
func (c *Console) Queries() *query.Client { return c.queries }

// Service returns the validated course writes.
func (c *Console) Service() *courses.Service { return c.service }

// Health runs every health check.
func (c *Console) Health(ctx context.Context) health.Report {
	return c.health.Run(ctx)
}

// Login signs in. Every cached entry is refreshed on success.
func (c *Console) Login(ctx context.Context, username, password string) (apiclient.LoginResponse, error) {
	if c.isClosed() {
		return apiclient.LoginResponse{}, ErrClosed
	}
	resp, err := c.service.Login(ctx, username, password)
	if err != nil {
		c.logger.Warn(ctx, "login failed", observe.Field{Key: "username", Value: username}, observe.Field{Key: "error", Value: err})
		return apiclient.LoginResponse{}, err
	}
	c.logger.Info(ctx, "logged in", observe.Field{Key: "username", Value: resp.User.Username})
	return resp, nil
}

// Session describes the signed-in user from the stored token. It returns
// auth.ErrNoToken when nobody is signed in and auth.ErrTokenExpired when
// the token is past its exp claim.
func (c *Console) Session(ctx context.Context) (*auth.Identity, error) {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}
	id, err := auth.InspectToken(token)
	if err != nil {
		return nil, err
	}
	if id.IsExpired(ctxtime.Now(ctx)) {
		return id, auth.ErrTokenExpired
	}
	return id, nil
}

// Logout clears the token and drops every cached entry. Fetches still in
// flight cannot write their results back.
func (c *Console) Logout(ctx context.Context) error {
	err := c.tokens.Clear(ctx)
	c.store.Clear(ctx)
	if err != nil {
		return fmt.Errorf("console: clear token: %w", err)
	}
	c.logger.Info(ctx, "logged out")
	return nil
}

// Close stops background work and releases resources. It is idempotent.
func (c *Console) Close(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	if c.stopJanitor != nil {
		c.stopJanitor()
		<-c.janitorDone
	}
	c.queries.Close()
	return c.shutdown(ctx)
}

func (c *Console) shutdown(ctx context.Context) error {
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	c.closers = nil
	return errors.Join(errs...)
}

func (c *Console) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}
