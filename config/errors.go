package config

import "errors"

var (
	// ErrMissingEnv indicates a ${VAR} reference to an unset variable.
	ErrMissingEnv = errors.New("config: missing required environment variables")

	// ErrMissingBaseURL indicates api.base_url is empty.
	ErrMissingBaseURL = errors.New("config: api.base_url is required")

	// ErrInvalidBaseURL indicates api.base_url is not an absolute http(s) URL.
	ErrInvalidBaseURL = errors.New("config: api.base_url must be an absolute http or https URL")

	// ErrInvalidDuration indicates a duration outside its allowed range.
	ErrInvalidDuration = errors.New("config: invalid duration")

	// ErrInvalidRetry indicates a retry policy that cannot run.
	ErrInvalidRetry = errors.New("config: invalid retry policy")

	// ErrUnknownTokenStore indicates auth.store is neither memory nor redis.
	ErrUnknownTokenStore = errors.New("config: unknown token store")

	// ErrMissingRedisAddr indicates auth.store is redis without an address.
	ErrMissingRedisAddr = errors.New("config: auth.redis.addr is required for the redis token store")
)
