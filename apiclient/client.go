package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"resty.dev/v3"

	"github.com/jonwraymond/courseops/auth"
	"github.com/jonwraymond/courseops/observe"
)

// Defaults applied by New.
const (
	DefaultVersion = "/api/v1"
	DefaultTimeout = 10 * time.Second
)

// RequestIDHeader is set on every request.
const RequestIDHeader = "X-Request-ID"

// Config configures a Client.
type Config struct {
	// BaseURL is the service root, e.g. http://localhost:8080. Required.
	BaseURL string

	// Version is appended to BaseURL. Default: DefaultVersion.
	Version string

	// Timeout bounds each request. Default: DefaultTimeout.
	Timeout time.Duration

	// Tokens supplies the bearer token. Default: an empty MemoryTokenStore.
	Tokens auth.TokenStore

	// OnUnauthorized runs after a 401 cleared the token store.
	OnUnauthorized func(ctx context.Context)

	// Transport is the base round tripper under the auth transport.
	Transport http.RoundTripper

	Logger observe.Logger
}

// Client issues requests against the course service.
//
// Contract:
// - Concurrency: safe for concurrent use.
// - Errors: every failure is an *Error.
type Client struct {
	rc             *resty.Client
	tokens         auth.TokenStore
	onUnauthorized func(context.Context)
	logger         observe.Logger
}

// New creates a Client.
func New(cfg Config) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, ErrMissingBaseURL
	}
	if cfg.Version == "" {
		cfg.Version = DefaultVersion
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Tokens == nil {
		cfg.Tokens = auth.NewMemoryTokenStore()
	}
	if cfg.Logger == nil {
		cfg.Logger = observe.NopLogger()
	}

	rc := resty.New().
		SetBaseURL(base+"/"+strings.TrimLeft(cfg.Version, "/")).
		SetTimeout(cfg.Timeout).
		SetTransport(auth.NewTransport(cfg.Tokens, cfg.Transport)).
		SetHeader("Accept", "application/json").
		SetHeader("Content-Type", "application/json")

	return &Client{
		rc:             rc,
		tokens:         cfg.Tokens,
		onUnauthorized: cfg.OnUnauthorized,
		logger:         cfg.Logger,
	}, nil
}

// Tokens returns the token store the client reads from.
func (c *Client) Tokens() auth.TokenStore {
	return c.tokens
}

// BaseURL returns the versioned base URL.
func (c *Client) BaseURL() string {
	return c.rc.BaseURL()
}

// Close releases idle connections.
func (c *Client) Close() error {
	return c.rc.Close()
}

type call struct {
	method     string
	path       string
	pathParams map[string]string
	query      map[string]string
	body       any
}

func (c *Client) do(ctx context.Context, in call, out any) error {
	requestID := uuid.NewString()
	req := c.rc.R().
		SetContext(ctx).
		SetHeader(RequestIDHeader, requestID).
		SetDoNotParseResponse(true)
	if len(in.pathParams) > 0 {
		req.SetPathParams(in.pathParams)
	}
	if len(in.query) > 0 {
		req.SetQueryParams(in.query)
	}
	if in.body != nil {
		req.SetBody(in.body)
	}

	resp, err := req.Execute(in.method, in.path)
	if err != nil || resp == nil || resp.RawResponse == nil {
		if err == nil {
			err = errors.New("no response")
		}
		c.logger.Warn(ctx, "request failed without response",
			observe.Field{Key: "method", Value: in.method},
			observe.Field{Key: "path", Value: in.path},
			observe.Field{Key: "request_id", Value: requestID},
			observe.Field{Key: "error", Value: err},
		)
		return newTransportError(in.method, in.path, err)
	}
	defer resp.RawResponse.Body.Close()

	data, err := io.ReadAll(resp.RawResponse.Body)
	if err != nil {
		return newTransportError(in.method, in.path, err)
	}

	status := resp.StatusCode()
	c.logger.Debug(ctx, "request completed",
		observe.Field{Key: "method", Value: in.method},
		observe.Field{Key: "path", Value: in.path},
		observe.Field{Key: "status", Value: status},
		observe.Field{Key: "request_id", Value: requestID},
	)

	if status < 200 || status > 299 {
		apiErr := newStatusError(in.method, in.path, status, decodePayload(data))
		if status == http.StatusUnauthorized {
			c.handleUnauthorized(ctx)
		}
		return apiErr
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &Error{
			Status:  status,
			Message: fmt.Sprintf("invalid response body: %v", err),
			Method:  in.method,
			Path:    in.path,
			Err:     err,
		}
	}
	return nil
}

func decodePayload(data []byte) *ErrorPayload {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	var p ErrorPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil
	}
	if p.Error == "" && p.Message == "" {
		return nil
	}
	return &p
}

func (c *Client) handleUnauthorized(ctx context.Context) {
	if err := c.tokens.Clear(ctx); err != nil {
		c.logger.Error(ctx, "failed to clear token after 401", observe.Field{Key: "error", Value: err})
	}
	c.logger.Warn(ctx, "session rejected by server; credentials cleared")
	if c.onUnauthorized != nil {
		c.onUnauthorized(ctx)
	}
}
