package apiclient

import (
	"context"
	"net/http"

	"github.com/newmo-oss/ctxtime"
)

// Login exchanges credentials for a token. The token is not stored; callers
// decide where it goes.
func (c *Client) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	var out LoginResponse
	if err := c.do(ctx, call{method: http.MethodPost, path: "/auth/login", body: req}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Profile returns the user the stored token belongs to.
func (c *Client) Profile(ctx context.Context) (*User, error) {
	var out User
	if err := c.do(ctx, call{method: http.MethodGet, path: "/auth/profile"}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Health reports service reachability. Servers without GET /health are
// probed with GET /courses instead; the error of the fallback is returned
// when both fail.
func (c *Client) Health(ctx context.Context) (*HealthStatus, error) {
	var out HealthStatus
	if err := c.do(ctx, call{method: http.MethodGet, path: "/health"}, &out); err == nil {
		if out.Status == "" {
			out.Status = "healthy"
		}
		return &out, nil
	}

	if err := c.do(ctx, call{method: http.MethodGet, path: "/courses"}, nil); err != nil {
		return nil, err
	}
	return &HealthStatus{
		Status:    "healthy",
		Timestamp: ctxtime.Now(ctx).UTC().Format("2006-01-02T15:04:05.000Z07:00"),
	}, nil
}

// Ping reports whether Health succeeds.
func (c *Client) Ping(ctx context.Context) bool {
	_, err := c.Health(ctx)
	return err == nil
}
