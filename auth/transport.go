package auth

import (
	"net/http"

	"github.com/newmo-oss/ctxtime"
)

// Transport is an http.RoundTripper that adds "Authorization: Bearer <token>"
// when the store holds a token that has not expired. Requests that already
// carry an Authorization header are left alone.
type Transport struct {
	Store TokenStore

	// Base is the underlying transport. Default: http.DefaultTransport.
	Base http.RoundTripper
}

// NewTransport wraps base with bearer token injection.
func NewTransport(store TokenStore, base http.RoundTripper) *Transport {
	return &Transport{Store: store, Base: base}
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}
	if t.Store == nil || req.Header.Get("Authorization") != "" {
		return base.RoundTrip(req)
	}

	ctx := req.Context()
	token, err := t.Store.Token(ctx)
	if err != nil || IsTokenExpired(token, ctxtime.Now(ctx)) {
		return base.RoundTrip(req)
	}

	// RoundTrippers must not modify the caller's request.
	clone := req.Clone(ctx)
	clone.Header.Set("Authorization", "Bearer "+token)
	return base.RoundTrip(clone)
}
