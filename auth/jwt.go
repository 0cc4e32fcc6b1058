package auth

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var unverifiedParser = jwt.NewParser()

// InspectToken decodes the claims of a JWT without verifying its signature.
// A token that is not three dot-separated segments of base64 JSON yields
// ErrTokenMalformed.
func InspectToken(token string) (*Identity, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrEmptyToken
	}

	claims := jwt.MapClaims{}
	if _, _, err := unverifiedParser.ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenMalformed, err)
	}

	return identityFromClaims(claims), nil
}

// IsTokenExpired reports whether token should no longer be sent. Empty or
// malformed tokens count as expired; tokens without exp never expire.
func IsTokenExpired(token string, now time.Time) bool {
	id, err := InspectToken(token)
	if err != nil {
		return true
	}
	return id.IsExpired(now)
}

func identityFromClaims(claims jwt.MapClaims) *Identity {
	id := &Identity{Claims: make(map[string]any, len(claims))}
	for k, v := range claims {
		id.Claims[k] = v
	}

	if sub, err := claims.GetSubject(); err == nil {
		id.Subject = sub
	}
	if name, ok := claims["username"].(string); ok && name != "" {
		id.Username = name
	} else {
		id.Username = id.Subject
	}

	switch roles := claims["roles"].(type) {
	case []any:
		id.Roles = make([]string, 0, len(roles))
		for _, r := range roles {
			if s, ok := r.(string); ok {
				id.Roles = append(id.Roles, s)
			}
		}
	case string:
		id.Roles = []string{roles}
	}
	if role, ok := claims["role"].(string); ok && role != "" && !id.HasRole(role) {
		id.Roles = append(id.Roles, role)
	}

	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		id.ExpiresAt = exp.Time
	}
	if iat, err := claims.GetIssuedAt(); err == nil && iat != nil {
		id.IssuedAt = iat.Time
	}

	return id
}
