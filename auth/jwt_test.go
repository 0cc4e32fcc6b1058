package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/go-cmp/cmp"
)

func TestInspectToken(t *testing.T) {
	exp := fixedNow.Add(time.Hour)
	token := signToken(t, jwt.MapClaims{
		"sub":      "u-1",
		"username": "alice",
		"role":     "admin",
		"exp":      exp.Unix(),
		"iat":      fixedNow.Unix(),
	})

	id, err := InspectToken(token)
	if err != nil {
		t.Fatalf("InspectToken() error = %v", err)
	}

	if id.Subject != "u-1" || id.Username != "alice" {
		t.Errorf("identity = %+v", id)
	}
	if diff := cmp.Diff([]string{"admin"}, id.Roles); diff != "" {
		t.Errorf("roles mismatch (-want +got):\n%s", diff)
	}
	if !id.ExpiresAt.Equal(exp.Truncate(time.Second)) {
		t.Errorf("ExpiresAt = %v, want %v", id.ExpiresAt, exp)
	}
	if !id.IsAdmin() {
		t.Error("expected admin identity")
	}
}

func TestInspectToken_SignatureNotVerified(t *testing.T) {
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "u-2"}).
		SignedString([]byte("some-other-secret"))
	if err != nil {
		t.Fatal(err)
	}
	id, err := InspectToken(token)
	if err != nil {
		t.Fatalf("InspectToken() error = %v", err)
	}
	if id.Username != "u-2" {
		t.Errorf("Username = %q, want fallback to subject", id.Username)
	}
}

func TestInspectToken_RolesArray(t *testing.T) {
	id, err := InspectToken(signToken(t, jwt.MapClaims{"sub": "u", "roles": []any{"student", "admin"}}))
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"student", "admin"}, id.Roles); diff != "" {
		t.Errorf("roles mismatch (-want +got):\n%s", diff)
	}
}

func TestInspectToken_Errors(t *testing.T) {
	tests := []struct {
		name    string
		token   string
		wantErr error
	}{
		{"empty", "", ErrEmptyToken},
		{"blank", "   ", ErrEmptyToken},
		{"two segments", "abc.def", ErrTokenMalformed},
		{"garbage payload", "abc.!!!.def", ErrTokenMalformed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := InspectToken(tt.token); !errors.Is(err, tt.wantErr) {
				t.Fatalf("InspectToken() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestIsTokenExpired(t *testing.T) {
	tests := []struct {
		name  string
		token func(t *testing.T) string
		want  bool
	}{
		{"malformed counts as expired", func(*testing.T) string { return "not-a-jwt" }, true},
		{"empty counts as expired", func(*testing.T) string { return "" }, true},
		{"no exp never expires", func(t *testing.T) string { return signToken(t, jwt.MapClaims{"sub": "u"}) }, false},
		{"future exp", func(t *testing.T) string {
			return signToken(t, jwt.MapClaims{"exp": fixedNow.Add(time.Minute).Unix()})
		}, false},
		{"past exp", func(t *testing.T) string {
			return signToken(t, jwt.MapClaims{"exp": fixedNow.Add(-time.Minute).Unix()})
		}, true},
		{"exp exactly now", func(t *testing.T) string {
			return signToken(t, jwt.MapClaims{"exp": fixedNow.Unix()})
		}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsTokenExpired(tt.token(t), fixedNow); got != tt.want {
				t.Errorf("IsTokenExpired() = %v, want %v", got, tt.want)
			}
		})
	}
}
