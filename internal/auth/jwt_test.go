package auth

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/isdelr/smarttodo-be/internal/apperr"
)

func TestLoginTokenRoundTrip(t *testing.T) {
	m := NewTokenManager("secret")

	token, err := m.IssueLoginToken("user-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	claims, err := m.VerifyLoginToken(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.UserID != "user-1" || claims.Kind != KindLogin {
		t.Fatalf("unexpected claims %+v", claims)
	}
	if got := claims.ExpiresAt.Sub(claims.IssuedAt.Time); got != LoginTokenTTL {
		t.Fatalf("expected 7 day lifetime, got %s", got)
	}
}

func TestExpiredTokenIsRejected(t *testing.T) {
	issuer := NewTokenManager("secret")
	issuer.now = func() time.Time { return time.Now().Add(-LoginTokenTTL - time.Minute) }

	token, err := issuer.IssueLoginToken("user-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	verifier := NewTokenManager("secret")
	if _, err := verifier.VerifyLoginToken(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for expired token, got %v", err)
	}
}

func TestResetTokenExpiresAfterFifteenMinutes(t *testing.T) {
	issuer := NewTokenManager("secret")
	issuer.now = func() time.Time { return time.Now().Add(-16 * time.Minute) }

	token, err := issuer.IssueResetToken("ann@example.com")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := NewTokenManager("secret").VerifyResetToken(token); err == nil {
		t.Fatal("expected a 16 minute old reset token to be rejected")
	}
}

func TestTokenKindsAreNotInterchangeable(t *testing.T) {
	m := NewTokenManager("secret")

	reset, err := m.IssueResetToken("ann@example.com")
	if err != nil {
		t.Fatalf("issue reset: %v", err)
	}
	if _, err := m.VerifyLoginToken(reset); err == nil {
		t.Fatal("reset token must not authenticate requests")
	}

	login, err := m.IssueLoginToken("user-1")
	if err != nil {
		t.Fatalf("issue login: %v", err)
	}
	if _, err := m.VerifyResetToken(login); err == nil {
		t.Fatal("login token must not authorize a password reset")
	}

	email, err := m.VerifyResetToken(reset)
	if err != nil || email != "ann@example.com" {
		t.Fatalf("expected reset token to verify, got %q %v", email, err)
	}
}

func TestWrongSecretIsRejected(t *testing.T) {
	token, err := NewTokenManager("secret").IssueLoginToken("user-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := NewTokenManager("other").VerifyLoginToken(token); err == nil {
		t.Fatal("expected signature mismatch to fail")
	}
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		want   string
		ok     bool
	}{
		{"Bearer abc.def.ghi", "abc.def.ghi", true},
		{"", "", false},
		{"abc.def.ghi", "", false},
		{"bearer abc", "", false},
		{"Bearer", "", false},
		{"Bearer ", "", false},
		{"Bearer a b", "", false},
		{"Basic abc", "", false},
	}
	for _, tt := range tests {
		got, ok := BearerToken(tt.header)
		if got != tt.want || ok != tt.ok {
			t.Errorf("BearerToken(%q) = %q, %v; want %q, %v", tt.header, got, ok, tt.want, tt.ok)
		}
	}
}

func TestJWTMiddleware(t *testing.T) {
	m := NewTokenManager("secret")
	token, err := m.IssueLoginToken("user-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	var seenUser string
	handler := JWTMiddleware(m)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := ClaimsFromContext(r.Context())
		if !ok {
			t.Error("expected claims in context")
		}
		seenUser = claims.UserID
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"valid", "Bearer " + token, http.StatusOK},
		{"missing", "", http.StatusUnauthorized},
		{"malformed", "Token " + token, http.StatusUnauthorized},
		{"garbage", "Bearer not-a-jwt", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/tasks", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.status {
				t.Fatalf("expected %d, got %d", tt.status, rec.Code)
			}
			if tt.status == http.StatusUnauthorized && !strings.Contains(rec.Body.String(), `"error"`) {
				t.Fatalf("expected error envelope, got %s", rec.Body.String())
			}
		})
	}

	if seenUser != "user-1" {
		t.Fatalf("expected handler to see user-1, got %q", seenUser)
	}
}

func TestVerifyHeaderReportsAuthErrors(t *testing.T) {
	m := NewTokenManager("secret")
	reset, err := m.IssueResetToken("ann@example.com")
	if err != nil {
		t.Fatalf("issue reset: %v", err)
	}

	for _, header := range []string{"", "Bearer", "Bearer " + reset} {
		_, err := m.VerifyHeader(header)
		if !apperr.Is(err, apperr.KindAuth) {
			t.Errorf("VerifyHeader(%q): expected auth error, got %v", header, err)
		}
	}
}
