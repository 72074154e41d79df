package auth

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"mercator-hq/miarh/pkg/config"
)

func testValidator() *TokenValidator {
	return FromConfig(config.AdminAuthConfig{
		Tokens: []config.AdminTokenConfig{
			{Name: "ops", Token: "ops-secret"},
			{Name: "old", Token: "old-secret", Disabled: true},
		},
	})
}

func TestTokenValidator_Validate(t *testing.T) {
	v := testValidator()

	tests := []struct {
		name    string
		secret  string
		want    string
		wantErr error
	}{
		{"valid", "ops-secret", "ops", nil},
		{"disabled", "old-secret", "", ErrTokenDisabled},
		{"unknown", "nope", "", ErrInvalidToken},
		{"empty", "", "", ErrInvalidToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tok, err := v.Validate(tt.secret)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected error %v, got %v", tt.wantErr, err)
			}
			if tt.wantErr == nil && tok.Name != tt.want {
				t.Errorf("expected token %q, got %q", tt.want, tok.Name)
			}
		})
	}
}

func TestTokenValidator_AddRemove(t *testing.T) {
	v := testValidator()
	if v.Len() != 2 {
		t.Fatalf("expected 2 tokens, got %d", v.Len())
	}

	v.Add(&Token{Name: "ops", Secret: "rotated", Enabled: true})
	if v.Len() != 2 {
		t.Errorf("expected replacement to keep 2 tokens, got %d", v.Len())
	}
	if _, err := v.Validate("ops-secret"); err == nil {
		t.Error("expected rotated-out secret to be rejected")
	}
	if _, err := v.Validate("rotated"); err != nil {
		t.Errorf("expected rotated secret to be accepted, got %v", err)
	}

	v.Remove("ops")
	if v.Len() != 1 {
		t.Errorf("expected 1 token after remove, got %d", v.Len())
	}
}

func TestMiddleware(t *testing.T) {
	mw := NewMiddleware(testValidator(), []string{"/health/live"}, nil)

	var seen *Token
	h := mw.Handle(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = TokenFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		name      string
		path      string
		header    string
		value     string
		want      int
		wantToken string
	}{
		{"public path", "/health/live", "", "", http.StatusOK, ""},
		{"bearer", "/metrics", "Authorization", "Bearer ops-secret", http.StatusOK, "ops"},
		{"lowercase scheme", "/metrics", "Authorization", "bearer ops-secret", http.StatusOK, "ops"},
		{"admin header", "/metrics", HeaderToken, "ops-secret", http.StatusOK, "ops"},
		{"missing", "/metrics", "", "", http.StatusUnauthorized, ""},
		{"basic scheme", "/metrics", "Authorization", "Basic b3BzOnNlY3JldA==", http.StatusUnauthorized, ""},
		{"disabled", "/metrics", "Authorization", "Bearer old-secret", http.StatusUnauthorized, ""},
		{"wrong", "/health/ready", "Authorization", "Bearer guess", http.StatusUnauthorized, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen = nil
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.header != "" {
				req.Header.Set(tt.header, tt.value)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if rec.Code != tt.want {
				t.Fatalf("expected status %d, got %d", tt.want, rec.Code)
			}
			if tt.want == http.StatusUnauthorized && rec.Header().Get("WWW-Authenticate") == "" {
				t.Error("expected WWW-Authenticate header on 401")
			}
			if tt.wantToken != "" && (seen == nil || seen.Name != tt.wantToken) {
				t.Errorf("expected token %q in context, got %+v", tt.wantToken, seen)
			}
		})
	}
}
