package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"
)

func testAPI() *API {
	return &API{
		jwtSecret: []byte("test-secret"),
		oauthConfig: &oauth2.Config{
			ClientID:    "client",
			RedirectURL: "http://localhost:3000/api/auth/callback",
			Scopes:      []string{"openid", "email", "profile"},
			Endpoint: oauth2.Endpoint{
				AuthURL:  "https://accounts.google.com/o/oauth2/auth",
				TokenURL: "https://oauth2.googleapis.com/token",
			},
		},
	}
}

func signToken(t *testing.T, a *API, claims *Claims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(a.jwtSecret)
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return signed
}

func TestHandleLogin(t *testing.T) {
	a := testAPI()

	req := httptest.NewRequest("GET", "/api/auth/login", nil)
	w := httptest.NewRecorder()

	a.handleLogin(w, req)

	var resp map[string]string
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !strings.Contains(resp["auth_url"], "accounts.google.com") {
		t.Errorf("expected Google auth URL, got %q", resp["auth_url"])
	}
	if resp["state"] == "" {
		t.Error("expected a state value")
	}
	if !strings.Contains(resp["auth_url"], "state="+resp["state"]) {
		t.Errorf("expected auth URL to carry the state, got %q", resp["auth_url"])
	}
}

func TestAuthMiddleware(t *testing.T) {
	a := testAPI()

	validToken := signToken(t, a, &Claims{
		UserID: "u1",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	})
	expiredToken := signToken(t, a, &Claims{
		UserID: "u1",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-2 * time.Hour)),
		},
	})

	tests := []struct {
		name       string
		authHeader string
		wantStatus int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"not a bearer token", "Basic abc", http.StatusUnauthorized},
		{"garbage token", "Bearer not-a-jwt", http.StatusUnauthorized},
		{"expired token", "Bearer " + expiredToken, http.StatusUnauthorized},
		{"valid token", "Bearer " + validToken, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotUserID string
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if claims := claimsFrom(r); claims != nil {
					gotUserID = claims.UserID
				}
				w.WriteHeader(http.StatusOK)
			})

			req := httptest.NewRequest("GET", "/api/groups", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			w := httptest.NewRecorder()

			a.authMiddleware(next).ServeHTTP(w, req)

			if w.Result().StatusCode != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, w.Result().StatusCode)
			}
			if tt.wantStatus == http.StatusOK && gotUserID != "u1" {
				t.Errorf("expected claims in context, got user %q", gotUserID)
			}
		})
	}
}

func TestRandomState(t *testing.T) {
	a := randomState(32)
	b := randomState(32)

	if len(a) != 32 || len(b) != 32 {
		t.Errorf("expected length 32, got %d and %d", len(a), len(b))
	}
	if a == b {
		t.Error("expected two random strings to differ")
	}
}
