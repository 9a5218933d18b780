package spotify

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cratebot/cratebot/internal/shared"
)

func testCredentials() shared.CredentialsConfig {
	return shared.CredentialsConfig{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		RefreshToken: "refresh-token",
	}
}

func tokenHandler(calls *atomic.Int64, expiresIn int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		n := calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"access_token":"token-%d","expires_in":%d}`, n, expiresIn)
	}
}

func TestTokenManager(t *testing.T) {
	t.Run("Refreshes On First Use", func(t *testing.T) {
		var calls atomic.Int64
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				t.Errorf("expected POST, got %s", r.Method)
			}
			user, pass, ok := r.BasicAuth()
			if !ok || user != "client-id" || pass != "client-secret" {
				t.Errorf("expected basic auth with client credentials, got %s:%s", user, pass)
			}
			if err := r.ParseForm(); err != nil {
				t.Fatalf("failed to parse form: %v", err)
			}
			if got := r.PostForm.Get("grant_type"); got != "refresh_token" {
				t.Errorf("expected grant_type 'refresh_token', got %q", got)
			}
			if got := r.PostForm.Get("refresh_token"); got != "refresh-token" {
				t.Errorf("expected refresh_token 'refresh-token', got %q", got)
			}
			tokenHandler(&calls, 3600)(w, r)
		}))
		defer server.Close()

		m := NewTokenManager(testCredentials(), server.Client(), nil)
		m.conf.Endpoint.TokenURL = server.URL

		token, err := m.Token(context.Background())
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if token != "token-1" {
			t.Errorf("expected token 'token-1', got %q", token)
		}

		// A fresh token is reused without another exchange
		token, err = m.Token(context.Background())
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if token != "token-1" {
			t.Errorf("expected cached token 'token-1', got %q", token)
		}
		if calls.Load() != 1 {
			t.Errorf("expected 1 refresh call, got %d", calls.Load())
		}
	})

	t.Run("Single Refresh Under Concurrency", func(t *testing.T) {
		var calls atomic.Int64
		server := httptest.NewServer(tokenHandler(&calls, 3600))
		defer server.Close()

		m := NewTokenManager(testCredentials(), server.Client(), nil)
		m.conf.Endpoint.TokenURL = server.URL

		var wg sync.WaitGroup
		for range 10 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if _, err := m.Token(context.Background()); err != nil {
					t.Errorf("expected no error, got %v", err)
				}
			}()
		}
		wg.Wait()

		if calls.Load() != 1 {
			t.Errorf("expected exactly 1 refresh call, got %d", calls.Load())
		}
	})

	t.Run("Refreshes Inside Expiry Buffer", func(t *testing.T) {
		var calls atomic.Int64
		server := httptest.NewServer(tokenHandler(&calls, 200))
		defer server.Close()

		m := NewTokenManager(testCredentials(), server.Client(), nil)
		m.conf.Endpoint.TokenURL = server.URL

		// 200s lifetime sits entirely inside the 5 minute buffer, so every
		// call refreshes
		if _, err := m.Token(context.Background()); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if _, err := m.Token(context.Background()); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if calls.Load() != 2 {
			t.Errorf("expected 2 refresh calls, got %d", calls.Load())
		}
	})

	t.Run("Invalidate Forces Refresh", func(t *testing.T) {
		var calls atomic.Int64
		server := httptest.NewServer(tokenHandler(&calls, 3600))
		defer server.Close()

		m := NewTokenManager(testCredentials(), server.Client(), nil)
		m.conf.Endpoint.TokenURL = server.URL

		if _, err := m.Token(context.Background()); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		m.Invalidate()
		token, err := m.Token(context.Background())
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if token != "token-2" {
			t.Errorf("expected refreshed token 'token-2', got %q", token)
		}
	})

	t.Run("Server Rejection", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"error":"invalid_grant"}`))
		}))
		defer server.Close()

		m := NewTokenManager(testCredentials(), server.Client(), nil)
		m.conf.Endpoint.TokenURL = server.URL

		_, err := m.Token(context.Background())
		if err == nil {
			t.Fatal("expected error, got nil")
		}

		var authErr *AuthError
		if !errors.As(err, &authErr) {
			t.Fatalf("expected AuthError, got %T", err)
		}
		if authErr.Status != http.StatusBadRequest {
			t.Errorf("expected status 400, got %d", authErr.Status)
		}
		if !errors.Is(err, shared.ErrRefreshFailed) {
			t.Error("expected error to wrap ErrRefreshFailed")
		}
	})

	t.Run("Missing Refresh Token", func(t *testing.T) {
		creds := testCredentials()
		creds.RefreshToken = ""
		m := NewTokenManager(creds, http.DefaultClient, nil)

		_, err := m.Token(context.Background())
		if !errors.Is(err, shared.ErrNoRefreshToken) {
			t.Errorf("expected ErrNoRefreshToken, got %v", err)
		}
	})

	t.Run("Missing Expires In Defaults To An Hour", func(t *testing.T) {
		var calls atomic.Int64
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, `{"access_token":"token-1"}`)
		}))
		defer server.Close()

		m := NewTokenManager(testCredentials(), server.Client(), nil)
		m.conf.Endpoint.TokenURL = server.URL

		before := time.Now()
		if _, err := m.Token(context.Background()); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		// The assumed lifetime keeps the token outside the refresh buffer,
		// so a second call reuses it instead of refreshing forever
		if _, err := m.Token(context.Background()); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if calls.Load() != 1 {
			t.Errorf("expected 1 refresh call, got %d", calls.Load())
		}

		tok, err := m.source.Token()
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		want := before.Add(time.Hour)
		if tok.Expiry.Before(want.Add(-time.Minute)) || tok.Expiry.After(want.Add(time.Minute)) {
			t.Errorf("expected expiry near %v, got %v", want, tok.Expiry)
		}
	})
}
