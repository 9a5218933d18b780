package spotify

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/cratebot/cratebot/internal/shared"
	"golang.org/x/oauth2"
)

const (
	defaultTokenURL = "https://accounts.spotify.com/api/token"

	// refreshBuffer is how far before expiry a token is treated as stale.
	refreshBuffer = 5 * time.Minute

	// defaultLifetime is assumed when the token response omits expires_in.
	defaultLifetime = time.Hour
)

// TokenManager owns the access token for the configured account, minting and
// refreshing it through [oauth2] with the long-lived refresh token.
//
// The mutex is held for the full duration of a refresh, so at most one
// exchange is in flight and concurrent callers of [TokenManager.Token] wait
// for its result instead of issuing duplicates.
type TokenManager struct {
	mu sync.Mutex

	conf         *oauth2.Config
	httpClient   *http.Client
	logger       *log.Logger
	refreshToken string

	source oauth2.TokenSource
}

// NewTokenManager creates a TokenManager for the given credentials. A nil
// httpClient falls back to a client with a 30 second timeout.
func NewTokenManager(creds shared.CredentialsConfig, httpClient *http.Client, logger *log.Logger) *TokenManager {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &TokenManager{
		conf: &oauth2.Config{
			ClientID:     creds.ClientID,
			ClientSecret: creds.ClientSecret,
			Endpoint: oauth2.Endpoint{
				TokenURL:  defaultTokenURL,
				AuthStyle: oauth2.AuthStyleInHeader,
			},
		},
		httpClient:   httpClient,
		logger:       shared.WithLogger(logger, "component", "token_manager"),
		refreshToken: creds.RefreshToken,
	}
}

// Token returns a valid bearer token. The cached token is reused until it
// expires within the refresh buffer, at which point a refresh exchange runs
// before returning.
func (m *TokenManager) Token(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.source == nil {
		if m.refreshToken == "" {
			return "", &AuthError{Err: shared.ErrNoRefreshToken}
		}
		m.source = oauth2.ReuseTokenSourceWithExpiry(nil, &refreshSource{m: m}, refreshBuffer)
	}

	tok, err := m.source.Token()
	if err != nil {
		return "", asAuthError(err)
	}
	return tok.AccessToken, nil
}

// Invalidate discards the cached token source so the next Token call performs
// a fresh exchange. The client calls this after a 401 response.
func (m *TokenManager) Invalidate() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.source = nil
}

// refreshSource performs one token exchange per call. Each call hands
// [oauth2.Config.TokenSource] a bare refresh token, so the exchange is never
// skipped; caching and staleness live in the reuse source wrapping this one.
type refreshSource struct {
	m *TokenManager
}

// Token runs under the manager's mutex, via [TokenManager.Token].
func (s *refreshSource) Token() (*oauth2.Token, error) {
	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, s.m.httpClient)
	tok, err := s.m.conf.TokenSource(ctx, &oauth2.Token{RefreshToken: s.m.refreshToken}).Token()
	if err != nil {
		return nil, err
	}
	if tok.RefreshToken != "" {
		s.m.refreshToken = tok.RefreshToken
	}
	if tok.Expiry.IsZero() {
		tok.Expiry = time.Now().Add(defaultLifetime)
	}
	s.m.logger.Info("refreshed access token", "expires_in", time.Until(tok.Expiry).Round(time.Second))
	return tok, nil
}

// asAuthError maps oauth2 failures onto AuthError. Endpoint rejections carry
// the status and response body from [oauth2.RetrieveError]; transport
// failures keep the underlying error in the chain.
func asAuthError(err error) *AuthError {
	var rerr *oauth2.RetrieveError
	if errors.As(err, &rerr) {
		status := 0
		if rerr.Response != nil {
			status = rerr.Response.StatusCode
		}
		return &AuthError{Status: status, Body: string(rerr.Body)}
	}
	return &AuthError{Err: err}
}
