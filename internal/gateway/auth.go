package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/jafarshop/shopapi/internal/config"
	"github.com/jafarshop/shopapi/pkg/errors"
)

const tokenPath = "/v1/oauth/token"

// tokenExpiryMargin keeps us from handing out a token that expires
// mid-request
const tokenExpiryMargin = 30 * time.Second

// AccessToken is a short-lived bearer token for the payment gateway
type AccessToken struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ExpiresIn is the remaining lifetime in whole seconds
func (t *AccessToken) ExpiresIn(now time.Time) int64 {
	d := t.ExpiresAt.Sub(now)
	if d < 0 {
		return 0
	}
	return int64(d.Seconds())
}

// AuthProvider exchanges merchant credentials for gateway bearer tokens
// via the client-credentials grant. Tokens are cached until shortly
// before expiry when a cache is configured; cache failures fall through
// to a fresh exchange.
type AuthProvider struct {
	cfg        config.GatewayConfig
	httpClient *http.Client
	cache      TokenCache
	logger     *zap.Logger
}

// NewAuthProvider creates a new gateway auth provider. cache may be nil.
func NewAuthProvider(cfg config.GatewayConfig, cache TokenCache, logger *zap.Logger) *AuthProvider {
	return &AuthProvider{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		cache:  cache,
		logger: logger,
	}
}

// GetAccessToken returns a valid bearer token, fetching a new one from
// the gateway's token endpoint when none is cached. Missing credentials
// are a fatal configuration error, never retried.
func (p *AuthProvider) GetAccessToken(ctx context.Context) (*AccessToken, error) {
	if p.cfg.ClientID == "" || p.cfg.ClientSecret == "" {
		return nil, &errors.ErrAuth{Message: "gateway client credentials are not configured"}
	}

	if token := p.cachedToken(ctx); token != nil {
		return token, nil
	}

	form := url.Values{}
	form.Set("client_id", p.cfg.ClientID)
	form.Set("client_version", p.cfg.ClientVersion)
	form.Set("client_secret", p.cfg.ClientSecret)
	form.Set("grant_type", "client_credentials")

	endpoint := strings.TrimSuffix(p.cfg.AuthBaseURL, "/") + tokenPath
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute token request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read token response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &errors.ErrAuth{
			Message: fmt.Sprintf("token endpoint returned status %d: %s", resp.StatusCode, string(body)),
		}
	}

	var tokenResp struct {
		AccessToken string `json:"access_token"`
		ExpiresAt   int64  `json:"expires_at"`
	}
	if err := json.Unmarshal(body, &tokenResp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal token response: %w", err)
	}
	if tokenResp.AccessToken == "" {
		return nil, &errors.ErrAuth{Message: "token endpoint returned no access token"}
	}

	token := &AccessToken{
		Token:     tokenResp.AccessToken,
		ExpiresAt: time.Unix(tokenResp.ExpiresAt, 0),
	}

	p.storeToken(ctx, token)

	return token, nil
}

func (p *AuthProvider) cachedToken(ctx context.Context) *AccessToken {
	if p.cache == nil {
		return nil
	}

	raw, err := p.cache.Get(ctx, tokenCacheKey(p.cfg.ClientID))
	if err != nil {
		p.logger.Warn("Failed to read token cache", zap.Error(err))
		return nil
	}
	if raw == "" {
		return nil
	}

	var token AccessToken
	if err := json.Unmarshal([]byte(raw), &token); err != nil {
		return nil
	}
	if time.Now().Add(tokenExpiryMargin).After(token.ExpiresAt) {
		return nil
	}

	return &token
}

func (p *AuthProvider) storeToken(ctx context.Context, token *AccessToken) {
	if p.cache == nil {
		return
	}

	ttl := time.Until(token.ExpiresAt) - tokenExpiryMargin
	if ttl <= 0 {
		return
	}

	raw, err := json.Marshal(token)
	if err != nil {
		return
	}
	if err := p.cache.Set(ctx, tokenCacheKey(p.cfg.ClientID), string(raw), ttl); err != nil {
		p.logger.Warn("Failed to write token cache", zap.Error(err))
	}
}
