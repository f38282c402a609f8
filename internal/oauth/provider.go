// Package oauth talks to the external identity provider: it builds the
// authorization URL, exchanges codes with PKCE and reads the user's claims.
package oauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/oauth2"

	"github.com/dtroode/eventhub-server/internal/config"
	"github.com/dtroode/eventhub-server/internal/model"
)

// ReasonExchangeFailed is reported when the provider gave no error code.
const ReasonExchangeFailed = "exchange_failed"

var _ model.IdentityProvider = (*Provider)(nil)

// Provider is an OAuth 2.0 authorization-code client for one identity
// provider.
type Provider struct {
	name        string
	config      *oauth2.Config
	userInfoURL string
	httpClient  *http.Client
}

// NewProvider builds a Provider from configuration. redirectURL is the
// callback registered with the provider.
func NewProvider(cfg config.OAuth, redirectURL string) *Provider {
	return &Provider{
		name: cfg.Provider,
		config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint: oauth2.Endpoint{
				AuthURL:  cfg.AuthURL,
				TokenURL: cfg.TokenURL,
			},
			RedirectURL: redirectURL,
			Scopes:      cfg.Scopes,
		},
		userInfoURL: cfg.UserInfoURL,
		httpClient:  &http.Client{Timeout: 10 * time.Second},
	}
}

// WithHTTPClient replaces the client used for token and userinfo calls.
func (p *Provider) WithHTTPClient(client *http.Client) *Provider {
	p.httpClient = client
	return p
}

func (p *Provider) Name() string {
	return p.name
}

// AuthCodeURL returns the provider URL that starts a sign-in carrying state
// and the S256 challenge of verifier.
func (p *Provider) AuthCodeURL(state, verifier string) string {
	return p.config.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.S256ChallengeOption(verifier))
}

// Exchange trades code for provider tokens and resolves the identity behind
// them. Failures are returned as *model.ExchangeError whose Reason is the
// provider's error code when it sent one.
func (p *Provider) Exchange(ctx context.Context, code, verifier string) (model.Identity, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)

	token, err := p.config.Exchange(ctx, code, oauth2.VerifierOption(verifier))
	if err != nil {
		reason := ReasonExchangeFailed
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) && retrieveErr.ErrorCode != "" {
			reason = retrieveErr.ErrorCode
		}
		return model.Identity{}, &model.ExchangeError{Reason: reason, Err: err}
	}

	claims, err := p.fetchUserInfo(ctx, token)
	if err != nil {
		return model.Identity{}, &model.ExchangeError{Reason: ReasonExchangeFailed, Err: err}
	}

	return p.identityFromClaims(claims), nil
}

func (p *Provider) fetchUserInfo(ctx context.Context, token *oauth2.Token) (map[string]any, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.userInfoURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build userinfo request: %w", err)
	}

	resp, err := p.config.Client(ctx, token).Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch userinfo: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("userinfo returned status %d", resp.StatusCode)
	}

	var claims map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&claims); err != nil {
		return nil, fmt.Errorf("failed to decode userinfo: %w", err)
	}

	return claims, nil
}

// identityFromClaims maps OIDC-style claims ("sub", "email") with a
// fallback to the numeric "id" some providers use. Every other claim is
// kept as metadata.
func (p *Provider) identityFromClaims(claims map[string]any) model.Identity {
	identity := model.Identity{
		Provider: p.name,
		Metadata: make(map[string]any, len(claims)),
	}

	for k, v := range claims {
		switch k {
		case "sub":
			if s, ok := v.(string); ok {
				identity.Subject = s
			}
		case "email":
			if s, ok := v.(string); ok {
				identity.Email = s
			}
		default:
			identity.Metadata[k] = v
		}
	}

	if identity.Subject == "" {
		switch id := claims["id"].(type) {
		case string:
			identity.Subject = id
		case float64:
			identity.Subject = strconv.FormatInt(int64(id), 10)
		}
	}

	return identity
}
