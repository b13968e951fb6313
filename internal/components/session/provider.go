package session

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"

	"github.com/fittrack/webclient/internal/shared/config"
)

// IdentityProvider is the capability boundary to the external identity
// provider. The redirect-based code exchange protocol itself is the
// provider library's responsibility, not this app's.
type IdentityProvider interface {
	// AuthURL returns the provider URL that begins the authorization
	// flow for the given state parameter.
	AuthURL(state string) string
	// Exchange trades the authorization code for a credential.
	Exchange(ctx context.Context, code string) (Credential, error)
}

// ErrProviderUnreachable marks exchange failures caused by the provider
// endpoint not being reachable, the one terminal failure of a session.
var ErrProviderUnreachable = errors.New("identity provider unreachable")

// oauthProvider implements IdentityProvider with the standard
// authorization code flow against a Keycloak-compatible issuer.
type oauthProvider struct {
	cfg *oauth2.Config
}

func NewOAuthProvider(cfg *config.Config) IdentityProvider {
	issuer := strings.TrimRight(cfg.OAuthIssuerURL, "/")
	return &oauthProvider{
		cfg: &oauth2.Config{
			ClientID:     cfg.OAuthClientID,
			ClientSecret: cfg.OAuthClientSecret,
			RedirectURL:  cfg.OAuthRedirectURL,
			Scopes:       cfg.OAuthScopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:  issuer + "/protocol/openid-connect/auth",
				TokenURL: issuer + "/protocol/openid-connect/token",
			},
		},
	}
}

func (p *oauthProvider) AuthURL(state string) string {
	return p.cfg.AuthCodeURL(state)
}

func (p *oauthProvider) Exchange(ctx context.Context, code string) (Credential, error) {
	token, err := p.cfg.Exchange(ctx, code)
	if err != nil {
		if isUnreachable(err) {
			return Credential{}, fmt.Errorf("%w: %v", ErrProviderUnreachable, err)
		}
		return Credential{}, fmt.Errorf("token exchange rejected: %w", err)
	}

	return Credential{
		Token:  token.AccessToken,
		Claims: claimsFromToken(token),
	}, nil
}

// claimsFromToken extracts display claims from the ID token when present,
// falling back to the access token. The signature is not verified here:
// this client never trusts the token for authorization decisions, the
// activity service does that on every request.
func claimsFromToken(token *oauth2.Token) Claims {
	raw := token.AccessToken
	if idToken, ok := token.Extra("id_token").(string); ok && idToken != "" {
		raw = idToken
	}

	mapClaims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, mapClaims); err != nil {
		return Claims{}
	}

	claims := Claims{}
	if sub, ok := mapClaims["sub"].(string); ok {
		claims.Subject = sub
	}
	if name, ok := mapClaims["name"].(string); ok {
		claims.Name = name
	} else if username, ok := mapClaims["preferred_username"].(string); ok {
		claims.Name = username
	}
	if email, ok := mapClaims["email"].(string); ok {
		claims.Email = email
	}
	return claims
}

func isUnreachable(err error) bool {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
