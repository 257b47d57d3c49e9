package provider

import (
	"context"
	"errors"
	"fmt"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/suguidance/guidance-go/internal/services/tutoring/internal/oauth"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"
	"google.golang.org/api/calendar/v3"
)

const (
	googleIssuer       string = "https://accounts.google.com"
	googleScopeEmail   string = "email"
	googleScopeProfile string = "profile"
)

// GoogleScopes are requested on every login. The calendar scope is what lets
// the backend act on a tutor's calendar later.
var GoogleScopes = []string{oidc.ScopeOpenID, googleScopeEmail, googleScopeProfile, calendar.CalendarScope}

// Google implements the identityProvider interface for Google OAuth
type Google struct {
	cfg      *oauth2.Config
	verifier *oidc.IDTokenVerifier
}

// GoogleConfig holds the configuration for the Google OAuth provider
type GoogleConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	// Endpoint overrides the Google endpoints when set.
	Endpoint oauth2.Endpoint
	// Issuer overrides the OpenID discovery issuer when set.
	Issuer string
}

type userClaims struct {
	Sub        string `json:"sub,omitempty"`
	Email      string `json:"email,omitempty"`
	Verified   bool   `json:"email_verified,omitempty"`
	GivenName  string `json:"given_name,omitempty"`
	FamilyName string `json:"family_name,omitempty"`
	Picture    string `json:"picture,omitempty"`
	HD         string `json:"hd,omitempty"`
}

// NewGoogle creates a new Google OAuth provider with the given configuration
func NewGoogle(ctx context.Context, google GoogleConfig) (*Google, error) {
	issuer := google.Issuer
	if issuer == "" {
		issuer = googleIssuer
	}

	p, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("new oidc provider: %w", err)
	}

	if google.Endpoint.TokenURL == "" && issuer != googleIssuer {
		google.Endpoint = p.Endpoint()
	}

	return newGoogle(google, p.Verifier(&oidc.Config{ClientID: google.ClientID})), nil
}

func newGoogle(google GoogleConfig, verifier *oidc.IDTokenVerifier) *Google {
	ep := google.Endpoint
	if ep.TokenURL == "" {
		ep = endpoints.Google
	}

	return &Google{
		cfg: &oauth2.Config{
			ClientID:     google.ClientID,
			ClientSecret: google.ClientSecret,
			RedirectURL:  google.RedirectURL,
			Scopes:       GoogleScopes,
			Endpoint:     ep,
		},
		verifier: verifier,
	}
}

// LoginURL generates the consent URL. Offline access and forced consent make
// Google return a refresh token on every login.
func (g *Google) LoginURL(state, nonce string) (string, error) {
	return g.cfg.AuthCodeURL(state,
		oidc.Nonce(nonce),
		oauth2.AccessTypeOffline,
		oauth2.ApprovalForce,
		oauth2.SetAuthURLParam("include_granted_scopes", "true"),
	), nil
}

// Exchange exchanges the authorization code for a verified Google user
func (g *Google) Exchange(ctx context.Context, code, redirectURI string) (oauth.User, error) {
	var opts []oauth2.AuthCodeOption
	if redirectURI != "" {
		opts = append(opts, oauth2.SetAuthURLParam("redirect_uri", redirectURI))
	}

	tok, err := g.cfg.Exchange(ctx, code, opts...)
	if err != nil {
		return oauth.User{}, err
	}

	raw, ok := tok.Extra("id_token").(string)
	if !ok || raw == "" {
		return oauth.User{}, errors.New("token response has no id_token")
	}

	idTok, err := g.verifier.Verify(ctx, raw)
	if err != nil {
		return oauth.User{}, fmt.Errorf("verify id token: %w", err)
	}

	var usr userClaims
	if err := idTok.Claims(&usr); err != nil {
		return oauth.User{}, fmt.Errorf("read claims: %w", err)
	}

	return oauth.User{
		Subject:       usr.Sub,
		Email:         usr.Email,
		EmailVerified: usr.Verified,
		GivenName:     usr.GivenName,
		FamilyName:    usr.FamilyName,
		Picture:       usr.Picture,
		HostedDomain:  usr.HD,
		Nonce:         idTok.Nonce,
		Token:         tok,
		TokenURI:      g.cfg.Endpoint.TokenURL,
		Scopes:        g.cfg.Scopes,
	}, nil
}

// ClientID is exposed for client-side flows that need it.
func (g *Google) ClientID() string {
	return g.cfg.ClientID
}
