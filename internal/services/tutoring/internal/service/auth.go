package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"slices"

	"github.com/suguidance/guidance-go/internal/pkg/serr"
	"github.com/suguidance/guidance-go/internal/services/tutoring/internal/credentials"
	"github.com/suguidance/guidance-go/internal/services/tutoring/internal/model"
	"github.com/suguidance/guidance-go/internal/services/tutoring/internal/oauth"
	"github.com/suguidance/guidance-go/internal/services/tutoring/internal/otc"
	"github.com/suguidance/guidance-go/internal/services/tutoring/internal/store"
	"github.com/suguidance/guidance-go/internal/services/tutoring/internal/token"
)

const redirectKey = "redirect_url"

// tokenIssuer defines the interface for issuing and validating tokens
type tokenIssuer interface {
	Issue(subject string) (string, error)
	Validate(raw string) (token.Claims, error)
}

// authenticator defines the interface for OAuth authentication flow management
type authenticator interface {
	LoginURL(env oauth.Env, provider string) (string, error)
	Exchange(ctx context.Context, env oauth.Env, provider, code, state string) (oauth.User, error)
	Swap(ctx context.Context, provider, code, redirectURI string) (oauth.User, error)
}

// oneTimeCodeProvider stores token pairs behind short lived codes
type oneTimeCodeProvider interface {
	CreateCode(ctx context.Context, ts token.Pair) (string, error)
	RedeemCode(ctx context.Context, code string) (token.Pair, error)
}

type credentialStore interface {
	Get(ctx context.Context, userID int64) (credentials.Bundle, error)
	Persist(ctx context.Context, userID int64, b credentials.Bundle) error
}

type calendarEnsurer interface {
	EnsureCalendar(ctx context.Context, owner model.User) (string, error)
}

// Auth handles Google login and token management
type Auth struct {
	auth         authenticator
	store        store.Store
	accessToken  tokenIssuer
	refreshToken tokenIssuer
	otc          oneTimeCodeProvider
	creds        credentialStore
	calendars    calendarEnsurer
	topDomain    string
	redirectURIs []string
	client       ClientConfig
}

// AuthOption defines a functional option for configuring the Auth service
type AuthOption func(*Auth) *Auth

func WithAuthenticator(a authenticator) AuthOption {
	return func(s *Auth) *Auth {
		s.auth = a
		return s
	}
}

func WithStore(st store.Store) AuthOption {
	return func(s *Auth) *Auth {
		s.store = st
		return s
	}
}

func WithAccessToken(iss tokenIssuer) AuthOption {
	return func(s *Auth) *Auth {
		s.accessToken = iss
		return s
	}
}

func WithRefreshToken(iss tokenIssuer) AuthOption {
	return func(s *Auth) *Auth {
		s.refreshToken = iss
		return s
	}
}

// WithOTC enables the one-time code redirect. Without it the callback always
// answers with the tokens directly.
func WithOTC(p oneTimeCodeProvider) AuthOption {
	return func(s *Auth) *Auth {
		s.otc = p
		return s
	}
}

func WithCredentials(c credentialStore) AuthOption {
	return func(s *Auth) *Auth {
		s.creds = c
		return s
	}
}

func WithCalendars(c calendarEnsurer) AuthOption {
	return func(s *Auth) *Auth {
		s.calendars = c
		return s
	}
}

// WithDomain restricts logins to accounts of the given hosted domain.
func WithDomain(topDomain string) AuthOption {
	return func(s *Auth) *Auth {
		s.topDomain = topDomain
		return s
	}
}

// WithRedirectURIs sets the redirect URIs accepted by Swap.
func WithRedirectURIs(uris []string) AuthOption {
	return func(s *Auth) *Auth {
		s.redirectURIs = uris
		return s
	}
}

func WithClient(c ClientConfig) AuthOption {
	return func(s *Auth) *Auth {
		s.client = c
		return s
	}
}

// NewAuth creates a new Auth service with the provided options
func NewAuth(opts ...AuthOption) *Auth {
	s := &Auth{}
	for _, opt := range opts {
		s = opt(s)
	}

	if s.auth == nil {
		panic("oauth authenticator is required")
	}

	if s.store == nil {
		panic("store is required")
	}

	if s.accessToken == nil {
		panic("access token issuer is required")
	}

	if s.refreshToken == nil {
		panic("refresh token issuer is required")
	}

	if s.creds == nil {
		panic("credential store is required")
	}

	if s.calendars == nil {
		panic("calendar gateway is required")
	}

	return s
}

// ClientConfig is what a client-side flow needs to request a code.
type ClientConfig struct {
	Scopes   []string `json:"scopes"`
	ClientID string   `json:"client_id"`
}

func (s *Auth) ClientConfig() ClientConfig {
	return s.client
}

type LoginRequest struct {
	Provider    string
	RedirectURL string
}

// LoginURL generates a login URL for the specified provider
func (s *Auth) LoginURL(env oauth.Env, r LoginRequest) (string, error) {
	if r.RedirectURL != "" && s.otc == nil {
		return "", serr.BadRequest(nil, "Login redirects are not enabled")
	}

	if err := env.Save(redirectKey, r.RedirectURL); err != nil {
		return "", fmt.Errorf("save redirect url: %w", err)
	}

	url, err := s.auth.LoginURL(env, r.Provider)
	if err != nil {
		if errors.Is(err, oauth.ErrProviderNotFound) {
			return "", serr.NotFound(err, "OAuth provider not found").With("provider", r.Provider)
		}

		return "", fmt.Errorf("login url: %w", err)
	}

	return url, nil
}

type AuthCallbackRequest struct {
	Provider string
	Code     string
	State    string
}

// LoginResponse is returned by every successful login.
type LoginResponse struct {
	User         model.User `json:"user"`
	AccessToken  string     `json:"access_token"`
	RefreshToken string     `json:"refresh_token"`
	// RedirectURL is set when the client asked to be sent back with a
	// one-time code instead of receiving the tokens.
	RedirectURL string `json:"-"`
}

// AuthCallback completes the redirect flow started by LoginURL
func (s *Auth) AuthCallback(ctx context.Context, env oauth.Env, r AuthCallbackRequest) (LoginResponse, error) {
	usr, err := s.auth.Exchange(ctx, env, r.Provider, r.Code, r.State)
	if err != nil {
		return LoginResponse{}, exchangeErr(err, r.Provider)
	}

	resp, err := s.login(ctx, usr)
	if err != nil {
		return LoginResponse{}, err
	}

	redirectURL, err := env.Load(redirectKey)
	if err != nil || redirectURL == "" || s.otc == nil {
		return resp, nil
	}

	code, err := s.otc.CreateCode(ctx, token.Pair{
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
	})
	if err != nil {
		return LoginResponse{}, fmt.Errorf("create one-time code: %w", err)
	}

	resp.RedirectURL, err = withQuery(redirectURL, "otc", code)
	if err != nil {
		return LoginResponse{}, serr.BadRequest(err, "Invalid redirect url")
	}

	return resp, nil
}

type SwapRequest struct {
	Provider    string
	Code        string
	RedirectURI string
}

// Swap exchanges a code obtained by a client-side flow
func (s *Auth) Swap(ctx context.Context, r SwapRequest) (LoginResponse, error) {
	if !slices.Contains(s.redirectURIs, r.RedirectURI) {
		return LoginResponse{}, serr.Forbidden(nil, "Redirect URI not allowed").With("redirect_uri", r.RedirectURI)
	}

	usr, err := s.auth.Swap(ctx, r.Provider, r.Code, r.RedirectURI)
	if err != nil {
		return LoginResponse{}, exchangeErr(err, r.Provider)
	}

	return s.login(ctx, usr)
}

// Refresh issues a new access token using a valid refresh token
func (s *Auth) Refresh(ctx context.Context, refreshToken string) (string, error) {
	claims, err := s.refreshToken.Validate(refreshToken)
	if err != nil {
		return "", serr.Unauthorized(err, "Invalid refresh token")
	}

	u, err := s.store.GetUserByEmail(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", serr.Unauthorized(err, "JWT subject not found")
		}
		return "", fmt.Errorf("get user: %w", err)
	}

	at, err := s.accessToken.Issue(u.Email)
	if err != nil {
		return "", fmt.Errorf("issue access token: %w", err)
	}

	return at, nil
}

// RedeemCode redeems a code for a token pair
func (s *Auth) RedeemCode(ctx context.Context, code string) (token.Pair, error) {
	if s.otc == nil {
		return token.Pair{}, serr.NotFound(nil, "Code not found")
	}

	ts, err := s.otc.RedeemCode(ctx, code)
	if err != nil {
		if errors.Is(err, otc.ErrCodeNotFound) {
			return token.Pair{}, serr.NotFound(err, "Code not found")
		}
		return token.Pair{}, fmt.Errorf("redeem code: %w", err)
	}

	return ts, nil
}

func (s *Auth) login(ctx context.Context, usr oauth.User) (LoginResponse, error) {
	if s.topDomain != "" && usr.HostedDomain != s.topDomain {
		return LoginResponse{}, serr.Forbidden(nil, "Not an authorized domain").
			With("hd", usr.HostedDomain).
			With("expected", s.topDomain)
	}

	if usr.Email == "" {
		return LoginResponse{}, serr.Unauthorized(nil, "Identity has no email")
	}

	u, err := s.getOrCreateUser(ctx, usr)
	if err != nil {
		return LoginResponse{}, fmt.Errorf("get or create user: %w", err)
	}

	if usr.Token != nil {
		if err := s.saveCredentials(ctx, u.ID, usr); err != nil {
			return LoginResponse{}, err
		}
	}

	if u.IsTutor && u.CalendarID() == "" {
		id, err := s.calendars.EnsureCalendar(ctx, u)
		if err != nil {
			slog.Warn("failed to ensure tutor calendar", "error", err, "user_id", u.ID)
		} else if id != "" {
			u.GoogleCalendarID = &id
		}
	}

	at, err := s.accessToken.Issue(u.Email)
	if err != nil {
		return LoginResponse{}, fmt.Errorf("issue access token: %w", err)
	}

	rt, err := s.refreshToken.Issue(u.Email)
	if err != nil {
		return LoginResponse{}, fmt.Errorf("issue refresh token: %w", err)
	}

	return LoginResponse{User: u, AccessToken: at, RefreshToken: rt}, nil
}

// getOrCreateUser looks the user up by email and creates it on first login
// saveCredentials stores the tokens of a login. Google only returns a refresh
// token on first consent, so a stored one is kept when the new token has none.
func (s *Auth) saveCredentials(ctx context.Context, userID int64, usr oauth.User) error {
	b := credentials.FromOAuth2(usr.Token, usr.TokenURI, usr.Scopes)
	if b.RefreshToken == "" {
		prev, err := s.creds.Get(ctx, userID)
		switch {
		case err == nil:
			b.RefreshToken = prev.RefreshToken
		case !serr.Is(err, serr.KindNotFound):
			return fmt.Errorf("get credentials: %w", err)
		}
	}

	if err := s.creds.Persist(ctx, userID, b); err != nil {
		return fmt.Errorf("persist credentials: %w", err)
	}

	return nil
}

func (s *Auth) getOrCreateUser(ctx context.Context, usr oauth.User) (model.User, error) {
	u, err := s.store.GetUserByEmail(ctx, usr.Email)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return model.User{}, fmt.Errorf("get user: %w", err)
	}

	u, err = s.store.CreateUser(ctx, store.CreateUserRequest{
		Email:      usr.Email,
		FirstName:  usr.GivenName,
		LastName:   usr.FamilyName,
		ProfileURL: usr.Picture,
	})
	if errors.Is(err, store.ErrExists) {
		// a concurrent first login created it
		return s.store.GetUserByEmail(ctx, usr.Email)
	}
	if err != nil {
		return model.User{}, fmt.Errorf("create user: %w", err)
	}

	return u, nil
}

func exchangeErr(err error, provider string) error {
	switch {
	case errors.Is(err, oauth.ErrProviderNotFound):
		return serr.NotFound(err, "OAuth provider not found").With("provider", provider)
	case errors.Is(err, oauth.ErrAuthFailed):
		return serr.Unauthorized(err, "Authentication failed").With("provider", provider)
	}
	return fmt.Errorf("exchange: %w", err)
}

func withQuery(raw, key, val string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}

	q := u.Query()
	q.Set(key, val)
	u.RawQuery = q.Encode()
	return u.String(), nil
}
