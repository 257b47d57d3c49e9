package oauth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"golang.org/x/oauth2"
)

var (
	ErrProviderConflict = errors.New("provider already exists")
	ErrProviderNotFound = errors.New("provider not found")
	ErrAuthFailed       = errors.New("auth failed")
)

// User is the identity returned by a provider together with the delegated
// token the user granted.
type User struct {
	Subject       string
	Email         string
	EmailVerified bool
	GivenName     string
	FamilyName    string
	Picture       string
	HostedDomain  string
	Nonce         string
	Token         *oauth2.Token
	TokenURI      string
	Scopes        []string
}

type Env interface {
	Save(key, val string) error
	Load(key string) (string, error)
}

type identityProvider interface {
	LoginURL(state, nonce string) (string, error)
	// Exchange trades code for a verified user. An empty redirectURI means the
	// provider's own callback.
	Exchange(ctx context.Context, code, redirectURI string) (User, error)
}

type Authenticator struct {
	providers map[string]identityProvider
	mu        sync.RWMutex
}

func NewAuthenticator() *Authenticator {
	return &Authenticator{
		providers: make(map[string]identityProvider),
	}
}

func (a *Authenticator) Use(name string, p identityProvider) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if _, ok := a.providers[name]; ok {
		return ErrProviderConflict
	}

	a.providers[name] = p
	return nil
}

// LoginURL remembers a fresh state and nonce in env and returns the consent
// page of provider.
func (a *Authenticator) LoginURL(env Env, provider string) (string, error) {
	p, err := a.getProvider(provider)
	if err != nil {
		return "", fmt.Errorf("get provider: %w", err)
	}

	state, nonce := randString(32), randString(32)
	if err = errors.Join(env.Save(stateKey(provider), state), env.Save(nonceKey(provider), nonce)); err != nil {
		return "", fmt.Errorf("save state: %w", err)
	}

	url, err := p.LoginURL(state, nonce)
	if err != nil {
		return "", fmt.Errorf("get login url: %w", err)
	}

	return url, nil
}

// Exchange completes a redirect flow started by LoginURL.
func (a *Authenticator) Exchange(ctx context.Context, env Env, provider, code, state string) (User, error) {
	p, err := a.getProvider(provider)
	if err != nil {
		return User{}, fmt.Errorf("get provider: %w", err)
	}

	saved, err := env.Load(stateKey(provider))
	if err != nil {
		return User{}, fmt.Errorf("load state: %w", err)
	}
	if saved == "" || saved != state {
		return User{}, ErrAuthFailed
	}

	nonce, err := env.Load(nonceKey(provider))
	if err != nil {
		return User{}, fmt.Errorf("load nonce: %w", err)
	}

	usr, err := exchange(ctx, p, code, "")
	if err != nil {
		return User{}, err
	}

	if usr.Nonce == "" || usr.Nonce != nonce {
		return User{}, ErrAuthFailed
	}

	return usr, nil
}

// Swap exchanges a code obtained by a client-side flow. The caller is
// responsible for checking redirectURI.
func (a *Authenticator) Swap(ctx context.Context, provider, code, redirectURI string) (User, error) {
	p, err := a.getProvider(provider)
	if err != nil {
		return User{}, fmt.Errorf("get provider: %w", err)
	}

	return exchange(ctx, p, code, redirectURI)
}

func exchange(ctx context.Context, p identityProvider, code, redirectURI string) (User, error) {
	usr, err := p.Exchange(ctx, code, redirectURI)
	if err != nil {
		var rerr *oauth2.RetrieveError
		if errors.As(err, &rerr) {
			if rerr.Response != nil {
				if rerr.Response.StatusCode == http.StatusBadRequest || rerr.Response.StatusCode == http.StatusUnauthorized {
					return User{}, fmt.Errorf("%w: %v", ErrAuthFailed, err)
				}
			}
		}

		return User{}, fmt.Errorf("exchange: %w", err)
	}

	return usr, nil
}

func (a *Authenticator) getProvider(name string) (identityProvider, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	p, ok := a.providers[name]
	if !ok {
		return nil, ErrProviderNotFound
	}

	return p, nil
}

func stateKey(provider string) string {
	return provider + "-state"
}

func nonceKey(provider string) string {
	return provider + "-nonce"
}

func randString(size int) string {
	b := make([]byte, size)

	// rand.Read never returns an error
	_, _ = rand.Read(b)
	return base64.RawURLEncoding.EncodeToString(b)
}
