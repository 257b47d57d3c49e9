package oauth

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

type mockIdentityProvider struct {
	loginFunc    func(state, nonce string) (string, error)
	exchangeFunc func(ctx context.Context, code, redirectURI string) (User, error)
}

func (m *mockIdentityProvider) LoginURL(state, nonce string) (string, error) {
	return m.loginFunc(state, nonce)
}

func (m *mockIdentityProvider) Exchange(ctx context.Context, code, redirectURI string) (User, error) {
	return m.exchangeFunc(ctx, code, redirectURI)
}

type memEnv struct {
	store map[string]string
}

func newMemEnv() *memEnv {
	return &memEnv{
		store: make(map[string]string),
	}
}

func (m *memEnv) Save(key, val string) error {
	m.store[key] = val
	return nil
}

func (m *memEnv) Load(key string) (string, error) {
	val, ok := m.store[key]
	if !ok {
		return "", errors.New("key not found")
	}
	return val, nil
}

type mockEnv struct {
	saveFunc func(key, val string) error
	loadFunc func(key string) (string, error)
}

func (m *mockEnv) Save(key, val string) error {
	return m.saveFunc(key, val)
}

func (m *mockEnv) Load(key string) (string, error) {
	return m.loadFunc(key)
}

func newTestAuthenticator(t *testing.T, p *mockIdentityProvider) *Authenticator {
	t.Helper()

	a := NewAuthenticator()
	require.NoError(t, a.Use("google", p))
	return a
}

func userWithNonce(nonce string) func(ctx context.Context, code, redirectURI string) (User, error) {
	return func(ctx context.Context, code, redirectURI string) (User, error) {
		return User{Nonce: nonce, Email: "ada@su.edu", HostedDomain: "su.edu"}, nil
	}
}

func TestAuthenticator_Use_Conflict(t *testing.T) {
	a := NewAuthenticator()
	require.NoError(t, a.Use("google", &mockIdentityProvider{}))
	assert.ErrorIs(t, a.Use("google", &mockIdentityProvider{}), ErrProviderConflict)
}

func TestAuthenticator_LoginURL(t *testing.T) {
	var gotState, gotNonce string
	a := newTestAuthenticator(t, &mockIdentityProvider{
		loginFunc: func(state, nonce string) (string, error) {
			gotState, gotNonce = state, nonce
			return "https://accounts.example.com/consent", nil
		},
	})

	env := newMemEnv()
	url, err := a.LoginURL(env, "google")
	require.NoError(t, err)
	assert.Equal(t, "https://accounts.example.com/consent", url)

	assert.NotEmpty(t, gotState)
	assert.NotEqual(t, gotState, gotNonce)
	assert.Equal(t, gotState, env.store["google-state"])
	assert.Equal(t, gotNonce, env.store["google-nonce"])
}

func TestAuthenticator_LoginURL_ProviderNotFound(t *testing.T) {
	a := NewAuthenticator()

	_, err := a.LoginURL(newMemEnv(), "non_existent")
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrProviderNotFound))
}

func TestAuthenticator_LoginURL_EnvSaveError(t *testing.T) {
	a := newTestAuthenticator(t, &mockIdentityProvider{
		loginFunc: func(state, nonce string) (string, error) {
			return "test_url", nil
		},
	})

	brokenEnv := &mockEnv{
		saveFunc: func(key, val string) error {
			return errors.New("save error")
		},
	}

	_, err := a.LoginURL(brokenEnv, "google")
	require.Error(t, err)
}

func TestAuthenticator_LoginURL_ProviderLoginError(t *testing.T) {
	a := newTestAuthenticator(t, &mockIdentityProvider{
		loginFunc: func(state, nonce string) (string, error) {
			return "", errors.New("login error")
		},
	})

	_, err := a.LoginURL(newMemEnv(), "google")
	require.Error(t, err)
}

func TestAuthenticator_Exchange(t *testing.T) {
	var gotRedirect = "unset"
	a := newTestAuthenticator(t, &mockIdentityProvider{
		exchangeFunc: func(ctx context.Context, code, redirectURI string) (User, error) {
			gotRedirect = redirectURI
			assert.Equal(t, "auth_code_123", code)
			return User{Nonce: "valid_nonce", Email: "ada@su.edu", EmailVerified: true}, nil
		},
	})

	env := newMemEnv()
	require.NoError(t, errors.Join(
		env.Save("google-state", "valid_state"),
		env.Save("google-nonce", "valid_nonce"),
	))

	usr, err := a.Exchange(context.Background(), env, "google", "auth_code_123", "valid_state")
	require.NoError(t, err)
	assert.Equal(t, "ada@su.edu", usr.Email)
	assert.True(t, usr.EmailVerified)
	assert.Empty(t, gotRedirect)
}

func TestAuthenticator_Exchange_Rejected(t *testing.T) {
	tbl := []struct {
		name  string
		state string
		nonce string
		saved map[string]string
	}{
		{"state mismatch", "wrong_state", "valid_nonce", map[string]string{"google-state": "valid_state", "google-nonce": "valid_nonce"}},
		{"empty saved state", "", "valid_nonce", map[string]string{"google-state": "", "google-nonce": "valid_nonce"}},
		{"nonce mismatch", "valid_state", "other_nonce", map[string]string{"google-state": "valid_state", "google-nonce": "valid_nonce"}},
		{"provider without nonce", "valid_state", "", map[string]string{"google-state": "valid_state", "google-nonce": "valid_nonce"}},
	}

	for _, c := range tbl {
		t.Run(c.name, func(t *testing.T) {
			a := newTestAuthenticator(t, &mockIdentityProvider{exchangeFunc: userWithNonce(c.nonce)})
			env := &memEnv{store: c.saved}

			_, err := a.Exchange(context.Background(), env, "google", "code", c.state)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrAuthFailed)
		})
	}
}

func TestAuthenticator_Exchange_EnvLoadError(t *testing.T) {
	a := newTestAuthenticator(t, &mockIdentityProvider{exchangeFunc: userWithNonce("n")})

	brokenEnv := &mockEnv{
		loadFunc: func(key string) (string, error) {
			if key == "google-nonce" {
				return "", errors.New("load nonce error")
			}
			return "state", nil
		},
	}

	_, err := a.Exchange(context.Background(), brokenEnv, "google", "code", "state")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrAuthFailed)
}

func TestAuthenticator_Exchange_ProviderNotFound(t *testing.T) {
	a := NewAuthenticator()

	_, err := a.Exchange(context.Background(), newMemEnv(), "non_existent", "code", "state")
	require.True(t, errors.Is(err, ErrProviderNotFound))
}

func TestAuthenticator_Swap(t *testing.T) {
	a := newTestAuthenticator(t, &mockIdentityProvider{
		exchangeFunc: func(ctx context.Context, code, redirectURI string) (User, error) {
			assert.Equal(t, "postmessage", redirectURI)
			return User{Email: "ada@su.edu"}, nil
		},
	})

	usr, err := a.Swap(context.Background(), "google", "code", "postmessage")
	require.NoError(t, err)
	assert.Equal(t, "ada@su.edu", usr.Email)
}

func TestAuthenticator_Swap_CodeRejected(t *testing.T) {
	a := newTestAuthenticator(t, &mockIdentityProvider{
		exchangeFunc: func(ctx context.Context, code, redirectURI string) (User, error) {
			return User{}, &oauth2.RetrieveError{Response: &http.Response{StatusCode: http.StatusBadRequest}}
		},
	})

	_, err := a.Swap(context.Background(), "google", "code", "postmessage")
	assert.ErrorIs(t, err, ErrAuthFailed)
}

func TestAuthenticator_Swap_ProviderError(t *testing.T) {
	a := newTestAuthenticator(t, &mockIdentityProvider{
		exchangeFunc: func(ctx context.Context, code, redirectURI string) (User, error) {
			return User{}, errors.New("network down")
		},
	})

	_, err := a.Swap(context.Background(), "google", "code", "postmessage")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrAuthFailed)
}
