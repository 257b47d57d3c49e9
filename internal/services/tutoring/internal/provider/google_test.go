package provider

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

const testClientID = "client-id"

type fakeGoogle struct {
	srv         *httptest.Server
	key         *rsa.PrivateKey
	claims      jwt.MapClaims
	redirectURI string
}

func newFakeGoogle(t *testing.T) *fakeGoogle {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	f := &fakeGoogle{
		key: key,
		claims: jwt.MapClaims{
			"iss":            googleIssuer,
			"aud":            testClientID,
			"sub":            "1234",
			"email":          "ada@su.edu",
			"email_verified": true,
			"given_name":     "Ada",
			"family_name":    "Lovelace",
			"picture":        "http://example.com/ada.jpg",
			"hd":             "su.edu",
			"nonce":          "the-nonce",
		},
	}

	f.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		f.redirectURI = r.Form.Get("redirect_uri")

		if r.Form.Get("code") != "good-code" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
			return
		}

		claims := jwt.MapClaims{"iat": time.Now().Unix(), "exp": time.Now().Add(time.Hour).Unix()}
		for k, v := range f.claims {
			claims[k] = v
		}
		idToken, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(f.key)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token":  "access",
			"refresh_token": "refresh",
			"token_type":    "Bearer",
			"expires_in":    3600,
			"id_token":      idToken,
		})
	}))
	t.Cleanup(f.srv.Close)

	return f
}

func (f *fakeGoogle) provider() *Google {
	keys := &oidc.StaticKeySet{PublicKeys: []crypto.PublicKey{&f.key.PublicKey}}
	verifier := oidc.NewVerifier(googleIssuer, keys, &oidc.Config{ClientID: testClientID})

	return newGoogle(GoogleConfig{
		ClientID:     testClientID,
		ClientSecret: "secret",
		RedirectURL:  "http://localhost:8080/auth/callback",
		Endpoint: oauth2.Endpoint{
			AuthURL:   f.srv.URL + "/auth",
			TokenURL:  f.srv.URL + "/token",
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}, verifier)
}

func TestGoogle_LoginURL(t *testing.T) {
	g := newFakeGoogle(t).provider()

	raw, err := g.LoginURL("the-state", "the-nonce")
	require.NoError(t, err)

	u, err := url.Parse(raw)
	require.NoError(t, err)
	q := u.Query()
	assert.Equal(t, "the-state", q.Get("state"))
	assert.Equal(t, "the-nonce", q.Get("nonce"))
	assert.Equal(t, "offline", q.Get("access_type"))
	assert.Equal(t, "consent", q.Get("prompt"))
	assert.Equal(t, "true", q.Get("include_granted_scopes"))
	assert.Contains(t, q.Get("scope"), "https://www.googleapis.com/auth/calendar")
	assert.Equal(t, testClientID, q.Get("client_id"))
}

func TestGoogle_Exchange(t *testing.T) {
	f := newFakeGoogle(t)

	usr, err := f.provider().Exchange(t.Context(), "good-code", "")
	require.NoError(t, err)

	assert.Equal(t, "1234", usr.Subject)
	assert.Equal(t, "ada@su.edu", usr.Email)
	assert.True(t, usr.EmailVerified)
	assert.Equal(t, "Ada", usr.GivenName)
	assert.Equal(t, "Lovelace", usr.FamilyName)
	assert.Equal(t, "su.edu", usr.HostedDomain)
	assert.Equal(t, "the-nonce", usr.Nonce)
	require.NotNil(t, usr.Token)
	assert.Equal(t, "refresh", usr.Token.RefreshToken)
	assert.Equal(t, f.srv.URL+"/token", usr.TokenURI)
	assert.Equal(t, GoogleScopes, usr.Scopes)
	assert.Equal(t, "http://localhost:8080/auth/callback", f.redirectURI)
}

func TestGoogle_Exchange_RedirectOverride(t *testing.T) {
	f := newFakeGoogle(t)

	_, err := f.provider().Exchange(t.Context(), "good-code", "postmessage")
	require.NoError(t, err)
	assert.Equal(t, "postmessage", f.redirectURI)
}

func TestGoogle_Exchange_BadCode(t *testing.T) {
	f := newFakeGoogle(t)

	_, err := f.provider().Exchange(t.Context(), "bad-code", "")
	var rerr *oauth2.RetrieveError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, http.StatusBadRequest, rerr.Response.StatusCode)
}

func TestGoogle_Exchange_WrongAudience(t *testing.T) {
	f := newFakeGoogle(t)
	f.claims["aud"] = "someone-else"

	_, err := f.provider().Exchange(t.Context(), "good-code", "")
	assert.ErrorContains(t, err, "verify id token")
}
