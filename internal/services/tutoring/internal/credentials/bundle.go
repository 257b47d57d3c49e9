package credentials

import (
	"time"

	"golang.org/x/oauth2"
)

// Bundle is the delegated calendar access of a single user.
type Bundle struct {
	Token        string    `json:"token"`
	RefreshToken string    `json:"refresh_token"`
	TokenURI     string    `json:"token_uri"`
	Scopes       []string  `json:"scopes"`
	Expiry       time.Time `json:"expiry"`
}

func (b Bundle) OAuth2() *oauth2.Token {
	return &oauth2.Token{
		AccessToken:  b.Token,
		RefreshToken: b.RefreshToken,
		TokenType:    "Bearer",
		Expiry:       b.Expiry,
	}
}

// FromOAuth2 builds a bundle from a freshly exchanged token.
func FromOAuth2(tk *oauth2.Token, tokenURI string, scopes []string) Bundle {
	return Bundle{
		Token:        tk.AccessToken,
		RefreshToken: tk.RefreshToken,
		TokenURI:     tokenURI,
		Scopes:       scopes,
		Expiry:       tk.Expiry.UTC(),
	}
}
