// Package credentials keeps the per-user delegated calendar tokens. Tokens are
// refreshed lazily, right before they are used, and the refreshed bundle is
// written back.
package credentials

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/suguidance/guidance-go/internal/pkg/serr"
	"github.com/suguidance/guidance-go/internal/services/tutoring/internal/store"
	"golang.org/x/oauth2"
)

type blobStore interface {
	GetCredentials(ctx context.Context, userID int64) (string, error)
	UpsertCredentials(ctx context.Context, userID int64, blob string) error
}

type blobCipher interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(encoded string) (string, error)
}

type Config struct {
	ClientID     string
	ClientSecret string
	// Cipher is optional. Without it blobs are stored as plain JSON.
	Cipher *TokenCipher
}

type Store struct {
	blobs        blobStore
	cipher       blobCipher
	clientID     string
	clientSecret string
	now          func() time.Time
}

func NewStore(blobs blobStore, cfg Config) *Store {
	s := &Store{
		blobs:        blobs,
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		now:          time.Now,
	}
	if cfg.Cipher != nil {
		s.cipher = cfg.Cipher
	}
	return s
}

func (s *Store) Get(ctx context.Context, userID int64) (Bundle, error) {
	blob, err := s.blobs.GetCredentials(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return Bundle{}, serr.NotFound(err, "Credentials for user %d not found", userID).With("user_id", strconv.FormatInt(userID, 10))
	}
	if err != nil {
		return Bundle{}, fmt.Errorf("get credentials: %w", err)
	}

	if s.cipher != nil {
		if blob, err = s.cipher.Decrypt(blob); err != nil {
			return Bundle{}, fmt.Errorf("decrypt credentials: %w", err)
		}
	}

	var b Bundle
	if err := json.Unmarshal([]byte(blob), &b); err != nil {
		return Bundle{}, fmt.Errorf("decode credentials: %w", err)
	}

	return b, nil
}

// IsExpired reports whether the access token can no longer be used. A bundle
// without an expiry is valid as long as it has an access token.
func (s *Store) IsExpired(b Bundle) bool {
	if b.Token == "" {
		return true
	}
	if b.Expiry.IsZero() {
		return false
	}
	return !s.now().Before(b.Expiry)
}

// Refresh exchanges the refresh token for a new access token. A rejected or
// missing refresh token yields a Refresh error.
func (s *Store) Refresh(ctx context.Context, b Bundle) (Bundle, error) {
	if b.RefreshToken == "" {
		return Bundle{}, serr.Refresh(nil, "No refresh token available")
	}

	cfg := oauth2.Config{
		ClientID:     s.clientID,
		ClientSecret: s.clientSecret,
		Endpoint:     oauth2.Endpoint{TokenURL: b.TokenURI},
		Scopes:       b.Scopes,
	}

	tk, err := cfg.TokenSource(ctx, &oauth2.Token{RefreshToken: b.RefreshToken}).Token()
	if err != nil {
		var re *oauth2.RetrieveError
		if errors.As(err, &re) && re.Response != nil &&
			(re.Response.StatusCode == http.StatusBadRequest || re.Response.StatusCode == http.StatusUnauthorized) {
			return Bundle{}, serr.Refresh(err, "Refresh token rejected").With("error_code", re.ErrorCode)
		}
		return Bundle{}, fmt.Errorf("refresh token: %w", err)
	}

	refreshed := FromOAuth2(tk, b.TokenURI, b.Scopes)
	if refreshed.RefreshToken == "" {
		refreshed.RefreshToken = b.RefreshToken
	}

	return refreshed, nil
}

func (s *Store) Persist(ctx context.Context, userID int64, b Bundle) error {
	raw, err := json.Marshal(b)
	if err != nil {
		return fmt.Errorf("encode credentials: %w", err)
	}

	blob := string(raw)
	if s.cipher != nil {
		if blob, err = s.cipher.Encrypt(blob); err != nil {
			return fmt.Errorf("encrypt credentials: %w", err)
		}
	}

	if err := s.blobs.UpsertCredentials(ctx, userID, blob); err != nil {
		return fmt.Errorf("persist credentials: %w", err)
	}

	return nil
}

// Token returns a usable bundle for userID, refreshing and persisting it
// first when it has expired.
func (s *Store) Token(ctx context.Context, userID int64) (Bundle, error) {
	b, err := s.Get(ctx, userID)
	if err != nil {
		return Bundle{}, err
	}

	if !s.IsExpired(b) {
		return b, nil
	}

	b, err = s.Refresh(ctx, b)
	if err != nil {
		return Bundle{}, err
	}

	if err := s.Persist(ctx, userID, b); err != nil {
		return Bundle{}, err
	}

	return b, nil
}
