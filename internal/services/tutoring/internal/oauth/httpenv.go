package oauth

import (
	"fmt"
	"net/http"
	"time"
)

const cookieTTL = 10 * time.Minute

// HTTPEnv implements the Env interface using short lived HTTP cookies
type HTTPEnv struct {
	scope  string
	secure bool
	w      http.ResponseWriter
	r      *http.Request
}

// NewHTTPEnv creates a new HTTPEnv instance. Cookies are marked Secure when the
// request arrived over TLS.
func NewHTTPEnv(scope string, w http.ResponseWriter, r *http.Request) *HTTPEnv {
	return &HTTPEnv{scope: scope, secure: r.TLS != nil, w: w, r: r}
}

func (e *HTTPEnv) Save(key, val string) error {
	http.SetCookie(e.w, &http.Cookie{
		Name:     e.name(key),
		Value:    val,
		Path:     "/",
		MaxAge:   int(cookieTTL.Seconds()),
		HttpOnly: true,
		Secure:   e.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

func (e *HTTPEnv) Load(key string) (string, error) {
	c, err := e.r.Cookie(e.name(key))
	if err != nil {
		return "", err
	}

	return c.Value, nil
}

// Clear expires the cookie stored under key.
func (e *HTTPEnv) Clear(key string) {
	http.SetCookie(e.w, &http.Cookie{
		Name:     e.name(key),
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   e.secure,
	})
}

func (e *HTTPEnv) name(key string) string {
	return fmt.Sprintf("%s-%s", e.scope, key)
}
