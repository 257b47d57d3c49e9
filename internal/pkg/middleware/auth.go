package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/suguidance/guidance-go/internal/pkg/httpx"
	"github.com/suguidance/guidance-go/internal/pkg/router"
)

type ctxKey struct{}

var subjectKey ctxKey

// Auth validates an HS256 bearer token and stores its subject in the request context.
// When tokenType is not empty the "typ" claim must match it.
func Auth(key any, tokenType string) router.Middleware {
	return func(next http.Handler) http.Handler {
		return authMiddleware(next, key, tokenType)
	}
}

func authMiddleware(next http.Handler, key any, tokenType string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rawToken, ok := BearerToken(r)
		if !ok {
			httpx.WriteError(w, http.StatusUnauthorized, "Not authenticated")
			return
		}

		token, err := jwt.Parse(rawToken, func(t *jwt.Token) (any, error) {
			return key, nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))

		if err != nil {
			authError("failed to parse jwt", w, r, err)
			return
		}
		if !token.Valid {
			httpx.WriteError(w, http.StatusUnauthorized, "Invalid token")
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			authError("invalid jwt claims type", w, r, nil)
			return
		}

		if tokenType != "" {
			if typ, _ := claims["typ"].(string); typ != tokenType {
				httpx.WriteError(w, http.StatusUnauthorized, "Invalid token")
				return
			}
		}

		sub, err := claims.GetSubject()
		if err != nil || sub == "" {
			httpx.WriteError(w, http.StatusUnauthorized, "Invalid token")
			return
		}

		ctx := context.WithValue(r.Context(), subjectKey, sub)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// BearerToken extracts the token from the Authorization header. The "Bearer "
// scheme is optional.
func BearerToken(r *http.Request) (string, bool) {
	raw := strings.TrimSpace(r.Header.Get("Authorization"))
	if raw == "" {
		return "", false
	}

	if scheme, tok, found := strings.Cut(raw, " "); found {
		if !strings.EqualFold(scheme, "Bearer") {
			return "", false
		}
		raw = strings.TrimSpace(tok)
	}

	return raw, raw != ""
}

func authError(msg string, w http.ResponseWriter, r *http.Request, err error) {
	slog.Warn(msg,
		"error", err,
		"method", r.Method,
		"url", r.URL.String(),
		"remote_addr", r.RemoteAddr,
	)
	httpx.WriteError(w, http.StatusUnauthorized, "Invalid token")
}

// SubjectFromContext returns the token subject stored by Auth.
func SubjectFromContext(ctx context.Context) string {
	sub, _ := ctx.Value(subjectKey).(string)
	return sub
}

// WithSubject returns a copy of ctx carrying sub as the authenticated subject.
func WithSubject(ctx context.Context, sub string) context.Context {
	return context.WithValue(ctx, subjectKey, sub)
}
