// Package access resolves the caller of a request and gates routes by role.
// Every route declares either RequireUser or RequireSuperuser.
package access

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/suguidance/guidance-go/internal/pkg/httpx"
	"github.com/suguidance/guidance-go/internal/pkg/middleware"
	"github.com/suguidance/guidance-go/internal/pkg/router"
	"github.com/suguidance/guidance-go/internal/services/tutoring/internal/model"
	"github.com/suguidance/guidance-go/internal/services/tutoring/internal/store"
)

const accessTokenType = "access"

type ctxKey struct{}

var userKey ctxKey

type userStore interface {
	GetUserByEmail(ctx context.Context, email string) (model.User, error)
}

type Guard struct {
	users  userStore
	secret []byte
}

func NewGuard(users userStore, accessSecret []byte) *Guard {
	return &Guard{users: users, secret: accessSecret}
}

// RequireUser authenticates the bearer token and loads the caller.
func (g *Guard) RequireUser() router.Middleware {
	return func(next http.Handler) http.Handler {
		return router.Chain(next, middleware.Auth(g.secret, accessTokenType), g.resolve)
	}
}

// RequireSuperuser is RequireUser restricted to superusers.
func (g *Guard) RequireSuperuser() router.Middleware {
	return func(next http.Handler) http.Handler {
		return router.Chain(next, middleware.Auth(g.secret, accessTokenType), g.resolve, superuserOnly)
	}
}

func (g *Guard) resolve(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		email := middleware.SubjectFromContext(r.Context())

		u, err := g.users.GetUserByEmail(r.Context(), email)
		if errors.Is(err, store.ErrNotFound) {
			httpx.WriteError(w, http.StatusForbidden, "JWT subject not found")
			return
		}
		if err != nil {
			slog.Error("failed to resolve caller", "error", err, "subject", email)
			httpx.WriteError(w, http.StatusInternalServerError, "Internal Server Error")
			return
		}

		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), u)))
	})
}

func superuserOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, ok := UserFromContext(r.Context())
		if !ok || !u.IsSuperuser {
			httpx.WriteError(w, http.StatusForbidden, "Not a superuser")
			return
		}

		next.ServeHTTP(w, r)
	})
}

func UserFromContext(ctx context.Context) (model.User, bool) {
	u, ok := ctx.Value(userKey).(model.User)
	return u, ok
}

func WithUser(ctx context.Context, u model.User) context.Context {
	return context.WithValue(ctx, userKey, u)
}
