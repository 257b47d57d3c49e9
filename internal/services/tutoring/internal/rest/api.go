// Package rest exposes the tutoring services over HTTP.
package rest

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/suguidance/guidance-go/internal/pkg/httpx"
	"github.com/suguidance/guidance-go/internal/pkg/middleware"
	"github.com/suguidance/guidance-go/internal/pkg/router"
	"github.com/suguidance/guidance-go/internal/pkg/serr"
	"github.com/suguidance/guidance-go/internal/services/tutoring/internal/access"
	"github.com/suguidance/guidance-go/internal/services/tutoring/internal/calendar"
	"github.com/suguidance/guidance-go/internal/services/tutoring/internal/model"
	"github.com/suguidance/guidance-go/internal/services/tutoring/internal/oauth"
	"github.com/suguidance/guidance-go/internal/services/tutoring/internal/query"
	"github.com/suguidance/guidance-go/internal/services/tutoring/internal/service"
	"github.com/suguidance/guidance-go/internal/services/tutoring/internal/token"
)

const (
	totalCountHeader = "X-Total-Count"
	googleProvider   = "google"
)

type authService interface {
	ClientConfig() service.ClientConfig
	LoginURL(env oauth.Env, r service.LoginRequest) (string, error)
	AuthCallback(ctx context.Context, env oauth.Env, r service.AuthCallbackRequest) (service.LoginResponse, error)
	Swap(ctx context.Context, r service.SwapRequest) (service.LoginResponse, error)
	Refresh(ctx context.Context, refreshToken string) (string, error)
	RedeemCode(ctx context.Context, code string) (token.Pair, error)
}

type userService interface {
	Me(ctx context.Context, caller model.User) (model.User, error)
	Get(ctx context.Context, id int64) (model.User, error)
	List(ctx context.Context, params url.Values) (query.Page[model.User], error)
	UpdateMe(ctx context.Context, caller model.User, r service.UpdateMeRequest) (model.User, error)
	Update(ctx context.Context, id int64, r service.UpdateUserRequest) (model.User, error)
	Schedule(ctx context.Context, id int64, timeMin, timeMax time.Time) ([]calendar.NormalizedEvent, error)
}

type categoryService interface {
	Get(ctx context.Context, id int64) (model.Category, error)
	List(ctx context.Context, params url.Values) (query.Page[model.Category], error)
	Create(ctx context.Context, r service.CategoryRequest) (model.Category, error)
	Update(ctx context.Context, id int64, r service.CategoryRequest) (model.Category, error)
	Delete(ctx context.Context, id int64) error
}

type reviewService interface {
	Get(ctx context.Context, id int64) (model.Review, error)
	List(ctx context.Context, params url.Values) (query.Page[model.Review], error)
	Create(ctx context.Context, reviewer model.User, r service.ReviewRequest) (model.Review, error)
	Update(ctx context.Context, id int64, r service.ReviewRequest) (model.Review, error)
	Delete(ctx context.Context, id int64) error
}

type reportService interface {
	Get(ctx context.Context, id int64) (model.Report, error)
	List(ctx context.Context, params url.Values) (query.Page[model.Report], error)
	Create(ctx context.Context, reporter model.User, r service.ReportRequest) (model.Report, error)
	Update(ctx context.Context, id int64, r service.ReportRequest) (model.Report, error)
	Delete(ctx context.Context, id int64) error
}

type sessionService interface {
	Book(ctx context.Context, student model.User, r service.BookRequest) (model.Session, error)
	Get(ctx context.Context, id int64) (model.Session, error)
	List(ctx context.Context, params url.Values) (query.Page[model.Session], error)
	WeeklyStats(ctx context.Context) (map[string]int, error)
}

type guard interface {
	RequireUser() router.Middleware
	RequireSuperuser() router.Middleware
}

type Services struct {
	Auth       authService
	Users      userService
	Categories categoryService
	Reviews    reviewService
	Reports    reportService
	Sessions   sessionService
}

type Config struct {
	AllowedOrigins []string
}

type API struct {
	srv    Services
	guard  guard
	router *router.Router
}

func NewAPI(srv Services, g guard, cfg Config) *API {
	api := &API{
		srv:    srv,
		guard:  g,
		router: router.New(),
	}

	api.router.Use(
		middleware.Recover(),
		middleware.Log(),
		middleware.CORS(middleware.CORSConfig{
			AllowedOrigins: cfg.AllowedOrigins,
			ExposedHeaders: []string{totalCountHeader},
		}),
	)
	api.mount()

	return api
}

func (a *API) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.router.ServeHTTP(w, r)
}

func (a *API) mount() {
	a.router.HandleFunc("GET /ping", a.handlePing)

	a.mountAuth(a.router.SubRouter("/auth"))
	a.mountUsers(a.router.SubRouter("/user"))
	a.mountCategories(a.router.SubRouter("/category"))
	a.mountReviews(a.router.SubRouter("/reviews"))
	a.mountReports(a.router.SubRouter("/reports"))
	a.mountSessions(a.router.SubRouter("/session"))
}

func (a *API) handlePing(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]string{"ping": "pong!"})
}

type messageResponse struct {
	Message string `json:"message"`
}

func writeDeleted(w http.ResponseWriter, r *http.Request, entity string, id int64) {
	writeJSON(w, r, http.StatusOK, messageResponse{Message: fmt.Sprintf("%s deleted %d", entity, id)})
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, resp any) {
	if err := httpx.WriteJSON(w, status, resp); err != nil {
		httpx.HandleErr(w, r, fmt.Errorf("write response json: %w", err))
	}
}

// writePage writes the page items and reports the unpaginated total in a header.
func writePage[T any](w http.ResponseWriter, r *http.Request, page query.Page[T], err error) {
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	items := page.Items
	if items == nil {
		items = []T{}
	}

	w.Header().Set(totalCountHeader, strconv.Itoa(page.Total))
	writeJSON(w, r, http.StatusOK, items)
}

func readJSON(r *http.Request, out any) error {
	if err := httpx.ReadJSON(r, out); err != nil {
		return serr.BadRequest(err, "Invalid request body")
	}
	return nil
}

func pathID(r *http.Request) (int64, error) {
	raw := r.PathValue("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, serr.BadRequest(err, "Invalid id %q", raw)
	}
	return id, nil
}

// caller returns the user resolved by the access guard.
func caller(r *http.Request) (model.User, error) {
	u, ok := access.UserFromContext(r.Context())
	if !ok {
		return model.User{}, serr.Unauthorized(nil, "Not authenticated")
	}
	return u, nil
}

func getByID[T any](get func(ctx context.Context, id int64) (T, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			httpx.HandleErr(w, r, err)
			return
		}

		v, err := get(r.Context(), id)
		if err != nil {
			httpx.HandleErr(w, r, err)
			return
		}

		writeJSON(w, r, http.StatusOK, v)
	}
}

func deleteByID(entity string, del func(ctx context.Context, id int64) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			httpx.HandleErr(w, r, err)
			return
		}

		if err := del(r.Context(), id); err != nil {
			httpx.HandleErr(w, r, err)
			return
		}

		writeDeleted(w, r, entity, id)
	}
}
