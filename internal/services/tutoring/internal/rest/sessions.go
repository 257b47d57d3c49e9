package rest

import (
	"net/http"

	"github.com/suguidance/guidance-go/internal/pkg/httpx"
	"github.com/suguidance/guidance-go/internal/pkg/router"
	"github.com/suguidance/guidance-go/internal/services/tutoring/internal/service"
)

func (a *API) mountSessions(rt *router.Router) {
	user := a.guard.RequireUser()
	superuser := a.guard.RequireSuperuser()

	rt.HandleFunc("GET /{$}", a.handleListSessions, superuser)
	rt.HandleFunc("POST /{$}", a.handleBook, user)
	rt.HandleFunc("GET /{id}", getByID(a.srv.Sessions.Get), user)
	rt.HandleFunc("GET /stats/sessions", a.handleWeeklyStats, superuser)
}

func (a *API) handleListSessions(w http.ResponseWriter, r *http.Request) {
	page, err := a.srv.Sessions.List(r.Context(), r.URL.Query())
	writePage(w, r, page, err)
}

func (a *API) handleBook(w http.ResponseWriter, r *http.Request) {
	u, err := caller(r)
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	var req service.BookRequest
	if err := readJSON(r, &req); err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	sess, err := a.srv.Sessions.Book(r.Context(), u, req)
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, sess)
}

func (a *API) handleWeeklyStats(w http.ResponseWriter, r *http.Request) {
	stats, err := a.srv.Sessions.WeeklyStats(r.Context())
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, stats)
}
