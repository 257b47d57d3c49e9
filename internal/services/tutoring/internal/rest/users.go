package rest

import (
	"net/http"
	"time"

	"github.com/suguidance/guidance-go/internal/pkg/httpx"
	"github.com/suguidance/guidance-go/internal/pkg/router"
	"github.com/suguidance/guidance-go/internal/pkg/serr"
	"github.com/suguidance/guidance-go/internal/services/tutoring/internal/calendar"
	"github.com/suguidance/guidance-go/internal/services/tutoring/internal/service"
)

const defaultScheduleWindow = 14 * 24 * time.Hour

func (a *API) mountUsers(rt *router.Router) {
	user := a.guard.RequireUser()
	superuser := a.guard.RequireSuperuser()

	rt.HandleFunc("GET /{$}", a.handleListUsers, user)
	rt.HandleFunc("GET /me", a.handleMe, user)
	rt.HandleFunc("PATCH /me", a.handleUpdateMe, user)
	rt.HandleFunc("GET /{id}", a.handleGetUser, user)
	rt.HandleFunc("GET /{id}/schedule", a.handleSchedule, user)
	rt.HandleFunc("PUT /{id}", a.handleUpdateUser, superuser)
}

func (a *API) handleListUsers(w http.ResponseWriter, r *http.Request) {
	page, err := a.srv.Users.List(r.Context(), r.URL.Query())
	writePage(w, r, page, err)
}

func (a *API) handleMe(w http.ResponseWriter, r *http.Request) {
	u, err := caller(r)
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	me, err := a.srv.Users.Me(r.Context(), u)
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, me)
}

func (a *API) handleUpdateMe(w http.ResponseWriter, r *http.Request) {
	u, err := caller(r)
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	var req service.UpdateMeRequest
	if err := readJSON(r, &req); err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	updated, err := a.srv.Users.UpdateMe(r.Context(), u, req)
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, updated)
}

func (a *API) handleGetUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	u, err := a.srv.Users.Get(r.Context(), id)
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, u)
}

func (a *API) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	var req service.UpdateUserRequest
	if err := readJSON(r, &req); err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	u, err := a.srv.Users.Update(r.Context(), id, req)
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, u)
}

func (a *API) handleSchedule(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	now := time.Now().UTC()
	timeMin, err := parseTimeParam(r, "time_min", now)
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	timeMax, err := parseTimeParam(r, "time_max", timeMin.Add(defaultScheduleWindow))
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	events, err := a.srv.Users.Schedule(r.Context(), id, timeMin, timeMax)
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}
	if events == nil {
		events = []calendar.NormalizedEvent{}
	}

	writeJSON(w, r, http.StatusOK, events)
}

func parseTimeParam(r *http.Request, name string, def time.Time) (time.Time, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}

	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, serr.BadRequest(err, "Invalid %s: expected RFC3339", name)
	}
	return t, nil
}
