package rest

import (
	"net/http"

	"github.com/suguidance/guidance-go/internal/pkg/httpx"
	"github.com/suguidance/guidance-go/internal/pkg/router"
	"github.com/suguidance/guidance-go/internal/services/tutoring/internal/service"
)

func (a *API) mountReviews(rt *router.Router) {
	user := a.guard.RequireUser()
	superuser := a.guard.RequireSuperuser()

	rt.HandleFunc("GET /{$}", a.handleListReviews, user)
	rt.HandleFunc("GET /{id}", getByID(a.srv.Reviews.Get), user)
	rt.HandleFunc("POST /{$}", a.handleCreateReview, user)
	rt.HandleFunc("PUT /{id}", a.handleUpdateReview, superuser)
	rt.HandleFunc("DELETE /{id}", deleteByID("Review", a.srv.Reviews.Delete), superuser)
}

func (a *API) handleListReviews(w http.ResponseWriter, r *http.Request) {
	page, err := a.srv.Reviews.List(r.Context(), r.URL.Query())
	writePage(w, r, page, err)
}

func (a *API) handleCreateReview(w http.ResponseWriter, r *http.Request) {
	u, err := caller(r)
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	var req service.ReviewRequest
	if err := readJSON(r, &req); err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	rev, err := a.srv.Reviews.Create(r.Context(), u, req)
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, rev)
}

func (a *API) handleUpdateReview(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	var req service.ReviewRequest
	if err := readJSON(r, &req); err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	rev, err := a.srv.Reviews.Update(r.Context(), id, req)
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, rev)
}
