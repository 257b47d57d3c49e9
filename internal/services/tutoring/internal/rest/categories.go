package rest

import (
	"net/http"

	"github.com/suguidance/guidance-go/internal/pkg/httpx"
	"github.com/suguidance/guidance-go/internal/pkg/router"
	"github.com/suguidance/guidance-go/internal/services/tutoring/internal/service"
)

func (a *API) mountCategories(rt *router.Router) {
	user := a.guard.RequireUser()
	superuser := a.guard.RequireSuperuser()

	rt.HandleFunc("GET /{$}", a.handleListCategories, user)
	rt.HandleFunc("GET /{id}", getByID(a.srv.Categories.Get), user)
	rt.HandleFunc("POST /{$}", a.handleCreateCategory, superuser)
	rt.HandleFunc("PUT /{id}", a.handleUpdateCategory, superuser)
	rt.HandleFunc("DELETE /{id}", deleteByID("Category", a.srv.Categories.Delete), superuser)
}

func (a *API) handleListCategories(w http.ResponseWriter, r *http.Request) {
	page, err := a.srv.Categories.List(r.Context(), r.URL.Query())
	writePage(w, r, page, err)
}

func (a *API) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var req service.CategoryRequest
	if err := readJSON(r, &req); err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	c, err := a.srv.Categories.Create(r.Context(), req)
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, c)
}

func (a *API) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	var req service.CategoryRequest
	if err := readJSON(r, &req); err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	c, err := a.srv.Categories.Update(r.Context(), id, req)
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, c)
}
