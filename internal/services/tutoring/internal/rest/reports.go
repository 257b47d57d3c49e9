package rest

import (
	"net/http"

	"github.com/suguidance/guidance-go/internal/pkg/httpx"
	"github.com/suguidance/guidance-go/internal/pkg/router"
	"github.com/suguidance/guidance-go/internal/services/tutoring/internal/service"
)

func (a *API) mountReports(rt *router.Router) {
	user := a.guard.RequireUser()
	superuser := a.guard.RequireSuperuser()

	rt.HandleFunc("GET /{$}", a.handleListReports, superuser)
	rt.HandleFunc("GET /{id}", getByID(a.srv.Reports.Get), superuser)
	rt.HandleFunc("POST /{$}", a.handleCreateReport, user)
	rt.HandleFunc("PUT /{id}", a.handleUpdateReport, superuser)
	rt.HandleFunc("DELETE /{id}", deleteByID("Report", a.srv.Reports.Delete), superuser)
}

func (a *API) handleListReports(w http.ResponseWriter, r *http.Request) {
	page, err := a.srv.Reports.List(r.Context(), r.URL.Query())
	writePage(w, r, page, err)
}

func (a *API) handleCreateReport(w http.ResponseWriter, r *http.Request) {
	u, err := caller(r)
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	var req service.ReportRequest
	if err := readJSON(r, &req); err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	rep, err := a.srv.Reports.Create(r.Context(), u, req)
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, rep)
}

func (a *API) handleUpdateReport(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	var req service.ReportRequest
	if err := readJSON(r, &req); err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	rep, err := a.srv.Reports.Update(r.Context(), id, req)
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, rep)
}
