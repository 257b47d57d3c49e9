package rest

import (
	"net/http"

	"github.com/suguidance/guidance-go/internal/pkg/httpx"
	"github.com/suguidance/guidance-go/internal/pkg/router"
	"github.com/suguidance/guidance-go/internal/services/tutoring/internal/oauth"
	"github.com/suguidance/guidance-go/internal/services/tutoring/internal/service"
)

const envScope = "auth"

func (a *API) mountAuth(rt *router.Router) {
	rt.HandleFunc("GET /code/url", a.handleClientConfig)
	rt.HandleFunc("GET /code/client", a.handleLogin)
	rt.HandleFunc("GET /callback", a.handleCallback)
	rt.HandleFunc("POST /swap", a.handleSwap)
	rt.HandleFunc("POST /refresh", a.handleRefresh)
	rt.HandleFunc("POST /redeem", a.handleRedeem)
}

func (a *API) handleClientConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, a.srv.Auth.ClientConfig())
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	url, err := a.srv.Auth.LoginURL(oauth.NewHTTPEnv(envScope, w, r), service.LoginRequest{
		Provider:    googleProvider,
		RedirectURL: r.URL.Query().Get("redirect_url"),
	})
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	http.Redirect(w, r, url, http.StatusFound)
}

func (a *API) handleCallback(w http.ResponseWriter, r *http.Request) {
	resp, err := a.srv.Auth.AuthCallback(r.Context(), oauth.NewHTTPEnv(envScope, w, r), service.AuthCallbackRequest{
		Provider: googleProvider,
		Code:     r.URL.Query().Get("code"),
		State:    r.URL.Query().Get("state"),
	})
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	if resp.RedirectURL != "" {
		http.Redirect(w, r, resp.RedirectURL, http.StatusFound)
		return
	}

	writeJSON(w, r, http.StatusOK, resp)
}

type swapRequest struct {
	Code        string `json:"code"`
	RedirectURI string `json:"redirect_uri"`
}

func (a *API) handleSwap(w http.ResponseWriter, r *http.Request) {
	var req swapRequest
	if err := readJSON(r, &req); err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	resp, err := a.srv.Auth.Swap(r.Context(), service.SwapRequest{
		Provider:    googleProvider,
		Code:        req.Code,
		RedirectURI: req.RedirectURI,
	})
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, resp)
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type refreshResponse struct {
	AccessToken string `json:"access_token"`
}

func (a *API) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := readJSON(r, &req); err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	accessToken, err := a.srv.Auth.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, refreshResponse{AccessToken: accessToken})
}

type redeemRequest struct {
	Code string `json:"code"`
}

func (a *API) handleRedeem(w http.ResponseWriter, r *http.Request) {
	var req redeemRequest
	if err := readJSON(r, &req); err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	ts, err := a.srv.Auth.RedeemCode(r.Context(), req.Code)
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, ts)
}
