package handler

import (
	"net/http"

	"github.com/dtroode/eventhub-server/internal/api/http/response"
	"github.com/dtroode/eventhub-server/internal/model"
	"github.com/dtroode/eventhub-server/internal/redirect"
)

type saveRedirectRequest struct {
	Path       string `json:"path"`
	WizardStep *int   `json:"wizardStep,omitempty"`
}

type redirectResponse struct {
	Pending *model.PendingRedirect `json:"pending"`
}

type urlResponse struct {
	URL string `json:"url"`
}

// Redirects exposes the pending redirect of the requesting client.
type Redirects struct {
	state *ClientState
}

func NewRedirects(state *ClientState) *Redirects {
	return &Redirects{state: state}
}

func (h *Redirects) Get(w http.ResponseWriter, r *http.Request) {
	store, ok := h.store(w, r)
	if !ok {
		return
	}

	resp := redirectResponse{}
	if pending, found := store.Get(r.Context()); found {
		resp.Pending = &pending
	}
	response.OK(w, resp)
}

// Save records the pending redirect. Paths the store refuses are dropped
// without an error, so the response reports what was kept.
func (h *Redirects) Save(w http.ResponseWriter, r *http.Request) {
	store, ok := h.store(w, r)
	if !ok {
		return
	}

	var req saveRedirectRequest
	if err := decodeJSON(w, r, &req); err != nil {
		response.Error(w, err)
		return
	}

	store.Save(r.Context(), req.Path, req.WizardStep)

	resp := redirectResponse{}
	if pending, found := store.Get(r.Context()); found {
		resp.Pending = &pending
	}
	response.OK(w, resp)
}

func (h *Redirects) Clear(w http.ResponseWriter, r *http.Request) {
	store, ok := h.store(w, r)
	if !ok {
		return
	}
	store.Clear(r.Context())
	response.NoContent(w)
}

func (h *Redirects) LoginURL(w http.ResponseWriter, r *http.Request) {
	store, ok := h.store(w, r)
	if !ok {
		return
	}
	response.OK(w, urlResponse{URL: store.BuildLoginURL(r.Context(), r.URL.Query().Get("path"))})
}

func (h *Redirects) SignupURL(w http.ResponseWriter, r *http.Request) {
	store, ok := h.store(w, r)
	if !ok {
		return
	}
	response.OK(w, urlResponse{URL: store.BuildSignupURL(r.Context(), r.URL.Query().Get("path"))})
}

func (h *Redirects) store(w http.ResponseWriter, r *http.Request) (*redirect.Store, bool) {
	store, ok := h.state.Redirects(r.Context())
	if !ok {
		response.ErrorWithStatus(w, http.StatusBadRequest, "missing client id")
	}
	return store, ok
}
