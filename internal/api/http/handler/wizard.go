package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dtroode/eventhub-server/internal/api/http/response"
	"github.com/dtroode/eventhub-server/internal/logger"
	"github.com/dtroode/eventhub-server/internal/model"
	"github.com/dtroode/eventhub-server/internal/wizard"
)

type occasionRequest struct {
	Occasion string `json:"occasion"`
}

type dateRequest struct {
	Date string `json:"date"`
}

type guestsRequest struct {
	GuestCount int `json:"guestCount"`
}

type budgetRequest struct {
	Min int64 `json:"min"`
	Max int64 `json:"max"`
}

type stepRequest struct {
	Step int `json:"step"`
}

type returnRequest struct {
	Path string `json:"path"`
	Step *int   `json:"step,omitempty"`
}

type returnResponse struct {
	Return *model.WizardReturn `json:"return"`
}

// Wizard serves the event planning draft of the requesting client.
type Wizard struct {
	state  *ClientState
	logger *logger.Logger
}

func NewWizard(state *ClientState, logger *logger.Logger) *Wizard {
	return &Wizard{state: state, logger: logger}
}

func (h *Wizard) Get(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, func(ctx context.Context, s *wizard.Store) (model.WizardDraft, error) {
		return s.Draft(ctx)
	})
}

func (h *Wizard) Clear(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, func(ctx context.Context, s *wizard.Store) (model.WizardDraft, error) {
		return s.Clear(ctx)
	})
}

func (h *Wizard) SetOccasion(w http.ResponseWriter, r *http.Request) {
	var req occasionRequest
	h.runWithBody(w, r, &req, func(ctx context.Context, s *wizard.Store) (model.WizardDraft, error) {
		return s.SetOccasion(ctx, req.Occasion)
	})
}

func (h *Wizard) SetDate(w http.ResponseWriter, r *http.Request) {
	var req dateRequest
	h.runWithBody(w, r, &req, func(ctx context.Context, s *wizard.Store) (model.WizardDraft, error) {
		return s.SetDate(ctx, req.Date)
	})
}

func (h *Wizard) SetGuestCount(w http.ResponseWriter, r *http.Request) {
	var req guestsRequest
	h.runWithBody(w, r, &req, func(ctx context.Context, s *wizard.Store) (model.WizardDraft, error) {
		return s.SetGuestCount(ctx, req.GuestCount)
	})
}

func (h *Wizard) SetBudget(w http.ResponseWriter, r *http.Request) {
	var req budgetRequest
	h.runWithBody(w, r, &req, func(ctx context.Context, s *wizard.Store) (model.WizardDraft, error) {
		return s.SetBudget(ctx, req.Min, req.Max)
	})
}

func (h *Wizard) SetStep(w http.ResponseWriter, r *http.Request) {
	var req stepRequest
	h.runWithBody(w, r, &req, func(ctx context.Context, s *wizard.Store) (model.WizardDraft, error) {
		return s.SetStep(ctx, req.Step)
	})
}

func (h *Wizard) AddItem(w http.ResponseWriter, r *http.Request) {
	var item model.SelectedVendorItem
	h.runWithBody(w, r, &item, func(ctx context.Context, s *wizard.Store) (model.WizardDraft, error) {
		return s.AddItem(ctx, item)
	})
}

func (h *Wizard) RemoveItem(w http.ResponseWriter, r *http.Request) {
	vendorID := chi.URLParam(r, "vendorID")
	h.run(w, r, func(ctx context.Context, s *wizard.Store) (model.WizardDraft, error) {
		return s.RemoveItem(ctx, vendorID)
	})
}

func (h *Wizard) GetReturn(w http.ResponseWriter, r *http.Request) {
	store, ok := h.store(w, r)
	if !ok {
		return
	}

	ret, found, err := store.Return(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}

	resp := returnResponse{}
	if found {
		resp.Return = &ret
	}
	response.OK(w, resp)
}

func (h *Wizard) SaveReturn(w http.ResponseWriter, r *http.Request) {
	store, ok := h.store(w, r)
	if !ok {
		return
	}

	var req returnRequest
	if err := decodeJSON(w, r, &req); err != nil {
		response.Error(w, err)
		return
	}
	if err := store.SaveReturn(r.Context(), req.Path, req.Step); err != nil {
		h.fail(w, r, err)
		return
	}
	response.OK(w, returnResponse{Return: &model.WizardReturn{Path: req.Path, Step: req.Step}})
}

func (h *Wizard) ClearReturn(w http.ResponseWriter, r *http.Request) {
	store, ok := h.store(w, r)
	if !ok {
		return
	}
	if err := store.ClearReturn(r.Context()); err != nil {
		h.fail(w, r, err)
		return
	}
	response.NoContent(w)
}

func (h *Wizard) runWithBody(w http.ResponseWriter, r *http.Request, body any, op func(context.Context, *wizard.Store) (model.WizardDraft, error)) {
	if err := decodeJSON(w, r, body); err != nil {
		response.Error(w, err)
		return
	}
	h.run(w, r, op)
}

func (h *Wizard) run(w http.ResponseWriter, r *http.Request, op func(context.Context, *wizard.Store) (model.WizardDraft, error)) {
	store, ok := h.store(w, r)
	if !ok {
		return
	}

	draft, err := op(r.Context(), store)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.OK(w, draft)
}

func (h *Wizard) store(w http.ResponseWriter, r *http.Request) (*wizard.Store, bool) {
	store, ok := h.state.Wizard(r.Context())
	if !ok {
		response.ErrorWithStatus(w, http.StatusBadRequest, "missing client id")
	}
	return store, ok
}

func (h *Wizard) fail(w http.ResponseWriter, r *http.Request, err error) {
	h.logger.Warn("Wizard handler: request failed",
		"path", r.URL.Path,
		"error", err.Error())
	response.Error(w, err)
}
