package handler

import (
	"bytes"
	"context"
	"io"
	"mime"
	"net/http"

	"github.com/dtroode/eventhub-server/internal/api/http/response"
	"github.com/dtroode/eventhub-server/internal/logger"
	"github.com/dtroode/eventhub-server/internal/model"
	"github.com/dtroode/eventhub-server/internal/onboarding"
	"github.com/dtroode/eventhub-server/internal/routes"
	"github.com/dtroode/eventhub-server/internal/service"
)

type nameRequest struct {
	FullName string `json:"fullName"`
}

type locationRequest struct {
	City string `json:"city"`
}

type profileResponse struct {
	UserID   string  `json:"userId"`
	Email    string  `json:"email"`
	FullName *string `json:"fullName"`
	City     *string `json:"city"`
	PhotoURL string  `json:"photoUrl,omitempty"`
	Complete bool    `json:"complete"`
	// Next is where to continue once onboarding is complete.
	Next string `json:"next,omitempty"`
}

// ProfileService reads and fills in the signed-in user's profile.
type ProfileService interface {
	Profile(ctx context.Context, user model.User) (model.Profile, error)
	SetName(ctx context.Context, user model.User, fullName string) (model.Profile, error)
	SetCity(ctx context.Context, user model.User, city string) (model.Profile, error)
	SetPhoto(ctx context.Context, user model.User, photo io.Reader, size int64, contentType string) (model.Profile, error)
	PhotoURL(ctx context.Context, profile model.Profile) string
}

// Onboarding serves the profile steps. Every route requires a user in the
// request context.
type Onboarding struct {
	profiles ProfileService
	state    *ClientState
	ctxMgr   model.ContextManager
	logger   *logger.Logger
}

func NewOnboarding(profiles ProfileService, state *ClientState, ctxMgr model.ContextManager, logger *logger.Logger) *Onboarding {
	return &Onboarding{profiles: profiles, state: state, ctxMgr: ctxMgr, logger: logger}
}

func (h *Onboarding) Profile(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, func(ctx context.Context, user model.User) (model.Profile, error) {
		return h.profiles.Profile(ctx, user)
	})
}

func (h *Onboarding) SetName(w http.ResponseWriter, r *http.Request) {
	var req nameRequest
	if err := decodeJSON(w, r, &req); err != nil {
		response.Error(w, err)
		return
	}
	h.run(w, r, func(ctx context.Context, user model.User) (model.Profile, error) {
		return h.profiles.SetName(ctx, user, req.FullName)
	})
}

func (h *Onboarding) SetLocation(w http.ResponseWriter, r *http.Request) {
	var req locationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		response.Error(w, err)
		return
	}
	h.run(w, r, func(ctx context.Context, user model.User) (model.Profile, error) {
		return h.profiles.SetCity(ctx, user, req.City)
	})
}

// SetPhoto takes the raw image as the request body.
func (h *Onboarding) SetPhoto(w http.ResponseWriter, r *http.Request) {
	contentType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		response.ErrorWithStatus(w, http.StatusBadRequest, "missing content type")
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, service.MaxPhotoSize+1))
	if err != nil {
		response.ErrorWithStatus(w, http.StatusBadRequest, "failed to read photo")
		return
	}
	if len(body) > service.MaxPhotoSize {
		response.ErrorWithStatus(w, http.StatusRequestEntityTooLarge, "photo too large")
		return
	}

	h.run(w, r, func(ctx context.Context, user model.User) (model.Profile, error) {
		return h.profiles.SetPhoto(ctx, user, bytes.NewReader(body), int64(len(body)), contentType)
	})
}

func (h *Onboarding) run(w http.ResponseWriter, r *http.Request, op func(context.Context, model.User) (model.Profile, error)) {
	ctx := r.Context()
	user, ok := h.ctxMgr.GetUserFromContext(ctx)
	if !ok {
		response.Unauthorized(w)
		return
	}

	profile, err := op(ctx, user)
	if err != nil {
		h.logger.Warn("Onboarding handler: request failed",
			"user_id", user.ID,
			"path", r.URL.Path,
			"error", err.Error())
		response.Error(w, err)
		return
	}

	resp := profileResponse{
		UserID:   profile.UserID.String(),
		Email:    profile.Email,
		FullName: profile.FullName,
		City:     profile.City,
		PhotoURL: h.profiles.PhotoURL(ctx, profile),
		Complete: onboarding.IsComplete(&profile),
	}
	// Once onboarding is complete the pending redirect is handed out as Next
	// exactly once.
	if resp.Complete {
		resp.Next = routes.Home
		if store, ok := h.state.Redirects(ctx); ok {
			if pending, found := store.Take(ctx); found {
				resp.Next = pending.Path
			}
		}
	}
	response.OK(w, resp)
}
