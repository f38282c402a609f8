package handler

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/dtroode/eventhub-server/internal/logger"
	"github.com/dtroode/eventhub-server/internal/model"
	"github.com/dtroode/eventhub-server/internal/oauth"
	"github.com/dtroode/eventhub-server/internal/onboarding"
	"github.com/dtroode/eventhub-server/internal/redirect"
	"github.com/dtroode/eventhub-server/internal/routes"
	"github.com/dtroode/eventhub-server/internal/session"
)

// ReasonUnavailable is reported when a sign-in cannot be started.
const ReasonUnavailable = "sign_in_unavailable"

// SessionService starts, completes and ends sign-ins.
type SessionService interface {
	Begin(c *session.Carrier) (string, error)
	ExchangeCodeForSession(ctx context.Context, c *session.Carrier, ex model.CodeExchange) (*model.User, error)
	SignOut(ctx context.Context, c *session.Carrier, everywhere bool)
}

// Auth serves the sign-in start, the provider callback and sign-out.
type Auth struct {
	sessions SessionService
	profiles model.ProfileStore
	state    *ClientState
	provider string
	baseURL  string
	timeout  time.Duration
	logger   *logger.Logger
}

func NewAuth(
	sessions SessionService,
	profiles model.ProfileStore,
	state *ClientState,
	provider string,
	baseURL string,
	timeout time.Duration,
	logger *logger.Logger,
) *Auth {
	return &Auth{
		sessions: sessions,
		profiles: profiles,
		state:    state,
		provider: provider,
		baseURL:  baseURL,
		timeout:  timeout,
		logger:   logger,
	}
}

// Authorize remembers where the user came from and sends the browser to
// the identity provider.
func (h *Auth) Authorize(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if p := q.Get("provider"); p != "" && p != h.provider {
		h.redirect(w, r, loginWithError("unsupported_provider"))
		return
	}

	target := q.Get("redirect")
	if target == "" {
		target = q.Get("redirectTo")
	}
	if target != "" {
		if store, ok := h.state.Redirects(r.Context()); ok {
			store.Save(r.Context(), target, nil)
		}
	}

	carrier := session.NewCarrier(r)
	authURL, err := h.sessions.Begin(carrier)
	if err != nil {
		h.logger.Error("Auth handler: failed to begin sign-in", "error", err.Error())
		h.redirect(w, r, loginWithError(ReasonUnavailable))
		return
	}

	carrier.Apply(w)
	http.Redirect(w, r, authURL, http.StatusFound)
}

// Callback completes a sign-in and picks the first page the user sees.
func (h *Auth) Callback(w http.ResponseWriter, r *http.Request) {
	carrier := session.NewCarrier(r)
	target := h.callbackTarget(r, carrier)
	carrier.Apply(w)
	h.redirect(w, r, target)
}

func (h *Auth) callbackTarget(r *http.Request, carrier *session.Carrier) string {
	q := r.URL.Query()
	code := q.Get("code")
	if code == "" {
		if reason := q.Get("error"); reason != "" {
			return loginWithError(reason)
		}
		return routes.Home
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	user, err := h.sessions.ExchangeCodeForSession(ctx, carrier, model.CodeExchange{Code: code, State: q.Get("state")})
	if err != nil {
		reason := oauth.ReasonExchangeFailed
		var exErr *model.ExchangeError
		if errors.As(err, &exErr) && exErr.Reason != "" {
			reason = exErr.Reason
		}
		h.logger.Warn("Auth handler: code exchange failed", "reason", reason, "error", err.Error())
		return loginWithError(reason)
	}
	if user == nil {
		return routes.Home
	}

	profile, err := h.profiles.GetByUserID(ctx, user.ID)
	switch {
	case errors.Is(err, model.ErrNotFound):
		if _, err := h.profiles.Create(ctx, model.Profile{UserID: user.ID, Email: user.Email}); err != nil {
			h.logger.Error("Auth handler: failed to create profile",
				"user_id", user.ID,
				"error", err.Error())
		}
		return routes.OnboardingName
	case err != nil:
		h.logger.Error("Auth handler: failed to get profile",
			"user_id", user.ID,
			"error", err.Error())
		return routes.OnboardingName
	case !onboarding.IsComplete(&profile):
		return routes.OnboardingName
	}

	store, ok := h.state.Redirects(ctx)
	if next := q.Get("next"); next != "" && redirect.IsAllowed(next) {
		if ok {
			store.Clear(ctx)
		}
		return next
	}
	if ok {
		if pending, found := store.Take(ctx); found {
			return pending.Path
		}
	}
	return routes.Home
}

// SignOut ends the session and returns to the login page. With ?all=1
// every session of the user is ended.
func (h *Auth) SignOut(w http.ResponseWriter, r *http.Request) {
	everywhere, _ := strconv.ParseBool(r.URL.Query().Get("all"))

	carrier := session.NewCarrier(r)
	h.sessions.SignOut(r.Context(), carrier, everywhere)
	carrier.Apply(w)
	h.redirect(w, r, routes.Login)
}

func (h *Auth) redirect(w http.ResponseWriter, r *http.Request, target string) {
	http.Redirect(w, r, h.baseURL+target, http.StatusSeeOther)
}

func loginWithError(reason string) string {
	return routes.Login + "?" + url.Values{"error": {reason}}.Encode()
}
