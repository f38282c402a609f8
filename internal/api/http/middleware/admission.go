// Package middleware contains the HTTP middleware of the gateway.
package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/dtroode/eventhub-server/internal/logger"
	"github.com/dtroode/eventhub-server/internal/model"
	"github.com/dtroode/eventhub-server/internal/onboarding"
	"github.com/dtroode/eventhub-server/internal/routes"
	"github.com/dtroode/eventhub-server/internal/session"
)

// SessionReader resolves the current user of a request, refreshing its
// session through the carrier when needed.
type SessionReader interface {
	CurrentUser(ctx context.Context, c *session.Carrier) (*model.User, error)
}

// VerdictKind is the outcome class of an admission decision.
type VerdictKind int

const (
	Allow VerdictKind = iota
	RedirectRoot
	RedirectAuthPath
	RedirectOnboardingRequired
	RedirectOnboardingDone
	RedirectLoginRequired
)

func (k VerdictKind) String() string {
	switch k {
	case Allow:
		return "allow"
	case RedirectRoot:
		return "root"
	case RedirectAuthPath:
		return "auth_path"
	case RedirectOnboardingRequired:
		return "onboarding_required"
	case RedirectOnboardingDone:
		return "onboarding_done"
	case RedirectLoginRequired:
		return "login_required"
	default:
		return "unknown"
	}
}

// Verdict is either Allow or a redirect to Location.
type Verdict struct {
	Kind     VerdictKind
	Location string
}

// Admission is the decision for one request together with the cookies that
// must accompany whatever response is written.
type Admission struct {
	Verdict Verdict
	Carrier *session.Carrier
	User    *model.User
}

// Gate decides whether a page request may reach the frontend.
type Gate struct {
	sessions  SessionReader
	profiles  model.ProfileStore
	ctxMgr    model.ContextManager
	timeout   time.Duration
	logger    *logger.Logger
	decisions *prometheus.CounterVec
}

// NewGate creates a Gate and registers its decision counter on reg.
func NewGate(
	sessions SessionReader,
	profiles model.ProfileStore,
	ctxMgr model.ContextManager,
	timeout time.Duration,
	logger *logger.Logger,
	reg prometheus.Registerer,
) *Gate {
	decisions := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eventhub_admission_decisions_total",
			Help: "Route admission decisions by verdict",
		},
		[]string{"verdict"},
	)
	reg.MustRegister(decisions)

	return &Gate{
		sessions:  sessions,
		profiles:  profiles,
		ctxMgr:    ctxMgr,
		timeout:   timeout,
		logger:    logger,
		decisions: decisions,
	}
}

// Decide classifies r. It always returns a definite verdict: session and
// profile failures degrade to "unauthenticated" and "incomplete".
func (g *Gate) Decide(r *http.Request) Admission {
	ctx, cancel := context.WithTimeout(r.Context(), g.timeout)
	defer cancel()

	carrier := session.NewCarrier(r)
	adm := Admission{Carrier: carrier}

	user, err := g.sessions.CurrentUser(ctx, carrier)
	if err != nil {
		g.logger.Warn("Admission: session lookup failed", "path", r.URL.Path, "error", err)
		user = nil
	}
	adm.User = user

	path := r.URL.Path
	landing := func() string {
		if g.complete(ctx, user) {
			return routes.Home
		}
		return routes.OnboardingName
	}

	switch {
	case path == routes.Root:
		if user == nil {
			adm.Verdict = Verdict{Kind: RedirectRoot, Location: routes.Home}
		} else {
			adm.Verdict = Verdict{Kind: RedirectRoot, Location: landing()}
		}
	case user != nil && routes.IsAuth(path):
		adm.Verdict = Verdict{Kind: RedirectAuthPath, Location: landing()}
	case user != nil:
		onboardingPath := routes.IsOnboarding(path)
		if onboardingPath || !routes.IsPublic(path) {
			complete := g.complete(ctx, user)
			if !complete && !onboardingPath {
				adm.Verdict = Verdict{Kind: RedirectOnboardingRequired, Location: routes.OnboardingName}
			} else if complete && onboardingPath {
				adm.Verdict = Verdict{Kind: RedirectOnboardingDone, Location: routes.Home}
			}
		}
	case !routes.IsPublic(path):
		adm.Verdict = Verdict{
			Kind:     RedirectLoginRequired,
			Location: routes.Login + "?" + url.Values{"redirectTo": {path}}.Encode(),
		}
	}

	return adm
}

// Middleware applies the gate in front of next. Static assets skip it.
func (g *Gate) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if routes.IsStaticAsset(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		adm := g.Decide(r)
		adm.Carrier.Apply(w)
		g.decisions.WithLabelValues(adm.Verdict.Kind.String()).Inc()

		if adm.Verdict.Kind != Allow {
			http.Redirect(w, r, adm.Verdict.Location, http.StatusTemporaryRedirect)
			return
		}

		ctx := r.Context()
		if adm.User != nil {
			ctx = g.ctxMgr.SetUserToContext(ctx, *adm.User)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (g *Gate) complete(ctx context.Context, user *model.User) bool {
	profile, err := g.profiles.GetByUserID(ctx, user.ID)
	if err != nil {
		if !errors.Is(err, model.ErrNotFound) {
			g.logger.Warn("Admission: profile lookup failed", "user_id", user.ID, "error", err)
		}
		return false
	}
	return onboarding.IsComplete(&profile)
}
