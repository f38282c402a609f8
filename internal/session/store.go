package session

import (
	"net/http"
	"time"

	"github.com/gorilla/sessions"

	"github.com/dtroode/eventhub-server/internal/config"
)

const (
	// CookieName holds the session token pair.
	CookieName = "eh_session"
	// FlowCookieName holds the state and PKCE verifier of a sign-in in progress.
	FlowCookieName = "eh_flow"

	AccessTokenKey  = "access_token"
	RefreshTokenKey = "refresh_token"
	StateKey        = "state"
	VerifierKey     = "verifier"
)

// FlowTTL bounds how long a started sign-in can be completed.
const FlowTTL = 10 * time.Minute

// NewCookieStore builds an authenticated and encrypted cookie store whose
// cookies live for maxAge.
func NewCookieStore(cfg config.Session, maxAge time.Duration) *sessions.CookieStore {
	store := sessions.NewCookieStore([]byte(cfg.HashKey), []byte(cfg.BlockKey))
	store.Options = &sessions.Options{
		Path:     "/",
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	}
	store.MaxAge(int(maxAge.Seconds()))
	return store
}
