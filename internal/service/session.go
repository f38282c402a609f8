package service

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/gorilla/sessions"
	"golang.org/x/oauth2"

	"github.com/dtroode/eventhub-server/internal/logger"
	"github.com/dtroode/eventhub-server/internal/model"
	"github.com/dtroode/eventhub-server/internal/session"
)

// Reasons reported to the login page when a callback cannot be completed
// before the provider is contacted.
const (
	ReasonInvalidState = "invalid_state"
	ReasonNoFlow       = "sign_in_expired"
)

// Session derives the current user from session cookies and establishes
// sessions from completed sign-ins.
type Session struct {
	tokens   *TokenService
	users    model.UserStore
	provider model.IdentityProvider
	cookies  sessions.Store
	flows    sessions.Store
	logger   *logger.Logger
}

func NewSession(
	tokens *TokenService,
	users model.UserStore,
	provider model.IdentityProvider,
	cookies sessions.Store,
	flows sessions.Store,
	logger *logger.Logger,
) *Session {
	return &Session{
		tokens:   tokens,
		users:    users,
		provider: provider,
		cookies:  cookies,
		flows:    flows,
		logger:   logger,
	}
}

// Begin starts a sign-in: it records a fresh state and PKCE verifier in the
// flow cookie and returns the provider URL to send the browser to.
func (s *Session) Begin(c *session.Carrier) (string, error) {
	state, err := newState()
	if err != nil {
		return "", fmt.Errorf("failed to generate state: %w", err)
	}
	verifier := oauth2.GenerateVerifier()

	flow, _ := s.flows.Get(c.Request(), session.FlowCookieName)
	flow.Values[session.StateKey] = state
	flow.Values[session.VerifierKey] = verifier
	if err := flow.Save(c.Request(), c); err != nil {
		return "", fmt.Errorf("failed to save sign-in flow: %w", err)
	}

	return s.provider.AuthCodeURL(state, verifier), nil
}

// CurrentUser returns the user of the request's session, or nil when there
// is none. An expired access token is refreshed and the rotated pair is
// written to c. A session whose refresh token is rejected is cleared. An
// error is returned only when the session could not be checked; the
// cookies are then left as they are.
func (s *Session) CurrentUser(ctx context.Context, c *session.Carrier) (*model.User, error) {
	sess, err := s.cookies.Get(c.Request(), session.CookieName)
	if err != nil {
		s.logger.Debug("Session: discarding unreadable session cookie",
			"error", err.Error())
	}

	access, _ := sess.Values[session.AccessTokenKey].(string)
	refresh, _ := sess.Values[session.RefreshTokenKey].(string)
	if access == "" && refresh == "" {
		return nil, nil
	}

	if access != "" {
		user, err := s.tokens.GetUser(ctx, access)
		if err == nil {
			return &user, nil
		}
	}

	if refresh == "" {
		s.clear(c, sess)
		return nil, nil
	}

	pair, user, err := s.tokens.Refresh(ctx, refresh)
	if err != nil {
		if isRejected(err) {
			s.logger.Info("Session: refresh rejected, clearing session",
				"error", err.Error())
			s.clear(c, sess)
			return nil, nil
		}
		return nil, fmt.Errorf("failed to refresh session: %w", err)
	}

	// A zero pair means another request already rotated this session; the
	// cookie it wrote supersedes ours, so leave the cookie alone.
	if pair == (model.TokenPair{}) {
		return &user, nil
	}

	if err := s.store(c, sess, pair); err != nil {
		return nil, err
	}

	return &user, nil
}

// ExchangeCodeForSession completes a sign-in started by Begin. The state in
// ex must match the flow cookie, which is consumed either way. On success
// the user is upserted and a new session is written to c. A nil user with a
// nil error means the provider resolved no subject.
func (s *Session) ExchangeCodeForSession(ctx context.Context, c *session.Carrier, ex model.CodeExchange) (*model.User, error) {
	flow, _ := s.flows.Get(c.Request(), session.FlowCookieName)
	expected, _ := flow.Values[session.StateKey].(string)
	verifier, _ := flow.Values[session.VerifierKey].(string)

	flow.Options.MaxAge = -1
	if err := flow.Save(c.Request(), c); err != nil {
		s.logger.Error("Session: failed to clear sign-in flow",
			"error", err.Error())
	}

	if expected == "" || verifier == "" {
		return nil, &model.ExchangeError{Reason: ReasonNoFlow, Err: model.ErrNoFlow}
	}
	if subtle.ConstantTimeCompare([]byte(expected), []byte(ex.State)) != 1 {
		return nil, &model.ExchangeError{Reason: ReasonInvalidState, Err: model.ErrInvalidState}
	}

	identity, err := s.provider.Exchange(ctx, ex.Code, verifier)
	if err != nil {
		return nil, err
	}
	if identity.Subject == "" {
		s.logger.Warn("Session: provider returned no subject",
			"provider", identity.Provider)
		return nil, nil
	}

	user, err := s.users.Upsert(ctx, identity)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert user: %w", err)
	}

	pair, err := s.tokens.Issue(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("failed to issue session: %w", err)
	}

	sess, _ := s.cookies.Get(c.Request(), session.CookieName)
	if err := s.store(c, sess, pair); err != nil {
		return nil, err
	}

	s.logger.Info("Session: signed in",
		"user_id", user.ID,
		"provider", identity.Provider)

	return &user, nil
}

// SignOut revokes the session's refresh token and clears the session
// cookie. With everywhere set, every session of the user is revoked.
// Revocation failures are logged; the cookie is cleared regardless.
func (s *Session) SignOut(ctx context.Context, c *session.Carrier, everywhere bool) {
	sess, _ := s.cookies.Get(c.Request(), session.CookieName)

	if refresh, _ := sess.Values[session.RefreshTokenKey].(string); refresh != "" {
		revoke := s.tokens.RevokeByToken
		if everywhere {
			revoke = s.tokens.RevokeEverywhere
		}
		if err := revoke(ctx, refresh); err != nil {
			s.logger.Warn("Session: failed to revoke refresh token",
				"everywhere", everywhere,
				"error", err.Error())
		}
	}

	s.clear(c, sess)
}

func (s *Session) store(c *session.Carrier, sess *sessions.Session, pair model.TokenPair) error {
	sess.Values[session.AccessTokenKey] = pair.AccessToken
	sess.Values[session.RefreshTokenKey] = pair.RefreshToken
	if err := sess.Save(c.Request(), c); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

func (s *Session) clear(c *session.Carrier, sess *sessions.Session) {
	delete(sess.Values, session.AccessTokenKey)
	delete(sess.Values, session.RefreshTokenKey)
	sess.Options.MaxAge = -1
	if err := sess.Save(c.Request(), c); err != nil {
		s.logger.Error("Session: failed to clear session",
			"error", err.Error())
	}
}

func isRejected(err error) bool {
	return errors.Is(err, model.ErrTokenInvalid) ||
		errors.Is(err, model.ErrTokenRevoked) ||
		errors.Is(err, model.ErrTokenExpired) ||
		errors.Is(err, model.ErrTokenMismatch) ||
		errors.Is(err, model.ErrNotFound)
}

func newState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
