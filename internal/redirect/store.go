// Package redirect keeps the single pending post-authentication return path
// of a client.
package redirect

import (
	"context"
	"encoding/json"
	"net/url"
	"time"

	"github.com/dtroode/eventhub-server/internal/logger"
	"github.com/dtroode/eventhub-server/internal/model"
	"github.com/dtroode/eventhub-server/internal/routes"
)

// StorageKey is the key the pending redirect is stored under.
const StorageKey = "post_auth_redirect"

// IsAllowed reports whether target may be used as a post-auth destination:
// an internal path that is not itself part of the auth flow.
func IsAllowed(target string) bool {
	return routes.IsInternal(target) && !routes.IsAuth(routes.PathOf(target))
}

// Store holds at most one pending redirect per client. A new Save replaces
// the previous one. No method returns an error: failures are logged and
// reads fall back to "none".
type Store struct {
	kv     model.KeyValueStore
	logger *logger.Logger
	now    func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source used for saving and expiry.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// NewStore creates a Store over a client-scoped key-value store.
func NewStore(kv model.KeyValueStore, logger *logger.Logger, opts ...Option) *Store {
	s := &Store{kv: kv, logger: logger, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Save records path as the pending redirect, with an optional wizard step.
// Invalid paths are skipped.
func (s *Store) Save(ctx context.Context, path string, step *int) {
	if !IsAllowed(path) {
		s.logger.Warn("Redirect store: refusing to save redirect",
			"path", path)
		return
	}

	raw, err := json.Marshal(model.PendingRedirect{
		Path:       path,
		SavedAt:    s.now().UTC(),
		WizardStep: step,
	})
	if err != nil {
		s.logger.Error("Redirect store: failed to encode redirect",
			"path", path,
			"error", err.Error())
		return
	}

	if err := s.kv.Set(ctx, StorageKey, raw); err != nil {
		s.logger.Error("Redirect store: failed to save redirect",
			"path", path,
			"error", err.Error())
		return
	}

	s.logger.Debug("Redirect store: redirect saved",
		"path", path)
}

// Get returns the pending redirect if one exists, is younger than
// model.PendingRedirectTTL and still passes validation. Expired, malformed
// or invalid records are removed.
func (s *Store) Get(ctx context.Context) (model.PendingRedirect, bool) {
	raw, found, err := s.kv.Get(ctx, StorageKey)
	if err != nil {
		s.logger.Error("Redirect store: failed to read redirect",
			"error", err.Error())
		return model.PendingRedirect{}, false
	}
	if !found {
		return model.PendingRedirect{}, false
	}

	var pending model.PendingRedirect
	if err := json.Unmarshal(raw, &pending); err != nil {
		s.logger.Warn("Redirect store: discarding malformed redirect",
			"error", err.Error())
		s.Clear(ctx)
		return model.PendingRedirect{}, false
	}

	if pending.Expired(s.now()) {
		s.logger.Debug("Redirect store: discarding expired redirect",
			"path", pending.Path,
			"saved_at", pending.SavedAt)
		s.Clear(ctx)
		return model.PendingRedirect{}, false
	}

	if !IsAllowed(pending.Path) {
		s.logger.Warn("Redirect store: discarding invalid redirect",
			"path", pending.Path)
		s.Clear(ctx)
		return model.PendingRedirect{}, false
	}

	return pending, true
}

// Take returns the pending redirect and removes it.
func (s *Store) Take(ctx context.Context) (model.PendingRedirect, bool) {
	pending, ok := s.Get(ctx)
	if ok {
		s.Clear(ctx)
	}
	return pending, ok
}

// Clear removes the pending redirect. It is safe to call when none exists.
func (s *Store) Clear(ctx context.Context) {
	if err := s.kv.Delete(ctx, StorageKey); err != nil {
		s.logger.Error("Redirect store: failed to clear redirect",
			"error", err.Error())
	}
}

// BuildLoginURL returns /login?redirect=<path>. An empty path falls back to
// the pending redirect; with no valid path the bare route is returned.
func (s *Store) BuildLoginURL(ctx context.Context, path string) string {
	return withRedirect(routes.Login, s.resolve(ctx, path))
}

// BuildSignupURL is BuildLoginURL for /signup.
func (s *Store) BuildSignupURL(ctx context.Context, path string) string {
	return withRedirect(routes.Signup, s.resolve(ctx, path))
}

func (s *Store) resolve(ctx context.Context, path string) string {
	if path != "" {
		return path
	}
	if pending, ok := s.Get(ctx); ok {
		return pending.Path
	}
	return ""
}

func withRedirect(route, path string) string {
	if !IsAllowed(path) {
		return route
	}
	return route + "?" + url.Values{"redirect": {path}}.Encode()
}
