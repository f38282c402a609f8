package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	httpctx "github.com/dtroode/eventhub-server/internal/api/http/context"
	servermocks "github.com/dtroode/eventhub-server/internal/mocks"
	"github.com/dtroode/eventhub-server/internal/model"
	"github.com/dtroode/eventhub-server/internal/onboarding"
	"github.com/dtroode/eventhub-server/internal/session"
	"github.com/dtroode/eventhub-server/internal/testutil"
)

type fakeSessions struct {
	user   *model.User
	err    error
	cookie *http.Cookie
	calls  int
}

func (f *fakeSessions) CurrentUser(_ context.Context, c *session.Carrier) (*model.User, error) {
	f.calls++
	if f.cookie != nil {
		http.SetCookie(c, f.cookie)
	}
	return f.user, f.err
}

func strPtr(s string) *string { return &s }

func completeProfile(userID uuid.UUID) model.Profile {
	return model.Profile{UserID: userID, FullName: strPtr("Asha Rao"), City: strPtr("Chennai")}
}

func newGate(t *testing.T, sessions SessionReader) (*Gate, *servermocks.ProfileStore) {
	t.Helper()
	profiles := servermocks.NewProfileStore(t)
	gate := NewGate(sessions, profiles, httpctx.NewManager(), time.Second, testutil.MakeNoopLogger(), prometheus.NewRegistry())
	return gate, profiles
}

func serve(g *Gate, path string) (*httptest.ResponseRecorder, bool) {
	reached := false
	h := g.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached = true
		w.WriteHeader(http.StatusOK)
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec, reached
}

func TestGate_Unauthenticated_PublicPathsPass(t *testing.T) {
	public := []string{"/home", "/login", "/signup", "/otp", "/forgot-password", "/reset-link-sent", "/vendor-login", "/login/magic"}

	for _, p := range public {
		t.Run(p, func(t *testing.T) {
			gate, _ := newGate(t, &fakeSessions{})
			rec, reached := serve(gate, p)

			assert.True(t, reached)
			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Empty(t, rec.Header().Get("Location"))
		})
	}
}

func TestGate_Unauthenticated_ProtectedPathsGoToLogin(t *testing.T) {
	tests := []struct {
		path     string
		location string
	}{
		{"/events/list", "/login?redirectTo=%2Fevents%2Flist"},
		{"/onboarding/name", "/login?redirectTo=%2Fonboarding%2Fname"},
		{"/homework", "/login?redirectTo=%2Fhomework"},
		{"/wizard/step-2", "/login?redirectTo=%2Fwizard%2Fstep-2"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			gate, _ := newGate(t, &fakeSessions{})
			rec, reached := serve(gate, tt.path)

			assert.False(t, reached)
			assert.Equal(t, http.StatusTemporaryRedirect, rec.Code)
			assert.Equal(t, tt.location, rec.Header().Get("Location"))
		})
	}
}

func TestGate_Root(t *testing.T) {
	userID := uuid.New()

	t.Run("anonymous goes home", func(t *testing.T) {
		gate, _ := newGate(t, &fakeSessions{})
		rec, _ := serve(gate, "/")
		assert.Equal(t, "/home", rec.Header().Get("Location"))
	})

	t.Run("complete user goes home", func(t *testing.T) {
		gate, profiles := newGate(t, &fakeSessions{user: &model.User{ID: userID}})
		profiles.On("GetByUserID", mock.Anything, userID).Return(completeProfile(userID), nil).Once()

		rec, _ := serve(gate, "/")
		assert.Equal(t, "/home", rec.Header().Get("Location"))
	})

	t.Run("incomplete user goes to onboarding", func(t *testing.T) {
		gate, profiles := newGate(t, &fakeSessions{user: &model.User{ID: userID}})
		profiles.On("GetByUserID", mock.Anything, userID).Return(model.Profile{UserID: userID}, nil).Once()

		rec, _ := serve(gate, "/")
		assert.Equal(t, "/onboarding/name", rec.Header().Get("Location"))
	})
}

func TestGate_AuthenticatedOnAuthPath(t *testing.T) {
	userID := uuid.New()
	gate, profiles := newGate(t, &fakeSessions{user: &model.User{ID: userID}})
	profiles.On("GetByUserID", mock.Anything, userID).Return(completeProfile(userID), nil).Once()

	rec, reached := serve(gate, "/login")

	assert.False(t, reached)
	assert.Equal(t, "/home", rec.Header().Get("Location"))
}

func TestGate_CompleteUserLeavesOnboarding(t *testing.T) {
	userID := uuid.New()

	for _, p := range []string{"/onboarding/name", "/onboarding/location", "/onboarding/photo"} {
		t.Run(p, func(t *testing.T) {
			gate, profiles := newGate(t, &fakeSessions{user: &model.User{ID: userID}})
			profiles.On("GetByUserID", mock.Anything, userID).Return(completeProfile(userID), nil).Once()

			rec, reached := serve(gate, p)

			assert.False(t, reached)
			assert.Equal(t, "/home", rec.Header().Get("Location"))
		})
	}
}

func TestGate_IncompleteUserSentToOnboarding(t *testing.T) {
	userID := uuid.New()
	profiles := map[string]model.Profile{
		"name missing": {UserID: userID, City: strPtr("Chennai")},
		"name empty":   {UserID: userID, FullName: strPtr(""), City: strPtr("Chennai")},
		"city missing": {UserID: userID, FullName: strPtr("Asha Rao")},
	}

	for name, profile := range profiles {
		t.Run(name, func(t *testing.T) {
			gate, store := newGate(t, &fakeSessions{user: &model.User{ID: userID}})
			store.On("GetByUserID", mock.Anything, userID).Return(profile, nil).Once()

			rec, reached := serve(gate, "/events/list")

			assert.False(t, reached)
			assert.Equal(t, "/onboarding/name", rec.Header().Get("Location"))
		})
	}
}

func TestGate_IncompleteUserMayVisitOnboardingAndPublic(t *testing.T) {
	userID := uuid.New()

	for _, p := range []string{"/onboarding/location", "/home"} {
		t.Run(p, func(t *testing.T) {
			gate, store := newGate(t, &fakeSessions{user: &model.User{ID: userID}})
			if p != "/home" {
				store.On("GetByUserID", mock.Anything, userID).Return(model.Profile{UserID: userID}, nil).Once()
			}

			_, reached := serve(gate, p)
			assert.True(t, reached)
		})
	}
}

func TestGate_ProfileFailureCountsAsIncomplete(t *testing.T) {
	userID := uuid.New()

	for name, err := range map[string]error{"missing": model.ErrNotFound, "unreachable": errors.New("timeout")} {
		t.Run(name, func(t *testing.T) {
			gate, store := newGate(t, &fakeSessions{user: &model.User{ID: userID}})
			store.On("GetByUserID", mock.Anything, userID).Return(model.Profile{}, err).Once()

			rec, _ := serve(gate, "/events/list")
			assert.Equal(t, "/onboarding/name", rec.Header().Get("Location"))
		})
	}
}

func TestGate_SessionFailureCountsAsAnonymous(t *testing.T) {
	gate, _ := newGate(t, &fakeSessions{err: errors.New("redis down")})

	rec, _ := serve(gate, "/events/list")
	assert.Equal(t, "/login?redirectTo=%2Fevents%2Flist", rec.Header().Get("Location"))
}

func TestGate_RedirectCarriesRefreshedCookies(t *testing.T) {
	userID := uuid.New()
	refreshed := &http.Cookie{Name: session.CookieName, Value: "rotated", Path: "/"}
	gate, store := newGate(t, &fakeSessions{user: &model.User{ID: userID}, cookie: refreshed})
	store.On("GetByUserID", mock.Anything, userID).Return(model.Profile{UserID: userID}, nil).Once()

	rec, reached := serve(gate, "/events/list")

	require.False(t, reached)
	assert.Equal(t, "/onboarding/name", rec.Header().Get("Location"))
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "rotated", cookies[0].Value)
}

func TestGate_AllowedRequestCarriesUser(t *testing.T) {
	userID := uuid.New()
	gate, store := newGate(t, &fakeSessions{user: &model.User{ID: userID, Email: "asha@example.com"}})
	store.On("GetByUserID", mock.Anything, userID).Return(completeProfile(userID), nil).Once()

	ctxMgr := httpctx.NewManager()
	var got model.User
	h := gate.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = ctxMgr.GetUserFromContext(r.Context())
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/events/list", nil))

	assert.Equal(t, userID, got.ID)
}

func TestGate_StaticAssetsSkipAdmission(t *testing.T) {
	sessions := &fakeSessions{}
	gate, _ := newGate(t, sessions)

	_, reached := serve(gate, "/_next/static/chunks/app.js")

	assert.True(t, reached)
	assert.Zero(t, sessions.calls)
}

func TestGate_CountsVerdicts(t *testing.T) {
	gate, _ := newGate(t, &fakeSessions{})

	serve(gate, "/events/list")
	serve(gate, "/wizard")
	serve(gate, "/home")

	assert.Equal(t, 2.0, promtestutil.ToFloat64(gate.decisions.WithLabelValues("login_required")))
	assert.Equal(t, 1.0, promtestutil.ToFloat64(gate.decisions.WithLabelValues("allow")))
}

// Profiles that differ only in fields the completeness rule ignores must be
// admitted identically, and exactly when IsComplete says so.
func TestGate_DelegatesCompleteness(t *testing.T) {
	userID := uuid.New()
	base := completeProfile(userID)
	withAvatar := base
	withAvatar.AvatarKey = strPtr("avatars/x.png")
	withEmail := base
	withEmail.Email = "other@example.com"
	blankCity := base
	blankCity.City = strPtr("")

	for name, profile := range map[string]model.Profile{
		"base":        base,
		"with avatar": withAvatar,
		"with email":  withEmail,
		"blank city":  blankCity,
	} {
		t.Run(name, func(t *testing.T) {
			gate, store := newGate(t, &fakeSessions{user: &model.User{ID: userID}})
			store.On("GetByUserID", mock.Anything, userID).Return(profile, nil).Once()

			rec, reached := serve(gate, "/events/list")

			assert.Equal(t, onboarding.IsComplete(&profile), reached)
			if !reached {
				assert.Equal(t, "/onboarding/name", rec.Header().Get("Location"))
			}
		})
	}
}
