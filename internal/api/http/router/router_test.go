package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpctx "github.com/dtroode/eventhub-server/internal/api/http/context"
	"github.com/dtroode/eventhub-server/internal/api/http/handler"
	"github.com/dtroode/eventhub-server/internal/api/http/middleware"
	"github.com/dtroode/eventhub-server/internal/kv"
	servermocks "github.com/dtroode/eventhub-server/internal/mocks"
	"github.com/dtroode/eventhub-server/internal/model"
	"github.com/dtroode/eventhub-server/internal/probe"
	"github.com/dtroode/eventhub-server/internal/session"
	"github.com/dtroode/eventhub-server/internal/testutil"
)

type anonymous struct{}

func (anonymous) CurrentUser(context.Context, *session.Carrier) (*model.User, error) {
	return nil, nil
}

func (anonymous) Begin(*session.Carrier) (string, error) {
	return "https://idp.example/auth", nil
}

func (anonymous) ExchangeCodeForSession(context.Context, *session.Carrier, model.CodeExchange) (*model.User, error) {
	return nil, nil
}

func (anonymous) SignOut(context.Context, *session.Carrier, bool) {}

func newTestRouter(t *testing.T, frontend http.Handler) http.Handler {
	t.Helper()
	log := testutil.MakeNoopLogger()
	ctxMgr := httpctx.NewManager()
	profiles := servermocks.NewProfileStore(t)
	state := handler.NewClientState(kv.NewMemory(), ctxMgr, log)
	registry := prometheus.NewRegistry()

	handlers := Handlers{
		Auth:       handler.NewAuth(anonymous{}, profiles, state, "google", "http://gateway.test", time.Second, log),
		Redirects:  handler.NewRedirects(state),
		Wizard:     handler.NewWizard(state, log),
		Onboarding: handler.NewOnboarding(nil, state, ctxMgr, log),
		Health:     handler.NewHealth(probe.Checks{}, time.Second, log),
	}
	gate := middleware.NewGate(anonymous{}, profiles, ctxMgr, time.Second, log, registry)

	return New(handlers, gate, anonymous{}, ctxMgr, frontend, registry, false, log).Register()
}

func TestRouter_PagesAreAdmitted(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("page " + r.URL.Path))
	}))
	defer upstream.Close()
	target, err := url.Parse(upstream.URL)
	require.NoError(t, err)

	h := newTestRouter(t, NewFrontendProxy(target, testutil.MakeNoopLogger()))

	t.Run("public page is proxied", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/home", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "page /home", rec.Body.String())
	})

	t.Run("protected page redirects with client cookie", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/events/list", nil))

		assert.Equal(t, http.StatusTemporaryRedirect, rec.Code)
		assert.Equal(t, "/login?redirectTo=%2Fevents%2Flist", rec.Header().Get("Location"))
		cookies := rec.Result().Cookies()
		require.Len(t, cookies, 1)
		assert.Equal(t, session.ClientCookieName, cookies[0].Name)
	})
}

func TestRouter_ProfileRequiresUser(t *testing.T) {
	h := newTestRouter(t, http.NotFoundHandler())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/profile", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRouter_WizardRoundTrip(t *testing.T) {
	h := newTestRouter(t, http.NotFoundHandler())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/wizard", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	client := rec.Result().Cookies()[0]

	req := httptest.NewRequest(http.MethodPost, "/api/wizard/items", strings.NewReader(`{"vendorId":"v1","price":100}`))
	req.AddCookie(client)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/wizard", nil)
	req.AddCookie(client)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Contains(t, rec.Body.String(), `"vendorId":"v1"`)
}

func TestRouter_Operations(t *testing.T) {
	h := newTestRouter(t, http.NotFoundHandler())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/events/list", nil))

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `eventhub_admission_decisions_total{verdict="login_required"} 1`)
	assert.Contains(t, rec.Body.String(), "eventhub_http_requests_total")
}

func TestRouter_SignOutRedirects(t *testing.T) {
	h := newTestRouter(t, http.NotFoundHandler())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/auth/signout", nil))

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "http://gateway.test/login", rec.Header().Get("Location"))
}
