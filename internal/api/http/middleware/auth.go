package middleware

import (
	"net/http"

	"github.com/dtroode/eventhub-server/internal/api/http/response"
	"github.com/dtroode/eventhub-server/internal/logger"
	"github.com/dtroode/eventhub-server/internal/model"
	"github.com/dtroode/eventhub-server/internal/session"
)

// RequireUser rejects API requests without a valid session with 401. The
// session is refreshed on the way through.
func RequireUser(sessions SessionReader, ctxMgr model.ContextManager, logger *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			carrier := session.NewCarrier(r)
			user, err := sessions.CurrentUser(r.Context(), carrier)
			carrier.Apply(w)
			if err != nil {
				logger.Error("HTTP: session lookup failed", "path", r.URL.Path, "error", err)
				response.ErrorWithStatus(w, http.StatusServiceUnavailable, "session unavailable")
				return
			}
			if user == nil {
				response.Unauthorized(w)
				return
			}

			next.ServeHTTP(w, r.WithContext(ctxMgr.SetUserToContext(r.Context(), *user)))
		})
	}
}
