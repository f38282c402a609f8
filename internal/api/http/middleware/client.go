package middleware

import (
	"net/http"

	"github.com/dtroode/eventhub-server/internal/model"
	"github.com/dtroode/eventhub-server/internal/session"
)

// ClientID makes sure every request carries a client id cookie and exposes
// the id through ctxMgr.
func ClientID(ctxMgr model.ContextManager, secure bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			carrier := session.NewCarrier(r)
			id := session.ClientID(carrier, secure)
			carrier.Apply(w)

			next.ServeHTTP(w, r.WithContext(ctxMgr.SetClientIDToContext(r.Context(), id)))
		})
	}
}
