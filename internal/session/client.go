package session

import (
	"net/http"
	"time"

	"github.com/google/uuid"
)

// ClientCookieName identifies a browser across visits. Client-local state
// is namespaced under its value.
const ClientCookieName = "eh_client"

const clientCookieMaxAge = 365 * 24 * time.Hour

// ClientID returns the client id presented with the request, minting and
// recording a new one when it is missing or malformed. A minted id is also
// added to the request so later reads within the same request agree.
func ClientID(c *Carrier, secure bool) string {
	if cookie, err := c.Request().Cookie(ClientCookieName); err == nil {
		if id, err := uuid.Parse(cookie.Value); err == nil {
			return id.String()
		}
	}

	id := uuid.NewString()
	cookie := &http.Cookie{
		Name:     ClientCookieName,
		Value:    id,
		Path:     "/",
		MaxAge:   int(clientCookieMaxAge.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	http.SetCookie(c, cookie)
	replaceRequestCookie(c.Request(), ClientCookieName, id)

	return id
}

func replaceRequestCookie(r *http.Request, name, value string) {
	cookies := r.Cookies()
	r.Header.Del("Cookie")
	for _, cookie := range cookies {
		if cookie.Name != name {
			r.AddCookie(cookie)
		}
	}
	r.AddCookie(&http.Cookie{Name: name, Value: value})
}
