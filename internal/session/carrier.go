// Package session carries cookie state between a request and whichever
// response is eventually written for it.
package session

import (
	"net/http"
)

// Carrier records the cookies written while a decision is made for a
// request. It implements http.ResponseWriter so cookie stores can save into
// it; bodies and status codes written to it are discarded.
type Carrier struct {
	req    *http.Request
	header http.Header
}

// NewCarrier returns an empty Carrier for r.
func NewCarrier(r *http.Request) *Carrier {
	return &Carrier{req: r, header: make(http.Header)}
}

// Request returns the request the carrier was created for.
func (c *Carrier) Request() *http.Request {
	return c.req
}

func (c *Carrier) Header() http.Header {
	return c.header
}

func (c *Carrier) Write(b []byte) (int, error) {
	return len(b), nil
}

func (c *Carrier) WriteHeader(int) {}

// Cookies returns the cookies recorded so far.
func (c *Carrier) Cookies() []*http.Cookie {
	values := c.header.Values("Set-Cookie")
	cookies := make([]*http.Cookie, 0, len(values))
	for _, v := range values {
		cookie, err := http.ParseSetCookie(v)
		if err != nil {
			continue
		}
		cookies = append(cookies, cookie)
	}
	return cookies
}

// Apply copies the recorded cookies onto w. It must be called before w's
// header is written.
func (c *Carrier) Apply(w http.ResponseWriter) {
	for _, v := range c.header.Values("Set-Cookie") {
		w.Header().Add("Set-Cookie", v)
	}
}
