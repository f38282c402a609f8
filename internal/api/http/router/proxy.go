package router

import (
	"net/http"
	"net/http/httputil"
	"net/url"

	"github.com/dtroode/eventhub-server/internal/logger"
)

// NewFrontendProxy forwards admitted page requests to the frontend at
// target.
func NewFrontendProxy(target *url.URL, logger *logger.Logger) *httputil.ReverseProxy {
	return &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.SetURL(target)
			pr.SetXForwarded()
		},
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			logger.Error("Frontend proxy: upstream request failed",
				"path", r.URL.Path,
				"error", err.Error())
			w.WriteHeader(http.StatusBadGateway)
		},
	}
}
