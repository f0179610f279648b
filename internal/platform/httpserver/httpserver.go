// Package httpserver builds the http.Server the API runs on.
package httpserver

import (
	"net/http"
	"time"
)

// New builds an HTTP server with the timeouts the assistant API needs. The
// write timeout leaves room for a full workflow advance, which may call the
// remote calendar before responding.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}
