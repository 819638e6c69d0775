package middleware

import (
	"io"
	"net/http"

	log "github.com/sirupsen/logrus"
)

// at most this much of an unread body is discarded; anything bigger closes the connection
const maxDrainBytes = 64 << 10

// DrainAndCloseRequest discards what a handler left unread of the request body
// (rejected notes payloads, for example) and closes it.
func DrainAndCloseRequest() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r)
			if r.Body == nil || r.Body == http.NoBody {
				return
			}
			if n, err := io.CopyN(io.Discard, r.Body, maxDrainBytes); err == nil {
				log.Tracef("request body for %s %s left unread past %d bytes", r.Method, r.URL.Path, n)
			}
			if err := r.Body.Close(); err != nil {
				log.Tracef("close request body: %s", err)
			}
		})
	}
}
