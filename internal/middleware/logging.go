package middleware

import (
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"
)

func LogRequest() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, r)
			log.WithFields(log.Fields{
				"method":     r.Method,
				"path":       r.URL.Path,
				"request_id": r.Header.Get("X-Request-ID"),
				"ua":         r.Header.Get("User-Agent"),
				"took":       time.Since(start).String(),
			}).Trace(" ====> request")
		})
	}
}
