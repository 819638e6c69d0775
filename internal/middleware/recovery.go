package middleware

import (
	"errors"
	"net/http"
	"runtime/debug"

	"github.com/2beens/householdnotes/internal/telemetry/metrics"
	"github.com/2beens/householdnotes/pkg"

	log "github.com/sirupsen/logrus"
)

// PanicRecovery turns a handler panic into a 500 with the usual {"detail": ...} body.
// http.ErrAbortHandler is re-raised so net/http can abort the connection.
func PanicRecovery(metricsManager *metrics.Manager) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if err, ok := rec.(error); ok && errors.Is(err, http.ErrAbortHandler) {
					panic(rec)
				}

				log.WithFields(log.Fields{
					"method":     r.Method,
					"path":       r.URL.Path,
					"request_id": r.Header.Get("X-Request-ID"),
				}).Errorf("panic serving request: %v\n%s", rec, debug.Stack())

				if metricsManager != nil {
					metricsManager.CounterHandleRequestPanic.Inc()
				}
				pkg.WriteJSONResponse(w, http.StatusInternalServerError, map[string]string{
					"detail": "Internal Server Error",
				})
			}()

			next.ServeHTTP(w, r)
		})
	}
}
