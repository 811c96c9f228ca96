package middleware

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"whatssound/internal/metrics"
)

// Metrics records request latency labelled by the matched route template so
// ids in the path do not explode label cardinality.
func Metrics() mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rw := wrap(w)

			next.ServeHTTP(rw, r)

			route := "unmatched"
			if current := mux.CurrentRoute(r); current != nil {
				if tmpl, err := current.GetPathTemplate(); err == nil {
					route = tmpl
				}
			}
			metrics.ObserveHTTP(r.Method, route, rw.statusCode, time.Since(start))
		})
	}
}
