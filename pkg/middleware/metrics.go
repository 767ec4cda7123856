// Package middleware provides the HTTP middleware of the API server: request
// ids, CORS, Prometheus metrics and per-request deadlines.
package middleware

import (
	"net/http"
	"slices"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Adithya-Monish-Kumar-K/corpus-qa/pkg/metrics"
)

// otherRoute labels every path outside the registered routes.
const otherRoute = "other"

// Metrics instruments requests with promhttp. Each of routes gets its own
// instrumented handler with the path curried in; any other path is counted
// under "other", so the label set is fixed when the middleware is built.
func Metrics(m *metrics.Metrics, routes ...string) Middleware {
	return func(next http.Handler) http.Handler {
		instrumented := make(map[string]http.Handler, len(routes)+1)
		for _, route := range slices.Concat(routes, []string{otherRoute}) {
			labels := prometheus.Labels{"path": route}
			var h http.Handler = promhttp.InstrumentHandlerCounter(m.HTTPRequestsTotal.MustCurryWith(labels), next)
			h = promhttp.InstrumentHandlerDuration(m.HTTPRequestDuration.MustCurryWith(labels), h)
			instrumented[route] = promhttp.InstrumentHandlerInFlight(m.HTTPRequestsInFlight, h)
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h, ok := instrumented[r.URL.Path]
			if !ok {
				h = instrumented[otherRoute]
			}
			h.ServeHTTP(w, r)
		})
	}
}
