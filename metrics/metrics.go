// Package metrics serves the engine's Prometheus handler over HTTP.
package metrics

import "net/http"

// StartMetricsServer serves handler on addr under /metrics in the
// background.
func StartMetricsServer(addr string, handler http.Handler) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", handler)
	go func() {
		_ = http.ListenAndServe(addr, mux)
	}()
}
