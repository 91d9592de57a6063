package middleware

import (
	"net/http"

	"github.com/NYTimes/gziphandler"
)

// GzipMiddleware compresses responses once they pass gziphandler's minimum
// size. Range requests are served as is so partial content keeps its offsets.
func GzipMiddleware(next http.Handler) http.Handler {
	gz := gziphandler.GzipHandler(next)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Range") != "" {
			next.ServeHTTP(w, r)
			return
		}
		gz.ServeHTTP(w, r)
	})
}
