package accesslog

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"

	"github.com/frahmantamala/filehub/internal/transport"
)

// IdentifyFunc resolves the caller's user id from the request, if any.
type IdentifyFunc func(r *http.Request) (int64, bool)

var skippedPrefixes = []string{"/health", "/ping", "/swagger/", "/openapi.yml"}

// Middleware writes one row per request. The endpoint is the matched route
// pattern so rows group by route rather than by concrete id.
func Middleware(sink Sink, identify IdentifyFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, prefix := range skippedPrefixes {
				if strings.HasPrefix(r.URL.Path, prefix) {
					next.ServeHTTP(w, r)
					return
				}
			}

			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}

			e := &Entry{
				IPAddress:    transport.ClientIP(r),
				UserAgent:    r.UserAgent(),
				Endpoint:     endpoint(r),
				Method:       r.Method,
				StatusCode:   status,
				ResponseTime: float64(time.Since(start).Microseconds()) / 1000,
				CreatedAt:    start.UTC(),
			}
			if identify != nil {
				if id, ok := identify(r); ok {
					e.UserID = &id
				}
			}
			if id, ok := transport.IDParam(r, "id"); ok && strings.Contains(e.Endpoint, "/files") {
				e.FileID = &id
			}
			sink.Record(e)
		})
	}
}

func endpoint(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return r.URL.Path
}
