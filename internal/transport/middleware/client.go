package middleware

import (
	"net/http"

	"github.com/frahmantamala/filehub/internal"
	"github.com/frahmantamala/filehub/internal/transport"
	"github.com/frahmantamala/filehub/pkg/logger"
)

// ClientContext stores the caller's address and user agent for services that
// record who did what.
func ClientContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		client := internal.Client{IP: transport.ClientIP(r), UserAgent: r.UserAgent()}

		ctx := internal.ContextWithClient(r.Context(), client)
		ctx = logger.With(ctx, "client_ip", client.IP)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
