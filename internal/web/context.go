package web

import (
	"context"
	"net"
	"net/http"

	"github.com/JonMunkholm/ecumap/internal/core"
)

// WithRequestMetadata adds the client IP and User-Agent to ctx for upload
// history.
func WithRequestMetadata(ctx context.Context, r *http.Request) context.Context {
	return core.ContextWithClient(ctx, clientIP(r), r.UserAgent())
}

// clientIP returns the request's client IP without the port. TrustedRealIP
// has already replaced RemoteAddr for requests from trusted proxies.
func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
