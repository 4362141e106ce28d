package middleware

import (
	"net/http"
	"strings"

	"github.com/mssola/useragent"

	"vendora/pkg/requestcontext"
)

// ClientMetadata extracts the client IP, raw User-Agent, and parsed device
// info from the request and adds them to the context. Audit records pick
// these up for forensics. Apply early in the chain.
func ClientMetadata(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rawUA := r.Header.Get("User-Agent")
		ctx := requestcontext.WithClientMetadata(r.Context(), clientIPFromRequest(r), rawUA)

		ua := useragent.New(rawUA)
		browser, _ := ua.Browser()
		ctx = requestcontext.WithDevice(ctx, requestcontext.DeviceInfo{
			Platform: ua.Platform(),
			Browser:  browser,
			Mobile:   ua.Mobile(),
			Bot:      ua.Bot(),
		})

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// clientIPFromRequest extracts the real client IP, handling proxies and
// load balancers.
func clientIPFromRequest(r *http.Request) string {
	// X-Forwarded-For can contain multiple IPs (client, proxy1, proxy2);
	// the first is the original client.
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if idx := strings.Index(xff, ","); idx != -1 {
			return strings.TrimSpace(xff[:idx])
		}
		return strings.TrimSpace(xff)
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}

	// RemoteAddr is "ip:port" ("[::1]:port" for IPv6).
	if addr := r.RemoteAddr; addr != "" {
		if idx := strings.LastIndex(addr, ":"); idx != -1 {
			return addr[:idx]
		}
		return addr
	}

	return "unknown"
}
