package middleware

import (
	"net"
	"net/http"
)

// forwardedProtoHeader names the scheme the client used in front of a proxy.
const forwardedProtoHeader = "X-Forwarded-Proto"

// TrustedForwarding drops X-Forwarded-Proto unless the direct peer is inside
// one of trustedProxyCIDRs, so handlers and spans only see a scheme a known
// proxy vouched for.
func TrustedForwarding(trustedProxyCIDRs []string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get(forwardedProtoHeader) != "" && !isTrustedProxy(remoteHost(r), trustedProxyCIDRs) {
				r = r.Clone(r.Context())
				r.Header.Del(forwardedProtoHeader)
			}
			next.ServeHTTP(w, r)
		})
	}
}

func remoteHost(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
