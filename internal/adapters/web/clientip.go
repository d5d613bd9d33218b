package web

import (
	"net"
	"net/http"
	"strings"
)

// UnknownOrigin identifies requests without a usable client address
const UnknownOrigin = "unknown"

// clientIP returns the first X-Forwarded-For entry when the proxy is trusted,
// otherwise the peer address. Requests with neither map to UnknownOrigin.
func clientIP(r *http.Request, trustForwardedFor bool) string {
	if trustForwardedFor {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			first, _, _ := strings.Cut(xff, ",")
			if first = strings.TrimSpace(first); first != "" {
				return first
			}
		}
		return UnknownOrigin
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil || host == "" {
		return UnknownOrigin
	}
	return host
}
