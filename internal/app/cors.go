package app

import (
	"net/url"
	"strings"
)

// originAllowed reports whether a browser Origin value matches one of the
// configured allow patterns. Patterns apply to the host[:port] part only and
// are matched case-insensitively: "memloc.app" exact, "*.memloc.app" any
// subdomain, "localhost:*" any port, "*" everything.
func originAllowed(patterns []string, origin string) bool {
	host := strings.ToLower(originHost(origin))
	if host == "" {
		return false
	}
	for _, p := range patterns {
		if matchOriginPattern(strings.ToLower(strings.TrimSpace(p)), host) {
			return true
		}
	}
	return false
}

// originHost strips scheme and path from an origin URL, leaving host[:port].
// A bare host is passed through, so patterns work for both forms.
func originHost(origin string) string {
	u, err := url.Parse(origin)
	if err != nil || u.Host == "" {
		return origin
	}
	return u.Host
}

func matchOriginPattern(pattern, host string) bool {
	switch {
	case pattern == "*" || pattern == host:
		return true
	case strings.HasPrefix(pattern, "*."):
		// "*.memloc.app" covers subdomains, not the apex.
		return strings.HasSuffix(host, pattern[1:])
	case strings.HasSuffix(pattern, ":*"):
		return strings.HasPrefix(host, pattern[:len(pattern)-1])
	}
	return false
}
