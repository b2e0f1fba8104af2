package ratelimit

import (
	"net/http"
	"strings"
)

// unlimited marks endpoints that are never rate limited.
var unlimited = EndpointConfig{}

// MatchEndpoint returns the configuration for a request, or nil when the
// global default applies. Exact paths win over prefixes ending in "/".
func MatchEndpoint(path string, method string, configs []EndpointConfig) *EndpointConfig {
	if path == "/health" && method == http.MethodGet {
		return &unlimited
	}

	for i := range configs {
		if configs[i].Path == path && configs[i].Method == method {
			return &configs[i]
		}
	}

	var best *EndpointConfig
	for i := range configs {
		c := &configs[i]
		if c.Method != method || !strings.HasSuffix(c.Path, "/") || !strings.HasPrefix(path, c.Path) {
			continue
		}
		// Longest prefix wins.
		if best == nil || len(c.Path) > len(best.Path) {
			best = c
		}
	}
	return best
}
