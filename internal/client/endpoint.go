package client

import (
	"fmt"
	"net/url"
	"strings"

	"llamasearch-client/internal/constant"
)

// DeriveEndpoint rewrites the HTTP base address into the websocket
// endpoint: the scheme flips to its websocket counterpart and the protocol
// path is appended.
func DeriveEndpoint(baseURL string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("parsing base url %q: %w", baseURL, err)
	}

	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
		// Already a websocket address.
	default:
		return "", fmt.Errorf("unsupported scheme %q in base url %q", u.Scheme, baseURL)
	}

	u.Path = strings.TrimRight(u.Path, "/") + constant.WebsocketPath
	return u.String(), nil
}
