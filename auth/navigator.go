package auth

import (
	"fmt"
	"net/url"
	"strings"
)

// Navigator abstracts the browsing context the machine runs in: the current
// URL fragment, the external redirect to the identity provider, and
// restoring a recorded path after login. The CLI supplies a loopback
// implementation; tests supply fakes.
type Navigator interface {
	// Fragment returns the current URL fragment without its leading '#'.
	Fragment() string

	// ClearFragment removes the fragment from the visible URL after the
	// token has been consumed.
	ClearFragment()

	// Redirect hands control to the identity provider. The machine treats
	// the state entered afterwards as terminal.
	Redirect(authorizeURL string) error

	// RestorePath navigates back to a path recorded before login.
	RestorePath(path string)
}

// fragmentToken extracts the id_token parameter from a URL fragment.
func fragmentToken(fragment string) (string, error) {
	values, err := url.ParseQuery(strings.TrimPrefix(fragment, "#"))
	if err != nil {
		return "", fmt.Errorf("parse fragment: %w", err)
	}
	token := values.Get("id_token")
	if token == "" {
		return "", ErrNoIDToken
	}
	return token, nil
}

// hasIDToken reports whether a fragment carries an id_token, without
// requiring it to parse cleanly.
func hasIDToken(fragment string) bool {
	return strings.Contains(fragment, "id_token")
}
