package auth

import "errors"

var (
	// ErrNoCredential is returned when the credential cache holds no entry
	// for the session key.
	ErrNoCredential = errors.New("no cached credential")

	// ErrNoIDToken is returned when a completion fragment carries no
	// id_token parameter.
	ErrNoIDToken = errors.New("fragment contains no id_token")

	// ErrInvalidTransition is returned by Machine.Send for an event the
	// current state does not accept.
	ErrInvalidTransition = errors.New("event not accepted in current state")
)
