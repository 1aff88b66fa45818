// Package auth implements the identity/session gate for the Hoss console.
//
// The session lifecycle is an explicit finite-state machine (see Machine):
// OIDC discovery, login redirect, token exchange, and logout, with error
// states that gate the rest of the application. The pure transition table
// lives in Next; Machine adds the side effects (network calls, credential
// cache, navigation) around it.
//
// Credentials are cached under the same key scheme the web console uses in
// browser local storage, oidc.user:<authority>:<client_id>, so a session is
// portable between the two.
package auth
