// Package api provides the HTTP client for the Hoss core and auth services.
//
// The client exposes the narrow four-verb contract the console core depends
// on (Get, Post, Put, Del) plus typed helpers for the endpoints the file
// browser and session gate consume: OIDC discovery, short-lived storage
// credentials, namespace details, metadata search, and per-object metadata.
//
// Bearer tokens are injected from a TokenSource so the client never owns
// credential state itself.
package api
