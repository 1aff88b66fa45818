// Package hoss provides the client core for the Hoss dataset console:
// shared domain types for objects stored under prefix-delimited keys,
// key manipulation helpers, and Hoss URI synthesis.
//
// # Key Model
//
// Hoss datasets live in a flat object-store namespace. A key has the form
// <dataset>/<path...>; "directories" exist only as /-delimited prefixes
// surfaced by delimited list calls. A prefix always ends with a slash.
//
// # Packages
//
//   - api: HTTP client for the Hoss core and auth services
//   - auth: OIDC session state machine, identity claims, credential cache
//   - objectstore: S3/minio adapter with STS credentials
//   - browser: listing cache, mutation engine, upload pipeline, search
//   - config: client configuration and profiles
//
// See cmd/hoss for the command line interface built on these packages.
package hoss
