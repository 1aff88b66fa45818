// Package objectstore talks directly to a namespace's S3-compatible
// backing store using the short-lived credentials issued by the core
// service. It covers the handful of primitives the file browser composes:
// delimited listing with retry, stat, copy, delete, streaming upload with
// progress, and presigned download links.
package objectstore
