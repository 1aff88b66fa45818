package hoss

import "time"

// DatasetManifest is the synthetic manifest object present at the root of
// every dataset. It is filtered out of file listings.
const DatasetManifest = ".dataset.yaml"

// FileInfo describes a single object in the store.
type FileInfo struct {
	Key          string    `json:"key"`
	Size         int64     `json:"size_bytes"`
	LastModified time.Time `json:"last_modified"`
	ETag         string    `json:"etag,omitempty"`
}

// Folder is an implicit directory, identified by a prefix ending in "/".
type Folder struct {
	Prefix string `json:"prefix"`
}

// Listing is the result of a delimited list call against a single prefix.
type Listing struct {
	Prefix         string
	Files          []FileInfo
	CommonPrefixes []Folder
}

// Credentials are short-lived storage credentials issued by the core
// service for direct browser-to-storage access.
type Credentials struct {
	AccessKeyID     string    `json:"access_key_id"`
	SecretAccessKey string    `json:"secret_access_key"`
	SessionToken    string    `json:"session_token"`
	Expiration      time.Time `json:"expiration"`
	Endpoint        string    `json:"endpoint"`
	Region          string    `json:"region"`
}

// Expired reports whether the credentials have passed their expiration.
func (c Credentials) Expired(now time.Time) bool {
	return !c.Expiration.IsZero() && now.After(c.Expiration)
}

// WellKnown is the OIDC discovery document fetched once per session.
type WellKnown struct {
	Issuer                string   `json:"issuer"`
	AuthorizationEndpoint string   `json:"authorization_endpoint"`
	TokenEndpoint         string   `json:"token_endpoint"`
	EndSessionEndpoint    string   `json:"end_session_endpoint"`
	JWKSURI               string   `json:"jwks_uri"`
	UserinfoEndpoint      string   `json:"userinfo_endpoint"`
	ScopesSupported       []string `json:"scopes_supported"`
}

// ObjectMetadata is user-supplied key-value metadata attached to an object.
type ObjectMetadata map[string]string

// SearchRow is a single result from the metadata search index.
type SearchRow struct {
	FilePath         string         `json:"file_path"`
	SizeBytes        int64          `json:"size_bytes"`
	LastModifiedDate time.Time      `json:"last_modified_date"`
	Metadata         ObjectMetadata `json:"metadata,omitempty"`
}
