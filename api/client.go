package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/hossdata/hoss"
)

// DefaultTimeout is the default HTTP client timeout.
const DefaultTimeout = 30 * time.Second

// TokenSource supplies the bearer token attached to authenticated requests.
// Implementations return an empty string when no session exists.
type TokenSource interface {
	IDToken() (string, error)
}

// Client performs requests against the Hoss core and auth services.
type Client struct {
	coreURL    string
	authURL    string
	httpClient *http.Client
	tokens     TokenSource
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithTokenSource sets the bearer token source for authenticated routes.
func WithTokenSource(src TokenSource) Option {
	return func(c *Client) {
		c.tokens = src
	}
}

// WithAuthURL overrides the auth service base URL. Discover replaces it
// with the server-advertised address.
func WithAuthURL(authURL string) Option {
	return func(c *Client) {
		c.authURL = strings.TrimSuffix(authURL, "/")
	}
}

// New creates a Client rooted at the given server origin. The core service
// is assumed at <origin>/core/v1 and the auth service at <origin>/auth/v1
// until Discover reports otherwise.
func New(origin string, opts ...Option) (*Client, error) {
	if origin == "" {
		return nil, ErrOriginRequired
	}
	origin = strings.TrimSuffix(origin, "/")

	c := &Client{
		coreURL:    origin + "/core/v1",
		authURL:    origin + "/auth/v1",
		httpClient: &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// AuthURL returns the current auth service base URL.
func (c *Client) AuthURL() string {
	return c.authURL
}

// Get issues a GET against the core service, or the auth service when
// authRoute is set.
func (c *Client) Get(ctx context.Context, route string, authRoute bool) (*http.Response, error) {
	return c.do(ctx, http.MethodGet, route, nil, authRoute)
}

// Post issues a POST with a JSON-encoded body.
func (c *Client) Post(ctx context.Context, route string, body any, authRoute bool) (*http.Response, error) {
	return c.do(ctx, http.MethodPost, route, body, authRoute)
}

// Put issues a PUT with a JSON-encoded body.
func (c *Client) Put(ctx context.Context, route string, body any, authRoute bool) (*http.Response, error) {
	return c.do(ctx, http.MethodPut, route, body, authRoute)
}

// Del issues a DELETE with an optional JSON-encoded body.
func (c *Client) Del(ctx context.Context, route string, body any, authRoute bool) (*http.Response, error) {
	return c.do(ctx, http.MethodDelete, route, body, authRoute)
}

func (c *Client) do(ctx context.Context, method, route string, body any, authRoute bool) (*http.Response, error) {
	base := c.coreURL
	if authRoute {
		base = c.authURL
	}
	target := base + "/" + strings.TrimPrefix(route, "/")

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	if c.tokens != nil {
		token, err := c.tokens.IDToken()
		if err != nil {
			return nil, fmt.Errorf("load id token: %w", err)
		}
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	return c.httpClient.Do(req)
}

// Discover fetches the service discovery document and rewrites the auth
// service base URL with the advertised address.
func (c *Client) Discover(ctx context.Context) error {
	var doc struct {
		AuthService string `json:"auth_service"`
	}
	if err := c.getJSON(ctx, "discover", false, &doc); err != nil {
		return fmt.Errorf("discover: %w", err)
	}
	if doc.AuthService != "" {
		c.authURL = strings.TrimSuffix(doc.AuthService, "/")
	}
	return nil
}

// WellKnown fetches the OIDC discovery document from the auth service.
func (c *Client) WellKnown(ctx context.Context) (*hoss.WellKnown, error) {
	var wk hoss.WellKnown
	if err := c.getJSON(ctx, ".well-known/openid-configuration", true, &wk); err != nil {
		return nil, fmt.Errorf("well-known config: %w", err)
	}
	return &wk, nil
}

// STSCredentials obtains short-lived storage credentials for a namespace.
func (c *Client) STSCredentials(ctx context.Context, namespace string) (*hoss.Credentials, error) {
	var creds hoss.Credentials
	route := fmt.Sprintf("namespace/%s/sts", url.PathEscape(namespace))
	if err := c.getJSON(ctx, route, false, &creds); err != nil {
		return nil, fmt.Errorf("sts credentials: %w", err)
	}
	return &creds, nil
}

// Namespace fetches namespace details, including the backing object store.
func (c *Client) Namespace(ctx context.Context, name string) (*NamespaceInfo, error) {
	var ns NamespaceInfo
	if err := c.getJSON(ctx, "namespace/"+url.PathEscape(name), false, &ns); err != nil {
		return nil, fmt.Errorf("namespace %s: %w", name, err)
	}
	return &ns, nil
}

// Search queries the metadata search index. Metadata constraints are ANDed
// into a single comma-joined querystring value; zero-value time bounds are
// omitted. Validation of the bounds is the caller's responsibility.
func (c *Client) Search(ctx context.Context, namespace, dataset string, metadata map[string]string, modifiedBefore, modifiedAfter time.Time) ([]hoss.SearchRow, error) {
	q := url.Values{}
	q.Set("namespace", namespace)
	q.Set("dataset", dataset)
	if len(metadata) > 0 {
		pairs := make([]string, 0, len(metadata))
		for k, v := range metadata {
			pairs = append(pairs, k+":"+v)
		}
		q.Set("metadata", strings.Join(pairs, ","))
	}
	if !modifiedBefore.IsZero() {
		q.Set("modified_before", modifiedBefore.UTC().Format(time.RFC3339))
	}
	if !modifiedAfter.IsZero() {
		q.Set("modified_after", modifiedAfter.UTC().Format(time.RFC3339))
	}

	var out struct {
		Results []hoss.SearchRow `json:"results"`
	}
	if err := c.getJSON(ctx, "search?"+q.Encode(), false, &out); err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	return out.Results, nil
}

// ObjectMetadata fetches the indexed metadata for a single object.
func (c *Client) ObjectMetadata(ctx context.Context, namespace, dataset, objectKey string) (hoss.ObjectMetadata, error) {
	route := fmt.Sprintf("search/namespace/%s/dataset/%s/metadata?objectKey=%s",
		url.PathEscape(namespace), url.PathEscape(dataset), url.QueryEscape(objectKey))

	var out struct {
		Metadata hoss.ObjectMetadata `json:"metadata"`
	}
	if err := c.getJSON(ctx, route, false, &out); err != nil {
		return nil, fmt.Errorf("object metadata: %w", err)
	}
	return out.Metadata, nil
}

// MetadataKeys returns metadata key completions for a prefix.
func (c *Client) MetadataKeys(ctx context.Context, namespace, dataset, prefix string, limit int) ([]string, error) {
	route := fmt.Sprintf("search/namespace/%s/dataset/%s/key?prefix=%s&limit=%s",
		url.PathEscape(namespace), url.PathEscape(dataset), url.QueryEscape(prefix), strconv.Itoa(limit))

	var out struct {
		Keys []string `json:"keys"`
	}
	if err := c.getJSON(ctx, route, false, &out); err != nil {
		return nil, fmt.Errorf("metadata keys: %w", err)
	}
	return out.Keys, nil
}

// MetadataValues returns metadata value completions for a key and prefix.
func (c *Client) MetadataValues(ctx context.Context, namespace, dataset, key, prefix string, limit int) ([]string, error) {
	route := fmt.Sprintf("search/namespace/%s/dataset/%s/key/%s/value?prefix=%s&limit=%s",
		url.PathEscape(namespace), url.PathEscape(dataset), url.PathEscape(key),
		url.QueryEscape(prefix), strconv.Itoa(limit))

	var out struct {
		Values []string `json:"values"`
	}
	if err := c.getJSON(ctx, route, false, &out); err != nil {
		return nil, fmt.Errorf("metadata values: %w", err)
	}
	return out.Values, nil
}

// getJSON performs a GET and decodes the JSON response body into v,
// translating non-2xx responses into errors.
func (c *Client) getJSON(ctx context.Context, route string, authRoute bool, v any) error {
	resp, err := c.Get(ctx, route, authRoute)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return parseError(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
