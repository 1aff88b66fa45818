package objectstore

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/hossdata/hoss"
)

const (
	// listRetries is how many times a failed listing is attempted before
	// giving up.
	listRetries = 5

	// listRetryDelay is the fixed pause between listing attempts.
	listRetryDelay = time.Second

	// presignExpiry is the lifetime of generated download links.
	presignExpiry = time.Hour
)

// minioRegion is forced for minio-backed namespaces, which do not do
// region discovery.
const minioRegion = "us-east-1"

// Store is an S3-compatible client scoped to one namespace's bucket.
type Store struct {
	client *minio.Client
	bucket string

	retries int
	sleep   func(time.Duration)
}

// Option configures a Store.
type Option func(*Store)

// WithRetries overrides the listing retry budget.
func WithRetries(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.retries = n
		}
	}
}

// WithSleep overrides the pause between listing retries. Tests pass a
// no-op to avoid real waits.
func WithSleep(sleep func(time.Duration)) Option {
	return func(s *Store) { s.sleep = sleep }
}

// New builds a Store for a namespace's bucket from issued credentials.
// Minio-backed namespaces get path-style addressing and a fixed region;
// everything else uses the client's defaults.
func New(creds hoss.Credentials, bucket string, isMinio bool, opts ...Option) (*Store, error) {
	host, secure, err := splitEndpoint(creds.Endpoint)
	if err != nil {
		return nil, err
	}

	options := &minio.Options{
		Creds:  credentials.NewStaticV4(creds.AccessKeyID, creds.SecretAccessKey, creds.SessionToken),
		Secure: secure,
		Region: creds.Region,
	}
	if isMinio {
		options.Region = minioRegion
		options.BucketLookup = minio.BucketLookupPath
	}

	client, err := minio.New(host, options)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}

	s := &Store{
		client:  client,
		bucket:  bucket,
		retries: listRetries,
		sleep:   time.Sleep,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// splitEndpoint separates an endpoint URL into the host:port form the
// storage client wants plus whether to use TLS. Bare hosts default to TLS.
func splitEndpoint(endpoint string) (string, bool, error) {
	if endpoint == "" {
		return "", false, ErrNoEndpoint
	}
	if !strings.Contains(endpoint, "://") {
		return endpoint, true, nil
	}

	u, err := url.Parse(endpoint)
	if err != nil {
		return "", false, fmt.Errorf("parse storage endpoint: %w", err)
	}
	if u.Host == "" {
		return "", false, fmt.Errorf("storage endpoint %q has no host", endpoint)
	}
	return u.Host, u.Scheme != "http", nil
}

// List fetches one delimited page of a prefix: direct files plus common
// prefixes. Transient failures are retried on a fixed cadence before the
// whole call fails.
func (s *Store) List(ctx context.Context, prefix string) (*hoss.Listing, error) {
	var lastErr error
	for attempt := 0; attempt < s.retries; attempt++ {
		if attempt > 0 {
			s.sleep(listRetryDelay)
		}

		listing, err := s.listOnce(ctx, prefix)
		if err == nil {
			return listing, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		lastErr = err
	}
	return nil, fmt.Errorf("%w: %w", ErrListRetriesExhausted, lastErr)
}

func (s *Store) listOnce(ctx context.Context, prefix string) (*hoss.Listing, error) {
	listing := &hoss.Listing{Prefix: prefix}

	for object := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: false,
	}) {
		if object.Err != nil {
			return nil, fmt.Errorf("list %q: %w", prefix, object.Err)
		}
		if strings.HasSuffix(object.Key, "/") {
			if object.Key == prefix {
				// The prefix's own placeholder object is not a child.
				continue
			}
			listing.CommonPrefixes = append(listing.CommonPrefixes, hoss.Folder{Prefix: object.Key})
			continue
		}
		listing.Files = append(listing.Files, hoss.FileInfo{
			Key:          object.Key,
			Size:         object.Size,
			LastModified: object.LastModified,
			ETag:         object.ETag,
		})
	}
	return listing, nil
}

// Head stats one object, returning its file info and user metadata.
func (s *Store) Head(ctx context.Context, key string) (*hoss.FileInfo, hoss.ObjectMetadata, error) {
	info, err := s.client.StatObject(ctx, s.bucket, key, minio.StatObjectOptions{})
	if err != nil {
		return nil, nil, fmt.Errorf("stat %q: %w", key, err)
	}

	meta := hoss.ObjectMetadata{}
	for k, v := range info.UserMetadata {
		meta[strings.ToLower(k)] = v
	}
	return &hoss.FileInfo{
		Key:          key,
		Size:         info.Size,
		LastModified: info.LastModified,
		ETag:         info.ETag,
	}, meta, nil
}

// Put streams one object up. progress, when non-nil, is called with byte
// deltas as the body is consumed.
func (s *Store) Put(ctx context.Context, key string, body io.Reader, size int64, meta hoss.ObjectMetadata, progress func(n int64)) error {
	if progress != nil {
		body = &countingReader{r: body, report: progress}
	}

	_, err := s.client.PutObject(ctx, s.bucket, key, body, size, minio.PutObjectOptions{
		UserMetadata: meta,
	})
	if err != nil {
		return fmt.Errorf("put %q: %w", key, err)
	}
	return nil
}

// Copy performs a server-side copy within the bucket.
func (s *Store) Copy(ctx context.Context, srcKey, dstKey string) error {
	_, err := s.client.CopyObject(ctx,
		minio.CopyDestOptions{Bucket: s.bucket, Object: dstKey},
		minio.CopySrcOptions{Bucket: s.bucket, Object: srcKey},
	)
	if err != nil {
		return fmt.Errorf("copy %q to %q: %w", srcKey, dstKey, err)
	}
	return nil
}

// Delete removes one object.
func (s *Store) Delete(ctx context.Context, key string) error {
	if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("delete %q: %w", key, err)
	}
	return nil
}

// Get streams one object down.
func (s *Store) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	object, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("get %q: %w", key, err)
	}
	return object, nil
}

// PresignedGet returns a time-limited download URL for one object.
func (s *Store) PresignedGet(ctx context.Context, key string) (string, error) {
	u, err := s.client.PresignedGetObject(ctx, s.bucket, key, presignExpiry, url.Values{})
	if err != nil {
		return "", fmt.Errorf("presign %q: %w", key, err)
	}
	return u.String(), nil
}

// countingReader reports consumed bytes as they pass through.
type countingReader struct {
	r      io.Reader
	report func(n int64)
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	if n > 0 {
		c.report(int64(n))
	}
	return n, err
}
