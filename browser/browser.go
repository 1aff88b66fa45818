package browser

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/hossdata/hoss"
)

// transientTTL is how long a client-side validation error stays visible.
const transientTTL = 5 * time.Second

// ObjectStore is the storage contract the browser composes. The objectstore
// package provides the production implementation; tests use an in-memory
// fake.
type ObjectStore interface {
	List(ctx context.Context, prefix string) (*hoss.Listing, error)
	Head(ctx context.Context, key string) (*hoss.FileInfo, hoss.ObjectMetadata, error)
	Put(ctx context.Context, key string, body io.Reader, size int64, meta hoss.ObjectMetadata, progress func(n int64)) error
	Copy(ctx context.Context, srcKey, dstKey string) error
	Delete(ctx context.Context, key string) error
	PresignedGet(ctx context.Context, key string) (string, error)
}

// SearchAPI is the slice of the core API client the browser uses for the
// metadata index.
type SearchAPI interface {
	Search(ctx context.Context, namespace, dataset string, metadata map[string]string, modifiedBefore, modifiedAfter time.Time) ([]hoss.SearchRow, error)
	ObjectMetadata(ctx context.Context, namespace, dataset, objectKey string) (hoss.ObjectMetadata, error)
}

// Browser ties the listing cache to one dataset's slice of the remote
// store. It owns the page-level lock that serializes operation initiation
// and the search overlay that can substitute for the live listing.
type Browser struct {
	store  ObjectStore
	search SearchAPI
	logger *slog.Logger

	origin    string
	namespace string
	dataset   string
	isMinio   bool

	now func() time.Time

	mu             sync.Mutex
	locked         bool
	page           PageState
	cache          *Cache
	overlay        *Cache
	progress       *Progress
	lastErr        *OpError
	transientMsg   string
	transientUntil time.Time
}

// Option configures a Browser.
type Option func(*Browser)

// WithSearchAPI attaches the metadata-search collaborator.
func WithSearchAPI(search SearchAPI) Option {
	return func(b *Browser) { b.search = search }
}

// WithMinio marks the namespace's backing store as minio, which has no
// metadata index to merge from.
func WithMinio(isMinio bool) Option {
	return func(b *Browser) { b.isMinio = isMinio }
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Browser) { b.logger = logger }
}

// WithClock overrides the clock used for transient-error expiry.
func WithClock(now func() time.Time) Option {
	return func(b *Browser) { b.now = now }
}

// New creates a Browser for one dataset in one namespace.
func New(store ObjectStore, origin, namespace, dataset string, opts ...Option) *Browser {
	b := &Browser{
		store:     store,
		logger:    slog.Default(),
		origin:    origin,
		namespace: namespace,
		dataset:   dataset,
		now:       time.Now,
		page:      PageIdle,
		cache:     NewCache(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Root returns the dataset's root prefix.
func (b *Browser) Root() string {
	return b.dataset + "/"
}

// Tree returns the current rendering source: the search overlay when one is
// installed, otherwise the live cache.
func (b *Browser) Tree() *Cache {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.overlay != nil {
		return b.overlay
	}
	return b.cache
}

// Cache returns the live listing cache regardless of any overlay.
func (b *Browser) Cache() *Cache {
	return b.cache
}

// Mount performs the initial root listing. The page stays locked until the
// listing lands or the adapter's retry budget runs out.
func (b *Browser) Mount(ctx context.Context) error {
	if err := b.acquire(); err != nil {
		return err
	}
	defer b.release()

	b.pageBegin(PageFetch)
	if err := b.fetchPrefix(ctx, b.Root()); err != nil {
		b.pageSettle(err)
		op := newOpError("fetching files", err)
		b.setErr(op)
		return op
	}
	b.pageSettle(nil)
	return nil
}

// Expand loads a folder's children if they have not been fetched yet and
// marks the folder expanded.
func (b *Browser) Expand(ctx context.Context, prefix string) error {
	tree := b.Tree()
	if !tree.Loaded(prefix) && !b.SearchActive() {
		if err := b.fetchPrefix(ctx, prefix); err != nil {
			op := newOpError("fetching files", err)
			b.setErr(op)
			return op
		}
	}
	tree.SetExpanded(prefix, true)
	return nil
}

// Collapse marks a folder collapsed. Its cached children are kept.
func (b *Browser) Collapse(prefix string) {
	b.Tree().SetExpanded(prefix, false)
}

// Refetch re-lists one prefix into the live cache, preserving selection.
// Cached entries stay on screen while the new listing loads.
func (b *Browser) Refetch(ctx context.Context, prefix string) error {
	b.pageBegin(PageRefetch)
	err := b.fetchPrefix(ctx, prefix)
	b.pageSettle(err)
	return err
}

func (b *Browser) fetchPrefix(ctx context.Context, prefix string) error {
	listing, err := b.store.List(ctx, prefix)
	if err != nil {
		b.logger.Error("listing failed", "prefix", prefix, "error", err)
		return err
	}
	b.cache.MergeListing(listing, nil)
	return nil
}

// NewFolder registers a cache-only folder under parent. Folders are
// implicit prefixes, so nothing is written remotely.
func (b *Browser) NewFolder(parent, name string) (string, error) {
	if b.SearchActive() {
		return "", ErrSearchActive
	}
	prefix, err := b.cache.AddFolder(parent, name)
	if err != nil {
		b.setTransient(err.Error())
		return "", err
	}
	return prefix, nil
}

// Details is the focused-file view: object info merged with the metadata
// index's row for the same key, plus the shareable Hoss URI.
type Details struct {
	Info     hoss.FileInfo
	Metadata hoss.ObjectMetadata
	URI      string
}

// Inspect stats one object and merges in its indexed metadata. The index
// row is only merged while its object version still matches: a HEAD ETag
// differing from the cached one means the listing is stale, so the cache
// entry is refreshed and the index row trusted only for the new version.
// Minio-backed namespaces have no index and skip the merge.
func (b *Browser) Inspect(ctx context.Context, key string) (*Details, error) {
	info, meta, err := b.store.Head(ctx, key)
	if err != nil {
		op := newOpError("fetching file details", err)
		b.setErr(op)
		return nil, op
	}

	merged := hoss.ObjectMetadata{}
	if b.search != nil && !b.isMinio {
		relPath := strings.TrimPrefix(key, b.Root())
		indexed, err := b.search.ObjectMetadata(ctx, b.namespace, b.dataset, relPath)
		if err != nil {
			b.logger.Warn("metadata index lookup failed", "key", key, "error", err)
		} else {
			for k, v := range indexed {
				merged[k] = v
			}
		}
	}
	// Head metadata is authoritative over the index.
	for k, v := range meta {
		merged[k] = v
	}

	b.cache.MergeFiles([]hoss.FileInfo{*info}, nil)

	return &Details{
		Info:     *info,
		Metadata: merged,
		URI:      hoss.URI(b.origin, b.namespace, key),
	}, nil
}

// Download returns a presigned URL for one object. Permitted while search
// results are active.
func (b *Browser) Download(ctx context.Context, key string) (string, error) {
	u, err := b.store.PresignedGet(ctx, key)
	if err != nil {
		op := newOpError("downloading file", err)
		b.setErr(op)
		return "", op
	}
	return u, nil
}

// Page reports where the listing sits in its fetch lifecycle.
func (b *Browser) Page() PageState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.page
}

// pageBegin starts a fetch cycle. When the event does not apply in the
// current state, a try-again from the error page is attempted instead.
func (b *Browser) pageBegin(event PageEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if next, ok := NextPage(b.page, event); ok {
		b.page = next
		return
	}
	if next, ok := NextPage(b.page, PageTryAgain); ok {
		b.page = next
	}
}

func (b *Browser) pageSettle(err error) {
	event := PageResolved
	if err != nil {
		event = PageFailed
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if next, ok := NextPage(b.page, event); ok {
		b.page = next
	}
}

// Locked reports whether an operation is outstanding.
func (b *Browser) Locked() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.locked
}

// LastError returns the most recent operation failure, or nil.
func (b *Browser) LastError() *OpError {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastErr
}

// ClearError dismisses the error modal state.
func (b *Browser) ClearError() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.lastErr = nil
}

// TransientError returns the current validation message, or empty once it
// has aged out.
func (b *Browser) TransientError() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.now().After(b.transientUntil) {
		return ""
	}
	return b.transientMsg
}

func (b *Browser) acquire() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.locked {
		return ErrLocked
	}
	b.locked = true
	return nil
}

func (b *Browser) release() {
	b.mu.Lock()
	b.locked = false
	b.mu.Unlock()
}

func (b *Browser) setErr(op *OpError) {
	b.mu.Lock()
	b.lastErr = op
	b.mu.Unlock()
	b.logger.Error("operation failed", "action", op.Action, "message", op.Message)
}

func (b *Browser) setTransient(msg string) {
	b.mu.Lock()
	b.transientMsg = msg
	b.transientUntil = b.now().Add(transientTTL)
	b.mu.Unlock()
}
