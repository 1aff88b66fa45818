package browser

import (
	"context"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/hossdata/hoss"
)

// osArtifact is the macOS directory metadata file silently dropped from
// upload batches.
const osArtifact = ".DS_Store"

// Entry is one file in an upload batch. Path is slash-separated and
// relative to the batch's target prefix.
type Entry struct {
	Path string
	Size int64
	Open func() (io.ReadCloser, error)
}

// DirEntry is one child returned by a DirSource listing.
type DirEntry struct {
	Name  string
	IsDir bool
	Size  int64
	Open  func() (io.ReadCloser, error)
}

// DirSource reads one directory level at a time, letting batch preparation
// recurse over a dropped tree without knowing where it came from. OSDir
// adapts the local filesystem; tests supply in-memory trees.
type DirSource interface {
	ReadDir(ctx context.Context, path string) ([]DirEntry, error)
}

// Batch is a prepared set of files bound for one target prefix, with
// metadata applied identically to every file.
type Batch struct {
	ID           uuid.UUID
	TargetPrefix string
	Metadata     hoss.ObjectMetadata
	Entries      []Entry
}

// TotalSize sums the batch's file sizes.
func (b *Batch) TotalSize() int64 {
	var total int64
	for _, e := range b.Entries {
		total += e.Size
	}
	return total
}

// PrepareBatch walks a dropped tree into a flat batch. Each subdirectory
// is read concurrently; the batch is ready only once every branch of the
// walk has finished. OS artifact files are excluded before transfer.
func PrepareBatch(ctx context.Context, src DirSource, targetPrefix string, meta hoss.ObjectMetadata) (*Batch, error) {
	batch := &Batch{
		ID:           uuid.New(),
		TargetPrefix: targetPrefix,
		Metadata:     meta,
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)

	var walk func(dir string) error
	walk = func(dir string) error {
		children, err := src.ReadDir(gctx, dir)
		if err != nil {
			return err
		}
		for _, child := range children {
			path := child.Name
			if dir != "" {
				path = dir + "/" + child.Name
			}
			if child.IsDir {
				g.Go(func() error { return walk(path) })
				continue
			}
			if child.Name == osArtifact {
				continue
			}
			entry := Entry{Path: path, Size: child.Size, Open: child.Open}
			mu.Lock()
			batch.Entries = append(batch.Entries, entry)
			mu.Unlock()
		}
		return nil
	}

	g.Go(func() error { return walk("") })
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(batch.Entries, func(i, j int) bool {
		return batch.Entries[i].Path < batch.Entries[j].Path
	})
	return batch, nil
}

// Progress is the aggregated transfer state of one upload batch. Byte
// counts are summed from each file's last-known transferred total.
type Progress struct {
	TotalFiles    int
	TotalSize     int64
	FinishedFiles int
	FinishedSize  int64
	Pct           int
}

// tracker accumulates per-key transferred bytes under its own lock so
// concurrent file transfers can report independently.
type tracker struct {
	mu         sync.Mutex
	totalFiles int
	totalSize  int64
	perKey     map[string]int64
	finished   int
}

func newTracker(files int, size int64) *tracker {
	return &tracker{
		totalFiles: files,
		totalSize:  size,
		perKey:     make(map[string]int64),
	}
}

func (t *tracker) add(key string, n int64) {
	t.mu.Lock()
	t.perKey[key] += n
	t.mu.Unlock()
}

// done pins a file's transferred count to its full size, so short reads or
// retries never leave a completed file under-counted.
func (t *tracker) done(key string, size int64) {
	t.mu.Lock()
	t.perKey[key] = size
	t.finished++
	t.mu.Unlock()
}

func (t *tracker) snapshot() Progress {
	t.mu.Lock()
	defer t.mu.Unlock()

	var transferred int64
	for _, n := range t.perKey {
		transferred += n
	}

	pct := 0
	if t.totalSize > 0 {
		pct = int(math.Round(float64(transferred) / float64(t.totalSize) * 100))
	}
	return Progress{
		TotalFiles:    t.totalFiles,
		TotalSize:     t.totalSize,
		FinishedFiles: t.finished,
		FinishedSize:  transferred,
		Pct:           pct,
	}
}

// Upload transfers a prepared batch. Files upload independently with no
// cross-file sequencing; one file's failure does not abort the others, and
// each completed file triggers a re-list of its containing prefix. The
// page lock and progress state clear when the last file settles.
func (b *Browser) Upload(ctx context.Context, batch *Batch) error {
	if b.SearchActive() {
		return ErrSearchActive
	}
	if err := b.acquire(); err != nil {
		return err
	}
	defer b.release()
	defer b.clearProgress()

	t := newTracker(len(batch.Entries), batch.TotalSize())
	b.publishProgress(t.snapshot())

	// Plain group, no shared cancellation: remaining files continue after
	// a sibling fails.
	var g errgroup.Group
	for _, entry := range batch.Entries {
		entry := entry
		key := batch.TargetPrefix + entry.Path
		g.Go(func() error {
			body, err := entry.Open()
			if err != nil {
				return err
			}
			defer func() { _ = body.Close() }()

			err = b.store.Put(ctx, key, body, entry.Size, batch.Metadata, func(n int64) {
				t.add(key, n)
				b.publishProgress(t.snapshot())
			})
			if err != nil {
				return err
			}

			t.done(key, entry.Size)
			b.publishProgress(t.snapshot())

			if err := b.Refetch(ctx, hoss.ParentPrefix(key)); err != nil {
				b.logger.Warn("post-upload listing failed", "key", key, "error", err)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		op := newOpError("uploading file(s)", err)
		b.setErr(op)
		return op
	}

	b.logger.Info("upload complete",
		"batch", batch.ID, "files", len(batch.Entries), "bytes", batch.TotalSize())
	return nil
}

// Progress returns the latest upload progress snapshot, or nil when no
// upload is running.
func (b *Browser) Progress() *Progress {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.progress == nil {
		return nil
	}
	p := *b.progress
	return &p
}

func (b *Browser) publishProgress(p Progress) {
	b.mu.Lock()
	b.progress = &p
	b.mu.Unlock()
}

func (b *Browser) clearProgress() {
	b.mu.Lock()
	b.progress = nil
	b.mu.Unlock()
}

// OSDir adapts a local filesystem directory as a DirSource rooted at root.
func OSDir(root string) DirSource {
	return osDir{root: root}
}

type osDir struct {
	root string
}

func (d osDir) ReadDir(_ context.Context, path string) ([]DirEntry, error) {
	dir := filepath.Join(d.root, filepath.FromSlash(path))
	children, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	entries := make([]DirEntry, 0, len(children))
	for _, child := range children {
		entry := DirEntry{Name: child.Name(), IsDir: child.IsDir()}
		if !child.IsDir() {
			info, err := child.Info()
			if err != nil {
				return nil, err
			}
			entry.Size = info.Size()
			full := filepath.Join(dir, child.Name())
			entry.Open = func() (io.ReadCloser, error) { return os.Open(full) }
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// FileBatch wraps a single local file as a one-entry batch, for callers
// that upload a file rather than a dropped tree.
func FileBatch(path, targetPrefix string, meta hoss.ObjectMetadata) (*Batch, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	return &Batch{
		ID:           uuid.New(),
		TargetPrefix: targetPrefix,
		Metadata:     meta,
		Entries: []Entry{{
			Path: filepath.Base(path),
			Size: info.Size(),
			Open: func() (io.ReadCloser, error) { return os.Open(path) },
		}},
	}, nil
}
