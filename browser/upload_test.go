package browser_test

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hossdata/hoss"
	"github.com/hossdata/hoss/browser"
)

// memDir is an in-memory DirSource. Keys are slash paths; a nil value
// marks a directory.
type memDir struct {
	files map[string]string
	dirs  map[string]bool
}

func newMemDir() *memDir {
	return &memDir{files: map[string]string{}, dirs: map[string]bool{"": true}}
}

func (d *memDir) addFile(path, content string) {
	d.files[path] = content
	for {
		i := strings.LastIndexByte(path, '/')
		if i < 0 {
			break
		}
		path = path[:i]
		d.dirs[path] = true
	}
}

func (d *memDir) ReadDir(_ context.Context, path string) ([]browser.DirEntry, error) {
	if !d.dirs[path] {
		return nil, errors.New("no such directory: " + path)
	}

	seen := map[string]bool{}
	var entries []browser.DirEntry
	add := func(full string, isDir bool) {
		rest := full
		if path != "" {
			if !strings.HasPrefix(full, path+"/") {
				return
			}
			rest = strings.TrimPrefix(full, path+"/")
		}
		if rest == "" || strings.Contains(rest, "/") {
			return
		}
		if seen[rest] {
			return
		}
		seen[rest] = true

		entry := browser.DirEntry{Name: rest, IsDir: isDir}
		if !isDir {
			content := d.files[full]
			entry.Size = int64(len(content))
			entry.Open = func() (io.ReadCloser, error) {
				return io.NopCloser(strings.NewReader(content)), nil
			}
		}
		entries = append(entries, entry)
	}

	for full := range d.files {
		add(full, false)
	}
	for full := range d.dirs {
		if full != "" {
			add(full, true)
		}
	}
	return entries, nil
}

func TestPrepareBatchWalksRecursively(t *testing.T) {
	src := newMemDir()
	src.addFile("a.txt", "aaaa")
	src.addFile("photos/b.jpg", "bbbbbbbb")
	src.addFile("photos/raw/c.raw", "cc")
	src.addFile(".DS_Store", "junk")
	src.addFile("photos/.DS_Store", "junk")

	batch, err := browser.PrepareBatch(context.Background(), src, "ds/up/", nil)
	require.NoError(t, err)

	var paths []string
	var total int64
	for _, e := range batch.Entries {
		paths = append(paths, e.Path)
		total += e.Size
	}
	assert.Equal(t, []string{"a.txt", "photos/b.jpg", "photos/raw/c.raw"}, paths)
	assert.Equal(t, int64(14), total)
	assert.Equal(t, int64(14), batch.TotalSize())
	assert.NotEqual(t, batch.ID.String(), "00000000-0000-0000-0000-000000000000")
}

func TestUploadTransfersBatch(t *testing.T) {
	src := newMemDir()
	src.addFile("a.txt", "aaaa")
	src.addFile("sub/b.txt", "bbbbbb")

	meta := hoss.ObjectMetadata{"experiment": "e-7"}
	batch, err := browser.PrepareBatch(context.Background(), src, "ds/up/", meta)
	require.NoError(t, err)

	store := newFakeStore()
	b := newTestBrowser(store)

	require.NoError(t, b.Upload(context.Background(), batch))

	assert.Equal(t, []string{"ds/up/a.txt", "ds/up/sub/b.txt"}, store.keys())

	// Batch metadata lands on every file.
	_, objMeta, err := store.Head(context.Background(), "ds/up/a.txt")
	require.NoError(t, err)
	assert.Equal(t, "e-7", objMeta["experiment"])

	// Each completed file re-listed its containing prefix.
	assert.Contains(t, store.listCalls, "ds/up/")
	assert.Contains(t, store.listCalls, "ds/up/sub/")

	// Progress and lock clear once the last file lands.
	assert.Nil(t, b.Progress())
	assert.False(t, b.Locked())
}

func TestUploadSingleFailureDoesNotAbortOthers(t *testing.T) {
	src := newMemDir()
	src.addFile("ok.txt", "okokok")
	src.addFile("bad.txt", "bad")

	batch, err := browser.PrepareBatch(context.Background(), src, "ds/", nil)
	require.NoError(t, err)

	store := newFakeStore()
	store.failPut["ds/bad.txt"] = errors.New("write refused")
	b := newTestBrowser(store)

	err = b.Upload(context.Background(), batch)
	require.Error(t, err)

	var op *browser.OpError
	require.ErrorAs(t, err, &op)
	assert.Equal(t, "uploading file(s)", op.Action)

	// The sibling upload still completed.
	assert.Contains(t, store.keys(), "ds/ok.txt")
	assert.False(t, b.Locked())
	assert.Nil(t, b.Progress())
}

func TestUploadRejectsWhileLocked(t *testing.T) {
	store := newFakeStore("ds/sub/a.txt")
	b := newTestBrowser(store)
	require.NoError(t, b.Mount(context.Background()))

	gate := make(chan struct{})
	store.mu.Lock()
	store.listGate = gate
	store.mu.Unlock()

	done := make(chan error, 1)
	go func() { done <- b.Delete(context.Background(), "ds/sub/") }()
	waitLocked(t, b)

	batch := &browser.Batch{TargetPrefix: "ds/"}
	assert.ErrorIs(t, b.Upload(context.Background(), batch), browser.ErrLocked)

	store.mu.Lock()
	store.listGate = nil
	store.mu.Unlock()
	close(gate)
	require.NoError(t, <-done)
}
