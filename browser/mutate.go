package browser

import (
	"context"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/hossdata/hoss"
)

// Rename gives a file or folder a new base name. Renaming to the current
// name is a no-op: no copy or delete is issued. For folders this is a
// recursive copy to the new prefix followed by a recursive delete of the
// old one; an error mid-way leaves the partial result visible.
func (b *Browser) Rename(ctx context.Context, key, newName string) error {
	if b.SearchActive() {
		return ErrSearchActive
	}
	if newName == "" {
		b.setTransient(ErrEmptyName.Error())
		return ErrEmptyName
	}
	if hoss.BaseName(key) == newName {
		return nil
	}
	if err := b.acquire(); err != nil {
		return err
	}
	defer b.release()

	if hoss.IsPrefix(key) {
		newPrefix := hoss.ParentPrefix(key) + newName + "/"
		if err := b.moveTree(ctx, key, newPrefix); err != nil {
			op := newOpError("renaming file(s)", err)
			b.setErr(op)
			return op
		}
		return b.reconcileMove(ctx, key, newPrefix)
	}

	newKey := hoss.ParentPrefix(key) + newName
	if err := b.moveObject(ctx, key, newKey); err != nil {
		op := newOpError("renaming file(s)", err)
		b.setErr(op)
		return op
	}
	b.cache.Remove(key)
	return b.Refetch(ctx, hoss.ParentPrefix(key))
}

// Delete removes a file or, recursively, a folder. Row-level file deletes
// stay available while search results are shown; folder deletes do not.
func (b *Browser) Delete(ctx context.Context, key string) error {
	if hoss.IsPrefix(key) {
		if b.SearchActive() {
			return ErrSearchActive
		}
		if err := b.acquire(); err != nil {
			return err
		}
		defer b.release()

		if err := b.deleteTree(ctx, key); err != nil {
			op := newOpError("deleting file(s)", err)
			b.setErr(op)
			return op
		}
		b.cache.Remove(key)
		return nil
	}

	if err := b.store.Delete(ctx, key); err != nil {
		op := newOpError("deleting file(s)", err)
		b.setErr(op)
		return op
	}
	b.cache.Remove(key)
	b.mu.Lock()
	if b.overlay != nil {
		b.overlay.Remove(key)
	}
	b.mu.Unlock()
	return nil
}

// DeleteSelected removes every selected file and folder in one fan-out.
func (b *Browser) DeleteSelected(ctx context.Context) error {
	if b.SearchActive() {
		return ErrSearchActive
	}
	if err := b.acquire(); err != nil {
		return err
	}
	defer b.release()

	files, folders := b.cache.Selected()

	// Folders nested inside other selected folders are covered by the
	// outermost tree delete.
	roots := outermost(folders)

	var g errgroup.Group
	for _, key := range files {
		key := key
		if coveredBy(key, roots) {
			continue
		}
		g.Go(func() error { return b.store.Delete(ctx, key) })
	}
	for _, prefix := range roots {
		prefix := prefix
		g.Go(func() error { return b.deleteTree(ctx, prefix) })
	}
	if err := g.Wait(); err != nil {
		op := newOpError("deleting file(s)", err)
		b.setErr(op)
		return op
	}

	b.cache.Remove(files...)
	b.cache.Remove(roots...)
	return nil
}

// Move relocates a file or folder under targetPrefix. The destination must
// differ from the source's current parent and must not sit inside a moved
// folder.
func (b *Browser) Move(ctx context.Context, key, targetPrefix string) error {
	if b.SearchActive() {
		return ErrSearchActive
	}
	if hoss.ParentPrefix(key) == targetPrefix {
		return ErrInvalidTarget
	}
	if hoss.IsPrefix(key) && strings.HasPrefix(targetPrefix, key) {
		return ErrInvalidTarget
	}
	if err := b.acquire(); err != nil {
		return err
	}
	defer b.release()

	if hoss.IsPrefix(key) {
		dst := targetPrefix + hoss.BaseName(key) + "/"
		if err := b.moveTree(ctx, key, dst); err != nil {
			op := newOpError("moving file(s)", err)
			b.setErr(op)
			return op
		}
		return b.reconcileMove(ctx, key, dst)
	}

	dst := targetPrefix + hoss.BaseName(key)
	if err := b.moveObject(ctx, key, dst); err != nil {
		op := newOpError("moving file(s)", err)
		b.setErr(op)
		return op
	}
	b.cache.Remove(key)
	return b.Refetch(ctx, targetPrefix)
}

// moveObject is copy-then-delete for one object.
func (b *Browser) moveObject(ctx context.Context, src, dst string) error {
	if err := b.store.Copy(ctx, src, dst); err != nil {
		return err
	}
	return b.store.Delete(ctx, src)
}

// moveTree recursively copies a prefix tree to dst and deletes the source.
// Each level fans out over its files and subfolders; the call returns only
// once every sub-operation has resolved, in any completion order. A
// mid-way failure leaves already-completed siblings in place.
func (b *Browser) moveTree(ctx context.Context, src, dst string) error {
	listing, err := b.store.List(ctx, src)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, f := range listing.Files {
		f := f
		g.Go(func() error {
			return b.moveObject(gctx, f.Key, dst+strings.TrimPrefix(f.Key, src))
		})
	}
	for _, folder := range listing.CommonPrefixes {
		folder := folder
		g.Go(func() error {
			return b.moveTree(gctx, folder.Prefix, dst+strings.TrimPrefix(folder.Prefix, src))
		})
	}
	return g.Wait()
}

// deleteTree recursively deletes every object under a prefix, one fan-out
// per level.
func (b *Browser) deleteTree(ctx context.Context, prefix string) error {
	listing, err := b.store.List(ctx, prefix)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, f := range listing.Files {
		f := f
		g.Go(func() error { return b.store.Delete(gctx, f.Key) })
	}
	for _, folder := range listing.CommonPrefixes {
		folder := folder
		g.Go(func() error { return b.deleteTree(gctx, folder.Prefix) })
	}
	return g.Wait()
}

// reconcileMove drops the moved subtree from the cache and loads the
// destination.
func (b *Browser) reconcileMove(ctx context.Context, src, dst string) error {
	b.cache.Remove(src)
	b.cache.MergeFolders([]string{dst}, nil)
	if err := b.Refetch(ctx, hoss.ParentPrefix(dst)); err != nil {
		return err
	}
	return b.Refetch(ctx, dst)
}

// outermost filters a set of prefixes down to those not contained in
// another member.
func outermost(prefixes []string) []string {
	var roots []string
	for _, p := range prefixes {
		nested := false
		for _, q := range prefixes {
			if p != q && strings.HasPrefix(p, q) {
				nested = true
				break
			}
		}
		if !nested {
			roots = append(roots, p)
		}
	}
	return roots
}

// coveredBy reports whether key sits under any of the prefixes.
func coveredBy(key string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(key, p) {
			return true
		}
	}
	return false
}
