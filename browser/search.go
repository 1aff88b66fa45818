package browser

import (
	"context"
	"time"

	"github.com/hossdata/hoss"
)

// ValidateDateRange checks a search's modified-date bounds before any
// request fires: both bounds must be supplied together, with before not
// later than after. Equal bounds are a valid single-instant range.
func ValidateDateRange(before, after time.Time) error {
	if before.IsZero() != after.IsZero() {
		return ErrDateRange
	}
	if !before.IsZero() && before.After(after) {
		return ErrDateRange
	}
	return nil
}

// Search queries the metadata index and installs the results as the
// rendering source in place of the live listing. An invalid date range is
// rejected client-side with a transient error and no request, and a browser
// built without a search collaborator rejects the call outright. The live
// cache is never touched; ClearSearch restores it.
func (b *Browser) Search(ctx context.Context, metadata map[string]string, modifiedBefore, modifiedAfter time.Time) error {
	if b.search == nil {
		return ErrNoSearchAPI
	}
	if err := ValidateDateRange(modifiedBefore, modifiedAfter); err != nil {
		b.setTransient(err.Error())
		return err
	}

	rows, err := b.search.Search(ctx, b.namespace, b.dataset, metadata, modifiedBefore, modifiedAfter)
	if err != nil {
		op := newOpError("searching files", err)
		b.setErr(op)
		return op
	}

	overlay := buildOverlay(b.dataset, rows)

	b.mu.Lock()
	b.overlay = overlay
	b.mu.Unlock()

	b.logger.Info("search results installed", "results", len(rows))
	return nil
}

// buildOverlay projects search rows into a synthetic flat listing. Each
// row is re-keyed under the dataset, and every ancestor prefix of each
// result is materialized, unexpanded, so the result tree stays browsable.
func buildOverlay(dataset string, rows []hoss.SearchRow) *Cache {
	overlay := NewCache()
	for _, row := range rows {
		key := dataset + "/" + row.FilePath
		overlay.MergeFiles([]hoss.FileInfo{{
			Key:          key,
			Size:         row.SizeBytes,
			LastModified: row.LastModifiedDate,
		}}, nil)
		overlay.MergeFolders(hoss.Ancestors(key), nil)
	}
	return overlay
}

// SearchActive reports whether search results are substituted for the live
// listing.
func (b *Browser) SearchActive() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.overlay != nil
}

// ClearSearch removes the overlay and restores the live cache as the
// rendering source.
func (b *Browser) ClearSearch() {
	b.mu.Lock()
	b.overlay = nil
	b.mu.Unlock()
}
