package browser_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hossdata/hoss/browser"
)

// selectionFixture builds:
//
//	ds/
//	├── a.txt
//	└── sub/
//	    ├── b.txt
//	    └── c.txt
func selectionFixture() *browser.Cache {
	c := browser.NewCache()
	c.MergeListing(listing("ds/", []string{"ds/a.txt"}, "ds/sub/"), nil)
	c.MergeListing(listing("ds/sub/", []string{"ds/sub/b.txt", "ds/sub/c.txt"}), nil)
	return c
}

func selectedSet(c *browser.Cache) map[string]bool {
	out := map[string]bool{}
	files, folders := c.Selected()
	for _, k := range files {
		out[k] = true
	}
	for _, p := range folders {
		out[p] = true
	}
	return out
}

func TestSelectFolderCascades(t *testing.T) {
	c := selectionFixture()

	c.Select("ds/sub/", true)

	sel := selectedSet(c)
	assert.True(t, sel["ds/sub/"])
	assert.True(t, sel["ds/sub/b.txt"])
	assert.True(t, sel["ds/sub/c.txt"])
	assert.False(t, sel["ds/a.txt"])
}

func TestDeselectChildDemotesAncestors(t *testing.T) {
	c := selectionFixture()
	c.Select("ds/sub/", true)

	c.Select("ds/sub/b.txt", false)

	sel := selectedSet(c)
	assert.False(t, sel["ds/sub/"])
	assert.True(t, sel["ds/sub/c.txt"])
}

func TestSelectingLastSiblingPromotesParent(t *testing.T) {
	c := selectionFixture()

	c.Select("ds/sub/b.txt", true)
	assert.False(t, selectedSet(c)["ds/sub/"])

	c.Select("ds/sub/c.txt", true)
	assert.True(t, selectedSet(c)["ds/sub/"], "parent promotes once all siblings are selected")
}

func TestPromotionStopsAtUnselectedSibling(t *testing.T) {
	c := selectionFixture()

	// Everything under sub/ selected, but a.txt at the root is not, so
	// the root folder must not promote.
	c.MergeListing(listing("", nil, "ds/"), nil)
	c.Select("ds/sub/", true)

	sel := selectedSet(c)
	assert.True(t, sel["ds/sub/"])
	assert.False(t, sel["ds/"])

	c.Select("ds/a.txt", true)
	assert.True(t, selectedSet(c)["ds/"])
}

func TestPromotionIgnoresManifest(t *testing.T) {
	c := browser.NewCache()
	c.MergeListing(listing("", nil, "ds/"), nil)
	c.MergeListing(listing("ds/", []string{"ds/.dataset.yaml", "ds/a.txt"}), nil)

	// The invisible manifest never blocks promotion.
	c.Select("ds/a.txt", true)
	assert.True(t, selectedSet(c)["ds/"])
}

func TestSelectOnlyInspectsLoadedSiblings(t *testing.T) {
	// Known limitation: sub/ has unfetched children, so selecting the one
	// cached root file still promotes the root even though deep
	// descendants were never loaded.
	c := browser.NewCache()
	c.MergeListing(listing("", nil, "ds/"), nil)
	c.MergeListing(listing("ds/", []string{"ds/a.txt"}, "ds/sub/"), nil)

	c.Select("ds/sub/", true)
	c.Select("ds/a.txt", true)

	assert.True(t, selectedSet(c)["ds/"])
}

func TestSelectAll(t *testing.T) {
	c := selectionFixture()

	c.SelectAll("ds/", true)
	sel := selectedSet(c)
	assert.True(t, sel["ds/a.txt"])
	assert.True(t, sel["ds/sub/"])
	assert.True(t, sel["ds/sub/b.txt"])

	c.SelectAll("ds/", false)
	files, folders := c.Selected()
	assert.Empty(t, files)
	assert.Empty(t, folders)
}

func TestPartial(t *testing.T) {
	c := selectionFixture()
	assert.False(t, c.Partial("ds/sub/"))

	c.Select("ds/sub/b.txt", true)
	assert.True(t, c.Partial("ds/sub/"))
	assert.True(t, c.Partial("ds/"))

	c.Select("ds/sub/c.txt", true)
	assert.False(t, c.Partial("ds/sub/"))
}
