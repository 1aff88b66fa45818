package browser_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/hossdata/hoss/browser"
)

func sortedKeys(nodes []browser.Node, field browser.SortField, ascending bool) []string {
	browser.SortNodes(nodes, field, ascending)
	keys := make([]string, len(nodes))
	for i, n := range nodes {
		keys[i] = n.Key
	}
	return keys
}

func TestSortFoldersFirstThenName(t *testing.T) {
	base := time.Now()
	nodes := []browser.Node{
		{Key: "ds/z.txt", Size: 1, LastModified: base},
		{Key: "ds/beta/", IsDir: true},
		{Key: "ds/a.txt", Size: 2, LastModified: base.Add(time.Hour)},
		{Key: "ds/alpha/", IsDir: true},
	}

	assert.Equal(t,
		[]string{"ds/alpha/", "ds/beta/", "ds/a.txt", "ds/z.txt"},
		sortedKeys(nodes, browser.SortByName, true))
}

func TestSortFilesBySizeAndModified(t *testing.T) {
	base := time.Now()
	nodes := []browser.Node{
		{Key: "ds/big.txt", Size: 300, LastModified: base},
		{Key: "ds/small.txt", Size: 10, LastModified: base.Add(2 * time.Hour)},
		{Key: "ds/mid.txt", Size: 50, LastModified: base.Add(time.Hour)},
	}

	assert.Equal(t,
		[]string{"ds/small.txt", "ds/mid.txt", "ds/big.txt"},
		sortedKeys(nodes, browser.SortBySize, true))
	assert.Equal(t,
		[]string{"ds/big.txt", "ds/mid.txt", "ds/small.txt"},
		sortedKeys(nodes, browser.SortBySize, false))
	assert.Equal(t,
		[]string{"ds/small.txt", "ds/mid.txt", "ds/big.txt"},
		sortedKeys(nodes, browser.SortByModified, false))
}

func TestSortFoldersIgnoreFileField(t *testing.T) {
	nodes := []browser.Node{
		{Key: "ds/zeta/", IsDir: true},
		{Key: "ds/alpha/", IsDir: true},
		{Key: "ds/file.txt", Size: 5},
	}

	// Folders compare by name even when sorting files by size.
	assert.Equal(t,
		[]string{"ds/alpha/", "ds/zeta/", "ds/file.txt"},
		sortedKeys(nodes, browser.SortBySize, true))
}

func TestSortStableOnTies(t *testing.T) {
	base := time.Now()
	nodes := []browser.Node{
		{Key: "ds/c.txt", Size: 10, LastModified: base},
		{Key: "ds/a.txt", Size: 10, LastModified: base},
		{Key: "ds/b.txt", Size: 10, LastModified: base},
	}

	// Equal sizes keep their original order in both directions.
	assert.Equal(t,
		[]string{"ds/c.txt", "ds/a.txt", "ds/b.txt"},
		sortedKeys(nodes, browser.SortBySize, true))
	assert.Equal(t,
		[]string{"ds/c.txt", "ds/a.txt", "ds/b.txt"},
		sortedKeys(nodes, browser.SortBySize, false))
}
