package browser

import (
	"strings"
	"sync"
	"time"

	"github.com/hossdata/hoss"
)

// Node is one rendered row of the tree: a file or a folder with its
// per-node selection and expansion state.
type Node struct {
	Key          string
	IsDir        bool
	Size         int64
	LastModified time.Time
	ETag         string
	Selected     bool
	Expanded     bool
}

type fileNode struct {
	info     hoss.FileInfo
	selected bool
}

type folderNode struct {
	selected bool
	expanded bool
	loaded   bool
}

// Cache mirrors the remote key space as two parallel maps keyed by full
// key/prefix string. Merges are commutative upserts: two sibling listing
// responses may race and land in either order with the same result. Nodes
// are removed only explicitly, after a confirmed delete or move.
type Cache struct {
	mu      sync.RWMutex
	files   map[string]*fileNode
	folders map[string]*folderNode
}

// NewCache creates an empty cache.
func NewCache() *Cache {
	return &Cache{
		files:   make(map[string]*fileNode),
		folders: make(map[string]*folderNode),
	}
}

// MergeListing upserts one delimited listing page and marks its prefix
// loaded. selected carries tri-state semantics: nil preserves each existing
// node's selection, a non-nil value forces it onto every merged node.
func (c *Cache) MergeListing(listing *hoss.Listing, selected *bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, f := range listing.Files {
		if strings.HasSuffix(f.Key, "/") {
			// Placeholder objects are folders, never files.
			c.upsertFolder(f.Key, selected)
			continue
		}
		c.upsertFile(f, selected)
	}
	for _, folder := range listing.CommonPrefixes {
		c.upsertFolder(folder.Prefix, selected)
	}

	if listing.Prefix != "" {
		node := c.folder(listing.Prefix)
		node.loaded = true
	}
}

// MergeFiles upserts file nodes with the same tri-state override as
// MergeListing.
func (c *Cache) MergeFiles(files []hoss.FileInfo, selected *bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, f := range files {
		c.upsertFile(f, selected)
	}
}

// MergeFolders upserts folder nodes.
func (c *Cache) MergeFolders(prefixes []string, selected *bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, p := range prefixes {
		c.upsertFolder(p, selected)
	}
}

func (c *Cache) upsertFile(info hoss.FileInfo, selected *bool) {
	node, ok := c.files[info.Key]
	if !ok {
		node = &fileNode{}
		c.files[info.Key] = node
	}
	node.info = info
	if selected != nil {
		node.selected = *selected
	}
}

func (c *Cache) upsertFolder(prefix string, selected *bool) {
	node := c.folder(prefix)
	if selected != nil {
		node.selected = *selected
	}
}

// folder returns the node for prefix, creating it if needed. Callers hold
// c.mu.
func (c *Cache) folder(prefix string) *folderNode {
	node, ok := c.folders[prefix]
	if !ok {
		node = &folderNode{}
		c.folders[prefix] = node
	}
	return node
}

// AddFolder registers a cache-only folder. Folders are implicit prefixes in
// the remote store, so nothing is written until a file lands under one.
// A name colliding with an existing sibling is rejected.
func (c *Cache) AddFolder(parent, name string) (string, error) {
	if name == "" {
		return "", ErrEmptyName
	}
	prefix := parent + name + "/"

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.folders[prefix]; exists {
		return "", ErrDuplicateFolder
	}
	c.folders[prefix] = &folderNode{}
	return prefix, nil
}

// Remove deletes nodes by exact key. A trailing-slash key removes the
// folder and every descendant.
func (c *Cache) Remove(keys ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, key := range keys {
		if !strings.HasSuffix(key, "/") {
			delete(c.files, key)
			continue
		}
		delete(c.folders, key)
		for k := range c.files {
			if strings.HasPrefix(k, key) {
				delete(c.files, k)
			}
		}
		for p := range c.folders {
			if strings.HasPrefix(p, key) {
				delete(c.folders, p)
			}
		}
	}
}

// Loaded reports whether a list call for prefix has completed, making its
// children trustworthy.
func (c *Cache) Loaded(prefix string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	node, ok := c.folders[prefix]
	return ok && node.loaded
}

// SetExpanded toggles a folder's expansion flag.
func (c *Cache) SetExpanded(prefix string, expanded bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.folder(prefix).expanded = expanded
}

// VisibleChildren returns the direct children of prefix: nodes exactly one
// level below it. The dataset manifest file and any placeholder keyed as
// the prefix itself are filtered out.
func (c *Cache) VisibleChildren(prefix string) []Node {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var nodes []Node
	for key, node := range c.files {
		if hoss.ParentPrefix(key) != prefix {
			continue
		}
		if hoss.BaseName(key) == hoss.DatasetManifest {
			continue
		}
		nodes = append(nodes, Node{
			Key:          key,
			Size:         node.info.Size,
			LastModified: node.info.LastModified,
			ETag:         node.info.ETag,
			Selected:     node.selected,
		})
	}
	for p, node := range c.folders {
		if p == prefix || hoss.ParentPrefix(p) != prefix {
			continue
		}
		nodes = append(nodes, Node{
			Key:      p,
			IsDir:    true,
			Selected: node.selected,
			Expanded: node.expanded,
		})
	}
	return nodes
}

// Selected returns every selected file key and folder prefix.
func (c *Cache) Selected() (files, folders []string) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for key, node := range c.files {
		if node.selected {
			files = append(files, key)
		}
	}
	for p, node := range c.folders {
		if node.selected {
			folders = append(folders, p)
		}
	}
	return files, folders
}

// Len returns the number of cached file and folder nodes.
func (c *Cache) Len() (files, folders int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.files), len(c.folders)
}
