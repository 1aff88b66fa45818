package browser

import (
	"strings"

	"github.com/hossdata/hoss"
)

// Select sets one node's selection and re-derives the rest of the tree:
// selecting a folder cascades to every currently known descendant, and
// ancestors are promoted or demoted from their children's state. Only
// loaded siblings participate in promotion, so a parent can read as
// selected while unfetched descendants are not; the tree reconverges once
// those prefixes load.
func (c *Cache) Select(key string, selected bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if strings.HasSuffix(key, "/") {
		c.folder(key).selected = selected
		c.cascade(key, selected)
	} else if node, ok := c.files[key]; ok {
		node.selected = selected
	} else {
		return
	}

	c.reconcileAncestors(key, selected)
}

// SelectAll sets every node under prefix, and prefix itself when it is a
// cached folder.
func (c *Cache) SelectAll(prefix string, selected bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if node, ok := c.folders[prefix]; ok {
		node.selected = selected
	}
	c.cascade(prefix, selected)
	c.reconcileAncestors(prefix, selected)
}

// cascade forces selection onto every known descendant of prefix. Callers
// hold c.mu.
func (c *Cache) cascade(prefix string, selected bool) {
	for key, node := range c.files {
		if strings.HasPrefix(key, prefix) {
			node.selected = selected
		}
	}
	for p, node := range c.folders {
		if hoss.UnderPrefix(p, prefix) {
			node.selected = selected
		}
	}
}

// reconcileAncestors walks from the nearest ancestor up. A deselection
// demotes every ancestor; a selection promotes an ancestor only while all
// of its known direct children are selected. Callers hold c.mu.
func (c *Cache) reconcileAncestors(key string, selected bool) {
	ancestors := hoss.Ancestors(key)
	for i := len(ancestors) - 1; i >= 0; i-- {
		node, ok := c.folders[ancestors[i]]
		if !ok {
			continue
		}
		if !selected {
			node.selected = false
			continue
		}
		if !c.allChildrenSelected(ancestors[i]) {
			return
		}
		node.selected = true
	}
}

// allChildrenSelected reports whether every known direct child of prefix is
// selected. The invisible dataset manifest does not count. Callers hold
// c.mu.
func (c *Cache) allChildrenSelected(prefix string) bool {
	for key, node := range c.files {
		if hoss.ParentPrefix(key) != prefix || hoss.BaseName(key) == hoss.DatasetManifest {
			continue
		}
		if !node.selected {
			return false
		}
	}
	for p, node := range c.folders {
		if p == prefix || hoss.ParentPrefix(p) != prefix {
			continue
		}
		if !node.selected {
			return false
		}
	}
	return true
}

// Partial reports whether prefix has a mix of selected and unselected
// known descendants, for the indeterminate checkbox rendering.
func (c *Cache) Partial(prefix string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	seenSelected, seenUnselected := false, false
	consider := func(selected bool) {
		if selected {
			seenSelected = true
		} else {
			seenUnselected = true
		}
	}

	for key, node := range c.files {
		if !hoss.UnderPrefix(key, prefix) || hoss.BaseName(key) == hoss.DatasetManifest {
			continue
		}
		consider(node.selected)
	}
	for p, node := range c.folders {
		if !hoss.UnderPrefix(p, prefix) {
			continue
		}
		consider(node.selected)
	}
	return seenSelected && seenUnselected
}
