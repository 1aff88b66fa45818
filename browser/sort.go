package browser

import "sort"

// SortField picks the file comparator. Folders always compare by name.
type SortField string

const (
	SortByName     SortField = "name"
	SortBySize     SortField = "size"
	SortByModified SortField = "modified"
)

// SortNodes orders nodes in place: folders first, then files, each group
// ordered by the requested field and direction. The sort is stable, so
// equal nodes keep their original order; there is no secondary key.
func SortNodes(nodes []Node, field SortField, ascending bool) {
	sort.SliceStable(nodes, func(i, j int) bool {
		a, b := nodes[i], nodes[j]
		if a.IsDir != b.IsDir {
			return a.IsDir
		}

		f := field
		if a.IsDir {
			f = SortByName
		}

		var less, equal bool
		switch f {
		case SortBySize:
			less, equal = a.Size < b.Size, a.Size == b.Size
		case SortByModified:
			less, equal = a.LastModified.Before(b.LastModified), a.LastModified.Equal(b.LastModified)
		default:
			less, equal = a.Key < b.Key, a.Key == b.Key
		}

		if equal {
			return false
		}
		if ascending {
			return less
		}
		return !less
	})
}
