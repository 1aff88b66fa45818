package hoss

import "strings"

// IsPrefix reports whether key names an implicit folder rather than an
// object.
func IsPrefix(key string) bool {
	return strings.HasSuffix(key, "/")
}

// BaseName returns the final path segment of a key or prefix. For a prefix
// the trailing slash is not part of the name.
//
//	BaseName("ds/a/b.txt") == "b.txt"
//	BaseName("ds/a/")      == "a"
func BaseName(key string) string {
	trimmed := strings.TrimSuffix(key, "/")
	if i := strings.LastIndexByte(trimmed, '/'); i >= 0 {
		return trimmed[i+1:]
	}
	return trimmed
}

// ParentPrefix returns the containing prefix of a key or prefix, including
// the trailing slash. The parent of a top-level key is "".
//
//	ParentPrefix("ds/a/b.txt") == "ds/a/"
//	ParentPrefix("ds/a/")      == "ds/"
func ParentPrefix(key string) string {
	trimmed := strings.TrimSuffix(key, "/")
	if i := strings.LastIndexByte(trimmed, '/'); i >= 0 {
		return trimmed[:i+1]
	}
	return ""
}

// Depth counts the slash-delimited segments of a key. A file directly under
// the dataset root ("ds/a.txt") has depth 2; the prefix "ds/sub/" has depth
// 3 counting its empty trailing segment, matching the depth arithmetic used
// by the listing cache.
func Depth(key string) int {
	return strings.Count(key, "/") + 1
}

// Ancestors returns every ancestor prefix of a key, nearest last, excluding
// the key itself.
//
//	Ancestors("ds/a/b/c.txt") == ["ds/", "ds/a/", "ds/a/b/"]
func Ancestors(key string) []string {
	trimmed := strings.TrimSuffix(key, "/")
	var out []string
	for i, r := range trimmed {
		if r == '/' {
			out = append(out, trimmed[:i+1])
		}
	}
	return out
}

// UnderPrefix reports whether key lies strictly below prefix.
func UnderPrefix(key, prefix string) bool {
	return key != prefix && strings.HasPrefix(key, prefix)
}
