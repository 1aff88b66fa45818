package hoss

import "fmt"

// URI synthesizes the shareable identifier for an object. The format is
// load-bearing: other Hoss tooling parses it back into its three parts.
//
//	hoss+<origin>:<namespace>:<objectKey>
func URI(origin, namespace, objectKey string) string {
	return fmt.Sprintf("hoss+%s:%s:%s", origin, namespace, objectKey)
}
