package api

// ObjectStoreInfo describes the store backing a namespace. Type "minio"
// selects path-style addressing in the objectstore adapter.
type ObjectStoreInfo struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Endpoint string `json:"endpoint"`
}

// NamespaceInfo mirrors the core service's namespace response.
type NamespaceInfo struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	BucketName  string          `json:"bucket_name"`
	ObjectStore ObjectStoreInfo `json:"object_store"`
}

// IsMinio reports whether the namespace is backed by a minio store.
func (n *NamespaceInfo) IsMinio() bool {
	return n.ObjectStore.Type == "minio"
}
