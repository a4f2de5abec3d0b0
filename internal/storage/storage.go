// Package storage maps attachment bytes to durable files and stable
// references. Keys are namespaced by tenant, activity and entry so objects
// never collide and an entry's files share one prefix.
package storage

import (
	"fmt"
	"io"
	"path"
)

// Store is the attachment file store. The production implementation writes to
// the local public disk; tests inject failing stores to pin partial-failure
// behavior.
type Store interface {
	// Put writes the object at the given key, creating parent directories as
	// needed. An existing object at the same key is overwritten.
	Put(key string, r io.Reader) error
	// Delete removes the object at the given key.
	Delete(key string) error
	// URL resolves the key to a publicly reachable download URL.
	URL(key string) string
}

// AttachmentKey builds the namespaced storage key for an entry attachment:
// tenants/{t}/activities/{a}/entries/{e}/{filename}
func AttachmentKey(tenantID, activityID, entryID uint, filename string) string {
	return path.Join(
		fmt.Sprintf("tenants/%d", tenantID),
		fmt.Sprintf("activities/%d", activityID),
		fmt.Sprintf("entries/%d", entryID),
		filename,
	)
}
