// Package blob stores profile images and computes their public URLs.
//
// Keys are forward-slash separated, namespaced by pair:
// "{pair_id}/{unix_millis}_{filename}". Backends are S3 (any S3-compatible
// object store), a local directory served by the web server, and an
// in-memory store for tests.
package blob

import (
	"context"
	"io"
	"net/url"
	"strings"
)

// Store writes image objects and resolves their public URLs.
// Implementations must be safe for concurrent use.
type Store interface {
	// Put writes body under key. size may be -1 when unknown.
	Put(ctx context.Context, key, contentType string, body io.Reader, size int64) error

	// Delete removes the object. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// PublicURL returns the URL the object can be fetched from.
	PublicURL(key string) string
}

// joinURL appends an escaped object key to a base URL.
func joinURL(base, key string) string {
	segments := strings.Split(key, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return strings.TrimRight(base, "/") + "/" + strings.Join(segments, "/")
}
