package cache

import "errors"

// ErrNotFound is returned by Load when no artifact is stored under a key.
// It is a normal lookup outcome, not a pipeline failure.
var ErrNotFound = errors.New("artifact not found")

// ArtifactCache is a content-addressed store of fetched sub-resources.
// Keys are stable hashes of the canonical source URL. Blobs are written once
// and never expire; error placeholders count as stored content so a failed
// fetch is never repeated.
type ArtifactCache interface {
	// Exists reports whether a blob is stored under the key
	Exists(key string) bool

	// Store writes the blob, atomically with respect to process crash
	Store(key string, data []byte) error

	// Load reads the blob, returning ErrNotFound when absent
	Load(key string) ([]byte, error)
}
