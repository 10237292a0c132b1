// Package blob stores uploaded bytes. Objects are addressed by a key built
// from a prefix and a sanitized filename; writing an existing key replaces
// the previous object.
package blob

import (
	"context"
	"io"
)

// Key prefixes.
const (
	FilesPrefix  = "files"
	PhotosPrefix = "photos"
)

// Store accepts bytes and returns a stable reference to them.
type Store interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error)
}

// URLSigner is implemented by stores that can hand out time-limited
// download links for a reference returned by Put.
type URLSigner interface {
	URL(ctx context.Context, ref string) (string, error)
}

// Key joins prefix and an already sanitized name.
func Key(prefix, name string) string {
	return prefix + "/" + name
}
