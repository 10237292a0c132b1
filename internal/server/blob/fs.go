package blob

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/dmitrijs2005/threatscope/internal/filex"
)

// FSStore keeps objects as files under a root directory.
type FSStore struct {
	root string
}

// NewFSStore creates root if needed.
func NewFSStore(root string) (*FSStore, error) {
	abs, err := filex.EnsureDir(root)
	if err != nil {
		return nil, fmt.Errorf("blob store error: %w", err)
	}
	return &FSStore{root: abs}, nil
}

// Root returns the absolute directory objects are written to.
func (s *FSStore) Root() string {
	return s.root
}

// Put writes r to root/key and returns key. size is not enforced here.
func (s *FSStore) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	rel := filepath.FromSlash(key)
	if !filepath.IsLocal(rel) {
		return "", fmt.Errorf("blob store error: key %q escapes root", key)
	}

	if _, err := filex.WriteFileAtomic(filepath.Join(s.root, rel), r); err != nil {
		return "", fmt.Errorf("blob store error: %w", err)
	}
	return key, nil
}
