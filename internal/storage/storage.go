// Package storage defines the temporary cloud storage contract
// (spec.md §4.5, §6): materializing a local file behind a presigned
// URL, and releasing it on cleanup.
package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// Object is a temporary cloud storage object: a presigned URL and the
// key the engine must release in cleanup.
type Object struct {
	Key          string
	PresignedURL string
}

// Adapter is the temporary cloud storage contract.
type Adapter interface {
	// Put uploads the file at path and returns a presigned URL.
	Put(path string) (Object, error)
	// Release deletes a previously-Put object.
	Release(key string) error
}

// LocalAdapter is the default Adapter: materializes objects under a
// local directory and serves them via a file:// URL. Production
// deployments inject a real presigned-URL-issuing adapter (S3, Azure
// Blob, …) behind the same interface.
type LocalAdapter struct {
	dir string
}

// NewLocalAdapter returns an Adapter rooted at dir.
func NewLocalAdapter(dir string) *LocalAdapter {
	return &LocalAdapter{dir: dir}
}

// Put implements Adapter.
func (a *LocalAdapter) Put(path string) (Object, error) {
	key := uuid.NewString()
	dest := filepath.Join(a.dir, key)

	if err := os.MkdirAll(a.dir, 0o755); err != nil {
		return Object{}, fmt.Errorf("creating temporary cloud storage dir: %w", err)
	}

	src, err := os.Open(path)
	if err != nil {
		return Object{}, err
	}
	defer src.Close()

	dst, err := os.Create(dest)
	if err != nil {
		return Object{}, err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return Object{}, err
	}

	return Object{Key: key, PresignedURL: "file://" + dest}, nil
}

// Release implements Adapter.
func (a *LocalAdapter) Release(key string) error {
	path := filepath.Join(a.dir, key)
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("releasing temporary cloud storage object %s: %w", key, err)
	}
	return nil
}
