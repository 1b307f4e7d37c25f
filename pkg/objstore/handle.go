package objstore

import (
	"context"
	"errors"
	"fmt"
	"io"

	"streamfs/pkg/models"
	"streamfs/pkg/stream"
)

// Bucket is a handle bound to one bucket. It carries the store reference
// explicitly and delegates every operation with the bound name; callers
// that work inside a single bucket can pass the handle around instead of
// repeating the name.
type Bucket struct {
	store *Store
	name  string
}

// Bucket binds a handle to an existing bucket. Binding to a missing
// bucket fails with BucketNotFoundError.
func (s *Store) Bucket(ctx context.Context, name string) (*Bucket, error) {
	if name == "" {
		return nil, ErrBucketRequired
	}

	if _, err := s.sc.StreamInfo(ctx, streamName(name)); err != nil {
		if errors.Is(err, stream.ErrStreamNotFound) {
			return nil, BucketNotFoundError{Bucket: name}
		}
		return nil, fmt.Errorf("binding bucket %q: %w", name, err)
	}

	return &Bucket{store: s, name: name}, nil
}

// Name returns the bound bucket name.
func (b *Bucket) Name() string {
	return b.name
}

// Put stores src under name in the bound bucket.
func (b *Bucket) Put(ctx context.Context, name string, src io.Reader, opts ...PutOption) (*models.ObjectInfo, error) {
	return b.store.Put(ctx, b.name, name, src, opts...)
}

// Lookup returns the current descriptor of name, or found=false.
func (b *Bucket) Lookup(ctx context.Context, name string) (*models.ObjectInfo, bool, error) {
	return b.store.Lookup(ctx, b.name, name)
}

// GetInfo returns the current descriptor of name, or a not-found error.
func (b *Bucket) GetInfo(ctx context.Context, name string) (*models.ObjectInfo, error) {
	return b.store.GetInfo(ctx, b.name, name)
}

// Open starts reading name, or returns found=false.
func (b *Bucket) Open(ctx context.Context, name string) (*Object, bool, error) {
	return b.store.Open(ctx, b.name, name)
}

// Get starts reading name, or returns a not-found error.
func (b *Bucket) Get(ctx context.Context, name string) (*Object, error) {
	return b.store.Get(ctx, b.name, name)
}

// Delete tombstones name and purges its chunks.
func (b *Bucket) Delete(ctx context.Context, name string) error {
	return b.store.Delete(ctx, b.name, name)
}

// List returns the current descriptor of every live object in the bucket.
func (b *Bucket) List(ctx context.Context) ([]*models.ObjectInfo, error) {
	return b.store.List(ctx, b.name)
}

// Status reports the bucket's configuration and usage.
func (b *Bucket) Status(ctx context.Context) (*models.BucketStatus, error) {
	return b.store.Status(ctx, b.name)
}

// PutBytes stores data under name.
func (b *Bucket) PutBytes(ctx context.Context, name string, data []byte, opts ...PutOption) (*models.ObjectInfo, error) {
	return b.store.PutBytes(ctx, b.name, name, data, opts...)
}

// GetBytes reads all of name into memory.
func (b *Bucket) GetBytes(ctx context.Context, name string) ([]byte, error) {
	return b.store.GetBytes(ctx, b.name, name)
}

// PutString stores value under name.
func (b *Bucket) PutString(ctx context.Context, name, value string, opts ...PutOption) (*models.ObjectInfo, error) {
	return b.store.PutString(ctx, b.name, name, value, opts...)
}

// GetString reads all of name as a string.
func (b *Bucket) GetString(ctx context.Context, name string) (string, error) {
	return b.store.GetString(ctx, b.name, name)
}

// PutFile stores the file at path under its path as the object name.
func (b *Bucket) PutFile(ctx context.Context, path string, opts ...PutOption) (*models.ObjectInfo, error) {
	return b.store.PutFile(ctx, b.name, path, opts...)
}

// GetFile writes the content of name to the file at path.
func (b *Bucket) GetFile(ctx context.Context, name, path string) error {
	return b.store.GetFile(ctx, b.name, name, path)
}
