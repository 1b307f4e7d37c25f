package objstore

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"streamfs/pkg/models"
)

// PutBytes stores data under (bucket, name).
func (s *Store) PutBytes(ctx context.Context, bucket, name string, data []byte, opts ...PutOption) (*models.ObjectInfo, error) {
	return s.Put(ctx, bucket, name, bytes.NewReader(data), opts...)
}

// GetBytes reads the whole of (bucket, name) into memory.
func (s *Store) GetBytes(ctx context.Context, bucket, name string) ([]byte, error) {
	obj, err := s.Get(ctx, bucket, name)
	if err != nil {
		return nil, err
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, fmt.Errorf("reading %q from bucket %q: %w", name, bucket, err)
	}
	return data, nil
}

// PutString stores value under (bucket, name).
func (s *Store) PutString(ctx context.Context, bucket, name, value string, opts ...PutOption) (*models.ObjectInfo, error) {
	return s.Put(ctx, bucket, name, strings.NewReader(value), opts...)
}

// GetString reads the whole of (bucket, name) as a string.
func (s *Store) GetString(ctx context.Context, bucket, name string) (string, error) {
	data, err := s.GetBytes(ctx, bucket, name)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// PutFile stores the file at path under its path as the object name.
func (s *Store) PutFile(ctx context.Context, bucket, path string, opts ...PutOption) (*models.ObjectInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %q: %w", path, err)
	}
	defer f.Close()

	return s.Put(ctx, bucket, path, f, opts...)
}

// GetFile writes the content of (bucket, name) to the file at path,
// replacing it if it exists.
func (s *Store) GetFile(ctx context.Context, bucket, name, path string) error {
	obj, err := s.Get(ctx, bucket, name)
	if err != nil {
		return err
	}
	defer obj.Close()

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %q: %w", path, err)
	}

	if _, err := io.Copy(f, obj); err != nil {
		_ = f.Close()
		return fmt.Errorf("writing %q to %q: %w", name, path, err)
	}
	return f.Close()
}
