// Package objstore implements a chunked object store on top of a
// subject-addressed message stream.
//
// Each bucket is one stream. An object's content is split into chunk
// messages on a per-key chunk subject, and its descriptor is kept as the
// single current message on a per-key metadata subject, replaced atomically
// on every commit via a rollup publish. Overwrites mint a fresh version id,
// tag every chunk with it, and purge the previous version's chunks only
// after the new descriptor is durable, so readers resolve either the old
// version or the new one, never a mixture.
package objstore

import (
	"streamfs/pkg/stream"
)

// DefaultChunkSize is the chunk payload size used when a put does not
// choose one.
const DefaultChunkSize = 128 * 1024

// Store is a bucket-scoped object store facade over a stream client.
// It is safe for concurrent use.
type Store struct {
	sc        stream.Client
	chunkSize int
}

// Option configures a Store.
type Option func(*Store)

// WithDefaultChunkSize overrides the store-wide default chunk size.
func WithDefaultChunkSize(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.chunkSize = n
		}
	}
}

// New creates a Store on top of the given stream client.
func New(sc stream.Client, opts ...Option) *Store {
	s := &Store{
		sc:        sc,
		chunkSize: DefaultChunkSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}
