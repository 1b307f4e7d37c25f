package objstore

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"streamfs/pkg/log"
	"streamfs/pkg/models"
	"streamfs/pkg/stream"
)

type putOptions struct {
	description string
	headers     models.Header
	chunkSize   int
}

// PutOption configures a single put.
type PutOption func(*putOptions)

// WithDescription stores free-form text on the object's descriptor.
func WithDescription(description string) PutOption {
	return func(o *putOptions) {
		o.description = description
	}
}

// WithHeaders stores caller-supplied key/values on the object's descriptor.
func WithHeaders(headers models.Header) PutOption {
	return func(o *putOptions) {
		o.headers = headers
	}
}

// WithChunkSize overrides the chunk size for this put only.
func WithChunkSize(n int) PutOption {
	return func(o *putOptions) {
		if n > 0 {
			o.chunkSize = n
		}
	}
}

// Put streams src into (bucket, name) as the key's new current version.
//
// Content is read in chunk-size slices; each non-empty slice feeds the
// running digest and is published as one tagged chunk message, in order,
// before the next slice is read. A zero-length read ends the content. Once
// the source is exhausted the descriptor commit atomically replaces the
// key's previous descriptor, and only then are the previous version's
// chunks reclaimed. If reading or publishing fails mid-way, this attempt's
// chunks are purged best-effort and the key's previous version stays
// current.
func (s *Store) Put(ctx context.Context, bucket, name string, src io.Reader, opts ...PutOption) (*models.ObjectInfo, error) {
	if bucket == "" {
		return nil, ErrBucketRequired
	}
	if name == "" {
		return nil, ErrNameRequired
	}

	opt := putOptions{chunkSize: s.chunkSize}
	for _, apply := range opts {
		apply(&opt)
	}

	// The previous descriptor, tombstone or not, names the version whose
	// chunks become garbage once this put commits.
	prior, err := s.lookupRaw(ctx, bucket, name)
	if err != nil {
		return nil, err
	}

	id := uuid.Must(uuid.NewV7()).String()
	subject := chunkSubject(bucket, name)
	tag := stream.Header{VersionHeader: []string{id}}

	var (
		digest = sha256.New()
		buf    = make([]byte, opt.chunkSize)
		size   uint64
		chunks uint32
	)
	for {
		n, readErr := src.Read(buf)
		if n > 0 {
			digest.Write(buf[:n])
			if _, err := s.sc.Publish(ctx, &stream.Msg{Subject: subject, Header: tag, Data: buf[:n]}); err != nil {
				s.discardVersion(ctx, bucket, name, id)
				return nil, fmt.Errorf("publishing chunk %d of %q: %w", chunks+1, name, err)
			}
			chunks++
			size += uint64(n)
		}
		if readErr != nil {
			if errors.Is(readErr, io.EOF) {
				break
			}
			s.discardVersion(ctx, bucket, name, id)
			return nil, fmt.Errorf("reading content for %q: %w", name, readErr)
		}
		if n == 0 {
			// A zero-length read means the source is done, not that it
			// wants to be retried.
			break
		}
	}

	info := &models.ObjectInfo{
		Bucket:      bucket,
		Name:        name,
		Description: opt.description,
		Headers:     opt.headers.Clone(),
		ID:          id,
		Size:        size,
		Chunks:      chunks,
		Digest:      base64.URLEncoding.EncodeToString(digest.Sum(nil)),
	}
	if err := s.publishInfo(ctx, info); err != nil {
		s.discardVersion(ctx, bucket, name, id)
		return nil, err
	}

	if prior != nil {
		// The prior version's chunks live on its own stored key, which may
		// differ from this write's when the two are sanitized aliases.
		s.reclaimVersion(ctx, bucket, prior.Name, prior.ID)
	}

	log.Info().
		Str("bucket", bucket).
		Str("name", name).
		Uint64("size", size).
		Uint32("chunks", chunks).
		Msg("Object stored")

	// The committed record's time is server-side; hand the caller a
	// provisional local one until a lookup replaces it.
	info.ModTime = time.Now().UTC()
	return info, nil
}

// purgeVersion removes the chunk messages of one version of a key.
func (s *Store) purgeVersion(ctx context.Context, bucket, name, id string) error {
	return s.sc.PurgeSubject(ctx, streamName(bucket), chunkSubject(bucket, name),
		stream.Header{VersionHeader: []string{id}})
}

// discardVersion rolls back a failed put attempt. Best-effort: the put's
// own error is what the caller gets, not the cleanup's.
func (s *Store) discardVersion(ctx context.Context, bucket, name, id string) {
	if err := s.purgeVersion(ctx, bucket, name, id); err != nil {
		log.Warn().Err(err).
			Str("bucket", bucket).
			Str("name", name).
			Msg("Failed to roll back chunks of aborted put")
	}
}

// reclaimVersion purges the chunks a committed overwrite made unreachable.
// Best-effort: the new version is already durable, leftovers cost space,
// not correctness.
func (s *Store) reclaimVersion(ctx context.Context, bucket, name, id string) {
	if err := s.purgeVersion(ctx, bucket, name, id); err != nil {
		log.Warn().Err(err).
			Str("bucket", bucket).
			Str("name", name).
			Msg("Failed to reclaim chunks of previous version")
	}
}
