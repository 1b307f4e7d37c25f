package objstore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"streamfs/pkg/log"
	"streamfs/pkg/models"
	"streamfs/pkg/stream"
)

// CreateBucket provisions the backing stream for a bucket. Re-creating an
// existing bucket with the same configuration succeeds; with a different
// one it fails with the substrate's stream-exists error.
func (s *Store) CreateBucket(ctx context.Context, cfg models.BucketConfig) error {
	if !validBucketName(cfg.Bucket) {
		return fmt.Errorf("%w: %q", ErrInvalidBucketName, cfg.Bucket)
	}

	_, err := s.sc.CreateStream(ctx, stream.StreamConfig{
		Name:        streamName(cfg.Bucket),
		Description: cfg.Description,
		Subjects: []string{
			allChunkSubjects(cfg.Bucket),
			allMetaSubjects(cfg.Bucket),
		},
		MaxAge:   cfg.TTL,
		MaxBytes: cfg.MaxBytes,
		Storage:  cfg.Storage,
		Replicas: cfg.Replicas,
		// A full bucket rejects writes; silently dropping committed
		// objects to make room would break descriptors.
		Discard:     stream.DiscardNew,
		AllowRollup: true,
		Compression: cfg.Compression,
	})
	if err != nil {
		return fmt.Errorf("creating bucket %q: %w", cfg.Bucket, err)
	}

	log.Info().Str("bucket", cfg.Bucket).Msg("Bucket created")
	return nil
}

// DeleteBucket removes a bucket's backing stream with everything in it.
func (s *Store) DeleteBucket(ctx context.Context, bucket string) error {
	if bucket == "" {
		return ErrBucketRequired
	}

	if err := s.sc.DeleteStream(ctx, streamName(bucket)); err != nil {
		if errors.Is(err, stream.ErrStreamNotFound) {
			return BucketNotFoundError{Bucket: bucket}
		}
		return fmt.Errorf("deleting bucket %q: %w", bucket, err)
	}

	log.Info().Str("bucket", bucket).Msg("Bucket deleted")
	return nil
}

// ListBuckets returns the names of all buckets in lexical order. Streams
// not owned by the object store are skipped.
func (s *Store) ListBuckets(ctx context.Context) ([]string, error) {
	names, err := s.sc.StreamNames(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing buckets: %w", err)
	}

	buckets := make([]string, 0, len(names))
	for _, name := range names {
		if strings.HasPrefix(name, streamPrefix) {
			buckets = append(buckets, strings.TrimPrefix(name, streamPrefix))
		}
	}
	return buckets, nil
}

// Status reports a bucket's configuration and usage.
func (s *Store) Status(ctx context.Context, bucket string) (*models.BucketStatus, error) {
	if bucket == "" {
		return nil, ErrBucketRequired
	}

	info, err := s.sc.StreamInfo(ctx, streamName(bucket))
	if err != nil {
		if errors.Is(err, stream.ErrStreamNotFound) {
			return nil, BucketNotFoundError{Bucket: bucket}
		}
		return nil, fmt.Errorf("fetching status of bucket %q: %w", bucket, err)
	}

	return &models.BucketStatus{
		Bucket:      strings.TrimPrefix(info.Config.Name, streamPrefix),
		Description: info.Config.Description,
		TTL:         info.Config.MaxAge,
		Storage:     info.Config.Storage,
		Replicas:    info.Config.Replicas,
		Compression: info.Config.Compression,
		Size:        info.State.Bytes,
		Messages:    info.State.Msgs,
		Created:     info.Created,
	}, nil
}
