package objstore

import (
	"context"
	"fmt"

	"streamfs/pkg/log"
	"streamfs/pkg/models"
)

// Delete removes (bucket, name): a tombstone descriptor replaces the
// current one, then the version's chunks are purged. Unlike the cleanup
// after an overwrite, a failed purge here is surfaced, because the caller
// asked for the space back. Deleting a missing or already-deleted object
// fails with NotFoundError.
func (s *Store) Delete(ctx context.Context, bucket, name string) error {
	if bucket == "" {
		return ErrBucketRequired
	}
	if name == "" {
		return ErrNameRequired
	}

	info, err := s.lookupRaw(ctx, bucket, name)
	if err != nil {
		return err
	}
	if info == nil || info.Deleted {
		return NotFoundError{Bucket: bucket, Key: name}
	}

	// The tombstone keeps the stored key and version id so a later
	// overwrite can still reclaim these chunks if the purge below fails.
	tombstone := &models.ObjectInfo{
		Bucket:  bucket,
		Name:    info.Name,
		ID:      info.ID,
		Deleted: true,
	}
	if err := s.publishInfo(ctx, tombstone); err != nil {
		return err
	}

	if err := s.purgeVersion(ctx, bucket, info.Name, info.ID); err != nil {
		return fmt.Errorf("purging chunks of %q: %w", name, err)
	}

	log.Info().Str("bucket", bucket).Str("name", name).Msg("Object deleted")
	return nil
}
