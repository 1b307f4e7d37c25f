package objstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"streamfs/pkg/models"
	"streamfs/pkg/stream"
)

// publishInfo commits a descriptor as the single current message on the
// key's metadata subject. The rollup drops every earlier descriptor in the
// same step, and the returned ack is the caller's durability barrier.
func (s *Store) publishInfo(ctx context.Context, info *models.ObjectInfo) error {
	// The stored record carries a zero ModTime; the message's own stored
	// time is authoritative and fills it back in on lookup.
	rec := *info
	rec.ModTime = time.Time{}

	payload, err := json.Marshal(&rec)
	if err != nil {
		return fmt.Errorf("encoding descriptor for %q: %w", info.Name, err)
	}

	_, err = s.sc.Publish(ctx, &stream.Msg{
		Subject: metaSubject(info.Bucket, info.Name),
		Header:  stream.Header{stream.RollupHeader: []string{stream.RollupSubject}},
		Data:    payload,
	})
	if err != nil {
		return fmt.Errorf("committing descriptor for %q: %w", info.Name, err)
	}
	return nil
}

// lookupRaw fetches the current descriptor for (bucket, name), tombstones
// included. Absence is (nil, nil).
func (s *Store) lookupRaw(ctx context.Context, bucket, name string) (*models.ObjectInfo, error) {
	m, err := s.sc.LastMsgForSubject(ctx, streamName(bucket), metaSubject(bucket, name))
	if err != nil {
		switch {
		case errors.Is(err, stream.ErrMessageNotFound):
			return nil, nil
		case errors.Is(err, stream.ErrStreamNotFound):
			return nil, BucketNotFoundError{Bucket: bucket}
		}
		return nil, fmt.Errorf("looking up %q in bucket %q: %w", name, bucket, err)
	}

	var info models.ObjectInfo
	if err := json.Unmarshal(m.Data, &info); err != nil {
		return nil, fmt.Errorf("%w: key %q in bucket %q: %w", ErrBadDescriptor, name, bucket, err)
	}
	info.ModTime = m.Time
	return &info, nil
}

// Lookup returns the current descriptor for (bucket, name), reporting
// absence instead of failing. Deleted objects read as absent.
func (s *Store) Lookup(ctx context.Context, bucket, name string) (*models.ObjectInfo, bool, error) {
	if bucket == "" {
		return nil, false, ErrBucketRequired
	}
	if name == "" {
		return nil, false, ErrNameRequired
	}

	info, err := s.lookupRaw(ctx, bucket, name)
	if err != nil {
		return nil, false, err
	}
	if info == nil || info.Deleted {
		return nil, false, nil
	}
	return info, true, nil
}

// GetInfo returns the current descriptor for (bucket, name), failing with
// NotFoundError when absent.
func (s *Store) GetInfo(ctx context.Context, bucket, name string) (*models.ObjectInfo, error) {
	info, ok, err := s.Lookup(ctx, bucket, name)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, NotFoundError{Bucket: bucket, Key: name}
	}
	return info, nil
}
