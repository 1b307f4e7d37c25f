package objstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"streamfs/pkg/models"
	"streamfs/pkg/stream"
)

// List returns the current descriptor of every live object in the bucket,
// oldest commit first. Deleted objects are omitted. An empty bucket lists
// as an empty slice, not an error.
func (s *Store) List(ctx context.Context, bucket string) ([]*models.ObjectInfo, error) {
	if bucket == "" {
		return nil, ErrBucketRequired
	}

	// No descriptors at all means nothing to drain; without this check an
	// empty bucket would leave the consumer below waiting forever for a
	// first delivery.
	_, err := s.sc.LastMsgForSubject(ctx, streamName(bucket), allMetaSubjects(bucket))
	switch {
	case errors.Is(err, stream.ErrMessageNotFound):
		return []*models.ObjectInfo{}, nil
	case errors.Is(err, stream.ErrStreamNotFound):
		return nil, BucketNotFoundError{Bucket: bucket}
	case err != nil:
		return nil, fmt.Errorf("listing bucket %q: %w", bucket, err)
	}

	sub, err := s.sc.Subscribe(ctx, streamName(bucket), stream.ConsumerConfig{
		DeliverSubject: "_INBOX." + uuid.NewString(),
		FilterSubject:  allMetaSubjects(bucket),
		DeliverPolicy:  stream.DeliverLastPerSubject,
		AckPolicy:      stream.AckNone,
		MaxDeliver:     1,
	})
	if err != nil {
		return nil, fmt.Errorf("subscribing to descriptors of bucket %q: %w", bucket, err)
	}
	defer func() { _ = sub.Unsubscribe() }()

	var infos []*models.ObjectInfo
	for {
		select {
		case d, ok := <-sub.Msgs():
			if !ok {
				return nil, fmt.Errorf("listing bucket %q: %w", bucket, ErrDeliveryInterrupted)
			}
			if d.Heartbeat {
				continue
			}

			var info models.ObjectInfo
			if err := json.Unmarshal(d.Msg.Data, &info); err != nil {
				return nil, fmt.Errorf("%w: subject %q: %w", ErrBadDescriptor, d.Msg.Subject, err)
			}
			info.ModTime = d.Timestamp
			if !info.Deleted {
				infos = append(infos, &info)
			}

			if d.Pending == 0 {
				if infos == nil {
					infos = []*models.ObjectInfo{}
				}
				return infos, nil
			}
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}
