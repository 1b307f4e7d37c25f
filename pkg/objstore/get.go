package objstore

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"

	"streamfs/pkg/log"
	"streamfs/pkg/models"
	"streamfs/pkg/stream"
)

const (
	// readBuffer bounds the chunks queued between delivery and the
	// caller's reads. A slow reader fills it, which blocks delivery and in
	// turn lets the subscription's flow control pace the stream.
	readBuffer = 16

	// readHeartbeat keeps the flow-controlled subscription alive across
	// delivery lulls.
	readHeartbeat = 5 * time.Second
)

// Object is a readable byte stream over one object version. Reads see the
// version that was current when the object was opened; a concurrent
// overwrite does not bleed into an open reader.
//
// Chunk delivery runs concurrently with the caller's reads through a
// bounded buffer. Close releases the underlying subscription and may be
// called from any goroutine, including while a Read is blocked.
type Object struct {
	info *models.ObjectInfo

	data chan []byte
	buf  []byte

	done      chan struct{}
	closeOnce sync.Once

	mu          sync.Mutex
	deliveryErr error
}

// Open returns a reader over the current version of (bucket, name),
// reporting absence instead of failing. The context governs chunk delivery
// for the whole read, not just the call.
func (s *Store) Open(ctx context.Context, bucket, name string) (*Object, bool, error) {
	info, ok, err := s.Lookup(ctx, bucket, name)
	if err != nil || !ok {
		return nil, false, err
	}

	o := &Object{
		info: info,
		data: make(chan []byte, readBuffer),
		done: make(chan struct{}),
	}

	// An empty object has nothing in flight; the reader is born exhausted.
	if info.Chunks == 0 {
		close(o.data)
		return o, true, nil
	}

	// A fresh delivery address per read keeps concurrent readers of the
	// same key out of each other's traffic. The chunk subject comes from
	// the descriptor's stored key; the requested name may be a sanitized
	// alias that never carried chunks itself.
	sub, err := s.sc.Subscribe(ctx, streamName(bucket), stream.ConsumerConfig{
		DeliverSubject: "_INBOX." + uuid.NewString(),
		FilterSubject:  chunkSubject(bucket, info.Name),
		DeliverPolicy:  stream.DeliverAll,
		AckPolicy:      stream.AckNone,
		MaxDeliver:     1,
		FlowControl:    true,
		IdleHeartbeat:  readHeartbeat,
	})
	if err != nil {
		return nil, false, fmt.Errorf("subscribing to chunks of %q: %w", name, err)
	}

	go o.deliver(ctx, sub)
	return o, true, nil
}

// Get returns a reader over the current version of (bucket, name), failing
// with NotFoundError when absent.
func (s *Store) Get(ctx context.Context, bucket, name string) (*Object, error) {
	o, ok, err := s.Open(ctx, bucket, name)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, NotFoundError{Bucket: bucket, Key: name}
	}
	return o, nil
}

// Info returns the descriptor the object was opened with.
func (o *Object) Info() *models.ObjectInfo {
	return o.info
}

// deliver pumps chunk payloads from the subscription into the read buffer
// until the stream reports no messages pending behind the last delivery.
// That pending count is the only end-of-object signal; nothing cross-checks
// the descriptor's chunk count or digest (callers wanting integrity verify
// the digest themselves after reading).
func (o *Object) deliver(ctx context.Context, sub stream.Subscription) {
	defer func() {
		if err := sub.Unsubscribe(); err != nil {
			log.Warn().Err(err).Str("name", o.info.Name).Msg("Failed to release read subscription")
		}
		close(o.data)
	}()

	for {
		select {
		case d, ok := <-sub.Msgs():
			if !ok {
				o.fail(ErrDeliveryInterrupted)
				return
			}
			if d.Heartbeat {
				continue
			}
			// Chunks of another version share this subject while an
			// overwrite is in flight or a purge is pending; only the
			// opened version's bytes belong to this reader.
			if d.Msg.Header.Get(VersionHeader) != o.info.ID {
				if d.Pending == 0 {
					return
				}
				continue
			}
			select {
			case o.data <- d.Msg.Data:
			case <-o.done:
				return
			case <-ctx.Done():
				o.fail(ctx.Err())
				return
			}
			if d.Pending == 0 {
				return
			}
		case <-o.done:
			return
		case <-ctx.Done():
			o.fail(ctx.Err())
			return
		}
	}
}

func (o *Object) fail(err error) {
	o.mu.Lock()
	o.deliveryErr = err
	o.mu.Unlock()
}

// Read drains buffered chunk payloads. It blocks until data arrives, the
// object ends, delivery fails, or the object is closed.
func (o *Object) Read(p []byte) (int, error) {
	select {
	case <-o.done:
		return 0, ErrReaderClosed
	default:
	}

	for len(o.buf) == 0 {
		select {
		case b, ok := <-o.data:
			if !ok {
				return 0, o.finishErr()
			}
			o.buf = b
		case <-o.done:
			return 0, ErrReaderClosed
		}
	}

	n := copy(p, o.buf)
	o.buf = o.buf[n:]
	return n, nil
}

// finishErr reports how delivery ended once the buffer is fully drained.
func (o *Object) finishErr() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.deliveryErr != nil {
		return o.deliveryErr
	}
	return io.EOF
}

// Close releases the read's subscription. Reads issued after Close fail
// with ErrReaderClosed. Closing twice is harmless.
func (o *Object) Close() error {
	o.closeOnce.Do(func() {
		close(o.done)
	})
	return nil
}
