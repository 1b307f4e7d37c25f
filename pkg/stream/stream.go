// Package stream defines the contract between streamfs and the
// subject-addressed message stream it stores objects in. The object store
// consumes exactly this surface; implementations (an in-process one lives in
// memstream) provide durability, ordering and delivery semantics.
//
// Messages are addressed by dot-separated subjects. Within one stream,
// publish order is delivery order per subject; chunk reassembly in the
// object store depends on that guarantee.
package stream

import (
	"context"
	"time"
)

// RollupHeader, when set to RollupSubject on a published message, instructs
// the stream to atomically drop every earlier message on the same subject as
// part of accepting the new one. This is what makes a metadata commit a
// replace instead of an append.
const (
	RollupHeader  = "Streamfs-Rollup"
	RollupSubject = "subject"
)

// Header carries message headers: ordered value lists per key.
type Header map[string][]string

// Get returns the first value associated with the given key, or "" if none.
func (h Header) Get(key string) string {
	if h == nil {
		return ""
	}
	if v := h[key]; len(v) > 0 {
		return v[0]
	}
	return ""
}

// Set replaces any existing values for key with the single given value.
func (h Header) Set(key, value string) {
	h[key] = []string{value}
}

// Add appends a value to the list associated with key.
func (h Header) Add(key, value string) {
	h[key] = append(h[key], value)
}

// Clone returns a deep copy of the header. A nil header clones to nil.
func (h Header) Clone() Header {
	if h == nil {
		return nil
	}
	out := make(Header, len(h))
	for k, v := range h {
		out[k] = append([]string(nil), v...)
	}
	return out
}

// Msg is a message to publish.
type Msg struct {
	Subject string
	Header  Header
	Data    []byte
}

// PubAck acknowledges a durably stored publish. Receiving one is the
// caller's barrier: once returned, the message survives by the stream's
// durability rules.
type PubAck struct {
	Stream   string
	Sequence uint64
}

// StoredMsg is a message fetched back out of a stream.
type StoredMsg struct {
	Subject  string
	Sequence uint64
	Header   Header
	Data     []byte
	// Time is the server-observed time the message was stored.
	Time time.Time
}

// Delivery is one message handed to a push consumer. The payload is a
// private copy the receiver may hold or mutate freely.
type Delivery struct {
	Msg
	Sequence uint64
	// Pending counts the matching messages remaining in the stream after
	// this one, as observed at delivery time. A Pending of zero tells the
	// consumer it has caught up.
	Pending   uint64
	Timestamp time.Time
	// Heartbeat marks an idle-liveness delivery carrying no data.
	Heartbeat bool
}

// Subscription is an ephemeral push consumer bound to one stream.
type Subscription interface {
	// Msgs returns the delivery channel. The channel is bounded; when the
	// consumer stops draining it, delivery blocks, which is the flow-control
	// pacing the object reader relies on. The channel closes after
	// Unsubscribe or when the stream is deleted.
	Msgs() <-chan *Delivery

	// Unsubscribe releases the consumer and its server-side state. It is
	// idempotent and safe to call while deliveries are in flight.
	Unsubscribe() error
}

// Client is the substrate surface streamfs builds on: the data plane
// (publish, lookup, purge, subscribe) plus stream administration. Bucket
// lifecycle maps one-to-one onto stream lifecycle.
type Client interface {
	// Publish stores msg in the stream whose subjects bind msg.Subject and
	// returns after the store is durable. Implementations must not retain
	// msg.Data past the call. A rollup header makes the store a replace for
	// the subject rather than an append.
	Publish(ctx context.Context, msg *Msg) (*PubAck, error)

	// LastMsgForSubject returns the newest message in stream whose subject
	// matches subject (wildcards allowed), or ErrMessageNotFound.
	LastMsgForSubject(ctx context.Context, stream, subject string) (*StoredMsg, error)

	// PurgeSubject removes every message in stream matching subject. A
	// non-nil match narrows removal to messages whose headers contain all
	// the given key/value pairs, letting callers purge one tagged subset of
	// a shared subject.
	PurgeSubject(ctx context.Context, stream, subject string, match Header) error

	// Subscribe creates an ephemeral push consumer on stream.
	Subscribe(ctx context.Context, stream string, cfg ConsumerConfig) (Subscription, error)

	// CreateStream creates a stream. Creating an existing stream with an
	// identical configuration succeeds and returns the existing stream;
	// with a different configuration it fails with ErrStreamExists.
	CreateStream(ctx context.Context, cfg StreamConfig) (*StreamInfo, error)

	// DeleteStream removes a stream, its messages and its consumers.
	DeleteStream(ctx context.Context, name string) error

	// StreamInfo reports a stream's configuration and state.
	StreamInfo(ctx context.Context, name string) (*StreamInfo, error)

	// StreamNames lists the names of all streams in lexical order.
	StreamNames(ctx context.Context) ([]string, error)
}
