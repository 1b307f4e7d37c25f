package stream

import (
	"encoding/json"
	"fmt"
	"time"
)

// StorageType selects where a stream keeps its messages.
type StorageType int

const (
	// FileStorage persists messages to disk.
	FileStorage StorageType = iota
	// MemoryStorage keeps messages in memory only.
	MemoryStorage
)

func (st StorageType) String() string {
	switch st {
	case FileStorage:
		return "file"
	case MemoryStorage:
		return "memory"
	default:
		return "unknown"
	}
}

// MarshalJSON encodes the storage type as its string name.
func (st StorageType) MarshalJSON() ([]byte, error) {
	switch st {
	case FileStorage, MemoryStorage:
		return json.Marshal(st.String())
	default:
		return nil, fmt.Errorf("unknown storage type %d", int(st))
	}
}

// UnmarshalJSON decodes a storage type from its string name.
func (st *StorageType) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	switch name {
	case "file":
		*st = FileStorage
	case "memory":
		*st = MemoryStorage
	default:
		return fmt.Errorf("unknown storage type %q", name)
	}
	return nil
}

// DiscardPolicy controls what happens when a stream hits its size limit.
type DiscardPolicy int

const (
	// DiscardOld evicts the oldest messages to make room.
	DiscardOld DiscardPolicy = iota
	// DiscardNew rejects incoming messages once the stream is full.
	DiscardNew
)

func (dp DiscardPolicy) String() string {
	switch dp {
	case DiscardOld:
		return "old"
	case DiscardNew:
		return "new"
	default:
		return "unknown"
	}
}

// DeliverPolicy controls where a consumer starts in the stream.
type DeliverPolicy int

const (
	// DeliverAll delivers every stored message from the start.
	DeliverAll DeliverPolicy = iota
	// DeliverLastPerSubject delivers the newest message of each matching
	// subject, then tails new messages.
	DeliverLastPerSubject
	// DeliverNew delivers only messages stored after the consumer existed.
	DeliverNew
)

// AckPolicy controls per-message acknowledgment requirements.
type AckPolicy int

const (
	// AckNone delivers fire-and-forget: nothing is tracked, nothing is
	// redelivered.
	AckNone AckPolicy = iota
	// AckExplicit requires a consumer acknowledgment per message.
	AckExplicit
)

// StreamConfig describes a stream to create.
type StreamConfig struct {
	Name        string        `json:"name"`
	Description string        `json:"description,omitempty"`
	Subjects    []string      `json:"subjects"`
	MaxAge      time.Duration `json:"max_age,omitempty"`
	MaxBytes    int64         `json:"max_bytes,omitempty"`
	Storage     StorageType   `json:"storage"`
	Replicas    int           `json:"num_replicas,omitempty"`
	Discard     DiscardPolicy `json:"discard"`
	// AllowRollup permits publishes carrying the rollup header. Streams
	// holding replace-on-commit state (object metadata) need it.
	AllowRollup bool `json:"allow_rollup_hdrs"`
	// Compression stores payloads compressed at rest.
	Compression bool `json:"compression,omitempty"`
}

// ConsumerConfig describes an ephemeral push consumer.
type ConsumerConfig struct {
	// DeliverSubject is the unique delivery address for this consumer.
	// Callers derive a fresh one per subscription so concurrent consumers
	// of the same subject never cross-talk.
	DeliverSubject string
	// FilterSubject narrows delivery to matching subjects. Empty means
	// every subject in the stream.
	FilterSubject string
	Description   string
	DeliverPolicy DeliverPolicy
	AckPolicy     AckPolicy
	// MaxDeliver caps delivery attempts per message. With AckNone there is
	// never a second attempt; a value of 1 pins that expectation.
	MaxDeliver int
	// FlowControl paces delivery against the consumer draining its window.
	// Requires IdleHeartbeat.
	FlowControl bool
	// IdleHeartbeat emits empty liveness deliveries when no data flows, so
	// a stalled producer can be told apart from silence.
	IdleHeartbeat time.Duration
}

// StreamState is a stream's usage counters.
type StreamState struct {
	Msgs      uint64 `json:"messages"`
	Bytes     uint64 `json:"bytes"`
	FirstSeq  uint64 `json:"first_seq"`
	LastSeq   uint64 `json:"last_seq"`
	Consumers int    `json:"consumer_count"`
}

// StreamInfo reports a stream's configuration and current state.
type StreamInfo struct {
	Config  StreamConfig `json:"config"`
	Created time.Time    `json:"created"`
	State   StreamState  `json:"state"`
}
