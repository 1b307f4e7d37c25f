package models

import (
	"time"

	"streamfs/pkg/stream"
)

// BucketConfig describes a bucket to create.
type BucketConfig struct {
	// Bucket is the bucket name. Letters, digits, dash and underscore only.
	Bucket string `json:"bucket"`
	// Description is optional free-form text stored on the backing stream.
	Description string `json:"description,omitempty"`
	// TTL expires objects after the given age. Zero means keep forever.
	TTL time.Duration `json:"max_age,omitempty"`
	// MaxBytes caps the backing stream size. New writes are rejected once
	// the cap is reached; existing data is never evicted to make room.
	MaxBytes int64 `json:"max_bytes,omitempty"`
	// Storage selects the storage class of the backing stream.
	Storage stream.StorageType `json:"storage"`
	// Replicas is the stream replica count. Defaults to 1.
	Replicas int `json:"num_replicas,omitempty"`
	// Compression stores chunk payloads compressed at rest.
	Compression bool `json:"compression,omitempty"`
}

// BucketStatus reports a bucket's configuration and usage.
type BucketStatus struct {
	Bucket      string             `json:"bucket"`
	Description string             `json:"description,omitempty"`
	TTL         time.Duration      `json:"max_age,omitempty"`
	Storage     stream.StorageType `json:"storage"`
	Replicas    int                `json:"num_replicas"`
	Compression bool               `json:"compression,omitempty"`
	// Size is the total byte size held by the backing stream, chunk and
	// metadata messages included.
	Size uint64 `json:"size"`
	// Messages is the backing stream's message count. It approximates but
	// does not equal the object count: each object contributes its chunk
	// messages plus one descriptor.
	Messages uint64    `json:"messages"`
	Created  time.Time `json:"created"`
}

// ObjectListResponse is the gateway's listing payload for one bucket.
type ObjectListResponse struct {
	Bucket  string        `json:"bucket"`
	Objects []*ObjectInfo `json:"objects"`
}

// CreateBucketRequest is the gateway's bucket-creation payload. TTL is a
// Go duration string ("24h", "15m"); empty keeps objects forever.
type CreateBucketRequest struct {
	Description string `json:"description,omitempty"`
	TTL         string `json:"ttl,omitempty"`
	MaxBytes    int64  `json:"max_bytes,omitempty"`
	Memory      bool   `json:"memory,omitempty"`
	Replicas    int    `json:"replicas,omitempty"`
	Compression bool   `json:"compression,omitempty"`
}

// NodeInfo reports gateway runtime information.
type NodeInfo struct {
	Version       string   `json:"version"`
	Uptime        string   `json:"uptime"`
	UptimeSeconds int64    `json:"uptime_seconds"`
	Buckets       []string `json:"buckets,omitempty"`
}
