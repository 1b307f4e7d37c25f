package models

import (
	"time"

	"streamfs/pkg/stream"
)

// Header carries caller-supplied object headers: ordered value lists per
// key. It is the stream header type; object headers ride inside the
// descriptor, not on the wire, but share the same shape.
type Header = stream.Header

// ObjectInfo is the descriptor for one stored object version. Exactly one
// descriptor is current per (bucket, key); a new upload replaces it
// atomically on the metadata subject.
type ObjectInfo struct {
	// Bucket is the containing bucket name.
	Bucket string `json:"bucket"`
	// Name is the caller-supplied key, kept verbatim.
	Name string `json:"name"`
	// Description is optional free-form text.
	Description string `json:"description,omitempty"`
	// Headers are optional caller-supplied key/values stored with the object.
	Headers Header `json:"headers,omitempty"`
	// ID identifies this version. A fresh value is minted per upload, even
	// for the same key; chunk messages are tagged with it so one version's
	// chunks can be purged without touching its siblings.
	ID string `json:"id"`
	// Size is the object's byte size.
	Size uint64 `json:"size"`
	// ModTime is the commit time of the descriptor. The stored record
	// carries a zero value; reads overwrite it with the server-observed
	// message time, so the authoritative value always comes from a lookup.
	ModTime time.Time `json:"mtime"`
	// Chunks is the number of chunk messages the object was split into.
	Chunks uint32 `json:"chunks"`
	// Digest is the base64 URL-encoded SHA-256 of the full object content,
	// independent of how the content was chunked.
	Digest string `json:"digest,omitempty"`
	// Deleted marks a tombstone descriptor left behind by a delete.
	Deleted bool `json:"deleted,omitempty"`
}
