package models

// HTTP header names of the gateway API, shared by the server and client.
const (
	// HeaderDescription carries the object description on uploads and
	// downloads.
	HeaderDescription = "X-Streamfs-Description"
	// HeaderMetaPrefix prefixes caller metadata headers. The prefix is
	// stripped on upload and restored on download.
	HeaderMetaPrefix = "X-Streamfs-Meta-"

	HeaderID     = "X-Streamfs-Id"
	HeaderDigest = "X-Streamfs-Digest"
	HeaderChunks = "X-Streamfs-Chunks"
)
