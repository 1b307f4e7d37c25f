package objstore

import (
	"errors"
	"fmt"
)

// ErrObjectNotFound indicates the key has no current descriptor.
var ErrObjectNotFound = errors.New("object not found")

// ErrBucketNotFound indicates the bucket's backing stream does not exist.
var ErrBucketNotFound = errors.New("bucket not found")

// ErrInvalidBucketName indicates a bucket name outside the allowed format.
var ErrInvalidBucketName = errors.New("invalid bucket name")

// ErrNameRequired indicates an empty object key.
var ErrNameRequired = errors.New("object name required")

// ErrBucketRequired indicates an empty bucket name.
var ErrBucketRequired = errors.New("bucket name required")

// ErrBadDescriptor indicates a metadata message that did not decode as a
// descriptor.
var ErrBadDescriptor = errors.New("corrupt object descriptor")

// ErrReaderClosed is returned by reads on an object the caller closed.
var ErrReaderClosed = errors.New("object reader closed")

// ErrDeliveryInterrupted is returned when chunk delivery ended before the
// stream reported the read caught up, e.g. because the bucket was deleted
// mid-read.
var ErrDeliveryInterrupted = errors.New("chunk delivery interrupted")

// NotFoundError is returned by or-fail lookups for a missing object.
type NotFoundError struct {
	Bucket string
	Key    string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("object %q not found in bucket %q", e.Key, e.Bucket)
}

func (e NotFoundError) Unwrap() error {
	return ErrObjectNotFound
}

// BucketNotFoundError is returned when an operation targets a bucket that
// was never created or has been deleted.
type BucketNotFoundError struct {
	Bucket string
}

func (e BucketNotFoundError) Error() string {
	return fmt.Sprintf("bucket %q not found", e.Bucket)
}

func (e BucketNotFoundError) Unwrap() error {
	return ErrBucketNotFound
}
