package objstore

import (
	"fmt"
	"regexp"
	"strings"
)

// VersionHeader tags every chunk message with the version id of the upload
// that produced it. Purges filter on it, so reclaiming one version leaves
// chunks of any other version on the same subject untouched.
const VersionHeader = "Streamfs-Version"

const (
	subjectPrefix = "$O"
	streamPrefix  = "OBJ_"
)

// bucketNamePattern defines the valid format for bucket names.
var bucketNamePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// keySanitizer rewrites characters that would split or terminate a subject
// token. Distinct keys may sanitize to the same token; the raw key in the
// descriptor is what distinguishes them for humans.
var keySanitizer = strings.NewReplacer(" ", "_", ".", "_")

func validBucketName(bucket string) bool {
	return bucketNamePattern.MatchString(bucket)
}

// sanitizeKey returns the metadata subject token for a raw object key.
func sanitizeKey(name string) string {
	return keySanitizer.Replace(name)
}

// streamName returns the backing stream name for a bucket.
func streamName(bucket string) string {
	return streamPrefix + bucket
}

// chunkSubject addresses an object's content. The raw key is used
// verbatim; all versions of a key share this subject and are told apart by
// their VersionHeader tag.
func chunkSubject(bucket, name string) string {
	return fmt.Sprintf("%s.%s.C.%s", subjectPrefix, bucket, name)
}

// metaSubject addresses an object's current descriptor.
func metaSubject(bucket, name string) string {
	return fmt.Sprintf("%s.%s.M.%s", subjectPrefix, bucket, sanitizeKey(name))
}

// allChunkSubjects matches every chunk subject in a bucket.
func allChunkSubjects(bucket string) string {
	return fmt.Sprintf("%s.%s.C.>", subjectPrefix, bucket)
}

// allMetaSubjects matches every metadata subject in a bucket.
func allMetaSubjects(bucket string) string {
	return fmt.Sprintf("%s.%s.M.>", subjectPrefix, bucket)
}
