package objstore

import (
	"crypto/sha256"
	"encoding/base64"
	"sync"

	"streamfs/pkg/models"
)

func urlDigest(data []byte) string {
	sum := sha256.Sum256(data)
	return base64.URLEncoding.EncodeToString(sum[:])
}

// TestPutDescriptor tests the committed descriptor's fields.
func (s *StoreTestSuite) TestPutDescriptor() {
	payload := testPayload(1000)
	headers := models.Header{"Content-Type": []string{"application/octet-stream"}}

	info, err := s.store.PutBytes(s.ctx, testBucket, "blob", payload,
		WithDescription("raw dump"),
		WithHeaders(headers),
		WithChunkSize(256),
	)
	s.Require().NoError(err)

	s.Equal(testBucket, info.Bucket)
	s.Equal("blob", info.Name)
	s.Equal("raw dump", info.Description)
	s.Equal(headers, info.Headers)
	s.NotEmpty(info.ID)
	s.Equal(uint64(1000), info.Size)
	s.Equal(uint32(4), info.Chunks, "1000 bytes in 256-byte chunks")
	s.Equal(urlDigest(payload), info.Digest)
	s.False(info.ModTime.IsZero())
	s.False(info.Deleted)
}

// TestPutDigestChunkIndependent tests that the digest covers the content,
// not the chunking.
func (s *StoreTestSuite) TestPutDigestChunkIndependent() {
	payload := testPayload(10)
	want := urlDigest(payload)

	testCases := []struct {
		name      string
		chunkSize int
		chunks    uint32
		message   string
	}{
		{"small-chunks", 3, 4, "chunk size smaller than payload"},
		{"exact-chunk", 10, 1, "chunk size equal to payload"},
		{"large-chunk", 64, 1, "chunk size larger than payload"},
	}
	for _, tc := range testCases {
		info := s.mustPut(tc.name, payload, WithChunkSize(tc.chunkSize))
		s.Equal(want, info.Digest, tc.message)
		s.Equal(tc.chunks, info.Chunks, tc.message)
		s.Equal(uint64(10), info.Size, tc.message)
	}
}

// TestPutEmpty tests a zero-byte object.
func (s *StoreTestSuite) TestPutEmpty() {
	info := s.mustPut("empty", nil)

	s.Zero(info.Size)
	s.Zero(info.Chunks)
	s.Equal(urlDigest(nil), info.Digest)

	s.Equal(uint64(1), s.streamMsgs(testBucket), "only the descriptor is stored")
}

// TestPutValidation tests rejected puts.
func (s *StoreTestSuite) TestPutValidation() {
	_, err := s.store.PutBytes(s.ctx, "", "key", nil)
	s.ErrorIs(err, ErrBucketRequired)

	_, err = s.store.PutBytes(s.ctx, testBucket, "", nil)
	s.ErrorIs(err, ErrNameRequired)

	_, err = s.store.PutBytes(s.ctx, "missing", "key", []byte("x"))
	s.ErrorIs(err, ErrBucketNotFound)
}

// TestPutOverwriteReclaims tests that a committed overwrite purges the
// previous version's chunks.
func (s *StoreTestSuite) TestPutOverwriteReclaims() {
	first := s.mustPut("report", testPayload(900), WithChunkSize(300))
	s.Equal(uint64(4), s.streamMsgs(testBucket), "three chunks and a descriptor")

	second := s.mustPut("report", testPayload(500), WithChunkSize(300))
	s.NotEqual(first.ID, second.ID)

	info, err := s.store.GetInfo(s.ctx, testBucket, "report")
	s.Require().NoError(err)
	s.Equal(second.ID, info.ID)
	s.Equal(uint64(500), info.Size)

	s.Equal(uint64(3), s.streamMsgs(testBucket), "two new chunks and a descriptor; old chunks reclaimed")
}

// TestPutAliasOverwriteReclaims tests that overwriting through a sanitized
// alias reclaims the chunks the prior version stored under its own key.
func (s *StoreTestSuite) TestPutAliasOverwriteReclaims() {
	s.mustPut("a.b", testPayload(400), WithChunkSize(200))
	s.Equal(uint64(3), s.streamMsgs(testBucket))

	fresh := testPayload(150)
	s.mustPut("a_b", fresh, WithChunkSize(200))

	s.Equal(uint64(2), s.streamMsgs(testBucket), "one new chunk and a descriptor; prior key's chunks reclaimed")

	data, err := s.store.GetBytes(s.ctx, testBucket, "a.b")
	s.Require().NoError(err)
	s.Equal(fresh, data, "both spellings now resolve the overwriting version")
}

// TestPutRollbackFirstWrite tests that a failed first write leaves the key
// absent and the stream clean.
func (s *StoreTestSuite) TestPutRollbackFirstWrite() {
	flaky := &flakyClient{Client: s.sc, failPublishAfter: 2}
	store := New(flaky)

	_, err := store.PutBytes(s.ctx, testBucket, "doomed", testPayload(12), WithChunkSize(4))
	s.Require().ErrorIs(err, errTransportDown)

	_, ok, err := s.store.Lookup(s.ctx, testBucket, "doomed")
	s.Require().NoError(err)
	s.False(ok, "no descriptor for the failed attempt")

	s.Zero(s.streamMsgs(testBucket), "published chunks rolled back")
}

// TestPutRollbackKeepsPrior tests that a failed overwrite leaves the
// previous version fully current.
func (s *StoreTestSuite) TestPutRollbackKeepsPrior() {
	payload := testPayload(600)
	prior := s.mustPut("report", payload, WithChunkSize(200))

	flaky := &flakyClient{Client: s.sc, failPublishAfter: 1}
	store := New(flaky)
	_, err := store.PutBytes(s.ctx, testBucket, "report", testPayload(900), WithChunkSize(200))
	s.Require().ErrorIs(err, errTransportDown)

	info, err := s.store.GetInfo(s.ctx, testBucket, "report")
	s.Require().NoError(err)
	s.Equal(prior.ID, info.ID, "prior descriptor still current")

	data, err := s.store.GetBytes(s.ctx, testBucket, "report")
	s.Require().NoError(err)
	s.Equal(payload, data)

	s.Equal(uint64(4), s.streamMsgs(testBucket), "prior chunks and descriptor intact, attempt rolled back")
}

// TestPutReclaimFailureIsSilent tests that a failed cleanup of the old
// version does not fail the new write.
func (s *StoreTestSuite) TestPutReclaimFailureIsSilent() {
	old := testPayload(400)
	s.mustPut("report", old, WithChunkSize(100))

	flaky := &flakyClient{Client: s.sc, failPurge: true}
	store := New(flaky)

	fresh := testPayload(250)
	info, err := store.PutBytes(s.ctx, testBucket, "report", fresh, WithChunkSize(100))
	s.Require().NoError(err, "put succeeds even though reclaim failed")

	got, err := s.store.GetInfo(s.ctx, testBucket, "report")
	s.Require().NoError(err)
	s.Equal(info.ID, got.ID)

	// Old chunks linger, but reads resolve only the current version.
	data, err := s.store.GetBytes(s.ctx, testBucket, "report")
	s.Require().NoError(err)
	s.Equal(fresh, data)
}

// TestPutConcurrentSameKey tests that racing writers leave exactly one
// whole version current.
func (s *StoreTestSuite) TestPutConcurrentSameKey() {
	payloadA := testPayload(700)
	payloadB := testPayload(1100)

	var (
		wg    sync.WaitGroup
		infoA *models.ObjectInfo
		infoB *models.ObjectInfo
		errA  error
		errB  error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		infoA, errA = s.store.PutBytes(s.ctx, testBucket, "contested", payloadA, WithChunkSize(128))
	}()
	go func() {
		defer wg.Done()
		infoB, errB = s.store.PutBytes(s.ctx, testBucket, "contested", payloadB, WithChunkSize(128))
	}()
	wg.Wait()
	s.Require().NoError(errA)
	s.Require().NoError(errB)

	current, err := s.store.GetInfo(s.ctx, testBucket, "contested")
	s.Require().NoError(err)

	var want []byte
	switch current.ID {
	case infoA.ID:
		want = payloadA
	case infoB.ID:
		want = payloadB
	default:
		s.Require().FailNow("current descriptor matches neither writer")
	}
	s.Equal(urlDigest(want), current.Digest, "descriptor is one writer's whole version, not a mixture")

	data, err := s.store.GetBytes(s.ctx, testBucket, "contested")
	s.Require().NoError(err)
	s.Equal(want, data)
}
