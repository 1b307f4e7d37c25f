package objstore

// TestDelete tests tombstoning and chunk purge.
func (s *StoreTestSuite) TestDelete() {
	s.mustPut("victim", testPayload(600), WithChunkSize(200))
	s.Equal(uint64(4), s.streamMsgs(testBucket))

	s.Require().NoError(s.store.Delete(s.ctx, testBucket, "victim"))

	_, ok, err := s.store.Lookup(s.ctx, testBucket, "victim")
	s.Require().NoError(err)
	s.False(ok, "deleted object reads as absent")

	_, err = s.store.GetInfo(s.ctx, testBucket, "victim")
	s.ErrorIs(err, ErrObjectNotFound)

	_, err = s.store.Get(s.ctx, testBucket, "victim")
	s.ErrorIs(err, ErrObjectNotFound)

	s.Equal(uint64(1), s.streamMsgs(testBucket), "chunks purged, tombstone retained")
}

// TestDeleteAbsent tests deleting keys that are missing or already deleted.
func (s *StoreTestSuite) TestDeleteAbsent() {
	err := s.store.Delete(s.ctx, testBucket, "missing")
	s.ErrorIs(err, ErrObjectNotFound)

	s.mustPut("once", []byte("x"))
	s.Require().NoError(s.store.Delete(s.ctx, testBucket, "once"))

	err = s.store.Delete(s.ctx, testBucket, "once")
	s.ErrorIs(err, ErrObjectNotFound, "double delete fails like a missing key")
}

// TestDeleteViaSanitizedAlias tests that deleting through an alias purges
// the chunks published under the stored key.
func (s *StoreTestSuite) TestDeleteViaSanitizedAlias() {
	s.mustPut("a.b", testPayload(400), WithChunkSize(200))
	s.Equal(uint64(3), s.streamMsgs(testBucket))

	s.Require().NoError(s.store.Delete(s.ctx, testBucket, "a b"))

	s.Equal(uint64(1), s.streamMsgs(testBucket), "chunks of the stored key purged")

	_, ok, err := s.store.Lookup(s.ctx, testBucket, "a.b")
	s.Require().NoError(err)
	s.False(ok)
}

// TestDeletePurgeFailureSurfaced tests that a failed chunk purge fails the
// delete.
func (s *StoreTestSuite) TestDeletePurgeFailureSurfaced() {
	s.mustPut("sticky", testPayload(300), WithChunkSize(100))

	flaky := &flakyClient{Client: s.sc, failPurge: true}
	err := New(flaky).Delete(s.ctx, testBucket, "sticky")
	s.Require().ErrorIs(err, errTransportDown)

	// The tombstone committed before the purge failed, so the object is
	// gone either way.
	_, ok, err := s.store.Lookup(s.ctx, testBucket, "sticky")
	s.Require().NoError(err)
	s.False(ok)
}

// TestOverwriteAfterDelete tests that a deleted key can be written again
// and that the rewrite reclaims chunks a failed delete-purge left behind.
func (s *StoreTestSuite) TestOverwriteAfterDelete() {
	s.mustPut("phoenix", testPayload(300), WithChunkSize(100))

	// Delete whose purge fails: tombstone in place, chunks orphaned.
	flaky := &flakyClient{Client: s.sc, failPurge: true}
	err := New(flaky).Delete(s.ctx, testBucket, "phoenix")
	s.Require().ErrorIs(err, errTransportDown)
	s.Equal(uint64(4), s.streamMsgs(testBucket), "orphaned chunks and a tombstone")

	reborn := testPayload(150)
	_, err = s.store.PutBytes(s.ctx, testBucket, "phoenix", reborn, WithChunkSize(100))
	s.Require().NoError(err)

	data, err := s.store.GetBytes(s.ctx, testBucket, "phoenix")
	s.Require().NoError(err)
	s.Equal(reborn, data)

	s.Equal(uint64(3), s.streamMsgs(testBucket), "rewrite reclaimed the orphaned chunks")
}
