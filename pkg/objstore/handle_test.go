package objstore

// TestBucketHandle tests binding a handle and operating through it.
func (s *StoreTestSuite) TestBucketHandle() {
	bucket, err := s.store.Bucket(s.ctx, testBucket)
	s.Require().NoError(err)
	s.Equal(testBucket, bucket.Name())

	_, err = bucket.PutString(s.ctx, "greeting", "hello")
	s.Require().NoError(err)

	value, err := bucket.GetString(s.ctx, "greeting")
	s.Require().NoError(err)
	s.Equal("hello", value)

	info, err := bucket.GetInfo(s.ctx, "greeting")
	s.Require().NoError(err)
	s.Equal(testBucket, info.Bucket)
	s.Equal("greeting", info.Name)

	objects, err := bucket.List(s.ctx)
	s.Require().NoError(err)
	s.Len(objects, 1)

	status, err := bucket.Status(s.ctx)
	s.Require().NoError(err)
	s.Equal(testBucket, status.Bucket)

	s.Require().NoError(bucket.Delete(s.ctx, "greeting"))
	_, found, err := bucket.Lookup(s.ctx, "greeting")
	s.Require().NoError(err)
	s.False(found)
}

// TestBucketHandleMissing tests that binding requires an existing bucket.
func (s *StoreTestSuite) TestBucketHandleMissing() {
	_, err := s.store.Bucket(s.ctx, "ghost")
	s.ErrorIs(err, ErrBucketNotFound)

	var notFound BucketNotFoundError
	s.ErrorAs(err, &notFound)
	s.Equal("ghost", notFound.Bucket)

	_, err = s.store.Bucket(s.ctx, "")
	s.ErrorIs(err, ErrBucketRequired)
}

// TestBucketHandleAfterBucketDelete tests that a handle holds no stale
// state once the bucket behind it is gone.
func (s *StoreTestSuite) TestBucketHandleAfterBucketDelete() {
	bucket, err := s.store.Bucket(s.ctx, testBucket)
	s.Require().NoError(err)

	s.Require().NoError(s.store.DeleteBucket(s.ctx, testBucket))

	_, err = bucket.GetInfo(s.ctx, "anything")
	s.ErrorIs(err, ErrBucketNotFound, "operations report the missing bucket, not a stale view")
}
