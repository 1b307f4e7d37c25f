package objstore

import (
	"io"
	"sync"
	"time"
)

// consumerCount returns the live consumer count on a bucket's stream.
func (s *StoreTestSuite) consumerCount(bucket string) int {
	info, err := s.sc.StreamInfo(s.ctx, streamName(bucket))
	s.Require().NoError(err)
	return info.State.Consumers
}

// TestGetRoundTrip tests byte-for-byte reproduction across chunk sizes.
func (s *StoreTestSuite) TestGetRoundTrip() {
	testCases := []struct {
		name      string
		size      int
		chunkSize int
	}{
		{"tiny", 10, 1024},
		{"multi-chunk", 10_000, 512},
		{"chunk-aligned", 4096, 1024},
		{"single-byte-chunks", 64, 1},
	}
	for _, tc := range testCases {
		payload := testPayload(tc.size)
		s.mustPut(tc.name, payload, WithChunkSize(tc.chunkSize))

		data, err := s.store.GetBytes(s.ctx, testBucket, tc.name)
		s.Require().NoError(err, tc.name)
		s.Equal(payload, data, tc.name)
	}
}

// TestGetEmpty tests reading a zero-byte object.
func (s *StoreTestSuite) TestGetEmpty() {
	s.mustPut("empty", nil)

	obj, err := s.store.Get(s.ctx, testBucket, "empty")
	s.Require().NoError(err)
	defer obj.Close()

	data, err := io.ReadAll(obj)
	s.Require().NoError(err)
	s.Empty(data)
	s.Zero(obj.Info().Size)
}

// TestGetInfoAttached tests the descriptor attached to the reader.
func (s *StoreTestSuite) TestGetInfoAttached() {
	payload := testPayload(300)
	put := s.mustPut("blob", payload, WithDescription("attached"))

	obj, err := s.store.Get(s.ctx, testBucket, "blob")
	s.Require().NoError(err)
	defer obj.Close()

	s.Equal(put.ID, obj.Info().ID)
	s.Equal("attached", obj.Info().Description)
	s.Equal(uint64(300), obj.Info().Size)
	s.False(obj.Info().ModTime.IsZero())
}

// TestOpenAbsent tests the optional-return form for missing keys.
func (s *StoreTestSuite) TestOpenAbsent() {
	obj, ok, err := s.store.Open(s.ctx, testBucket, "missing")
	s.NoError(err)
	s.False(ok)
	s.Nil(obj)
}

// TestGetAbsent tests the or-fail form for missing keys.
func (s *StoreTestSuite) TestGetAbsent() {
	_, err := s.store.Get(s.ctx, testBucket, "missing")
	s.Require().Error(err)
	s.ErrorIs(err, ErrObjectNotFound)
	s.Contains(err.Error(), `"missing"`)
	s.Contains(err.Error(), `"`+testBucket+`"`)
}

// TestGetViaSanitizedAlias tests that a read through a sanitized alias of
// the stored key resolves the chunks of the key actually written.
func (s *StoreTestSuite) TestGetViaSanitizedAlias() {
	payload := testPayload(600)
	s.mustPut("a.b", payload, WithChunkSize(200))

	for _, alias := range []string{"a_b", "a b"} {
		data, err := s.store.GetBytes(s.ctx, testBucket, alias)
		s.Require().NoError(err, "alias %q", alias)
		s.Equal(payload, data, "alias %q", alias)
	}
}

// TestGetOverwriteCurrentness tests that reads after an overwrite see only
// the new version.
func (s *StoreTestSuite) TestGetOverwriteCurrentness() {
	s.mustPut("report", testPayload(2048), WithChunkSize(256))
	second := testPayload(1024)
	s.mustPut("report", second, WithChunkSize(256))

	data, err := s.store.GetBytes(s.ctx, testBucket, "report")
	s.Require().NoError(err)
	s.Equal(second, data)
}

// TestGetVersionIsolation tests that an open reader is pinned to the
// version it resolved, with stale chunks of other versions skipped.
func (s *StoreTestSuite) TestGetVersionIsolation() {
	// A failing reclaim leaves the first version's chunks on the shared
	// subject next to the second version's.
	s.mustPut("pinned", testPayload(512), WithChunkSize(128))
	flaky := &flakyClient{Client: s.sc, failPurge: true}
	fresh := testPayload(384)
	_, err := New(flaky).PutBytes(s.ctx, testBucket, "pinned", fresh, WithChunkSize(128))
	s.Require().NoError(err)

	data, err := s.store.GetBytes(s.ctx, testBucket, "pinned")
	s.Require().NoError(err)
	s.Equal(fresh, data)
}

// TestReadAfterClose tests that Close ends the read with a closed error.
func (s *StoreTestSuite) TestReadAfterClose() {
	s.mustPut("blob", testPayload(4096), WithChunkSize(512))

	obj, err := s.store.Get(s.ctx, testBucket, "blob")
	s.Require().NoError(err)

	buf := make([]byte, 100)
	_, err = obj.Read(buf)
	s.Require().NoError(err)

	s.Require().NoError(obj.Close())
	s.Require().NoError(obj.Close(), "closing twice is harmless")

	_, err = obj.Read(buf)
	s.ErrorIs(err, ErrReaderClosed)
}

// TestCloseReleasesSubscription tests that an abandoned read frees its
// consumer.
func (s *StoreTestSuite) TestCloseReleasesSubscription() {
	s.mustPut("blob", testPayload(100_000), WithChunkSize(1024))

	obj, err := s.store.Get(s.ctx, testBucket, "blob")
	s.Require().NoError(err)

	buf := make([]byte, 512)
	_, err = obj.Read(buf)
	s.Require().NoError(err)
	s.Equal(1, s.consumerCount(testBucket))

	s.Require().NoError(obj.Close())
	s.Eventually(func() bool {
		return s.consumerCount(testBucket) == 0
	}, 2*time.Second, 10*time.Millisecond, "early close must release the consumer")
}

// TestDrainReleasesSubscription tests that a fully drained read frees its
// consumer without an explicit close.
func (s *StoreTestSuite) TestDrainReleasesSubscription() {
	payload := testPayload(2048)
	s.mustPut("blob", payload, WithChunkSize(256))

	data, err := s.store.GetBytes(s.ctx, testBucket, "blob")
	s.Require().NoError(err)
	s.Equal(payload, data)

	s.Eventually(func() bool {
		return s.consumerCount(testBucket) == 0
	}, 2*time.Second, 10*time.Millisecond)
}

// TestDeliveryInterrupted tests that losing the stream mid-read surfaces an
// interruption instead of a silent short read.
func (s *StoreTestSuite) TestDeliveryInterrupted() {
	// Enough chunks that delivery cannot fit into the buffered windows
	// before the stream goes away.
	s.mustPut("huge", testPayload(64*1024), WithChunkSize(1024))

	obj, err := s.store.Get(s.ctx, testBucket, "huge")
	s.Require().NoError(err)
	defer obj.Close()

	s.Require().NoError(s.store.DeleteBucket(s.ctx, testBucket))

	_, err = io.ReadAll(obj)
	s.ErrorIs(err, ErrDeliveryInterrupted)
}

// TestConcurrentReaders tests independent concurrent reads of one key.
func (s *StoreTestSuite) TestConcurrentReaders() {
	payload := testPayload(20_000)
	s.mustPut("shared", payload, WithChunkSize(512))

	const readers = 4
	var wg sync.WaitGroup
	results := make([][]byte, readers)
	errs := make([]error, readers)

	wg.Add(readers)
	for i := 0; i < readers; i++ {
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = s.store.GetBytes(s.ctx, testBucket, "shared")
		}(i)
	}
	wg.Wait()

	for i := 0; i < readers; i++ {
		s.Require().NoError(errs[i], "reader %d", i)
		s.Equal(payload, results[i], "reader %d", i)
	}
}
