package objstore

import (
	"os"
	"path/filepath"
)

// TestPutGetString tests the string round trip.
func (s *StoreTestSuite) TestPutGetString() {
	_, err := s.store.PutString(s.ctx, testBucket, "note", "naïve résumé — UTF-8 survives")
	s.Require().NoError(err)

	value, err := s.store.GetString(s.ctx, testBucket, "note")
	s.Require().NoError(err)
	s.Equal("naïve résumé — UTF-8 survives", value)
}

// TestPutGetFile tests the file round trip, path as object name.
func (s *StoreTestSuite) TestPutGetFile() {
	dir := s.T().TempDir()
	src := filepath.Join(dir, "in.bin")
	payload := testPayload(3000)
	s.Require().NoError(os.WriteFile(src, payload, 0o600))

	info, err := s.store.PutFile(s.ctx, testBucket, src, WithChunkSize(1024))
	s.Require().NoError(err)
	s.Equal(src, info.Name)
	s.Equal(uint64(3000), info.Size)

	dst := filepath.Join(dir, "out.bin")
	s.Require().NoError(s.store.GetFile(s.ctx, testBucket, src, dst))

	got, err := os.ReadFile(dst)
	s.Require().NoError(err)
	s.Equal(payload, got)
}

// TestPutFileMissing tests storing a file that does not exist.
func (s *StoreTestSuite) TestPutFileMissing() {
	_, err := s.store.PutFile(s.ctx, testBucket, filepath.Join(s.T().TempDir(), "nope.bin"))
	s.Error(err)
}
