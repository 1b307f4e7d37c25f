package objstore

// TestSanitizeKey tests metadata token sanitization.
func (s *StoreTestSuite) TestSanitizeKey() {
	testCases := []struct {
		raw     string
		token   string
		message string
	}{
		{"plain", "plain", "untouched"},
		{"a b", "a_b", "space replaced"},
		{"a.b", "a_b", "dot replaced"},
		{"a_b", "a_b", "underscore kept"},
		{"a b.c", "a_b_c", "mixed"},
		{"reports/2024.q1 final", "reports/2024_q1_final", "slash kept"},
	}
	for _, tc := range testCases {
		s.Equal(tc.token, sanitizeKey(tc.raw), tc.message)
	}

	s.Equal(sanitizeKey("a b"), sanitizeKey("a.b"))
	s.Equal(sanitizeKey("a.b"), sanitizeKey("a_b"))
}

// TestSubjectLayout tests the wire-level addressing scheme.
func (s *StoreTestSuite) TestSubjectLayout() {
	s.Equal("OBJ_docs", streamName("docs"))
	s.Equal("$O.docs.C.report.txt", chunkSubject("docs", "report.txt"), "chunk subject keeps the raw key")
	s.Equal("$O.docs.M.report_txt", metaSubject("docs", "report.txt"), "metadata subject is sanitized")
	s.Equal("$O.docs.C.>", allChunkSubjects("docs"))
	s.Equal("$O.docs.M.>", allMetaSubjects("docs"))
}

// TestBucketNameFormat tests the bucket name pattern.
func (s *StoreTestSuite) TestBucketNameFormat() {
	for _, ok := range []string{"docs", "Docs-2", "a_b-c", "7"} {
		s.True(validBucketName(ok), ok)
	}
	for _, bad := range []string{"", "a b", "a.b", "a/b", "a*b", "über"} {
		s.False(validBucketName(bad), bad)
	}
}
