package scanner

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func statementTree(t *testing.T) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	for _, path := range []string{
		"/docs/Kontoauszug_2018_01.pdf",
		"/docs/Kontoauszug_2018_02.PDF",
		"/docs/Kontoauszug_2018_03.txt",
		"/docs/Rechnung_2018.pdf",
		"/docs/notes.md",
		"/docs/2017/Kontoauszug_2017_12.pdf",
		"/docs/2017/deep/Kontoauszug_2017_11.pdf",
	} {
		require.NoError(t, afero.WriteFile(fs, path, []byte("x"), 0o600))
	}
	return fs
}

func TestScanPaths_DirectoryTopLevelOnly(t *testing.T) {
	s := NewStatementScanner(statementTree(t), Options{}, nil)

	docs, err := s.ScanPaths([]string{"/docs"})
	require.NoError(t, err)
	assert.Equal(t, []string{
		"/docs/Kontoauszug_2018_01.pdf",
		"/docs/Kontoauszug_2018_02.PDF",
		"/docs/Kontoauszug_2018_03.txt",
		"/docs/Rechnung_2018.pdf",
	}, docs)
}

func TestScanPaths_RecurseWithPrefix(t *testing.T) {
	s := NewStatementScanner(statementTree(t), Options{Prefix: "Kontoauszug", Recurse: true}, nil)

	docs, err := s.ScanPaths([]string{"/docs"})
	require.NoError(t, err)
	assert.Equal(t, []string{
		"/docs/2017/Kontoauszug_2017_12.pdf",
		"/docs/2017/deep/Kontoauszug_2017_11.pdf",
		"/docs/Kontoauszug_2018_01.pdf",
		"/docs/Kontoauszug_2018_02.PDF",
		"/docs/Kontoauszug_2018_03.txt",
	}, docs)
}

func TestScanPaths_ExplicitFilesAlwaysAccepted(t *testing.T) {
	s := NewStatementScanner(statementTree(t), Options{Prefix: "Kontoauszug"}, nil)

	docs, err := s.ScanPaths([]string{"/docs/notes.md", "#/docs/Rechnung_2018.pdf", "/docs/Rechnung_2018.pdf"})
	require.NoError(t, err)
	assert.Equal(t, []string{"/docs/notes.md", "/docs/Rechnung_2018.pdf"}, docs)
}

func TestScanPaths_MissingPath(t *testing.T) {
	s := NewStatementScanner(statementTree(t), Options{}, nil)

	_, err := s.ScanPaths([]string{"/docs/missing.pdf"})
	assert.Error(t, err)

	docs, err := s.ScanPaths([]string{"#/docs/missing.pdf"})
	require.NoError(t, err)
	assert.Empty(t, docs)
}
