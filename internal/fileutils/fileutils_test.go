package fileutils_test

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"dbkr/kontoauszug-reader/internal/fileutils"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeString(s string) func(io.Writer) error {
	return func(w io.Writer) error {
		_, err := io.WriteString(w, s)
		return err
	}
}

func TestFileAndDirectoryExists(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/data/a.txt", []byte("x"), 0o600))

	assert.True(t, fileutils.FileExists(fs, "/data/a.txt"))
	assert.False(t, fileutils.FileExists(fs, "/data"))
	assert.False(t, fileutils.FileExists(fs, "/data/missing.txt"))

	assert.True(t, fileutils.DirectoryExists(fs, "/data"))
	assert.False(t, fileutils.DirectoryExists(fs, "/data/a.txt"))
}

func TestEnsureDirectoryExists(t *testing.T) {
	fs := afero.NewMemMapFs()

	require.NoError(t, fileutils.EnsureDirectoryExists(fs, "/out/2018/01"))
	assert.True(t, fileutils.DirectoryExists(fs, "/out/2018/01"))

	// Existing directory is fine
	require.NoError(t, fileutils.EnsureDirectoryExists(fs, "/out/2018/01"))
	require.NoError(t, fileutils.EnsureDirectoryExists(fs, ""))
}

func TestOpenFile_Missing(t *testing.T) {
	_, err := fileutils.OpenFile(afero.NewMemMapFs(), "/nope.pdf")
	assert.Error(t, err)
}

func TestCreateExclusive(t *testing.T) {
	fs := afero.NewMemMapFs()

	f, err := fileutils.CreateExclusive(fs, "/out/2018/01/2018-01-02-00000000.json")
	require.NoError(t, err)
	_, err = f.WriteString("first")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	_, err = fileutils.CreateExclusive(fs, "/out/2018/01/2018-01-02-00000000.json")
	assert.True(t, errors.Is(err, fileutils.ErrExists))

	data, err := afero.ReadFile(fs, "/out/2018/01/2018-01-02-00000000.json")
	require.NoError(t, err)
	assert.Equal(t, "first", string(data))
}

func TestWriteFile_NoOverwriteKeepsExisting(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, fileutils.WriteFile(fs, "/out/a.json", false, writeString("one")))

	err := fileutils.WriteFile(fs, "/out/a.json", false, writeString("two"))
	assert.True(t, errors.Is(err, fileutils.ErrExists))

	data, _ := afero.ReadFile(fs, "/out/a.json")
	assert.Equal(t, "one", string(data))
}

func TestWriteFile_OverwriteReplaces(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, fileutils.WriteFile(fs, "/out/a.json", false, writeString("one")))
	require.NoError(t, fileutils.WriteFile(fs, "/out/a.json", true, writeString("two")))

	data, _ := afero.ReadFile(fs, "/out/a.json")
	assert.Equal(t, "two", string(data))

	entries, err := afero.ReadDir(fs, "/out")
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary file must not be left behind")
}

func TestWriteFileAtomic_FailedWriteLeavesTargetUntouched(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/out/a.json", []byte("old"), 0o600))

	boom := errors.New("boom")
	err := fileutils.WriteFileAtomic(fs, "/out/a.json", func(w io.Writer) error {
		_, _ = w.Write(bytes.Repeat([]byte("x"), 10))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	data, _ := afero.ReadFile(fs, "/out/a.json")
	assert.Equal(t, "old", string(data))
	entries, _ := afero.ReadDir(fs, "/out")
	assert.Len(t, entries, 1)
}

func TestWriteFile_FailedWriteRemovesNewTarget(t *testing.T) {
	fs := afero.NewMemMapFs()

	diskFull := errors.New("disk full")
	err := fileutils.WriteFile(fs, "/out/rec.json", false, func(w io.Writer) error {
		_, _ = io.WriteString(w, `{"trunc`)
		return diskFull
	})
	assert.ErrorIs(t, err, diskFull)

	exists, err := afero.Exists(fs, "/out/rec.json")
	require.NoError(t, err)
	assert.False(t, exists)

	// A rerun writes the record instead of skipping it.
	require.NoError(t, fileutils.WriteFile(fs, "/out/rec.json", false, writeString(`{"ok":true}`)))
	data, err := afero.ReadFile(fs, "/out/rec.json")
	require.NoError(t, err)
	assert.Equal(t, `{"ok":true}`, string(data))
}

func TestHasExtension(t *testing.T) {
	assert.True(t, fileutils.HasExtension("/a/Statement.PDF", ".pdf"))
	assert.True(t, fileutils.HasExtension("a.txt", ".pdf", ".txt"))
	assert.False(t, fileutils.HasExtension("a.pdf.bak", ".pdf"))
	assert.False(t, fileutils.HasExtension("README", ".pdf"))
}
