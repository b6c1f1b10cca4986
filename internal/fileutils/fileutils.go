// Package fileutils provides the file operations used for reading statements
// and writing records. Everything goes through an afero.Fs so tests can run
// against memory.
package fileutils

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// ErrExists is returned by CreateExclusive when the target is already there.
var ErrExists = errors.New("file already exists")

const (
	dirPerm  = 0o750
	filePerm = 0o600
)

// FileExists checks if a file exists and is not a directory.
func FileExists(fs afero.Fs, filePath string) bool {
	info, err := fs.Stat(filePath)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

// DirectoryExists checks if a directory exists.
func DirectoryExists(fs afero.Fs, dirPath string) bool {
	info, err := fs.Stat(dirPath)
	if err != nil {
		return false
	}
	return info.IsDir()
}

// EnsureDirectoryExists creates a directory and its parents if needed.
func EnsureDirectoryExists(fs afero.Fs, dirPath string) error {
	if dirPath == "" || DirectoryExists(fs, dirPath) {
		return nil
	}
	if err := fs.MkdirAll(dirPath, dirPerm); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	return nil
}

// OpenFile opens a file for reading.
func OpenFile(fs afero.Fs, filePath string) (afero.File, error) {
	if !FileExists(fs, filePath) {
		return nil, fmt.Errorf("file does not exist: %s", filePath)
	}
	file, err := fs.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	return file, nil
}

// CreateExclusive creates a new file for writing, failing with ErrExists if
// the path is taken. Parent directories are created as needed.
func CreateExclusive(fs afero.Fs, filePath string) (afero.File, error) {
	if err := EnsureDirectoryExists(fs, filepath.Dir(filePath)); err != nil {
		return nil, err
	}
	file, err := fs.OpenFile(filePath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, filePerm)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("%w: %s", ErrExists, filePath)
		}
		return nil, fmt.Errorf("failed to create file: %w", err)
	}
	return file, nil
}

// WriteFileAtomic replaces filePath with the bytes produced by write. The
// content goes to a temporary sibling first and is renamed into place, so a
// reader never sees a half-written file.
func WriteFileAtomic(fs afero.Fs, filePath string, write func(io.Writer) error) error {
	dir := filepath.Dir(filePath)
	if err := EnsureDirectoryExists(fs, dir); err != nil {
		return err
	}

	tmp, err := afero.TempFile(fs, dir, "."+filepath.Base(filePath)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}
	tmpName := tmp.Name()

	writeErr := write(tmp)
	closeErr := tmp.Close()
	if writeErr == nil {
		writeErr = closeErr
	}
	if writeErr != nil {
		_ = fs.Remove(tmpName)
		return writeErr
	}

	if err := fs.Rename(tmpName, filePath); err != nil {
		_ = fs.Remove(tmpName)
		return fmt.Errorf("failed to move file into place: %w", err)
	}
	return nil
}

// WriteFile writes data to filePath. With overwrite unset an existing file is
// left alone and ErrExists returned; a file created by this call is removed
// again when writing it fails.
func WriteFile(fs afero.Fs, filePath string, overwrite bool, write func(io.Writer) error) error {
	if overwrite {
		return WriteFileAtomic(fs, filePath, write)
	}

	file, err := CreateExclusive(fs, filePath)
	if err != nil {
		return err
	}
	writeErr := write(file)
	closeErr := file.Close()
	if writeErr == nil && closeErr != nil {
		writeErr = fmt.Errorf("failed to close file: %w", closeErr)
	}
	if writeErr != nil {
		// A partial file would be skipped as existing on every later run.
		_ = fs.Remove(filePath)
		return writeErr
	}
	return nil
}

// HasExtension reports whether path ends in one of the extensions, compared
// case-insensitively. Extensions include the dot.
func HasExtension(path string, extensions ...string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, candidate := range extensions {
		if ext == strings.ToLower(candidate) {
			return true
		}
	}
	return false
}
