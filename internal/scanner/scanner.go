// Package scanner expands command line arguments into the list of statement
// documents to process.
package scanner

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"dbkr/kontoauszug-reader/internal/fileutils"
	"dbkr/kontoauszug-reader/internal/logging"

	"github.com/spf13/afero"
)

// Extensions accepted when walking directories.
var documentExtensions = []string{".pdf", ".txt"}

// Options controls directory walking.
type Options struct {
	// Prefix restricts files found in directories to names starting with it.
	Prefix string
	// Recurse descends into subdirectories of the given directories.
	Recurse bool
}

// StatementScanner finds statement documents.
type StatementScanner struct {
	fs     afero.Fs
	opts   Options
	logger logging.Logger
}

// NewStatementScanner creates a StatementScanner over fs.
func NewStatementScanner(fs afero.Fs, opts Options, logger logging.Logger) *StatementScanner {
	if logger == nil {
		logger = logging.NewDiscardLogger()
	}
	return &StatementScanner{fs: fs, opts: opts, logger: logger}
}

// ScanPaths returns the documents named by paths, in argument order.
//
// Files given directly are accepted whatever their extension. Directories
// contribute their .pdf and .txt files (case-insensitive) whose name starts
// with the prefix, sorted by name; subdirectories are entered only with
// Recurse. Arguments starting with '#' are comments and skipped. A path that
// does not exist is an error.
func (s *StatementScanner) ScanPaths(paths []string) ([]string, error) {
	var documents []string

	for _, p := range paths {
		if strings.HasPrefix(p, "#") {
			s.logger.Debug("Skipping commented-out argument", logging.F(logging.FieldFile, p))
			continue
		}

		info, err := s.fs.Stat(p)
		if err != nil {
			s.logger.WithError(err).Error("Failed to stat path", logging.F(logging.FieldFile, p))
			return nil, fmt.Errorf("no such file or directory: %s", p)
		}

		if !info.IsDir() {
			documents = append(documents, p)
			continue
		}

		found, err := s.scanDirectory(p)
		if err != nil {
			return nil, err
		}
		documents = append(documents, found...)
	}

	s.logger.Debug("Scanned input paths", logging.F(logging.FieldCount, len(documents)))
	return documents, nil
}

func (s *StatementScanner) scanDirectory(dir string) ([]string, error) {
	entries, err := afero.ReadDir(s.fs, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", dir, err)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	var documents []string
	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())
		if entry.IsDir() {
			if !s.opts.Recurse {
				continue
			}
			nested, err := s.scanDirectory(path)
			if err != nil {
				return nil, err
			}
			documents = append(documents, nested...)
			continue
		}

		if !strings.HasPrefix(entry.Name(), s.opts.Prefix) {
			continue
		}
		if !fileutils.HasExtension(entry.Name(), documentExtensions...) {
			continue
		}
		documents = append(documents, path)
	}
	return documents, nil
}
