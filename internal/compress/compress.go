// Package compress archives a directory tree into a compressed file and
// extracts it back. Two formats are supported, tar.gz and zip, behind a
// single Compressor interface.
package compress

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/kebairia/cofre/internal/exclusion"
	"github.com/kebairia/cofre/internal/logger"
)

// Format identifies an archive format token.
type Format string

const (
	FormatTar Format = "tar"
	FormatZip Format = "zip"
)

// ErrUnsupportedFormat indicates an unknown archive format token.
var ErrUnsupportedFormat = errors.New("unsupported archive format")

// ProgressFunc is invoked with the running count of files added so far.
type ProgressFunc func(filesAdded int)

// Stats reports the outcome of a single compression run.
type Stats struct {
	FilesAdded    int
	FilesExcluded int
	DirsExcluded  int
}

// Compressor writes and reads one archive format.
type Compressor interface {
	// Extension returns the file name suffix for this format, dot included.
	Extension() string

	// Compress walks sourceDir and writes every file that survives the
	// exclusion filter into an archive at outputPath. level is the
	// compression level (0-9). Individual file failures are logged and
	// counted as excluded; they never abort the run.
	Compress(sourceDir, outputPath string, filter *exclusion.Filter, progress ProgressFunc, level int) (Stats, error)

	// Decompress extracts the full archive tree under destParent. Entries
	// are rooted at the archived top-level directory name, so extraction
	// recreates destParent/<original-dir-name>/...
	Decompress(archivePath, destParent string) error
}

// New returns the Compressor for the given format token, case-insensitive.
func New(format Format) (Compressor, error) {
	switch Format(strings.ToLower(string(format))) {
	case FormatTar:
		return &tarCompressor{}, nil
	case FormatZip:
		return &zipCompressor{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

// walkSource traverses sourceDir depth-first, pruning excluded directories
// before descent and skipping excluded files. Each surviving file is handed
// to addFile with its archive name, which is its path relative to the
// parent of sourceDir so the source directory's own name stays in the
// archive as the top-level entry. addFile errors are folded into the
// excluded-files counter.
func walkSource(sourceDir string, filter *exclusion.Filter, progress ProgressFunc, addFile func(path, arcName string) error) (Stats, error) {
	var stats Stats
	log := logger.Global()
	parent := filepath.Dir(sourceDir)

	err := filepath.WalkDir(sourceDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == sourceDir {
				return err
			}
			log.Warn("skipping unreadable entry", "path", path, "error", err)
			if d != nil && d.IsDir() {
				stats.DirsExcluded++
				return filepath.SkipDir
			}
			stats.FilesExcluded++
			return nil
		}

		if d.IsDir() {
			if path == sourceDir {
				return nil
			}
			if filter.ShouldExclude(d.Name()) {
				// The whole subtree is skipped and never counted
				// file-by-file.
				stats.DirsExcluded++
				return filepath.SkipDir
			}
			return nil
		}

		if filter.ShouldExclude(d.Name()) {
			stats.FilesExcluded++
			return nil
		}

		arcName, relErr := filepath.Rel(parent, path)
		if relErr != nil {
			log.Warn("cannot resolve archive name", "path", path, "error", relErr)
			stats.FilesExcluded++
			return nil
		}

		if addErr := addFile(path, filepath.ToSlash(arcName)); addErr != nil {
			log.Warn("failed to add file to archive", "path", path, "error", addErr)
			stats.FilesExcluded++
			return nil
		}

		stats.FilesAdded++
		if progress != nil {
			progress(stats.FilesAdded)
		}
		return nil
	})

	return stats, err
}

// sanitizeEntryName validates an archive entry name against path traversal
// and returns its on-disk path under destParent.
func sanitizeEntryName(destParent, name string) (string, error) {
	cleaned := filepath.Clean(filepath.FromSlash(name))
	if filepath.IsAbs(cleaned) || cleaned == ".." || strings.HasPrefix(cleaned, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("archive entry escapes destination: %q", name)
	}
	return filepath.Join(destParent, cleaned), nil
}
