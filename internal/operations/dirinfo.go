package operations

import (
	"io/fs"
	"os"
	"path/filepath"

	"github.com/kebairia/cofre/internal/exclusion"
)

// Directory type tokens recorded in the catalog.
const (
	TypeNodeJS   = "nodejs"
	TypePython   = "python"
	TypeJava     = "java"
	TypeGit      = "git"
	TypeGenerico = "generico"
)

// DetectDirectoryType classifies a directory by its marker files.
func DetectDirectoryType(path string) string {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return TypeGenerico
	}

	exists := func(name string) bool {
		_, err := os.Stat(filepath.Join(path, name))
		return err == nil
	}

	switch {
	case exists("package.json"):
		return TypeNodeJS
	case exists("requirements.txt") || exists("setup.py"):
		return TypePython
	case exists("pom.xml"):
		return TypeJava
	case exists(".git"):
		return TypeGit
	default:
		return TypeGenerico
	}
}

// Estimate holds the pre-compression measurement of a source tree.
type Estimate struct {
	TotalBytes int64
	TotalFiles int
}

// EstimateDirectory walks the tree under the same exclusion rules the
// compressor will use and totals the surviving files. Unreadable entries
// are skipped. The result feeds progress reporting only; it is never
// persisted.
func EstimateDirectory(path string, filter *exclusion.Filter) Estimate {
	var est Estimate

	_ = filepath.WalkDir(path, func(entry string, d fs.DirEntry, err error) error {
		if err != nil {
			if entry == path {
				return err
			}
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			if entry != path && filter.ShouldExclude(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}

		if filter.ShouldExclude(d.Name()) {
			return nil
		}
		info, statErr := d.Info()
		if statErr != nil {
			return nil
		}
		est.TotalBytes += info.Size()
		est.TotalFiles++
		return nil
	})

	return est
}

// CompressionRatio returns the size reduction as a percentage. A zero or
// negative original size yields 0.
func CompressionRatio(originalSize, compressedSize int64) float64 {
	if originalSize <= 0 {
		return 0
	}
	return float64(originalSize-compressedSize) / float64(originalSize) * 100
}
