// Package restore extracts cataloged archives and verifies their
// integrity against the recorded content hash.
package restore

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/kebairia/cofre/internal/catalog"
	"github.com/kebairia/cofre/internal/compress"
	"github.com/kebairia/cofre/internal/integrity"
	"github.com/kebairia/cofre/internal/logger"
)

var (
	// ErrNotInCatalog indicates the archive name has no catalog record.
	ErrNotInCatalog = errors.New("backup not found in catalog")
	// ErrArchiveMissing indicates the record exists but the file is gone.
	ErrArchiveMissing = errors.New("archive file missing")
	// ErrNoStoredHash indicates the record carries no hash to verify against.
	ErrNoStoredHash = errors.New("record has no stored hash")
)

// Manager restores archives listed in the catalog.
type Manager struct {
	catalog    *catalog.Catalog
	archiveDir string
	log        logger.Logger
}

// NewManager builds a Manager over the given catalog and archive directory.
func NewManager(cat *catalog.Catalog, archiveDir string) *Manager {
	return &Manager{
		catalog:    cat,
		archiveDir: archiveDir,
		log:        logger.Global(),
	}
}

// ListAvailable returns the catalog grouped by source directory, each
// group sorted newest-first, ready for presentation.
func (m *Manager) ListAvailable() map[string][]catalog.Record {
	grouped := m.catalog.GroupedByDirectory()
	for _, records := range grouped {
		sort.SliceStable(records, func(i, j int) bool {
			return records[i].DataCriacao > records[j].DataCriacao
		})
	}
	return grouped
}

// RestoreByName extracts the named archive under the parent of
// destination. The extraction recreates the archived top-level directory
// name, so destination's own leaf name is advisory.
//
// The archive format is resolved from the file name suffix, not from the
// record's stored format field; when the two disagree, the suffix wins.
func (m *Manager) RestoreByName(archiveName, destination string) error {
	record := m.findRecord(archiveName)
	if record == nil {
		return fmt.Errorf("%w: %q", ErrNotInCatalog, archiveName)
	}

	archivePath := filepath.Join(m.archiveDir, archiveName)
	if _, err := os.Stat(archivePath); err != nil {
		return fmt.Errorf("%w: %q", ErrArchiveMissing, archivePath)
	}

	format, err := formatFromName(archiveName)
	if err != nil {
		return err
	}
	comp, err := compress.New(format)
	if err != nil {
		return err
	}

	destParent := filepath.Dir(destination)
	m.log.Info("restoring backup",
		"archive", archiveName, "format", string(format), "destination", destParent,
		"source", record.DiretorioOrigem)

	if err := comp.Decompress(archivePath, destParent); err != nil {
		return fmt.Errorf("extract %q: %w", archiveName, err)
	}
	return nil
}

// VerifyIntegrity recomputes the named archive's hash and compares it to
// the one stored in its record. It has no side effects on the catalog.
func (m *Manager) VerifyIntegrity(archiveName string) (bool, error) {
	record := m.findRecord(archiveName)
	if record == nil {
		return false, fmt.Errorf("%w: %q", ErrNotInCatalog, archiveName)
	}
	if record.HashMD5 == "" {
		return false, fmt.Errorf("%w: %q", ErrNoStoredHash, archiveName)
	}

	archivePath := filepath.Join(m.archiveDir, archiveName)
	if _, err := os.Stat(archivePath); err != nil {
		return false, fmt.Errorf("%w: %q", ErrArchiveMissing, archivePath)
	}

	return integrity.Verify(archivePath, record.HashMD5, algorithmForDigest(record.HashMD5))
}

// sha256HexLen is the hex length of a SHA-256 digest.
const sha256HexLen = 64

// algorithmForDigest picks the algorithm a stored digest was produced
// with. Records carry MD5 by default, but a catalog configured for
// SHA-256 stores 64-char digests in the same field.
func algorithmForDigest(digest string) string {
	if len(digest) == sha256HexLen {
		return integrity.AlgorithmSHA256
	}
	return integrity.AlgorithmMD5
}

func (m *Manager) findRecord(archiveName string) *catalog.Record {
	for _, record := range m.catalog.All() {
		if record.Arquivo == archiveName {
			found := record
			return &found
		}
	}
	return nil
}

// formatFromName sniffs the archive format from the file name suffix.
func formatFromName(name string) (compress.Format, error) {
	switch {
	case strings.HasSuffix(name, ".tar.gz"):
		return compress.FormatTar, nil
	case strings.HasSuffix(name, ".zip"):
		return compress.FormatZip, nil
	default:
		return "", fmt.Errorf("%w: %q", compress.ErrUnsupportedFormat, name)
	}
}
