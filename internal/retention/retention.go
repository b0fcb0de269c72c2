// Package retention prunes old archives and their catalog records
// according to count, age and total-size policies.
package retention

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/kebairia/cofre/internal/catalog"
	"github.com/kebairia/cofre/internal/logger"
)

// archiveExtensions are the suffixes recognized as archive files when
// scanning the archive directory for orphans.
var archiveExtensions = []string{".tar.gz", ".zip"}

// Stats reports the outcome of one cleanup run.
type Stats struct {
	RemovedCount int
	KeptCount    int
	FreedBytes   int64
}

// Manager applies retention policies against one catalog and its archive
// directory.
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

// CleanupByAgeAndCount removes, within each source directory group, every
// record that sits past the maxPerDirectory newest or whose timestamp is
// older than daysToKeep days. Either condition alone marks a record.
// A marked record whose file is already gone is still removed from the
// catalog.
func (m *Manager) CleanupByAgeAndCount(daysToKeep, maxPerDirectory int) Stats {
	all := m.catalog.All()
	if len(all) == 0 {
		return Stats{}
	}

	cutoff := time.Now().AddDate(0, 0, -daysToKeep)
	grouped := m.catalog.GroupedByDirectory()

	var stats Stats
	var toRemove []string

	for dirName, records := range grouped {
		// Newest first, so the index is the record's age rank.
		sort.SliceStable(records, func(i, j int) bool {
			return records[i].DataCriacao > records[j].DataCriacao
		})

		for i, record := range records {
			overCount := i >= maxPerDirectory
			tooOld := recordTime(record).Before(cutoff)
			if !overCount && !tooOld {
				continue
			}

			archivePath := filepath.Join(m.archiveDir, record.Arquivo)
			if info, err := os.Stat(archivePath); err == nil {
				if err := os.Remove(archivePath); err != nil {
					m.log.Warn("failed to delete archive",
						"directory", dirName, "archive", record.Arquivo, "error", err)
					continue
				}
				stats.FreedBytes += info.Size()
				m.log.Info("deleted outdated archive",
					"directory", dirName, "archive", record.Arquivo,
					"overCount", overCount, "tooOld", tooOld)
			} else {
				m.log.Warn("archive already missing, dropping record",
					"directory", dirName, "archive", record.Arquivo)
			}
			toRemove = append(toRemove, record.Arquivo)
		}
	}

	for _, name := range toRemove {
		m.catalog.Remove(name)
	}

	stats.RemovedCount = len(toRemove)
	stats.KeptCount = len(all) - len(toRemove)
	return stats
}

// CleanupBySize deletes archives oldest-first until the catalog's total
// compressed size is within maxTotalBytes. Newer records are untouched
// once the running total fits, even if individually large.
func (m *Manager) CleanupBySize(maxTotalBytes int64) Stats {
	currentSize := m.catalog.TotalSize()
	if currentSize <= maxTotalBytes {
		return Stats{KeptCount: m.catalog.Len()}
	}

	var stats Stats
	var toRemove []string

	for _, record := range m.catalog.SortedByDate(false) {
		if currentSize-stats.FreedBytes <= maxTotalBytes {
			break
		}

		archivePath := filepath.Join(m.archiveDir, record.Arquivo)
		if info, err := os.Stat(archivePath); err == nil {
			if err := os.Remove(archivePath); err != nil {
				m.log.Warn("failed to delete archive",
					"archive", record.Arquivo, "error", err)
				continue
			}
			stats.FreedBytes += info.Size()
			m.log.Info("deleted archive to reclaim space", "archive", record.Arquivo)
		}
		toRemove = append(toRemove, record.Arquivo)
	}

	for _, name := range toRemove {
		m.catalog.Remove(name)
	}

	stats.RemovedCount = len(toRemove)
	stats.KeptCount = m.catalog.Len()
	return stats
}

// RemoveOrphanFiles deletes every archive file in the archive directory
// that no catalog record references. Records pointing at missing files
// are left alone; this pass only touches files.
func (m *Manager) RemoveOrphanFiles() int {
	entries, err := os.ReadDir(m.archiveDir)
	if err != nil {
		if !os.IsNotExist(err) {
			m.log.Warn("cannot read archive directory", "path", m.archiveDir, "error", err)
		}
		return 0
	}

	referenced := make(map[string]struct{})
	for _, record := range m.catalog.All() {
		referenced[record.Arquivo] = struct{}{}
	}

	removed := 0
	for _, entry := range entries {
		if entry.IsDir() || !isArchiveName(entry.Name()) {
			continue
		}
		if _, ok := referenced[entry.Name()]; ok {
			continue
		}
		path := filepath.Join(m.archiveDir, entry.Name())
		if err := os.Remove(path); err != nil {
			m.log.Warn("failed to delete orphan archive", "path", path, "error", err)
			continue
		}
		m.log.Info("deleted orphan archive", "archive", entry.Name())
		removed++
	}
	return removed
}

func isArchiveName(name string) bool {
	for _, ext := range archiveExtensions {
		if strings.HasSuffix(name, ext) {
			return true
		}
	}
	return false
}

// recordTime parses a record's creation timestamp. Unparseable timestamps
// sort as the zero time, so they age out of any cutoff.
func recordTime(r catalog.Record) time.Time {
	t, err := time.ParseInLocation(catalog.TimeLayout, r.DataCriacao, time.Local)
	if err != nil {
		return time.Time{}
	}
	return t
}
