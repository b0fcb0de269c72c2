// Package catalog persists the record of every backup taken as a single
// JSON document, and answers queries over it.
package catalog

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/goccy/go-json"

	"github.com/kebairia/cofre/internal/logger"
)

// TimeLayout is the ISO-8601 layout used for record timestamps. It is
// zone-free and fixed-width, so lexicographic order is chronological order.
const TimeLayout = "2006-01-02T15:04:05"

// UnknownDirectory is the grouping bucket for records with no directory name.
const UnknownDirectory = "desconhecido"

// Record describes one archive. The JSON keys are the catalog's wire
// format and must not change. A record is immutable once written.
type Record struct {
	Arquivo             string  `json:"arquivo"`
	DiretorioOrigem     string  `json:"diretorio_origem"`
	NomeDiretorio       string  `json:"nome_diretorio"`
	DataCriacao         string  `json:"data_criacao"`
	TamanhoOriginal     int64   `json:"tamanho_original"`
	TamanhoBackup       int64   `json:"tamanho_backup"`
	TaxaCompressao      float64 `json:"taxa_compressao"`
	TotalArquivos       int     `json:"total_arquivos"`
	ArquivosExcluidos   int     `json:"arquivos_excluidos"`
	DiretoriosExcluidos int     `json:"diretorios_excluidos"`
	TipoDiretorio       string  `json:"tipo_diretorio"`
	HashMD5             string  `json:"hash_md5"`
	CompressaoMaxima    bool    `json:"compressao_maxima"`
	Formato             string  `json:"formato"`
}

// Statistics summarizes the whole catalog.
type Statistics struct {
	TotalBackups      int
	TotalSize         int64
	UniqueDirectories int
	OldestBackup      string
	NewestBackup      string
}

// Catalog is the insertion-ordered collection of records backed by one
// JSON file. Every mutation rewrites the file in full.
type Catalog struct {
	path    string
	records []Record
	log     logger.Logger
}

// New opens the catalog at path, loading existing records if the file
// exists. A missing or unreadable file yields an empty catalog.
func New(path string) *Catalog {
	c := &Catalog{path: path, log: logger.Global()}
	c.Load()
	return c
}

// Path returns the catalog's backing file path.
func (c *Catalog) Path() string {
	return c.path
}

// Load reads the backing file into memory. A missing file starts an empty
// catalog. A file that is not valid JSON is preserved next to the catalog
// as "<name>.corrupt" and the catalog resets to empty; Load never fails
// on content.
func (c *Catalog) Load() {
	data, err := os.ReadFile(c.path)
	if err != nil {
		c.records = nil
		return
	}

	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		corrupt := c.path + ".corrupt"
		if writeErr := os.WriteFile(corrupt, data, 0644); writeErr == nil {
			c.log.Warn("catalog is not valid JSON, resetting",
				"path", c.path, "preserved", corrupt, "error", err)
		} else {
			c.log.Warn("catalog is not valid JSON, resetting",
				"path", c.path, "error", err)
		}
		c.records = nil
		return
	}
	c.records = records
}

// Save writes the full record list to the backing file, creating the
// parent directory if needed. The write goes to a temp file first and is
// renamed into place so a crash cannot truncate the catalog.
func (c *Catalog) Save() error {
	if err := os.MkdirAll(filepath.Dir(c.path), 0755); err != nil {
		return err
	}

	records := c.records
	if records == nil {
		records = []Record{}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(c.path), filepath.Base(c.path)+".tmp-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), c.path)
}

// Add appends a record and persists the catalog before returning.
func (c *Catalog) Add(record Record) error {
	c.records = append(c.records, record)
	return c.Save()
}

// Remove deletes the record whose archive file name matches exactly. It
// persists only when something was removed and reports whether it was.
func (c *Catalog) Remove(archiveName string) bool {
	kept := c.records[:0]
	for _, r := range c.records {
		if r.Arquivo != archiveName {
			kept = append(kept, r)
		}
	}
	removed := len(kept) < len(c.records)
	c.records = kept
	if removed {
		if err := c.Save(); err != nil {
			c.log.Warn("failed to persist catalog after removal", "error", err)
		}
	}
	return removed
}

// Clear removes every record and persists the empty catalog.
func (c *Catalog) Clear() error {
	c.records = nil
	return c.Save()
}

// Len returns the number of records.
func (c *Catalog) Len() int {
	return len(c.records)
}

// All returns a copy of every record in insertion order.
func (c *Catalog) All() []Record {
	out := make([]Record, len(c.records))
	copy(out, c.records)
	return out
}

// ByDirectory returns the records whose source directory base name matches.
func (c *Catalog) ByDirectory(name string) []Record {
	var out []Record
	for _, r := range c.records {
		if r.NomeDiretorio == name {
			out = append(out, r)
		}
	}
	return out
}

// GroupedByDirectory groups records by source directory base name. Records
// without a name fall into the "desconhecido" bucket.
func (c *Catalog) GroupedByDirectory() map[string][]Record {
	grouped := make(map[string][]Record)
	for _, r := range c.records {
		name := r.NomeDiretorio
		if name == "" {
			name = UnknownDirectory
		}
		grouped[name] = append(grouped[name], r)
	}
	return grouped
}

// SortedByDate returns all records ordered by creation timestamp. The
// timestamps are fixed-width ISO-8601 strings, so a string sort is a
// chronological sort.
func (c *Catalog) SortedByDate(descending bool) []Record {
	out := c.All()
	sort.SliceStable(out, func(i, j int) bool {
		if descending {
			return out[i].DataCriacao > out[j].DataCriacao
		}
		return out[i].DataCriacao < out[j].DataCriacao
	})
	return out
}

// FindByHash returns the first record with the given content hash, or nil.
func (c *Catalog) FindByHash(hexDigest string) *Record {
	for _, r := range c.records {
		if r.HashMD5 == hexDigest {
			found := r
			return &found
		}
	}
	return nil
}

// TotalSize sums the compressed size of every record.
func (c *Catalog) TotalSize() int64 {
	var total int64
	for _, r := range c.records {
		total += r.TamanhoBackup
	}
	return total
}

// Stats computes summary statistics over the catalog.
func (c *Catalog) Stats() Statistics {
	if len(c.records) == 0 {
		return Statistics{}
	}
	sorted := c.SortedByDate(false)
	return Statistics{
		TotalBackups:      len(c.records),
		TotalSize:         c.TotalSize(),
		UniqueDirectories: len(c.GroupedByDirectory()),
		OldestBackup:      sorted[0].DataCriacao,
		NewestBackup:      sorted[len(sorted)-1].DataCriacao,
	}
}
