package operations

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/kebairia/cofre/internal/catalog"
	"github.com/kebairia/cofre/internal/compress"
	"github.com/kebairia/cofre/internal/fsutil"
	"github.com/kebairia/cofre/internal/integrity"
	"github.com/kebairia/cofre/internal/logger"
)

// timestampLayout is the naming timestamp appended to every archive.
const timestampLayout = "20060102_150405"

// CreateOptions parameterizes one backup run. Zero values fall back to
// the operator's configuration: SourceDir to paths.default_source, Format
// and Level (use DefaultLevel) to the compression defaults.
type CreateOptions struct {
	SourceDir       string
	Name            string
	Format          compress.Format
	Level           int
	ExtraExclusions []string
	Progress        compress.ProgressFunc
}

// DefaultLevel marks Level as "use the configured default".
const DefaultLevel = -1

// Result describes a completed backup.
type Result struct {
	ArchiveName string
	ArchivePath string
	Estimate    Estimate
	Record      catalog.Record
}

// CreateBackup runs the full lifecycle: validate the source, measure it,
// compress it, hash the archive and append a record to the catalog. On a
// compression failure the partial archive is deleted and no record is
// written.
func (o *Operator) CreateBackup(opts CreateOptions) (Result, error) {
	source := opts.SourceDir
	if source == "" {
		source = o.cfg.Paths.DefaultSource
	}
	source, err := fsutil.ExpandPath(source)
	if err != nil {
		return Result{}, err
	}
	if source, err = filepath.Abs(source); err != nil {
		return Result{}, err
	}

	info, err := os.Stat(source)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %q", ErrSourceNotFound, source)
	}
	if !info.IsDir() {
		return Result{}, fmt.Errorf("%w: %q", ErrNotADirectory, source)
	}

	o.filter.AddPatterns(opts.ExtraExclusions)

	format := opts.Format
	if format == "" {
		format = compress.Format(o.cfg.Compression.DefaultFormat)
	}
	level := opts.Level
	if level == DefaultLevel {
		level = o.cfg.Compression.DefaultLevel
	}

	compressor, err := compress.New(format)
	if err != nil {
		return Result{}, err
	}

	dirName := filepath.Base(source)
	dirType := DetectDirectoryType(source)

	// First traversal: measure what the archive will contain, for the
	// progress denominator and the record's original size.
	estimate := EstimateDirectory(source, o.filter)
	o.log.Info("starting backup",
		"source", source, "type", dirType, "format", string(format),
		"estimatedFiles", estimate.TotalFiles, "estimatedBytes", estimate.TotalBytes)

	prefix := opts.Name
	if prefix == "" {
		prefix = "backup_" + dirName
	}
	archiveName := fmt.Sprintf("%s_%s%s", prefix, time.Now().Format(timestampLayout), compressor.Extension())
	archivePath := filepath.Join(o.cfg.Paths.ArchiveDir, archiveName)

	tracker := newProgressTracker(estimate.TotalFiles, o.log, opts.Progress)

	// Second traversal: the actual archive write.
	stats, err := compressor.Compress(source, archivePath, o.filter, tracker.update, level)
	if err != nil {
		fsutil.SafeRemove(archivePath)
		return Result{}, fmt.Errorf("create backup of %q: %w", source, err)
	}

	archiveSize := fsutil.FileSize(archivePath)
	digest, err := integrity.Hash(archivePath, o.cfg.Hash.Algorithm)
	if err != nil {
		fsutil.SafeRemove(archivePath)
		return Result{}, err
	}

	record := catalog.Record{
		Arquivo:             archiveName,
		DiretorioOrigem:     source,
		NomeDiretorio:       dirName,
		DataCriacao:         time.Now().Format(catalog.TimeLayout),
		TamanhoOriginal:     estimate.TotalBytes,
		TamanhoBackup:       archiveSize,
		TaxaCompressao:      CompressionRatio(estimate.TotalBytes, archiveSize),
		TotalArquivos:       stats.FilesAdded,
		ArquivosExcluidos:   stats.FilesExcluded,
		DiretoriosExcluidos: stats.DirsExcluded,
		TipoDiretorio:       dirType,
		HashMD5:             digest,
		CompressaoMaxima:    level >= 9,
		Formato:             string(format),
	}

	if err := o.catalog.Add(record); err != nil {
		// The archive itself is good; a failed catalog write leaves it
		// as an orphan for removeOrphanFiles rather than destroying it.
		o.log.Warn("failed to persist catalog entry", "archive", archiveName, "error", err)
	}

	o.log.Info("backup complete",
		"archive", archiveName,
		"files", stats.FilesAdded,
		"excludedFiles", stats.FilesExcluded,
		"excludedDirs", stats.DirsExcluded,
		"bytes", archiveSize,
		"ratio", record.TaxaCompressao)

	return Result{
		ArchiveName: archiveName,
		ArchivePath: archivePath,
		Estimate:    estimate,
		Record:      record,
	}, nil
}

// progressTracker throttles progress reporting to file-count milestones of
// roughly 2% of the estimate, never finer than 100 files.
type progressTracker struct {
	totalEstimated int
	interval       int
	lastReported   int
	log            logger.Logger
	forward        compress.ProgressFunc
}

func newProgressTracker(totalEstimated int, log logger.Logger, forward compress.ProgressFunc) *progressTracker {
	interval := totalEstimated / 50
	if interval < 100 {
		interval = 100
	}
	return &progressTracker{
		totalEstimated: totalEstimated,
		interval:       interval,
		log:            log,
		forward:        forward,
	}
}

func (p *progressTracker) update(current int) {
	if p.forward != nil {
		p.forward(current)
	}
	if current-p.lastReported < p.interval {
		return
	}
	p.lastReported = current
	if p.totalEstimated > 0 {
		p.log.Info("backup progress",
			"files", current,
			"estimated", p.totalEstimated,
			"percent", float64(current)/float64(p.totalEstimated)*100)
	} else {
		p.log.Info("backup progress", "files", current)
	}
}
