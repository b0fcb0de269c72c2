package compress

import (
	"archive/zip"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/flate"

	"github.com/kebairia/cofre/internal/exclusion"
)

// zipCompressor writes .zip archives with deflate entries.
type zipCompressor struct{}

var _ Compressor = (*zipCompressor)(nil)

func (c *zipCompressor) Extension() string {
	return ".zip"
}

func (c *zipCompressor) Compress(sourceDir, outputPath string, filter *exclusion.Filter, progress ProgressFunc, level int) (Stats, error) {
	outFile, err := os.Create(outputPath)
	if err != nil {
		return Stats{}, fmt.Errorf("create archive %q: %w", outputPath, err)
	}
	defer outFile.Close()

	zipWriter := zip.NewWriter(outFile)
	// archive/zip has no level knob of its own; register a deflate
	// compressor at the requested level instead.
	zipWriter.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(out, level)
	})

	stats, walkErr := walkSource(sourceDir, filter, progress, func(path, arcName string) error {
		return addZipEntry(zipWriter, path, arcName)
	})

	if err := zipWriter.Close(); err != nil {
		return stats, fmt.Errorf("close zip stream: %w", err)
	}
	if walkErr != nil {
		return stats, fmt.Errorf("walk %q: %w", sourceDir, walkErr)
	}
	return stats, nil
}

func addZipEntry(zw *zip.Writer, path, arcName string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}

	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return err
	}
	header.Name = arcName
	header.Method = zip.Deflate

	w, err := zw.CreateHeader(header)
	if err != nil {
		return err
	}

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = io.Copy(w, f)
	return err
}

func (c *zipCompressor) Decompress(archivePath, destParent string) error {
	reader, err := zip.OpenReader(archivePath)
	if err != nil {
		return fmt.Errorf("open archive %q: %w", archivePath, err)
	}
	defer reader.Close()

	for _, entry := range reader.File {
		target, err := sanitizeEntryName(destParent, entry.Name)
		if err != nil {
			return err
		}

		if entry.FileInfo().IsDir() {
			if err := os.MkdirAll(target, entry.Mode()); err != nil {
				return fmt.Errorf("create directory %q: %w", target, err)
			}
			continue
		}

		rc, err := entry.Open()
		if err != nil {
			return fmt.Errorf("open entry %q: %w", entry.Name, err)
		}
		err = writeExtractedFile(target, rc, entry.Mode())
		rc.Close()
		if err != nil {
			return err
		}
	}
	return nil
}
