package compress

import (
	"archive/tar"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/pgzip"

	"github.com/kebairia/cofre/internal/exclusion"
)

// tarCompressor writes .tar.gz archives with a gzip-compressed tar stream.
type tarCompressor struct{}

var _ Compressor = (*tarCompressor)(nil)

func (c *tarCompressor) Extension() string {
	return ".tar.gz"
}

func (c *tarCompressor) Compress(sourceDir, outputPath string, filter *exclusion.Filter, progress ProgressFunc, level int) (Stats, error) {
	outFile, err := os.Create(outputPath)
	if err != nil {
		return Stats{}, fmt.Errorf("create archive %q: %w", outputPath, err)
	}
	defer outFile.Close()

	gzWriter, err := pgzip.NewWriterLevel(outFile, level)
	if err != nil {
		return Stats{}, fmt.Errorf("gzip writer (level %d): %w", level, err)
	}
	tarWriter := tar.NewWriter(gzWriter)

	stats, walkErr := walkSource(sourceDir, filter, progress, func(path, arcName string) error {
		return addTarEntry(tarWriter, path, arcName)
	})

	if err := tarWriter.Close(); err != nil {
		return stats, fmt.Errorf("close tar stream: %w", err)
	}
	if err := gzWriter.Close(); err != nil {
		return stats, fmt.Errorf("close gzip stream: %w", err)
	}
	if walkErr != nil {
		return stats, fmt.Errorf("walk %q: %w", sourceDir, walkErr)
	}
	return stats, nil
}

func addTarEntry(tw *tar.Writer, path, arcName string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}

	header, err := tar.FileInfoHeader(info, "")
	if err != nil {
		return err
	}
	header.Name = arcName

	if err := tw.WriteHeader(header); err != nil {
		return err
	}

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = io.Copy(tw, f)
	return err
}

func (c *tarCompressor) Decompress(archivePath, destParent string) error {
	f, err := os.Open(archivePath)
	if err != nil {
		return fmt.Errorf("open archive %q: %w", archivePath, err)
	}
	defer f.Close()

	gzReader, err := pgzip.NewReader(f)
	if err != nil {
		return fmt.Errorf("gzip reader: %w", err)
	}
	defer gzReader.Close()

	tarReader := tar.NewReader(gzReader)
	for {
		header, err := tarReader.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read tar entry: %w", err)
		}

		target, err := sanitizeEntryName(destParent, header.Name)
		if err != nil {
			return err
		}

		switch header.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, os.FileMode(header.Mode)); err != nil {
				return fmt.Errorf("create directory %q: %w", target, err)
			}
		case tar.TypeReg:
			if err := writeExtractedFile(target, tarReader, os.FileMode(header.Mode)); err != nil {
				return err
			}
		default:
			// Symlinks and special files are not produced by Compress;
			// foreign entries are skipped.
		}
	}
}

func writeExtractedFile(target string, r io.Reader, mode os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return fmt.Errorf("create directory for %q: %w", target, err)
	}
	out, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode)
	if err != nil {
		return fmt.Errorf("create file %q: %w", target, err)
	}
	defer out.Close()

	if _, err := io.Copy(out, r); err != nil {
		return fmt.Errorf("write file %q: %w", target, err)
	}
	return nil
}
