package compress

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kebairia/cofre/internal/exclusion"
)

// buildSourceTree creates a small project-like tree and returns its root.
//
//	src/
//	  main.go
//	  app.log          (excluded by *.log)
//	  docs/guide.md
//	  node_modules/    (excluded by name, subtree never counted)
//	    lib/index.js
func buildSourceTree(t *testing.T) string {
	t.Helper()
	root := filepath.Join(t.TempDir(), "src")

	files := map[string]string{
		"main.go":                    "package main\n",
		"app.log":                    "log line\n",
		"docs/guide.md":              "# guide\n",
		"node_modules/lib/index.js":  "module.exports = {}\n",
		"node_modules/lib/index.map": "{}\n",
	}
	for name, content := range files {
		path := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
	return root
}

func TestNew_Factory(t *testing.T) {
	tests := []struct {
		format  Format
		wantExt string
		wantErr bool
	}{
		{"tar", ".tar.gz", false},
		{"TAR", ".tar.gz", false},
		{"zip", ".zip", false},
		{"Zip", ".zip", false},
		{"rar", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		c, err := New(tt.format)
		if tt.wantErr {
			assert.ErrorIs(t, err, ErrUnsupportedFormat, "format %q", tt.format)
			continue
		}
		require.NoError(t, err, "format %q", tt.format)
		assert.Equal(t, tt.wantExt, c.Extension())
	}
}

func TestCompress_RoundTrip(t *testing.T) {
	for _, format := range []Format{FormatTar, FormatZip} {
		t.Run(string(format), func(t *testing.T) {
			source := buildSourceTree(t)
			comp, err := New(format)
			require.NoError(t, err)

			filter := exclusion.NewFilter([]string{"*.log", "node_modules"})
			archive := filepath.Join(t.TempDir(), "out"+comp.Extension())

			var lastProgress int
			stats, err := comp.Compress(source, archive, filter, func(n int) { lastProgress = n }, 6)
			require.NoError(t, err)

			assert.Equal(t, 2, stats.FilesAdded)
			assert.Equal(t, 1, stats.FilesExcluded)
			assert.Equal(t, 1, stats.DirsExcluded)
			assert.Equal(t, 2, lastProgress)
			assert.Positive(t, fileSize(t, archive))

			dest := t.TempDir()
			require.NoError(t, comp.Decompress(archive, dest))

			// Entries are rooted at the source directory's own name.
			restored := filepath.Join(dest, "src")
			assertFileContent(t, filepath.Join(restored, "main.go"), "package main\n")
			assertFileContent(t, filepath.Join(restored, "docs/guide.md"), "# guide\n")
			assert.NoFileExists(t, filepath.Join(restored, "app.log"))
			assert.NoDirExists(t, filepath.Join(restored, "node_modules"))
		})
	}
}

func TestCompress_NoExclusions(t *testing.T) {
	source := buildSourceTree(t)
	comp, err := New(FormatTar)
	require.NoError(t, err)

	archive := filepath.Join(t.TempDir(), "out.tar.gz")
	stats, err := comp.Compress(source, archive, exclusion.NewFilter(nil), nil, 6)
	require.NoError(t, err)

	assert.Equal(t, 5, stats.FilesAdded)
	assert.Zero(t, stats.FilesExcluded)
	assert.Zero(t, stats.DirsExcluded)
}

func TestCompress_CompressionLevels(t *testing.T) {
	source := filepath.Join(t.TempDir(), "src")
	require.NoError(t, os.MkdirAll(source, 0755))
	// Compressible payload so levels actually differ in output size.
	payload := make([]byte, 64*1024)
	for i := range payload {
		payload[i] = byte('a' + i%4)
	}
	require.NoError(t, os.WriteFile(filepath.Join(source, "data.txt"), payload, 0644))

	for _, format := range []Format{FormatTar, FormatZip} {
		comp, err := New(format)
		require.NoError(t, err)

		fast := filepath.Join(t.TempDir(), "fast"+comp.Extension())
		best := filepath.Join(t.TempDir(), "best"+comp.Extension())

		_, err = comp.Compress(source, fast, exclusion.NewFilter(nil), nil, 0)
		require.NoError(t, err)
		_, err = comp.Compress(source, best, exclusion.NewFilter(nil), nil, 9)
		require.NoError(t, err)

		assert.Less(t, fileSize(t, best), fileSize(t, fast),
			"format %s: level 9 should beat level 0 on compressible data", format)
	}
}

func TestCompress_PerFileFailureCountedExcluded(t *testing.T) {
	source := filepath.Join(t.TempDir(), "src")
	require.NoError(t, os.MkdirAll(source, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(source, "good.txt"), []byte("ok"), 0644))
	// A dangling symlink survives the walk but fails when the archiver
	// stats it, exercising the add-time failure path.
	require.NoError(t, os.Symlink(filepath.Join(source, "missing"), filepath.Join(source, "broken.txt")))

	for _, format := range []Format{FormatTar, FormatZip} {
		t.Run(string(format), func(t *testing.T) {
			comp, err := New(format)
			require.NoError(t, err)

			archive := filepath.Join(t.TempDir(), "out"+comp.Extension())
			stats, err := comp.Compress(source, archive, exclusion.NewFilter(nil), nil, 6)
			require.NoError(t, err)

			// The failed file is folded into the excluded counter and
			// the run still produces a valid archive.
			assert.Equal(t, 1, stats.FilesAdded)
			assert.Equal(t, 1, stats.FilesExcluded)
			assert.Zero(t, stats.DirsExcluded)

			dest := t.TempDir()
			require.NoError(t, comp.Decompress(archive, dest))
			assert.FileExists(t, filepath.Join(dest, "src", "good.txt"))
			assert.NoFileExists(t, filepath.Join(dest, "src", "broken.txt"))
		})
	}
}

func TestCompress_MissingSource(t *testing.T) {
	comp, err := New(FormatZip)
	require.NoError(t, err)

	archive := filepath.Join(t.TempDir(), "out.zip")
	_, err = comp.Compress(filepath.Join(t.TempDir(), "missing"), archive, exclusion.NewFilter(nil), nil, 6)
	assert.Error(t, err)
}

func TestDecompress_RejectsTraversal(t *testing.T) {
	_, err := sanitizeEntryName(t.TempDir(), "../evil.txt")
	assert.Error(t, err)

	_, err = sanitizeEntryName(t.TempDir(), "ok/nested.txt")
	assert.NoError(t, err)
}

func fileSize(t *testing.T, path string) int64 {
	t.Helper()
	info, err := os.Stat(path)
	require.NoError(t, err)
	return info.Size()
}

func assertFileContent(t *testing.T, path, want string) {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, want, string(data))
}
