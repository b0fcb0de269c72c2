package restore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kebairia/cofre/internal/catalog"
	"github.com/kebairia/cofre/internal/compress"
	"github.com/kebairia/cofre/internal/exclusion"
	"github.com/kebairia/cofre/internal/integrity"
)

type fixture struct {
	catalog    *catalog.Catalog
	archiveDir string
	manager    *Manager
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()
	cat := catalog.New(filepath.Join(dir, "catalog.json"))
	return &fixture{
		catalog:    cat,
		archiveDir: dir,
		manager:    NewManager(cat, dir),
	}
}

// archiveSource compresses a tiny source tree into the archive directory
// and catalogs it, returning the archive name.
func (f *fixture) archiveSource(t *testing.T, format compress.Format, date string) string {
	t.Helper()
	source := filepath.Join(t.TempDir(), "proj")
	require.NoError(t, os.MkdirAll(source, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(source, "file.txt"), []byte("conteudo"), 0644))

	comp, err := compress.New(format)
	require.NoError(t, err)

	name := "backup_proj_" + date + comp.Extension()
	archivePath := filepath.Join(f.archiveDir, name)
	_, err = comp.Compress(source, archivePath, exclusion.NewFilter(nil), nil, 6)
	require.NoError(t, err)

	require.NoError(t, f.catalog.Add(catalog.Record{
		Arquivo:       name,
		NomeDiretorio: "proj",
		DataCriacao:   "2026-01-01T00:00:00",
		TamanhoBackup: 1,
		HashMD5:       integrity.MD5(archivePath),
		Formato:       string(format),
	}))
	return name
}

func TestListAvailable_GroupsNewestFirst(t *testing.T) {
	f := newFixture(t)
	for i, date := range []string{"2026-01-01T00:00:00", "2026-01-03T00:00:00", "2026-01-02T00:00:00"} {
		require.NoError(t, f.catalog.Add(catalog.Record{
			Arquivo:       []string{"a", "b", "c"}[i] + ".tar.gz",
			NomeDiretorio: "proj",
			DataCriacao:   date,
		}))
	}
	require.NoError(t, f.catalog.Add(catalog.Record{
		Arquivo:       "x.zip",
		NomeDiretorio: "other",
		DataCriacao:   "2026-01-01T00:00:00",
	}))

	grouped := f.manager.ListAvailable()
	require.Len(t, grouped, 2)
	proj := grouped["proj"]
	require.Len(t, proj, 3)
	assert.Equal(t, "b.tar.gz", proj[0].Arquivo)
	assert.Equal(t, "a.tar.gz", proj[2].Arquivo)
}

func TestRestoreByName(t *testing.T) {
	for _, format := range []compress.Format{compress.FormatTar, compress.FormatZip} {
		t.Run(string(format), func(t *testing.T) {
			f := newFixture(t)
			name := f.archiveSource(t, format, "20260101_000000")

			dest := filepath.Join(t.TempDir(), "restored")
			require.NoError(t, f.manager.RestoreByName(name, dest))

			// Extraction recreates the archived top-level name under the
			// destination's parent.
			restored := filepath.Join(filepath.Dir(dest), "proj", "file.txt")
			data, err := os.ReadFile(restored)
			require.NoError(t, err)
			assert.Equal(t, "conteudo", string(data))
		})
	}
}

func TestRestoreByName_NotInCatalog(t *testing.T) {
	f := newFixture(t)
	err := f.manager.RestoreByName("nope.tar.gz", t.TempDir())
	assert.ErrorIs(t, err, ErrNotInCatalog)
}

func TestRestoreByName_FileMissing(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.catalog.Add(catalog.Record{
		Arquivo:       "gone.tar.gz",
		NomeDiretorio: "proj",
		DataCriacao:   "2026-01-01T00:00:00",
	}))
	err := f.manager.RestoreByName("gone.tar.gz", t.TempDir())
	assert.ErrorIs(t, err, ErrArchiveMissing)
}

func TestRestoreByName_SuffixWinsOverRecordFormat(t *testing.T) {
	f := newFixture(t)
	name := f.archiveSource(t, compress.FormatZip, "20260101_000000")

	// Corrupt the stored format field; the suffix still decides.
	records := f.catalog.All()
	require.NoError(t, f.catalog.Clear())
	records[0].Formato = "tar"
	require.NoError(t, f.catalog.Add(records[0]))

	dest := filepath.Join(t.TempDir(), "restored")
	require.NoError(t, f.manager.RestoreByName(name, dest))
	assert.FileExists(t, filepath.Join(filepath.Dir(dest), "proj", "file.txt"))
}

func TestVerifyIntegrity(t *testing.T) {
	f := newFixture(t)
	name := f.archiveSource(t, compress.FormatTar, "20260101_000000")

	ok, err := f.manager.VerifyIntegrity(name)
	require.NoError(t, err)
	assert.True(t, ok)

	// Flip one byte of the archive.
	archivePath := filepath.Join(f.archiveDir, name)
	data, err := os.ReadFile(archivePath)
	require.NoError(t, err)
	data[len(data)/2] ^= 0xff
	require.NoError(t, os.WriteFile(archivePath, data, 0644))

	ok, err = f.manager.VerifyIntegrity(name)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestVerifyIntegrity_SHA256Digest(t *testing.T) {
	f := newFixture(t)
	name := f.archiveSource(t, compress.FormatTar, "20260101_000000")
	archivePath := filepath.Join(f.archiveDir, name)

	// Re-catalog the archive with a SHA-256 digest, as a catalog
	// configured for sha256 would store it.
	records := f.catalog.All()
	require.NoError(t, f.catalog.Clear())
	records[0].HashMD5 = integrity.SHA256(archivePath)
	require.Len(t, records[0].HashMD5, 64)
	require.NoError(t, f.catalog.Add(records[0]))

	ok, err := f.manager.VerifyIntegrity(name)
	require.NoError(t, err)
	assert.True(t, ok)

	data, err := os.ReadFile(archivePath)
	require.NoError(t, err)
	data[len(data)/2] ^= 0xff
	require.NoError(t, os.WriteFile(archivePath, data, 0644))

	ok, err = f.manager.VerifyIntegrity(name)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestVerifyIntegrity_NoStoredHash(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.catalog.Add(catalog.Record{
		Arquivo:       "nohash.tar.gz",
		NomeDiretorio: "proj",
		DataCriacao:   "2026-01-01T00:00:00",
	}))
	_, err := f.manager.VerifyIntegrity("nohash.tar.gz")
	assert.ErrorIs(t, err, ErrNoStoredHash)
}

func TestVerifyIntegrity_NotInCatalog(t *testing.T) {
	f := newFixture(t)
	_, err := f.manager.VerifyIntegrity("nope.zip")
	assert.ErrorIs(t, err, ErrNotInCatalog)
}

func TestFormatFromName(t *testing.T) {
	format, err := formatFromName("a.tar.gz")
	require.NoError(t, err)
	assert.Equal(t, compress.FormatTar, format)

	format, err = formatFromName("a.zip")
	require.NoError(t, err)
	assert.Equal(t, compress.FormatZip, format)

	_, err = formatFromName("a.rar")
	assert.ErrorIs(t, err, compress.ErrUnsupportedFormat)
}
