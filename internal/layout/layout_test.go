package layout

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureDomain_CreatesAllSubdirs(t *testing.T) {
	root := t.TempDir()
	l := New(root)

	require.NoError(t, l.EnsureDomain("example_com"))

	for _, sub := range domainSubdirs {
		info, err := os.Stat(l.Dir("example_com", sub))
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}
}

func TestArchivePriorRun_MovesExistingDomain(t *testing.T) {
	root := t.TempDir()
	l := New(root)
	require.NoError(t, l.EnsureDomain("example_com"))

	marker := filepath.Join(l.DomainRoot("example_com"), DirReports, "prior.xlsx")
	require.NoError(t, os.WriteFile(marker, []byte("old"), 0644))

	ts := time.Unix(1700000000, 0)
	require.NoError(t, l.ArchivePriorRun("example_com", ts))

	_, err := os.Stat(l.DomainRoot("example_com"))
	assert.True(t, os.IsNotExist(err))

	archived := filepath.Join(l.RunsRoot(), "example_com_1700000000", DirReports, "prior.xlsx")
	data, err := os.ReadFile(archived)
	require.NoError(t, err)
	assert.Equal(t, "old", string(data))
}

func TestArchivePriorRun_NoOpWhenMissing(t *testing.T) {
	root := t.TempDir()
	l := New(root)

	err := l.ArchivePriorRun("never_existed", time.Now())
	assert.NoError(t, err)
}

func TestWriteAtomic_ReaderNeverSeesPartialFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "state.json")

	require.NoError(t, WriteAtomic(path, []byte(`{"a":1}`), 0644))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":1}`, string(data))

	require.NoError(t, WriteAtomic(path, []byte(`{"a":2}`), 0644))
	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":2}`, string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no leftover temp files")
}

func TestSlugify(t *testing.T) {
	assert.Equal(t, "www_example_com", Slugify("www.example.com"))
	assert.Equal(t, "example_com_8080", Slugify("example.com:8080"))
}
