package objectstore_test

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seqvault/seqvault/internal/objectstore"
)

func TestPaths(t *testing.T) {
	s := objectstore.New(afero.NewMemMapFs(), "/data")

	testCases := []struct {
		id    uint64
		path  string
		extra string
	}{
		{id: 1, path: "000/dataset_1.dat", extra: "000/dataset_1_files"},
		{id: 999, path: "000/dataset_999.dat", extra: "000/dataset_999_files"},
		{id: 1000, path: "001/dataset_1000.dat", extra: "001/dataset_1000_files"},
		{id: 1234567, path: "1234/dataset_1234567.dat", extra: "1234/dataset_1234567_files"},
	}

	for _, tc := range testCases {
		assert.Equal(t, tc.path, s.Path(tc.id))
		assert.Equal(t, tc.extra, s.ExtraFilesPath(tc.id))
		assert.Equal(t, filepath.Join("/data", tc.path), s.FullPath(tc.id))
		assert.Equal(t, filepath.Join("/data", tc.extra), s.FullExtraFilesPath(tc.id))
	}
}

func TestWriteSizeRemove(t *testing.T) {
	fsys := afero.NewMemMapFs()
	s := objectstore.New(fsys, "/data")

	ok, err := s.Exists(7)
	require.NoError(t, err)
	assert.False(t, ok)

	n, err := s.Write(7, strings.NewReader("ACGTACGT"))
	require.NoError(t, err)
	assert.Equal(t, int64(8), n)

	size, err := s.Size(7)
	require.NoError(t, err)
	assert.Equal(t, int64(8), size)

	total, err := s.TotalSize(7)
	require.NoError(t, err)
	assert.Equal(t, int64(8), total)

	require.NoError(t, afero.WriteFile(fsys, "/data/000/dataset_7_files/index.bai", []byte("12"), 0o640))

	total, err = s.TotalSize(7)
	require.NoError(t, err)
	assert.Equal(t, int64(10), total)

	require.NoError(t, s.Remove(7))

	ok, err = s.Exists(7)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = afero.DirExists(fsys, "/data/000/dataset_7_files")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRemoveMissingIsNoop(t *testing.T) {
	s := objectstore.New(afero.NewMemMapFs(), "/data")

	require.NoError(t, s.Remove(42))
}

func TestSizeMissing(t *testing.T) {
	s := objectstore.New(afero.NewMemMapFs(), "/data")

	_, err := s.Size(42)
	require.Error(t, err)
}

func TestNewDisk(t *testing.T) {
	root := filepath.Join(t.TempDir(), "files")

	s, err := objectstore.NewDisk(root)
	require.NoError(t, err)
	assert.Equal(t, "files", s.ID())

	_, err = s.Write(3, strings.NewReader("data"))
	require.NoError(t, err)

	ok, err := afero.Exists(afero.NewOsFs(), filepath.Join(root, "000", "dataset_3.dat"))
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestNewDiskReportsAbsolutePaths(t *testing.T) {
	root := t.TempDir()

	s, err := objectstore.NewDisk(root)
	require.NoError(t, err)

	assert.True(t, filepath.IsAbs(s.FullPath(1)))
	assert.Equal(t, filepath.Join(root, "000", "dataset_1.dat"), s.FullPath(1))
}
