package seginfo_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iamNilotpal/ignitedb/internal/seginfo"
)

func TestGenerateAndParseSegmentID(t *testing.T) {
	name := seginfo.GenerateName(7, "log")
	assert.Equal(t, "log_7", name)

	id, err := seginfo.ParseSegmentID(name, "log")
	require.NoError(t, err)
	assert.Equal(t, uint64(7), id)
}

func TestParseSegmentIDRejectsMismatchedPrefix(t *testing.T) {
	_, err := seginfo.ParseSegmentID("sled_3", "log")
	assert.Error(t, err)
}

func TestListSortsNumericallyNotLexicographically(t *testing.T) {
	dir := t.TempDir()
	segDir := "segments"
	require.NoError(t, os.MkdirAll(filepath.Join(dir, segDir), 0755))

	for _, id := range []uint64{1, 2, 10} {
		name := seginfo.GenerateName(id, "log")
		f, err := os.Create(filepath.Join(dir, segDir, name))
		require.NoError(t, err)
		require.NoError(t, f.Close())
	}

	ids, err := seginfo.List(dir, segDir, "log")
	require.NoError(t, err)
	// A string sort would put "log_10" before "log_2"; numeric sort must not.
	assert.Equal(t, []uint64{1, 2, 10}, ids)
}

func TestGetLatestSegmentInfoEmptyDirectory(t *testing.T) {
	dir := t.TempDir()
	segDir := "segments"
	require.NoError(t, os.MkdirAll(filepath.Join(dir, segDir), 0755))

	id, info, err := seginfo.GetLatestSegmentInfo(dir, segDir, "log")
	require.NoError(t, err)
	assert.Zero(t, id)
	assert.Nil(t, info)
}

func TestGetLatestSegmentInfoReturnsHighestID(t *testing.T) {
	dir := t.TempDir()
	segDir := "segments"
	require.NoError(t, os.MkdirAll(filepath.Join(dir, segDir), 0755))

	for _, id := range []uint64{1, 2, 3} {
		name := seginfo.GenerateName(id, "log")
		require.NoError(t, os.WriteFile(filepath.Join(dir, segDir, name), []byte("x"), 0644))
	}

	latest, info, err := seginfo.GetLatestSegmentInfo(dir, segDir, "log")
	require.NoError(t, err)
	assert.Equal(t, uint64(3), latest)
	assert.NotNil(t, info)
}
