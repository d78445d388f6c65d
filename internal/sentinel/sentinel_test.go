package sentinel_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iamNilotpal/ignitedb/internal/sentinel"
)

func TestClaimCreatesMarkerFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, sentinel.Claim(dir, sentinel.KindKVS))

	_, err := os.Stat(filepath.Join(dir, sentinel.KindKVS))
	assert.NoError(t, err)
}

func TestClaimIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, sentinel.Claim(dir, sentinel.KindKVS))
	require.NoError(t, sentinel.Claim(dir, sentinel.KindKVS))
}

func TestClaimRejectsMismatchedKind(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, sentinel.Claim(dir, sentinel.KindKVS))

	err := sentinel.Claim(dir, sentinel.KindSled)
	assert.Error(t, err)
}

func TestClaimCreatesMissingDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "data")
	require.NoError(t, sentinel.Claim(dir, sentinel.KindKVS))

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}
