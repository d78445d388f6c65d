package index_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iamNilotpal/ignitedb/internal/index"
	"github.com/iamNilotpal/ignitedb/pkg/logger"
)

func newTestIndex(t *testing.T) *index.Index {
	t.Helper()
	idx, err := index.New(context.Background(), &index.Config{
		DataDir: t.TempDir(),
		Logger:  logger.New("index_test"),
	})
	require.NoError(t, err)
	return idx
}

func TestSetThenGet(t *testing.T) {
	idx := newTestIndex(t)

	require.NoError(t, idx.Set("a", index.RecordPointer{Offset: 10, SegmentID: 1}))

	ptr, ok, err := idx.Get("a")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(10), ptr.Offset)
	assert.Equal(t, uint16(1), ptr.SegmentID)
	assert.Equal(t, "a", ptr.Key)
}

func TestGetMissingKey(t *testing.T) {
	idx := newTestIndex(t)
	_, ok, err := idx.Get("missing")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSetOverwritesExistingPointer(t *testing.T) {
	idx := newTestIndex(t)
	require.NoError(t, idx.Set("a", index.RecordPointer{Offset: 1, SegmentID: 1}))
	require.NoError(t, idx.Set("a", index.RecordPointer{Offset: 99, SegmentID: 2}))

	ptr, ok, err := idx.Get("a")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(99), ptr.Offset)
	assert.Equal(t, uint16(2), ptr.SegmentID)
}

func TestDeleteRemovesKey(t *testing.T) {
	idx := newTestIndex(t)
	require.NoError(t, idx.Set("a", index.RecordPointer{Offset: 1}))

	existed, err := idx.Delete("a")
	require.NoError(t, err)
	assert.True(t, existed)

	_, ok, err := idx.Get("a")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDeleteMissingKeyReportsFalse(t *testing.T) {
	idx := newTestIndex(t)
	existed, err := idx.Delete("missing")
	require.NoError(t, err)
	assert.False(t, existed)
}

func TestSnapshotIsPointInTimeCopy(t *testing.T) {
	idx := newTestIndex(t)
	require.NoError(t, idx.Set("a", index.RecordPointer{Offset: 1}))
	require.NoError(t, idx.Set("b", index.RecordPointer{Offset: 2}))

	snap, err := idx.Snapshot()
	require.NoError(t, err)
	require.Len(t, snap, 2)

	require.NoError(t, idx.Set("c", index.RecordPointer{Offset: 3}))
	assert.Len(t, snap, 2, "snapshot must not observe writes that happen after it was taken")
}

func TestReplaceUpdatesMultiplePointersAtomically(t *testing.T) {
	idx := newTestIndex(t)
	require.NoError(t, idx.Set("a", index.RecordPointer{Offset: 1, SegmentID: 1}))
	require.NoError(t, idx.Set("b", index.RecordPointer{Offset: 2, SegmentID: 1}))

	require.NoError(t, idx.Replace(map[string]index.RecordPointer{
		"a": {Offset: 100, SegmentID: 2},
		"b": {Offset: 200, SegmentID: 2},
	}))

	ptrA, _, err := idx.Get("a")
	require.NoError(t, err)
	ptrB, _, err := idx.Get("b")
	require.NoError(t, err)

	assert.Equal(t, int64(100), ptrA.Offset)
	assert.Equal(t, int64(200), ptrB.Offset)
}

func TestOperationsFailAfterClose(t *testing.T) {
	idx := newTestIndex(t)
	require.NoError(t, idx.Close())

	_, _, err := idx.Get("a")
	assert.ErrorIs(t, err, index.ErrIndexClosed)

	err = idx.Set("a", index.RecordPointer{})
	assert.ErrorIs(t, err, index.ErrIndexClosed)

	_, err = idx.Delete("a")
	assert.ErrorIs(t, err, index.ErrIndexClosed)
}

func TestCloseIsNotReentrant(t *testing.T) {
	idx := newTestIndex(t)
	require.NoError(t, idx.Close())
	assert.ErrorIs(t, idx.Close(), index.ErrIndexClosed)
}
