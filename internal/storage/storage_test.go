package storage_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iamNilotpal/ignitedb/internal/codec"
	"github.com/iamNilotpal/ignitedb/internal/storage"
	"github.com/iamNilotpal/ignitedb/pkg/logger"
	"github.com/iamNilotpal/ignitedb/pkg/options"
)

func newTestStorage(t *testing.T, segmentSize uint64) *storage.Storage {
	t.Helper()
	opts := options.NewDefaultOptions()
	opts.DataDir = t.TempDir()
	if segmentSize > 0 {
		opts.SegmentOptions.Size = segmentSize
	}

	s, err := storage.New(context.Background(), &storage.Config{
		Options: &opts,
		Logger:  logger.New("storage_test"),
	})
	require.NoError(t, err)
	return s
}

func TestAppendThenReadAtRoundTrip(t *testing.T) {
	s := newTestStorage(t, 0)
	defer s.Close()

	result, err := s.Append(codec.NewPut("key", "value"), 42)
	require.NoError(t, err)

	rec, err := s.ReadAt(result.SegmentID, result.Offset)
	require.NoError(t, err)
	assert.Equal(t, "key", rec.Key)
	assert.Equal(t, "value", rec.Value)
}

func TestAppendRotatesWhenSegmentWouldOverflow(t *testing.T) {
	s := newTestStorage(t, options.MinSegmentSize)
	defer s.Close()

	first, err := s.Append(codec.NewPut("k1", "large-enough-value-to-matter"), 1)
	require.NoError(t, err)

	// Force several appends so the configured tiny segment size is exceeded
	// and a rotation occurs.
	var last storage.AppendResult
	for i := 0; i < 64; i++ {
		last, err = s.Append(codec.NewPut("k", "0123456789012345678901234567890123456789"), int64(i))
		require.NoError(t, err)
	}

	assert.Greater(t, last.SegmentID, first.SegmentID)
}

func TestScanReplaysRecordsInOrder(t *testing.T) {
	s := newTestStorage(t, 0)
	defer s.Close()

	want := []codec.Record{
		codec.NewPut("a", "1"),
		codec.NewPut("b", "2"),
		codec.NewTombstone("a"),
	}
	for i, rec := range want {
		_, err := s.Append(rec, int64(i))
		require.NoError(t, err)
	}

	var got []codec.Record
	err := s.Scan(s.ActiveSegmentID(), func(rec codec.Record, offset int64, entrySize uint32) bool {
		got = append(got, rec)
		return true
	})
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestRemoveSegmentDeletesFile(t *testing.T) {
	s := newTestStorage(t, 0)
	defer s.Close()

	result, err := s.Append(codec.NewPut("a", "b"), 1)
	require.NoError(t, err)
	require.NoError(t, s.Rotate())

	require.NoError(t, s.RemoveSegment(result.SegmentID))

	_, err = s.ReadAt(result.SegmentID, result.Offset)
	assert.Error(t, err)
}

func TestOperationsFailAfterClose(t *testing.T) {
	s := newTestStorage(t, 0)
	require.NoError(t, s.Close())

	_, err := s.Append(codec.NewPut("a", "b"), 1)
	assert.ErrorIs(t, err, storage.ErrSegmentClosed)
}

func TestRecoveryContinuesExistingSegment(t *testing.T) {
	opts := options.NewDefaultOptions()
	opts.DataDir = t.TempDir()

	s1, err := storage.New(context.Background(), &storage.Config{Options: &opts, Logger: logger.New("storage_test")})
	require.NoError(t, err)
	_, err = s1.Append(codec.NewPut("a", "b"), 1)
	require.NoError(t, err)
	require.NoError(t, s1.Close())

	s2, err := storage.New(context.Background(), &storage.Config{Options: &opts, Logger: logger.New("storage_test")})
	require.NoError(t, err)
	defer s2.Close()

	segments, err := s2.Segments()
	require.NoError(t, err)
	assert.Len(t, segments, 1, "reopening storage must not create a spurious new segment")
}
