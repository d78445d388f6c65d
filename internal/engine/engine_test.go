package engine_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iamNilotpal/ignitedb/internal/engine"
	"github.com/iamNilotpal/ignitedb/pkg/logger"
	"github.com/iamNilotpal/ignitedb/pkg/options"
)

func newTestEngine(t *testing.T, mutate func(*options.Options)) *engine.Engine {
	t.Helper()
	opts := options.NewDefaultOptions()
	opts.DataDir = t.TempDir()
	if mutate != nil {
		mutate(&opts)
	}

	e, err := engine.New(context.Background(), &engine.Config{
		Options: &opts,
		Logger:  logger.New("engine_test"),
	})
	require.NoError(t, err)
	return e
}

func TestSetThenGet(t *testing.T) {
	e := newTestEngine(t, nil)
	defer e.Close()
	ctx := context.Background()

	require.NoError(t, e.Set(ctx, "key", "value"))

	got, err := e.Get(ctx, "key")
	require.NoError(t, err)
	assert.Equal(t, "value", got)
}

func TestGetMissingKey(t *testing.T) {
	e := newTestEngine(t, nil)
	defer e.Close()

	_, err := e.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, engine.ErrKeyNotFound)
}

func TestSetOverwriteReturnsLatestValue(t *testing.T) {
	e := newTestEngine(t, nil)
	defer e.Close()
	ctx := context.Background()

	require.NoError(t, e.Set(ctx, "key", "v1"))
	require.NoError(t, e.Set(ctx, "key", "v2"))

	got, err := e.Get(ctx, "key")
	require.NoError(t, err)
	assert.Equal(t, "v2", got)
}

func TestRemoveThenGetNotFound(t *testing.T) {
	e := newTestEngine(t, nil)
	defer e.Close()
	ctx := context.Background()

	require.NoError(t, e.Set(ctx, "key", "value"))
	require.NoError(t, e.Remove(ctx, "key"))

	_, err := e.Get(ctx, "key")
	assert.ErrorIs(t, err, engine.ErrKeyNotFound)
}

func TestRemoveMissingKeyFails(t *testing.T) {
	e := newTestEngine(t, nil)
	defer e.Close()

	err := e.Remove(context.Background(), "missing")
	assert.ErrorIs(t, err, engine.ErrKeyNotFound)
}

func TestOperationsFailAfterClose(t *testing.T) {
	e := newTestEngine(t, nil)
	require.NoError(t, e.Close())

	ctx := context.Background()
	_, err := e.Get(ctx, "key")
	assert.ErrorIs(t, err, engine.ErrEngineClosed)

	assert.ErrorIs(t, e.Set(ctx, "key", "value"), engine.ErrEngineClosed)
	assert.ErrorIs(t, e.Remove(ctx, "key"), engine.ErrEngineClosed)
}

func TestRecoveryRebuildsIndexFromSegments(t *testing.T) {
	opts := options.NewDefaultOptions()
	opts.DataDir = t.TempDir()
	ctx := context.Background()

	e1, err := engine.New(ctx, &engine.Config{Options: &opts, Logger: logger.New("engine_test")})
	require.NoError(t, err)
	require.NoError(t, e1.Set(ctx, "a", "1"))
	require.NoError(t, e1.Set(ctx, "b", "2"))
	require.NoError(t, e1.Remove(ctx, "a"))
	require.NoError(t, e1.Close())

	e2, err := engine.New(ctx, &engine.Config{Options: &opts, Logger: logger.New("engine_test")})
	require.NoError(t, err)
	defer e2.Close()

	_, err = e2.Get(ctx, "a")
	assert.ErrorIs(t, err, engine.ErrKeyNotFound, "tombstoned key must stay absent after recovery")

	got, err := e2.Get(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, "2", got)
}

func TestCompactReclaimsOverwrittenKeys(t *testing.T) {
	e := newTestEngine(t, func(o *options.Options) {
		o.SegmentOptions.Size = options.MinSegmentSize
	})
	defer e.Close()
	ctx := context.Background()

	for i := 0; i < 200; i++ {
		require.NoError(t, e.Set(ctx, "hot-key", "0123456789012345678901234567890123456789"))
	}

	stats, err := e.Compact(ctx)
	require.NoError(t, err)
	assert.Greater(t, stats.SegmentsRemoved, 0)

	got, err := e.Get(ctx, "hot-key")
	require.NoError(t, err)
	assert.Equal(t, "0123456789012345678901234567890123456789", got)
}

func TestReopeningSameDirectorySameKindSucceeds(t *testing.T) {
	dir := t.TempDir()
	opts := options.NewDefaultOptions()
	opts.DataDir = dir
	ctx := context.Background()

	e1, err := engine.New(ctx, &engine.Config{Options: &opts, Logger: logger.New("engine_test")})
	require.NoError(t, err)
	require.NoError(t, e1.Close())

	e2, err := engine.New(ctx, &engine.Config{Options: &opts, Logger: logger.New("engine_test")})
	require.NoError(t, err)
	defer e2.Close()
}
