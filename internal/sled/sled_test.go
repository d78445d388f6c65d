package sled_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iamNilotpal/ignitedb/internal/sled"
	"github.com/iamNilotpal/ignitedb/pkg/logger"
	"github.com/iamNilotpal/ignitedb/pkg/options"
)

func newTestEngine(t *testing.T) *sled.Engine {
	t.Helper()
	opts := options.NewDefaultOptions()
	opts.DataDir = t.TempDir()

	e, err := sled.New(context.Background(), &sled.Config{Options: &opts, Logger: logger.New("sled_test")})
	require.NoError(t, err)
	return e
}

func TestSetThenGet(t *testing.T) {
	e := newTestEngine(t)
	defer e.Close()
	ctx := context.Background()

	require.NoError(t, e.Set(ctx, "key", "value"))

	got, err := e.Get(ctx, "key")
	require.NoError(t, err)
	assert.Equal(t, "value", got)
}

func TestGetMissingKey(t *testing.T) {
	e := newTestEngine(t)
	defer e.Close()

	_, err := e.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, sled.ErrKeyNotFound)
}

func TestRemoveThenGetNotFound(t *testing.T) {
	e := newTestEngine(t)
	defer e.Close()
	ctx := context.Background()

	require.NoError(t, e.Set(ctx, "key", "value"))
	require.NoError(t, e.Remove(ctx, "key"))

	_, err := e.Get(ctx, "key")
	assert.ErrorIs(t, err, sled.ErrKeyNotFound)
}

func TestRemoveMissingKeyFails(t *testing.T) {
	e := newTestEngine(t)
	defer e.Close()

	err := e.Remove(context.Background(), "missing")
	assert.ErrorIs(t, err, sled.ErrKeyNotFound)
}
