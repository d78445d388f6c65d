package ignite_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iamNilotpal/ignitedb/pkg/ignite"
	"github.com/iamNilotpal/ignitedb/pkg/options"
)

func newTestInstance(t *testing.T) *ignite.Instance {
	t.Helper()
	db, err := ignite.NewInstance(context.Background(), "ignite_test", options.WithDataDir(t.TempDir()))
	require.NoError(t, err)
	return db
}

func TestInstanceSetThenGet(t *testing.T) {
	db := newTestInstance(t)
	defer db.Close(context.Background())
	ctx := context.Background()

	require.NoError(t, db.Set(ctx, "key", []byte("value")))

	got, err := db.Get(ctx, "key")
	require.NoError(t, err)
	assert.Equal(t, []byte("value"), got)
}

func TestInstanceGetMissingKey(t *testing.T) {
	db := newTestInstance(t)
	defer db.Close(context.Background())

	_, err := db.Get(context.Background(), "missing")
	assert.Error(t, err)
}

func TestInstanceDeleteRemovesKey(t *testing.T) {
	db := newTestInstance(t)
	defer db.Close(context.Background())
	ctx := context.Background()

	require.NoError(t, db.Set(ctx, "key", []byte("value")))
	require.NoError(t, db.Delete(ctx, "key"))

	_, err := db.Get(ctx, "key")
	assert.Error(t, err)
}

func TestInstanceSetOverwritesExistingValue(t *testing.T) {
	db := newTestInstance(t)
	defer db.Close(context.Background())
	ctx := context.Background()

	require.NoError(t, db.Set(ctx, "key", []byte("first")))
	require.NoError(t, db.Set(ctx, "key", []byte("second")))

	got, err := db.Get(ctx, "key")
	require.NoError(t, err)
	assert.Equal(t, []byte("second"), got)
}
