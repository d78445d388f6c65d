package server_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iamNilotpal/ignitedb/internal/client"
	"github.com/iamNilotpal/ignitedb/internal/engine"
	"github.com/iamNilotpal/ignitedb/internal/pool"
	"github.com/iamNilotpal/ignitedb/internal/server"
	"github.com/iamNilotpal/ignitedb/pkg/logger"
	"github.com/iamNilotpal/ignitedb/pkg/options"
)

func startTestServer(t *testing.T) *client.Client {
	t.Helper()

	opts := options.NewDefaultOptions()
	opts.DataDir = t.TempDir()
	log := logger.New("server_test")

	eng, err := engine.New(context.Background(), &engine.Config{Options: &opts, Logger: log})
	require.NoError(t, err)
	t.Cleanup(func() { eng.Close() })

	workers := pool.NewSharedQueue(2)
	t.Cleanup(workers.Close)

	srv, err := server.New("127.0.0.1:0", &server.Config{Logger: log, Store: eng, Pool: workers})
	require.NoError(t, err)

	go srv.Serve()
	t.Cleanup(func() { srv.Stop() })

	return client.New(srv.Addr(), 2*time.Second)
}

func TestClientServerSetGet(t *testing.T) {
	c := startTestServer(t)

	require.NoError(t, c.Set("key", "value"))

	got, err := c.Get("key")
	require.NoError(t, err)
	assert.Equal(t, "value", got)
}

func TestClientServerGetMissingKey(t *testing.T) {
	c := startTestServer(t)

	_, err := c.Get("missing")
	assert.ErrorIs(t, err, client.ErrKeyNotFound)
}

func TestClientServerRemove(t *testing.T) {
	c := startTestServer(t)

	require.NoError(t, c.Set("key", "value"))
	require.NoError(t, c.Remove("key"))

	_, err := c.Get("key")
	assert.ErrorIs(t, err, client.ErrKeyNotFound)
}

func TestClientServerMultipleSequentialRequests(t *testing.T) {
	c := startTestServer(t)

	for i := 0; i < 10; i++ {
		require.NoError(t, c.Set("key", "value"))
		got, err := c.Get("key")
		require.NoError(t, err)
		assert.Equal(t, "value", got)
	}
}
