package protocol_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iamNilotpal/ignitedb/internal/protocol"
)

func TestWriteReadRequestRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	req := protocol.Request{Op: protocol.OpSet, Key: "k", Value: "v"}

	require.NoError(t, protocol.WriteRequest(&buf, req))

	got, err := protocol.ReadRequest(&buf)
	require.NoError(t, err)
	assert.Equal(t, req, got)
}

func TestWriteReadResponseRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	resp := protocol.Response{Status: protocol.StatusOK, Value: "v"}

	require.NoError(t, protocol.WriteResponse(&buf, resp))

	got, err := protocol.ReadResponse(&buf)
	require.NoError(t, err)
	assert.Equal(t, resp, got)
}

func TestReadMessageSurfacesShortReadAsError(t *testing.T) {
	_, err := protocol.ReadRequest(bytes.NewReader([]byte{0x00, 0x00}))
	assert.Error(t, err)
}
