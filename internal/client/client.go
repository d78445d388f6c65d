// Package client provides a synchronous, blocking client for the TCP
// protocol implemented by internal/server, mirroring spec §6's request
// grammar: GET, SET, and RM, each a full request/response round trip over
// one connection per call.
package client

import (
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/iamNilotpal/ignitedb/internal/protocol"
)

// ErrKeyNotFound is returned by Get and Remove when the server reports no
// live value for the key.
var ErrKeyNotFound = errors.New("operation failed: key not found")

// Client issues GET/SET/RM requests against one server address. Each call
// opens a fresh connection; Client keeps no state between calls and is
// safe for concurrent use.
type Client struct {
	addr    string
	timeout time.Duration
}

// New returns a Client that dials addr. timeout bounds each round trip; a
// zero timeout disables the deadline.
func New(addr string, timeout time.Duration) *Client {
	return &Client{addr: addr, timeout: timeout}
}

// Get fetches the current value for key.
func (c *Client) Get(key string) (string, error) {
	resp, err := c.roundTrip(protocol.Request{Op: protocol.OpGet, Key: key})
	if err != nil {
		return "", err
	}
	return resp.Value, nil
}

// Set stores key/value.
func (c *Client) Set(key, value string) error {
	_, err := c.roundTrip(protocol.Request{Op: protocol.OpSet, Key: key, Value: value})
	return err
}

// Remove deletes key.
func (c *Client) Remove(key string) error {
	_, err := c.roundTrip(protocol.Request{Op: protocol.OpRm, Key: key})
	return err
}

func (c *Client) roundTrip(req protocol.Request) (protocol.Response, error) {
	conn, err := net.Dial("tcp", c.addr)
	if err != nil {
		return protocol.Response{}, fmt.Errorf("connect to %s: %w", c.addr, err)
	}
	defer conn.Close()

	if c.timeout > 0 {
		if err := conn.SetDeadline(time.Now().Add(c.timeout)); err != nil {
			return protocol.Response{}, err
		}
	}

	if err := protocol.WriteRequest(conn, req); err != nil {
		return protocol.Response{}, fmt.Errorf("write request: %w", err)
	}

	resp, err := protocol.ReadResponse(conn)
	if err != nil {
		return protocol.Response{}, fmt.Errorf("read response: %w", err)
	}

	switch resp.Status {
	case protocol.StatusOK:
		return resp, nil
	case protocol.StatusKeyNotFound:
		return resp, ErrKeyNotFound
	default:
		return resp, fmt.Errorf("unexpected response status: %q", resp.Status)
	}
}
