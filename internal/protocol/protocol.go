// Package protocol implements the wire format described in spec §6: every
// message, request or response, is framed as a big-endian u32 byte length
// followed by a JSON payload. Requests carry an operation (GET, SET, RM),
// a key, and an optional value; responses carry a status and a value.
package protocol

import (
	"encoding/binary"
	"encoding/json"
	"io"

	kverrors "github.com/iamNilotpal/ignitedb/pkg/errors"
)

// OpType names the operation a Request carries out.
type OpType string

const (
	OpGet OpType = "GET"
	OpSet OpType = "SET"
	OpRm  OpType = "RM"
)

// Status reports the outcome of a Request on the server side.
type Status string

const (
	StatusOK          Status = "ErrOk"
	StatusKeyNotFound Status = "ErrKeyNotFound"
)

// Request is a single client-issued operation.
type Request struct {
	Op    OpType `json:"op"`
	Key   string `json:"key"`
	Value string `json:"value,omitempty"`
}

// Response is the server's reply to one Request. Only ErrOk and
// ErrKeyNotFound cross the wire; any other server-side failure closes the
// connection instead of producing a Response.
type Response struct {
	Status Status `json:"status"`
	Value  string `json:"value,omitempty"`
}

const lenPrefixSize = 4

// WriteMessage frames v as BE32(len) || JSON(v) and writes it to w.
func WriteMessage(w io.Writer, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return kverrors.NewCorruptRecordError(err, "failed to marshal protocol message")
	}

	var lenBuf [lenPrefixSize]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(payload)))

	if _, err := w.Write(lenBuf[:]); err != nil {
		return err
	}
	if _, err := w.Write(payload); err != nil {
		return err
	}
	return nil
}

// ReadMessage reads one BE32(len)-prefixed JSON payload from r and decodes
// it into v.
func ReadMessage(r io.Reader, v any) error {
	var lenBuf [lenPrefixSize]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return err
	}

	length := binary.BigEndian.Uint32(lenBuf[:])
	payload := make([]byte, length)
	if _, err := io.ReadFull(r, payload); err != nil {
		return err
	}

	if err := json.Unmarshal(payload, v); err != nil {
		return kverrors.NewCorruptRecordError(err, "failed to unmarshal protocol message").WithLength(length)
	}
	return nil
}

// WriteRequest frames and writes req.
func WriteRequest(w io.Writer, req Request) error {
	return WriteMessage(w, req)
}

// ReadRequest reads and decodes one Request.
func ReadRequest(r io.Reader) (Request, error) {
	var req Request
	if err := ReadMessage(r, &req); err != nil {
		return Request{}, err
	}
	return req, nil
}

// WriteResponse frames and writes resp.
func WriteResponse(w io.Writer, resp Response) error {
	return WriteMessage(w, resp)
}

// ReadResponse reads and decodes one Response.
func ReadResponse(r io.Reader) (Response, error) {
	var resp Response
	if err := ReadMessage(r, &resp); err != nil {
		return Response{}, err
	}
	return resp, nil
}
