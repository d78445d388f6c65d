// Package codec implements the on-disk record framing described in
// spec §4.1: a big-endian u32 length prefix followed by a JSON payload
// carrying the record's version, key and value.
package codec

import (
	"encoding/binary"
	"encoding/json"
	"io"

	kverrors "github.com/iamNilotpal/ignitedb/pkg/errors"
)

const (
	// VersionPut marks a record as a live key/value write.
	VersionPut uint32 = 1

	// VersionTombstone marks a record as a deletion marker. Value is empty.
	VersionTombstone uint32 = 0

	// lenPrefixSize is the width in bytes of the big-endian length prefix.
	lenPrefixSize = 4
)

// Record is a single self-delimiting unit of the segment log.
type Record struct {
	Version uint32 `json:"version"`
	Key     string `json:"key"`
	Value   string `json:"value"`
}

// IsTombstone reports whether the record marks its key as removed.
func (r Record) IsTombstone() bool {
	return r.Version == VersionTombstone
}

// NewPut builds a live-write record for the given key/value.
func NewPut(key, value string) Record {
	return Record{Version: VersionPut, Key: key, Value: value}
}

// NewTombstone builds a deletion-marker record for the given key.
func NewTombstone(key string) Record {
	return Record{Version: VersionTombstone, Key: key, Value: ""}
}

// Encode serializes a record as BE32(len) || JSON(payload).
func Encode(r Record) ([]byte, error) {
	payload, err := json.Marshal(r)
	if err != nil {
		return nil, kverrors.NewCorruptRecordError(err, "failed to marshal record payload").
			WithDetail("key", r.Key)
	}

	buf := make([]byte, lenPrefixSize+len(payload))
	binary.BigEndian.PutUint32(buf[:lenPrefixSize], uint32(len(payload)))
	copy(buf[lenPrefixSize:], payload)
	return buf, nil
}

// Decode reads one record from r. It returns (Record{}, false, nil) when the
// stream is cleanly exhausted: the length prefix could not be read in full
// (a truncated tail left by a mid-write crash, spec §9), the prefix decodes
// to a length of zero (the sentinel this format uses for end-of-log), or the
// payload is cut short by the end of the stream. A payload that is not valid
// JSON is reported as a Corrupt error; other read errors are returned as is.
func Decode(r io.Reader) (Record, bool, error) {
	var lenBuf [lenPrefixSize]byte
	n, err := io.ReadFull(r, lenBuf[:])
	if err != nil {
		if n == 0 && (err == io.EOF || err == io.ErrUnexpectedEOF) {
			return Record{}, false, nil
		}
		if err == io.ErrUnexpectedEOF {
			// A partial length prefix is a truncated tail, not corruption:
			// treat it the same as clean EOF per spec §9.
			return Record{}, false, nil
		}
		return Record{}, false, err
	}

	length := binary.BigEndian.Uint32(lenBuf[:])
	if length == 0 {
		return Record{}, false, nil
	}

	payload := make([]byte, length)
	if _, err := io.ReadFull(r, payload); err != nil {
		if err == io.ErrUnexpectedEOF || err == io.EOF {
			// Payload truncated mid-write: treat as a clean stop, not corruption.
			return Record{}, false, nil
		}
		return Record{}, false, err
	}

	var rec Record
	if err := json.Unmarshal(payload, &rec); err != nil {
		return Record{}, false, kverrors.NewCorruptRecordError(err, "failed to unmarshal record payload").
			WithLength(length)
	}

	return rec, true, nil
}
