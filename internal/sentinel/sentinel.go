// Package sentinel implements the engine-kind marker file described in
// spec §4.3: a zero-byte file named after the engine kind ("kvs" or
// "sled") that pins a data directory to one storage backend.
package sentinel

import (
	"os"
	"path/filepath"
	"strings"

	kverrors "github.com/iamNilotpal/ignitedb/pkg/errors"
)

const (
	// KindKVS is the engine-kind marker for the log-structured engine.
	KindKVS = "kvs"

	// KindSled is the engine-kind marker for the bbolt-backed engine.
	KindSled = "sled"
)

// knownKinds lists every engine kind this sentinel protocol coordinates
// between. A directory claimed by any kind other than the one being opened
// is rejected.
var knownKinds = []string{KindKVS, KindSled}

// Claim validates that dir has not been claimed by a different engine kind,
// then idempotently creates the marker file for kind. It must be called
// once, at engine open time, before any segment or database file is touched.
func Claim(dir, kind string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			// Directory doesn't exist yet; nothing to conflict with.
			// engine.New and sled.New call Claim before anything else has
			// created the data directory, so create it here.
			if mkErr := os.MkdirAll(dir, 0755); mkErr != nil {
				return mkErr
			}
			entries = nil
		} else {
			return err
		}
	}

	for _, other := range knownKinds {
		if other == kind {
			continue
		}
		for _, entry := range entries {
			if strings.HasPrefix(entry.Name(), other) {
				return kverrors.NewEngineMismatchError(dir, kind, other)
			}
		}
	}

	markerPath := filepath.Join(dir, kind)
	f, err := os.OpenFile(markerPath, os.O_CREATE|os.O_RDONLY, 0644)
	if err != nil {
		return err
	}
	return f.Close()
}
