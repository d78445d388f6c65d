// Package sled provides a bbolt-backed alternative to the log-structured
// internal/engine, selected via options.EngineKind == "sled". It trades the
// segment/compaction machinery for a single B+tree file, at the cost of the
// append-only engine's sequential-write throughput.
package sled

import (
	"context"
	"errors"
	"path/filepath"
	"sync/atomic"

	"github.com/iamNilotpal/ignitedb/internal/sentinel"
	"github.com/iamNilotpal/ignitedb/pkg/options"
	"go.etcd.io/bbolt"
	"go.uber.org/zap"
)

var (
	// ErrEngineClosed is returned when an operation is attempted against a
	// closed Engine.
	ErrEngineClosed = errors.New("operation failed: cannot access closed sled engine")

	// ErrKeyNotFound is returned by Get and Remove when the key has no
	// live value.
	ErrKeyNotFound = errors.New("operation failed: key not found")
)

// dataBucket is the single bbolt bucket every key/value pair lives in.
// sled's key space is flat, so one bucket is all this engine needs.
var dataBucket = []byte("ignitedb")

// Engine is a bbolt-backed implementation of the same Get/Set/Remove
// contract internal/engine.Engine exposes, so internal/server can serve
// traffic against either storage backend interchangeably.
type Engine struct {
	log    *zap.SugaredLogger
	db     *bbolt.DB
	closed atomic.Bool
}

// Config holds the parameters needed to open a sled Engine.
type Config struct {
	Options *options.Options
	Logger  *zap.SugaredLogger
}

// New claims the data directory for the "sled" engine kind and opens (or
// creates) the backing bbolt file at <DataDir>/sled.db.
func New(ctx context.Context, config *Config) (*Engine, error) {
	if err := sentinel.Claim(config.Options.DataDir, sentinel.KindSled); err != nil {
		return nil, err
	}

	dbPath := filepath.Join(config.Options.DataDir, "sled.db")
	db, err := bbolt.Open(dbPath, 0644, bbolt.DefaultOptions)
	if err != nil {
		return nil, err
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(dataBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	config.Logger.Infow("sled engine opened", "path", dbPath)
	return &Engine{log: config.Logger, db: db}, nil
}

// Get returns the current value for key.
func (e *Engine) Get(ctx context.Context, key string) (string, error) {
	if e.closed.Load() {
		return "", ErrEngineClosed
	}

	var value []byte
	err := e.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket(dataBucket).Get([]byte(key))
		if v == nil {
			return ErrKeyNotFound
		}
		value = append([]byte(nil), v...)
		return nil
	})
	if err != nil {
		return "", err
	}
	return string(value), nil
}

// Set stores key/value, overwriting any existing value.
func (e *Engine) Set(ctx context.Context, key, value string) error {
	if e.closed.Load() {
		return ErrEngineClosed
	}
	return e.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(dataBucket).Put([]byte(key), []byte(value))
	})
}

// Remove deletes key. It reports ErrKeyNotFound if the key has no live
// value, matching internal/engine.Engine.Remove's contract.
func (e *Engine) Remove(ctx context.Context, key string) error {
	if e.closed.Load() {
		return ErrEngineClosed
	}
	return e.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(dataBucket)
		if bucket.Get([]byte(key)) == nil {
			return ErrKeyNotFound
		}
		return bucket.Delete([]byte(key))
	})
}

// Close flushes and closes the backing bbolt file.
func (e *Engine) Close() error {
	if !e.closed.CompareAndSwap(false, true) {
		return ErrEngineClosed
	}
	return e.db.Close()
}
