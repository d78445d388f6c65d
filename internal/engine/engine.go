// Package engine provides the core database engine implementation for the Ignite storage system.
//
// The engine serves as the central coordinator and entry point for all database operations.
// It orchestrates the interaction between three main subsystems:
//   - Index: Manages in-memory data structures for fast key lookups
//   - Storage: Handles persistent data storage, including write-ahead logs and data files
//   - Compaction: Rewrites live records into fresh segments and deletes superseded ones,
//     synchronously under the engine's writer lock
//
// The engine implements a thread-safe interface with proper lifecycle management,
// ensuring resources are properly initialized and cleaned up. It uses atomic operations
// for state management to provide consistent behavior across concurrent operations.
package engine

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/iamNilotpal/ignitedb/internal/codec"
	"github.com/iamNilotpal/ignitedb/internal/compaction"
	"github.com/iamNilotpal/ignitedb/internal/index"
	"github.com/iamNilotpal/ignitedb/internal/metrics"
	"github.com/iamNilotpal/ignitedb/internal/sentinel"
	"github.com/iamNilotpal/ignitedb/internal/storage"
	kverrors "github.com/iamNilotpal/ignitedb/pkg/errors"
	"github.com/iamNilotpal/ignitedb/pkg/options"
	"go.uber.org/zap"
)

var (
	// ErrEngineClosed is returned when attempting to perform operations on a closed engine.
	ErrEngineClosed = errors.New("operation failed: cannot access closed engine")

	// ErrKeyNotFound is returned by Get and Remove when the key has no live value.
	ErrKeyNotFound = errors.New("operation failed: key not found")
)

// Engine represents the main database engine that coordinates all subsystems.
// It acts as the primary interface for database operations and manages the lifecycle
// of all internal components. The engine is designed to be thread-safe and supports
// concurrent operations while maintaining data consistency.
//
// Reads take the lock-free fast path through the index (guarded only by the
// index's own RWMutex); only Set, Remove, and compaction take writeMu, since
// the log-structured layout requires a single writer at a time.
type Engine struct {
	options    *options.Options       // options contains all configuration parameters for the engine and its subsystems.
	log        *zap.SugaredLogger     // log provides structured logging capabilities throughout the engine.
	closed     atomic.Bool            // closed is an atomic boolean that tracks the engine's lifecycle state.
	writeMu    sync.Mutex             // writeMu serializes Set/Remove/compaction; Get never takes it.
	index      *index.Index           // index manages the in-memory data structures for fast data access.
	storage    *storage.Storage       // storage handles all persistent data operations.
	compaction *compaction.Compaction // compaction rewrites live records and removes superseded segments.
	uncompacted atomic.Uint64         // uncompacted counts overwrites/tombstones since the last compaction pass.
	metrics    *metrics.Metrics       // metrics records compaction outcomes; nil disables observation.
}

// Config holds all the parameters needed to initialize a new Engine instance.
// Metrics may be nil, in which case compaction passes are not observed.
type Config struct {
	Options *options.Options
	Logger  *zap.SugaredLogger
	Metrics *metrics.Metrics
}

// New creates and initializes a new Engine instance with the provided configuration.
// It claims the data directory for the "kvs" engine kind, replays every segment on
// disk to rebuild the in-memory index, and returns an engine ready to serve traffic.
func New(ctx context.Context, config *Config) (*Engine, error) {
	if config == nil || config.Options == nil || config.Logger == nil {
		return nil, kverrors.NewValidationError(
			nil, kverrors.ErrorCodeInvalidInput, "engine configuration is required",
		).WithField("config").WithRule("required")
	}

	if err := sentinel.Claim(config.Options.DataDir, sentinel.KindKVS); err != nil {
		return nil, err
	}

	idx, err := index.New(ctx, &index.Config{DataDir: config.Options.DataDir, Logger: config.Logger})
	if err != nil {
		return nil, err
	}

	store, err := storage.New(ctx, &storage.Config{Logger: config.Logger, Options: config.Options})
	if err != nil {
		return nil, err
	}

	e := &Engine{
		options: config.Options,
		log:     config.Logger,
		index:   idx,
		storage: store,
		metrics: config.Metrics,
	}
	e.compaction = compaction.New(&compaction.Config{
		Logger:  config.Logger,
		Options: config.Options,
		Index:   idx,
		Storage: store,
	})

	if err := e.recover(); err != nil {
		return nil, err
	}

	return e, nil
}

// recover replays every segment on disk in ascending id order, rebuilding
// the index from scratch. Because segments are visited oldest-first and
// each record overwrites any earlier pointer for the same key, the final
// state after recover reflects the most recent write to every key,
// tombstones included.
func (e *Engine) recover() error {
	segments, err := e.storage.Segments()
	if err != nil {
		return err
	}

	e.log.Infow("Recovering index from segments on disk", "segmentCount", len(segments))

	for _, segmentID := range segments {
		scanErr := e.storage.Scan(segmentID, func(rec codec.Record, offset int64, entrySize uint32) bool {
			if rec.IsTombstone() {
				if _, delErr := e.index.Delete(rec.Key); delErr != nil {
					err = delErr
					return false
				}
				return true
			}

			setErr := e.index.Set(rec.Key, index.RecordPointer{
				Timestamp: time.Now().UnixNano(),
				Offset:    offset,
				EntrySize: entrySize,
				ValueSize: uint32(len(rec.Value)),
				Key:       rec.Key,
				SegmentID: uint16(segmentID),
			})
			if setErr != nil {
				err = setErr
				return false
			}
			return true
		})
		if scanErr != nil {
			return scanErr
		}
		if err != nil {
			return err
		}
	}

	e.log.Infow("Recovery complete", "liveKeys", e.index.Len())
	return nil
}

// Get retrieves the current value for key. It never blocks on writers: the
// index lookup and the subsequent segment read both proceed without
// touching writeMu.
func (e *Engine) Get(ctx context.Context, key string) (string, error) {
	if e.closed.Load() {
		return "", ErrEngineClosed
	}

	ptr, ok, err := e.index.Get(key)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", ErrKeyNotFound
	}

	rec, err := e.storage.ReadAt(uint64(ptr.SegmentID), ptr.Offset)
	if err != nil {
		return "", err
	}
	if rec.IsTombstone() {
		return "", ErrKeyNotFound
	}
	return rec.Value, nil
}

// Set appends key/value to the active segment file, then publishes the new
// location to the index. The redesigned ordering in spec §9 is load-bearing
// here: Append must return successfully before Set touches the index, so a
// reader never finds an index entry for a record that has not yet been
// written to the segment file. The append is not fsynced.
func (e *Engine) Set(ctx context.Context, key, value string) error {
	if e.closed.Load() {
		return ErrEngineClosed
	}

	e.writeMu.Lock()
	defer e.writeMu.Unlock()

	_, existed, err := e.index.Get(key)
	if err != nil {
		return err
	}

	now := time.Now().UnixNano()
	result, err := e.storage.Append(codec.NewPut(key, value), now)
	if err != nil {
		return err
	}

	if err := e.index.Set(key, index.RecordPointer{
		Timestamp: result.Timestamp,
		Offset:    result.Offset,
		EntrySize: result.EntrySize,
		ValueSize: result.ValueSize,
		Key:       key,
		SegmentID: uint16(result.SegmentID),
	}); err != nil {
		return err
	}

	return e.maybeCompactLocked(existed)
}

// Remove deletes key by appending a tombstone record and removing the key
// from the index. It reports ErrKeyNotFound if the key has no live value.
func (e *Engine) Remove(ctx context.Context, key string) error {
	if e.closed.Load() {
		return ErrEngineClosed
	}

	e.writeMu.Lock()
	defer e.writeMu.Unlock()

	if _, ok, err := e.index.Get(key); err != nil {
		return err
	} else if !ok {
		return ErrKeyNotFound
	}

	now := time.Now().UnixNano()
	if _, err := e.storage.Append(codec.NewTombstone(key), now); err != nil {
		return err
	}

	if _, err := e.index.Delete(key); err != nil {
		return err
	}

	return e.maybeCompactLocked(true)
}

// maybeCompactLocked counts the write just made toward the uncompacted
// counter when it superseded an earlier record (an overwrite or a
// tombstone), then triggers a synchronous compaction pass once that count
// reaches the configured threshold and the active segment has reached
// SegmentOptions.Size. Callers must already hold writeMu: compaction is
// synchronous with respect to other writers by design (see SPEC_FULL.md
// Open Questions).
func (e *Engine) maybeCompactLocked(superseded bool) error {
	count := e.uncompacted.Load()
	if superseded {
		count = e.uncompacted.Add(1)
	}
	if count < e.options.UncompactedThreshold {
		return nil
	}
	if e.storage.ActiveSegmentSize() < int64(e.options.SegmentOptions.Size) {
		return nil
	}
	e.uncompacted.Store(0)

	e.log.Infow("Uncompacted threshold reached, running compaction")
	stats, err := e.compaction.Run()
	if err != nil {
		return err
	}
	e.log.Infow(
		"Compaction finished",
		"segmentsRemoved", stats.SegmentsRemoved,
		"keysRewritten", stats.KeysRewritten,
		"bytesReclaimed", stats.BytesReclaimed,
	)
	if e.metrics != nil {
		e.metrics.ObserveCompaction(stats.SegmentsRemoved, stats.BytesReclaimed)
	}
	return nil
}

// Compact forces an immediate compaction pass, bypassing the uncompacted
// threshold. Intended for administrative use (e.g. a CLI "compact" command).
func (e *Engine) Compact(ctx context.Context) (compaction.Stats, error) {
	if e.closed.Load() {
		return compaction.Stats{}, ErrEngineClosed
	}

	e.writeMu.Lock()
	defer e.writeMu.Unlock()

	e.uncompacted.Store(0)
	stats, err := e.compaction.Run()
	if err != nil {
		return stats, err
	}
	if e.metrics != nil {
		e.metrics.ObserveCompaction(stats.SegmentsRemoved, stats.BytesReclaimed)
	}
	return stats, nil
}

// Close gracefully shuts down the engine and releases all associated resources.
// This method ensures that all pending operations complete and that data is
// properly persisted before the engine becomes unusable.
func (e *Engine) Close() error {
	// Use atomic compare-and-swap to transition from open (false) to closed (true).
	// This operation is atomic and thread-safe, ensuring only one goroutine
	// can successfully close the engine. The operation returns true if the
	// swap was successful (engine was open) or false if it failed (already closed).
	if !e.closed.CompareAndSwap(false, true) {
		return ErrEngineClosed
	}

	e.writeMu.Lock()
	defer e.writeMu.Unlock()

	if err := e.index.Close(); err != nil {
		return err
	}
	// Perform the actual shutdown by closing the storage subsystem.
	return e.storage.Close()
}
