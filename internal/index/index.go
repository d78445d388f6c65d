// Package index provides the in-memory hash table implementation for the ignite key-value store.
// This package embodies the core Bitcask architectural principle: maintain all keys in memory
// with minimal metadata while storing actual values on disk for optimal memory utilization.
//
// The design philosophy centers on memory efficiency as the primary constraint. Every byte
// stored in the RecordPointer structure directly impacts the system's ability to handle
// large datasets. The approach here prioritizes compact data structures over convenience
// features, recognizing that memory constraints often determine system scalability limits.
//
// The index enables O(1) key lookups through an in-memory hash table while keeping
// storage overhead minimal. This allows the system to handle datasets significantly
// larger than available RAM while maintaining excellent read performance characteristics.
package index

import (
	"context"
	stdErrors "errors"

	"github.com/iamNilotpal/ignitedb/pkg/errors"
)

var (
	ErrIndexClosed = stdErrors.New("operation failed: cannot access closed index")
)

// New creates and initializes a new Index instance configured according to the
// provided parameters. The returned Index is immediately ready for concurrent
// use and includes optimizations like pre-allocated map capacity.
func New(ctx context.Context, config *Config) (*Index, error) {
	if config == nil || config.DataDir == "" || config.Logger == nil {
		return nil, errors.NewValidationError(
			nil, errors.ErrorCodeInvalidInput, "Index configuration is required",
		).WithField("config").WithRule("required").WithProvided(config)
	}

	return &Index{
		log:           config.Logger,
		dataDir:       config.DataDir,
		recordPointer: make(map[string]*RecordPointer, 2046),
	}, nil
}

// Get returns the record pointer for key, if present. The returned pointer
// is a copy and is safe to read without holding the index lock.
func (idx *Index) Get(key string) (RecordPointer, bool, error) {
	if idx.closed.Load() {
		return RecordPointer{}, false, ErrIndexClosed
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	ptr, ok := idx.recordPointer[key]
	if !ok {
		return RecordPointer{}, false, nil
	}
	return *ptr, true, nil
}

// Set installs or replaces the pointer for key. Per spec §9's redesigned
// ordering, callers must have already appended the record to the segment
// log before calling Set: the index is published only after the record has
// been written to the segment file, never before.
func (idx *Index) Set(key string, ptr RecordPointer) error {
	if idx.closed.Load() {
		return ErrIndexClosed
	}

	ptr.Key = key

	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.recordPointer[key] = &ptr
	return nil
}

// Delete removes key from the index. It reports whether the key was present.
func (idx *Index) Delete(key string) (bool, error) {
	if idx.closed.Load() {
		return false, ErrIndexClosed
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	if _, ok := idx.recordPointer[key]; !ok {
		return false, nil
	}
	delete(idx.recordPointer, key)
	return true, nil
}

// Len returns the number of live keys currently tracked.
func (idx *Index) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.recordPointer)
}

// Snapshot returns a point-in-time copy of every key's record pointer.
// Compaction uses this to decide which (segmentID, offset) pairs are still
// live without holding the index lock for the duration of the rewrite.
func (idx *Index) Snapshot() (map[string]RecordPointer, error) {
	if idx.closed.Load() {
		return nil, ErrIndexClosed
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	out := make(map[string]RecordPointer, len(idx.recordPointer))
	for k, v := range idx.recordPointer {
		out[k] = *v
	}
	return out, nil
}

// Replace atomically swaps every pointer named in updates into the index.
// Compaction calls this once it has rewritten live records into new segment
// files, so that readers never observe a key pointing at a segment that has
// been deleted out from under them.
func (idx *Index) Replace(updates map[string]RecordPointer) error {
	if idx.closed.Load() {
		return ErrIndexClosed
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	for k, v := range updates {
		ptr := v
		idx.recordPointer[k] = &ptr
	}
	return nil
}

// Close gracefully shuts down the Index, cleaning up resources and ensuring
// that the index cannot be used after closure.
func (idx *Index) Close() error {
	// Use atomic compare-and-swap to safely check and update the closed state.
	if !idx.closed.CompareAndSwap(false, true) {
		return ErrIndexClosed
	}

	idx.log.Infow("Closing index system")

	idx.mu.Lock()
	defer idx.mu.Unlock()

	// Clear the record pointer map to release all memory associated with
	// the index entries.
	clear(idx.recordPointer)
	idx.recordPointer = nil

	idx.log.Infow("Index system closed successfully")
	return nil
}
