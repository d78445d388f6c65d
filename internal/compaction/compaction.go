// Package compaction implements the reclamation pass described in spec
// §4.7, run synchronously from the engine's write path or on demand through
// Engine.Compact: superseded and tombstoned records are
// dropped, the remaining live records for each stale segment are rewritten
// into the currently active segment, and the stale segment files are
// removed once no reader is still touching them.
//
// Compaction never runs concurrently with itself or with writes: the
// engine holds its writer lock for the duration of Run, so the only
// concurrency Compaction has to account for is in-flight readers that
// resolved a RecordPointer before the rewrite started.
package compaction

import (
	"path/filepath"
	"time"

	"github.com/iamNilotpal/ignitedb/internal/index"
	"github.com/iamNilotpal/ignitedb/internal/seginfo"
	"github.com/iamNilotpal/ignitedb/internal/storage"
	"github.com/iamNilotpal/ignitedb/pkg/errors"
	"github.com/iamNilotpal/ignitedb/pkg/options"
	"go.uber.org/zap"
)

// drainPollInterval is how often Run polls the in-flight reader count while
// waiting for readers of a stale segment to finish before deleting it.
const drainPollInterval = 5 * time.Millisecond

// Compaction rewrites the live contents of stale segments into the active
// segment and reclaims the space tombstones and overwrites left behind.
type Compaction struct {
	log     *zap.SugaredLogger
	options *options.Options
	index   *index.Index
	storage *storage.Storage
}

// Config supplies the collaborators Compaction needs. All fields are
// required.
type Config struct {
	Logger  *zap.SugaredLogger
	Options *options.Options
	Index   *index.Index
	Storage *storage.Storage
}

// New constructs a Compaction bound to the given index and storage. It
// performs no I/O itself; work only happens inside Run.
func New(config *Config) *Compaction {
	return &Compaction{
		log:     config.Logger,
		options: config.Options,
		index:   config.Index,
		storage: config.Storage,
	}
}

// Stats summarizes the outcome of a single Run call.
type Stats struct {
	SegmentsRemoved int
	KeysRewritten   int
	BytesReclaimed  int64
}

// Run performs one compaction pass: every segment other than the currently
// active one is a candidate for removal. Live keys pointing into a
// candidate segment are read out and re-appended to the active segment, the
// index is atomically updated to point at the new locations, and only then
// are the candidate segment files deleted from disk — after this method
// confirms no ReadAt call is still in flight against them.
func (c *Compaction) Run() (Stats, error) {
	if err := c.storage.Rotate(); err != nil {
		return Stats{}, errors.NewStorageError(err, errors.ErrorCodeIO, "compaction failed to rotate active segment")
	}
	activeID := c.storage.ActiveSegmentID()

	segments, err := c.storage.Segments()
	if err != nil {
		return Stats{}, err
	}

	candidates := make(map[uint64]struct{}, len(segments))
	for _, id := range segments {
		if id != activeID {
			candidates[id] = struct{}{}
		}
	}
	if len(candidates) == 0 {
		c.log.Infow("Compaction found no stale segments, nothing to do")
		return Stats{}, nil
	}

	snapshot, err := c.index.Snapshot()
	if err != nil {
		return Stats{}, err
	}

	updates := make(map[string]index.RecordPointer)
	var rewritten int64

	for key, ptr := range snapshot {
		if _, stale := candidates[uint64(ptr.SegmentID)]; !stale {
			continue
		}

		rec, err := c.storage.ReadAt(uint64(ptr.SegmentID), ptr.Offset)
		if err != nil {
			return Stats{}, errors.NewIndexCorruptionError("Compact", len(snapshot), err).WithKey(key)
		}
		if rec.IsTombstone() {
			// A tombstone living in a stale segment is itself reclaimed:
			// drop it from the index entirely instead of rewriting it.
			if _, err := c.index.Delete(key); err != nil {
				return Stats{}, err
			}
			continue
		}

		result, err := c.storage.Append(rec, ptr.Timestamp)
		if err != nil {
			return Stats{}, err
		}

		updates[key] = index.RecordPointer{
			Timestamp: result.Timestamp,
			Offset:    result.Offset,
			EntrySize: result.EntrySize,
			ValueSize: result.ValueSize,
			Key:       key,
			SegmentID: uint16(result.SegmentID),
		}
		rewritten += int64(result.EntrySize)
	}

	if err := c.index.Replace(updates); err != nil {
		return Stats{}, err
	}

	removed := 0
	var removedBytes int64
	for id := range candidates {
		for c.storage.InFlightReaders() > 0 {
			time.Sleep(drainPollInterval)
		}
		name := seginfo.GenerateName(id, c.options.SegmentOptions.Prefix)
		info, statErr := seginfo.GetFileInfo(filepath.Join(c.options.DataDir, c.options.SegmentOptions.Directory, name))
		if err := c.storage.RemoveSegment(id); err != nil {
			c.log.Errorw("Failed to remove compacted segment", "segmentID", id, "error", err)
			continue
		}
		if statErr == nil {
			removedBytes += info.Size()
		}
		removed++
	}

	stats := Stats{SegmentsRemoved: removed, KeysRewritten: len(updates), BytesReclaimed: removedBytes - rewritten}
	c.log.Infow(
		"Compaction pass complete",
		"segmentsRemoved", stats.SegmentsRemoved,
		"keysRewritten", stats.KeysRewritten,
		"bytesReclaimed", stats.BytesReclaimed,
	)
	return stats, nil
}
