// Package storage provides a comprehensive file-based storage mechanism for managing segments of data
// in high-throughput, append-only scenarios.
//
// This package was designed to solve the fundamental challenge of efficiently storing streaming data
// that arrives continuously and needs to be persisted reliably. Think of it as a specialized foundation
// for systems like write-ahead logs, event sourcing platforms, or time-series databases where data
// flows in continuously and must be stored in an organized, retrievable manner.
//
// Core Architecture:
//
// The storage system operates on the concept of "segments" - individual files that contain chunks
// of data. When a segment reaches its configured size limit, the system automatically creates a new
// segment and continues writing to it. This segmentation strategy provides several key benefits:
// it keeps individual files at manageable sizes, enables parallel processing of historical data,
// facilitates efficient cleanup of old data, and provides natural boundaries for backup operations.
//
// The storage engine maintains exactly one active segment file at any given time. This active segment
// is where all new data gets appended. Once this segment reaches its size threshold, the system
// seamlessly transitions to a new segment, ensuring continuous write availability with minimal latency.
//
// Initialization and Recovery:
//
// When the storage system starts up, it performs an intelligent recovery process. It scans the
// configured directory to discover existing segments, identifies the most recent one, and determines
// whether to continue writing to it or create a new segment. This bootstrap process ensures that
// the system can recover gracefully from restarts and continue exactly where it left off.
//
// The recovery logic handles several important scenarios: empty directories where no segments exist
// yet, partially filled segments that still have capacity for more data, segments that have reached
// their size limit and require a new segment to be created, and corrupted or incomplete segments
// that need special handling.
package storage

import (
	"context"
	stdErrors "errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/iamNilotpal/ignitedb/internal/codec"
	"github.com/iamNilotpal/ignitedb/internal/seginfo"
	"github.com/iamNilotpal/ignitedb/pkg/errors"
	"github.com/iamNilotpal/ignitedb/pkg/filesys"
	"github.com/iamNilotpal/ignitedb/pkg/options"
)

var (
	ErrSegmentClosed = stdErrors.New("operation failed: cannot access closed segment")
)

// New creates and initializes a new Storage instance, performing all necessary setup operations
// to prepare the storage system for data writes. This function handles the complex bootstrap
// process that ensures the storage system can continue seamlessly from any previous state.
func New(ctx context.Context, config *Config) (*Storage, error) {
	// Input validation ensures we have valid configuration before proceeding.
	if config == nil || config.Options == nil || config.Logger == nil {
		return nil, fmt.Errorf("invalid configuration")
	}

	// Log the start of initialization for operational visibility.
	config.Logger.Infow(
		"Initializing storage system",
		"dataDir", config.Options.DataDir,
		"maxSegmentSize", config.Options.SegmentOptions.Size,
		"segmentDir", config.Options.SegmentOptions.Directory,
		"segmentPrefix", config.Options.SegmentOptions.Prefix,
	)

	// Construct the full directory path where segment files will be stored.
	segmentDirPath := filepath.Join(config.Options.DataDir, config.Options.SegmentOptions.Directory)

	// Create the segment directory with appropriate permissions if it doesn't exist
	// This ensures that the storage system can operate even on a fresh installation
	if err := filesys.CreateDir(segmentDirPath, 0755, true); err != nil {
		return nil, errors.NewStorageError(
			err, errors.ErrorCodeIO, "Failed to create segment directory",
		).WithPath(segmentDirPath).WithDetail("permission", "0755").WithDetail("forceCreate", true)
	}

	config.Logger.Infow("Segment directory created successfully", "path", segmentDirPath)

	// Initialize the Storage instance with configuration.
	storage := &Storage{log: config.Logger, options: config.Options}

	// Discover existing segments to understand the current state of the storage system
	// This is a critical step that determines whether we continue with an existing segment
	// or need to create a new one
	config.Logger.Infow(
		"Discovering existing segments",
		"dataDir", config.Options.DataDir,
		"segmentDir", config.Options.SegmentOptions.Directory,
		"prefix", config.Options.SegmentOptions.Prefix,
	)

	latestSegmentID, latestSegmentInfo, err := seginfo.GetLatestSegmentInfo(
		config.Options.DataDir,
		config.Options.SegmentOptions.Directory,
		config.Options.SegmentOptions.Prefix,
	)
	if err != nil {
		return nil, errors.NewStorageError(err, errors.ErrorCodeIO, "Failed to get latest segment info")
	}

	// Determine the appropriate segment to use based on discovery results.
	var targetSegmentID uint64
	var shouldCreateNewSegment bool

	if latestSegmentInfo == nil {
		// Bootstrap case: no existing segments found, start with ID 1
		storage.size = 0
		targetSegmentID = 1
		shouldCreateNewSegment = true
		config.Logger.Infow("No existing segments found, starting fresh", "newSegmentID", targetSegmentID)
	} else {
		// Existing segments found, check if we need to rotate to a new segment.
		currentSize := latestSegmentInfo.Size()
		maxSize := int64(config.Options.SegmentOptions.Size)

		if currentSize >= maxSize {
			// Current segment is full, create a new one.
			storage.size = 0
			shouldCreateNewSegment = true
			targetSegmentID = latestSegmentID + 1

			config.Logger.Infow(
				"Current segment is full, creating new segment",
				"currentSegmentID", latestSegmentID,
				"currentSize", currentSize,
				"maxSize", maxSize,
				"newSegmentID", targetSegmentID,
			)
		} else {
			// Current segment has space, continue using it.
			storage.size = currentSize
			shouldCreateNewSegment = false
			targetSegmentID = latestSegmentID

			config.Logger.Infow(
				"Continuing with existing segment",
				"segmentID", targetSegmentID,
				"currentSize", currentSize,
				"maxSize", maxSize,
				"remainingCapacity", maxSize-currentSize,
			)
		}
	}

	// Open the target segment file for writing.
	segmentFile, err := storage.openSegmentFile(targetSegmentID, shouldCreateNewSegment)
	if err != nil {
		config.Logger.Errorw(
			"Failed to open segment file",
			"error", err,
			"segmentID", targetSegmentID,
			"isNewSegment", shouldCreateNewSegment,
		)
		return nil, fmt.Errorf("failed to open segment file for ID %d: %w", targetSegmentID, err)
	}

	// Store the file handle and complete initialization.
	storage.activeSegment = segmentFile
	storage.activeSegmentId = targetSegmentID

	config.Logger.Infow(
		"Storage system initialized successfully",
		"activeSegmentID", targetSegmentID,
		"segmentSize", storage.size,
		"isNewSegment", shouldCreateNewSegment,
	)

	return storage, nil
}

// openSegmentFile handles the complex process of opening a segment file for writing.
// This method encapsulates all the file operations needed to prepare a segment file,
// including creation, permission setting, and positioning the file pointer correctly.
//
// The function handles both new segment creation and opening existing segments for
// continued writing, ensuring that the file is always in the correct state for
// append operations.
func (s *Storage) openSegmentFile(segmentID uint64, isNewSegment bool) (*os.File, error) {
	// Generate the filename using the seginfo package's naming convention.
	filename := seginfo.GenerateName(segmentID, s.options.SegmentOptions.Prefix)
	filePath := filepath.Join(s.options.DataDir, s.options.SegmentOptions.Directory, filename)

	s.log.Infow(
		"Opening segment file",
		"segmentID", segmentID,
		"filename", filename,
		"path", filePath,
		"isNewSegment", isNewSegment,
	)

	// Open the segment file with flags appropriate for append-only operations.
	// O_CREATE: Create the file if it doesn't exist
	// O_RDWR: Open for both reading and writing (reading may be needed for verification)
	// O_APPEND: Ensure all writes go to the end of the file
	file, err := os.OpenFile(filePath, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0644)
	if err != nil {
		return nil, errors.NewStorageError(
			err, errors.ErrorCodeIO, "Failed to open segment file",
		).
			WithFileName(filename).
			WithPath(filePath).
			WithDetail("permission", "0644").
			WithDetail("flags", []string{"O_CREATE", "O_RDWR", "O_APPEND"})
	}

	// Position the file pointer at the end of the file.
	// This is essential even with O_APPEND to ensure we know the current position.
	offset, err := file.Seek(0, io.SeekEnd)
	if err != nil {
		// Attempt to close the file to prevent resource leaks.
		if err := file.Close(); err != nil {
			return nil, errors.NewStorageError(err, errors.ErrorCodeIO, "Failed to close file after seek error").
				WithFileName(filename).
				WithPath(filePath).
				WithDetail("seekOffset", 0).
				WithDetail("whence", io.SeekEnd)
		}

		return nil, errors.NewStorageError(err, errors.ErrorCodeIO, "Failed to seek to end of file").
			WithFileName(filename).
			WithPath(filePath).
			WithDetail("seekOffset", 0).
			WithDetail("whence", io.SeekEnd)
	}

	s.log.Infow(
		"Segment file opened successfully",
		"path", filePath,
		"currentOffset", offset,
		"isNewSegment", isNewSegment,
	)

	return file, nil
}

// AppendResult reports where a record landed after Append, the minimum
// information a caller needs to build an internal/index.RecordPointer.
type AppendResult struct {
	SegmentID uint64
	Offset    int64
	EntrySize uint32
	ValueSize uint32
	Timestamp int64
}

// Append writes rec to the active segment, rotating to a new segment first
// if the write would exceed the configured maximum segment size. Per the
// redesigned ordering (spec §9), the caller must publish the returned
// pointer to the index only after this call returns successfully: Append
// commits the record to disk before any in-memory index state changes.
func (s *Storage) Append(rec codec.Record, timestamp int64) (AppendResult, error) {
	if s.closed.Load() {
		return AppendResult{}, ErrSegmentClosed
	}

	buf, err := codec.Encode(rec)
	if err != nil {
		return AppendResult{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.size+int64(len(buf)) > int64(s.options.SegmentOptions.Size) {
		if err := s.rotateLocked(); err != nil {
			return AppendResult{}, err
		}
	}

	offset := s.size
	n, err := s.activeSegment.Write(buf)
	if err != nil {
		return AppendResult{}, errors.NewStorageError(err, errors.ErrorCodeIO, "failed to append record").
			WithDetail("segmentID", s.activeSegmentId).
			WithDetail("offset", offset)
	}
	s.size += int64(n)

	return AppendResult{
		SegmentID: s.activeSegmentId,
		Offset:    offset,
		EntrySize: uint32(n),
		ValueSize: uint32(len(rec.Value)),
		Timestamp: timestamp,
	}, nil
}

// rotateLocked closes the active segment and opens a fresh one with the
// next sequential id. Callers must hold s.mu.
func (s *Storage) rotateLocked() error {
	next := s.activeSegmentId + 1

	s.log.Infow("Rotating to new segment", "previousSegmentID", s.activeSegmentId, "newSegmentID", next)

	if err := s.activeSegment.Close(); err != nil {
		return errors.NewStorageError(err, errors.ErrorCodeIO, "failed to close segment before rotation").
			WithDetail("segmentID", s.activeSegmentId)
	}

	file, err := s.openSegmentFile(next, true)
	if err != nil {
		return err
	}

	s.activeSegment = file
	s.activeSegmentId = next
	s.size = 0
	return nil
}

// Rotate forces a transition to a new active segment regardless of the
// current segment's size. Compaction calls this so live records are always
// rewritten into a segment distinct from any being read concurrently.
func (s *Storage) Rotate() error {
	if s.closed.Load() {
		return ErrSegmentClosed
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rotateLocked()
}

// ActiveSegmentID returns the id of the segment currently accepting writes.
func (s *Storage) ActiveSegmentID() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.activeSegmentId
}

// ActiveSegmentSize returns the current size in bytes of the active segment
// file, used to decide whether a compaction pass is due.
func (s *Storage) ActiveSegmentSize() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.size
}

// ReadAt opens segmentID (which may or may not be the active segment) and
// decodes the record at offset. It tracks an in-flight reader count so
// compaction can wait for concurrent readers to finish before deleting a
// superseded segment file out from under them.
func (s *Storage) ReadAt(segmentID uint64, offset int64) (codec.Record, error) {
	if s.closed.Load() {
		return codec.Record{}, ErrSegmentClosed
	}

	s.inFlightReaders.Add(1)
	defer s.inFlightReaders.Add(-1)

	filename := seginfo.GenerateName(segmentID, s.options.SegmentOptions.Prefix)
	filePath := filepath.Join(s.options.DataDir, s.options.SegmentOptions.Directory, filename)

	file, err := os.Open(filePath)
	if err != nil {
		return codec.Record{}, errors.NewStorageError(err, errors.ErrorCodeIO, "failed to open segment for read").
			WithFileName(filename).WithPath(filePath)
	}
	defer file.Close()

	if _, err := file.Seek(offset, io.SeekStart); err != nil {
		return codec.Record{}, errors.NewStorageError(err, errors.ErrorCodeIO, "failed to seek to record offset").
			WithFileName(filename).WithPath(filePath).WithDetail("offset", offset)
	}

	rec, ok, err := codec.Decode(file)
	if err != nil {
		return codec.Record{}, err
	}
	if !ok {
		return codec.Record{}, errors.NewStorageError(
			nil, errors.ErrorCodeIO, "record offset pointed past end of segment",
		).WithFileName(filename).WithPath(filePath).WithDetail("offset", offset)
	}

	return rec, nil
}

// InFlightReaders returns the number of ReadAt calls currently executing.
// Compaction polls this to zero before removing a compacted-away segment.
func (s *Storage) InFlightReaders() int64 {
	return s.inFlightReaders.Load()
}

// Segments lists every segment id currently present on disk, ascending.
func (s *Storage) Segments() ([]uint64, error) {
	return seginfo.List(s.options.DataDir, s.options.SegmentOptions.Directory, s.options.SegmentOptions.Prefix)
}

// Scan replays every record in segmentID from the beginning, invoking fn
// with each record and its byte offset. fn returning false stops the scan.
// This is the recovery primitive the engine uses at open time to rebuild
// the index.
func (s *Storage) Scan(segmentID uint64, fn func(rec codec.Record, offset int64, entrySize uint32) bool) error {
	filename := seginfo.GenerateName(segmentID, s.options.SegmentOptions.Prefix)
	filePath := filepath.Join(s.options.DataDir, s.options.SegmentOptions.Directory, filename)

	file, err := os.Open(filePath)
	if err != nil {
		return errors.NewStorageError(err, errors.ErrorCodeIO, "failed to open segment for scan").
			WithFileName(filename).WithPath(filePath)
	}
	defer file.Close()

	var offset int64
	for {
		rec, ok, err := codec.Decode(file)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}

		encoded, err := codec.Encode(rec)
		if err != nil {
			return err
		}
		entrySize := uint32(len(encoded))

		if !fn(rec, offset, entrySize) {
			return nil
		}
		offset += int64(entrySize)
	}
}

// RemoveSegment deletes the on-disk file for segmentID. Callers must ensure
// no RecordPointer still references this segment and InFlightReaders() has
// drained to zero before calling this.
func (s *Storage) RemoveSegment(segmentID uint64) error {
	filename := seginfo.GenerateName(segmentID, s.options.SegmentOptions.Prefix)
	filePath := filepath.Join(s.options.DataDir, s.options.SegmentOptions.Directory, filename)

	if err := os.Remove(filePath); err != nil && !os.IsNotExist(err) {
		return errors.NewStorageError(err, errors.ErrorCodeIO, "failed to remove superseded segment").
			WithFileName(filename).WithPath(filePath)
	}
	return nil
}

// Close flushes and closes the active segment file, preventing further use
// of this Storage instance.
func (s *Storage) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return ErrSegmentClosed
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.activeSegment.Sync(); err != nil {
		return errors.NewStorageError(err, errors.ErrorCodeIO, "failed to sync active segment on close").
			WithDetail("segmentID", s.activeSegmentId)
	}
	return s.activeSegment.Close()
}
