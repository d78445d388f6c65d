package options

import "time"

const (
	// Specifies the default base directory where IgniteDB will store its data files.
	// If no other directory is specified during initialization, this path will be used.
	DefaultDataDir = "/var/lib/ignitedb"

	// Defines the default value of Options.CompactInterval (5 hours). No
	// component reads that field; compaction is not scheduled on a timer.
	DefaultCompactInterval = time.Hour * 5

	// Represents the minimum allowed size for a segment file in bytes. Kept small
	// so tests can exercise rotation/compaction without writing gigabytes of data.
	MinSegmentSize uint64 = 1024

	// Represents the maximum allowed size for a segment file in bytes (4GB).
	MaxSegmentSize uint64 = 4 * 1024 * 1024 * 1024

	// Specifies the default target size for a new segment file in bytes (1MB).
	DefaultSegmentSize uint64 = 1 * 1024 * 1024

	// Specifies the default subdirectory within the main data directory
	// where segment files will be stored.
	DefaultSegmentDirectory = "segments"

	// Defines the default prefix for segment file names.
	// A segment file is named "<prefix>_<N>", e.g. "log_1".
	DefaultSegmentPrefix = "log"

	// Defines the default number of overwrites/tombstones since the last
	// compaction that triggers the next compaction attempt.
	DefaultUncompactedThreshold uint64 = 64

	// Defines the default TCP address the RPC server binds to.
	DefaultAddr = "127.0.0.1:4000"

	// Defines the default storage engine kind.
	DefaultEngineKind = "kvs"

	// Defines the default worker pool implementation.
	DefaultPoolKind = "shared"

	// Defines the default number of workers in the pool.
	DefaultPoolSize uint32 = 4
)

// Holds the default configuration settings for an IgniteDB instance.
var defaultOptions = Options{
	DataDir:              DefaultDataDir,
	CompactInterval:      DefaultCompactInterval,
	UncompactedThreshold: DefaultUncompactedThreshold,
	Addr:                 DefaultAddr,
	EngineKind:           DefaultEngineKind,
	PoolKind:             DefaultPoolKind,
	PoolSize:             DefaultPoolSize,
	SegmentOptions: &segmentOptions{
		Size:      DefaultSegmentSize,
		Prefix:    DefaultSegmentPrefix,
		Directory: DefaultSegmentDirectory,
	},
}

func NewDefaultOptions() Options {
	opts := defaultOptions
	segCopy := *defaultOptions.SegmentOptions
	opts.SegmentOptions = &segCopy
	return opts
}
