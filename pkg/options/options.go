// Package options provides data structures and functions for configuring
// the Ignite database. It defines various parameters that control Ignite's
// storage behavior, performance, and maintenance operations, such as
// directory paths, segment characteristics, and compaction intervals.
package options

import (
	"strings"
	"time"
)

// Defines configurable parameters for each segment.
// It provides fine-grained control over segment behavior, performance, and resource utilization.
type segmentOptions struct {
	// Defines the maximum size a segment can grow to before rotation.
	// When a segment reaches this size, a new segment will be created.
	// Larger segments mean fewer files but slower compaction and recovery.
	//
	//  - Default: 1MB
	//  - Maximum: 4GB
	//  - Minimum: 1024 bytes
	Size uint64 `json:"maxSegmentSize"`

	// Specifies where segment files are stored.
	//
	// Default: "/var/lib/ignitedb/segments"
	Directory string `json:"directory"`

	// Defines the filename prefix for segment files.
	// Final filename will be: `prefix_<N>`, N a 1-based monotonic integer.
	//
	// Default: "log"
	//
	// Example: If Prefix is "log", segment files are named "log_1", "log_2", ...
	Prefix string `json:"prefix"`
}

// Defines the configuration parameters for Ignite DB.
// It provides control over storage, performance and maintenance aspects.
type Options struct {
	// Specifies the base path where files will be stored.
	//
	// Default: "/var/lib/ignitedb"
	DataDir string `json:"dataDir"`

	// Interval setting carried with the options. No component reads it:
	// compaction is triggered from the write path (see UncompactedThreshold)
	// and on demand through Engine.Compact, not on a timer.
	//
	// Default: 5h
	CompactInterval time.Duration `json:"compactInterval"`

	// Configures segment management including size limits and naming convention.
	SegmentOptions *segmentOptions `json:"segmentOptions"`

	// Number of overwrites/tombstones since the last compaction that triggers
	// the next compaction attempt on the writer path.
	//
	// Default: 64
	UncompactedThreshold uint64 `json:"uncompactedThreshold"`

	// TCP address the RPC server binds to (HOST:PORT).
	//
	// Default: "127.0.0.1:4000"
	Addr string `json:"addr"`

	// Storage engine kind: "kvs" (log-structured) or "sled" (bbolt-backed).
	//
	// Default: "kvs"
	EngineKind string `json:"engineKind"`

	// Worker pool implementation: "shared" (shared-queue, panic-resilient)
	// or "naive" (one goroutine per job).
	//
	// Default: "shared"
	PoolKind string `json:"poolKind"`

	// Number of workers in the pool.
	//
	// Default: 4
	PoolSize uint32 `json:"poolSize"`
}

// OptionFunc is a function type that modifies the Ignite system's configuration.
type OptionFunc func(*Options)

// Applies a predefined set of default configuration values to the Options struct.
func WithDefaultOptions() OptionFunc {
	return func(o *Options) {
		opts := NewDefaultOptions()
		o.DataDir = opts.DataDir
		o.SegmentOptions = opts.SegmentOptions
		o.CompactInterval = opts.CompactInterval
		o.UncompactedThreshold = opts.UncompactedThreshold
		o.Addr = opts.Addr
		o.EngineKind = opts.EngineKind
		o.PoolKind = opts.PoolKind
		o.PoolSize = opts.PoolSize
	}
}

// Sets the primary data directory for Ignite.
func WithDataDir(directory string) OptionFunc {
	return func(o *Options) {
		directory = strings.TrimSpace(directory)
		if directory != "" {
			o.DataDir = directory
		}
	}
}

// Sets Options.CompactInterval; only values above DefaultCompactInterval are
// accepted. Compaction scheduling does not read this value.
func WithCompactInterval(interval time.Duration) OptionFunc {
	return func(o *Options) {
		if interval > DefaultCompactInterval {
			o.CompactInterval = interval
		}
	}
}

// Sets the directory specifically for storing segment files.
func WithSegmentDir(directory string) OptionFunc {
	return func(o *Options) {
		directory = strings.TrimSpace(directory)
		if directory != "" {
			o.SegmentOptions.Directory = directory
		}
	}
}

// Sets the file name prefix for segment files.
func WithSegmentPrefix(prefix string) OptionFunc {
	return func(o *Options) {
		prefix = strings.TrimSpace(prefix)
		if prefix != "" {
			o.SegmentOptions.Prefix = prefix
		}
	}
}

// Sets the maximum size of individual segment files.
func WithSegmentSize(size uint64) OptionFunc {
	return func(o *Options) {
		if size >= MinSegmentSize && size <= MaxSegmentSize {
			o.SegmentOptions.Size = size
		}
	}
}

// Sets the count of overwrites/tombstones that triggers compaction.
func WithUncompactedThreshold(threshold uint64) OptionFunc {
	return func(o *Options) {
		if threshold > 0 {
			o.UncompactedThreshold = threshold
		}
	}
}

// Sets the TCP address the RPC server binds to.
func WithAddr(addr string) OptionFunc {
	return func(o *Options) {
		addr = strings.TrimSpace(addr)
		if addr != "" {
			o.Addr = addr
		}
	}
}

// Sets which storage engine backs the data directory.
func WithEngineKind(kind string) OptionFunc {
	return func(o *Options) {
		kind = strings.TrimSpace(kind)
		if kind != "" {
			o.EngineKind = kind
		}
	}
}

// Sets which worker pool implementation dispatches connection handlers.
func WithPoolKind(kind string) OptionFunc {
	return func(o *Options) {
		kind = strings.TrimSpace(kind)
		if kind != "" {
			o.PoolKind = kind
		}
	}
}

// Sets the number of workers in the pool.
func WithPoolSize(size uint32) OptionFunc {
	return func(o *Options) {
		if size > 0 {
			o.PoolSize = size
		}
	}
}
