package index

import (
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

// RecordPointer contains the absolute minimum metadata required to locate and retrieve
// a data entry from disk storage. This structure represents the primary memory consumer
// in the entire system, making every field choice critical for overall scalability.
//
// The memory layout optimization follows Go's alignment rules, placing larger fields
// first to minimize padding bytes that the compiler adds between fields. This careful
// ordering can save several bytes per entry, which compounds significantly across
// millions of entries in a large dataset.
//
// Each RecordPointer serves as a precise "address" that tells the system exactly
// where to find a piece of data without requiring any scanning or additional lookups.
// Think of it as a bookmark that contains just enough information to jump directly
// to the right location in the right file at the right position.
type RecordPointer struct {
	// Timestamp stores the Unix nanosecond timestamp when this entry was written.
	// Records on disk carry no timestamp, so pointers rebuilt at open time are
	// stamped with the recovery time instead. Compaction carries the value over
	// when it rewrites a record; it does not compare timestamps to choose
	// between versions, since the index only ever holds a key's latest pointer.
	//
	// The nanosecond precision ensures proper ordering even for high-frequency
	// write operations, while the int64 range supports timestamps until the year 2262.
	// This field also provides the foundation for potential future features like
	// time-to-live expiration and temporal data analysis.
	Timestamp int64

	// Offset specifies the exact byte position within the segment file where this
	// entry begins. This field enables the core Bitcask optimization of direct
	// random access to any data entry without scanning file contents.
	//
	// When a read operation occurs, the system uses this offset to perform a
	// direct file seek operation, jumping immediately to the correct position
	// within the segment file. This approach provides consistent O(1) access
	// time regardless of file size or the position of data within the file.
	//
	// The int64 range supports files up to approximately 9 exabytes, ensuring
	// the system can handle extremely large segment files without hitting
	// addressing limitations as data volumes grow over time.
	Offset int64

	// EntrySize contains the total number of bytes occupied by this entry on disk,
	// encompassing the header metadata, key, and value portions combined.
	// This field enables several critical optimizations in the I/O subsystem.
	//
	// Most importantly, it allows the system to perform single-read operations
	// that fetch the entire entry in one I/O call rather than multiple reads.
	// This reduces system call overhead and improves performance, particularly
	// on storage devices where seek operations carry significant latency costs.
	//
	// The field also provides boundary validation capabilities, ensuring that
	// read operations don't accidentally read beyond the entry boundaries and
	// interpret adjacent data as part of the current entry.
	EntrySize uint32

	// ValueSize contains the byte length of just the value portion of the entry,
	// excluding the header and key components. While this creates some redundancy
	// with EntrySize, it serves distinct purposes that justify the memory cost.
	//
	// This field enables efficient value extraction without requiring full entry
	// parsing. Applications can calculate the exact value location within an entry
	// and read only the value bytes when the key information isn't needed.
	//
	// It also supports memory pre-allocation strategies where the system can
	// allocate appropriately sized buffers before reading value data from disk,
	// reducing memory waste and garbage collection pressure during high-throughput
	// operations.
	ValueSize uint32

	// Key stores the actual key string associated with this record. This creates
	// apparent redundancy since the key also serves as the map key in the index,
	// but this duplication serves several essential functions that justify the
	// memory overhead.
	//
	// Hash collision detection represents the most critical function. Go's map
	// implementation uses hash tables internally, and while collisions are rare,
	// they can occur. Having the key available allows verification that a map
	// lookup actually found the intended key rather than a collision.
	//
	// The key also enables index iteration operations needed for administrative
	// tasks like backup creation, data replication, and system diagnostics.
	// Without stored keys, these operations would require disk I/O to enumerate
	// all keys in the system.
	Key string

	// SegmentID identifies which segment file contains this entry using a compact
	// numeric identifier. This approach represents the core memory optimization
	// in the entire system, replacing string-based filenames with 2-byte integers.
	//
	// The memory savings from this optimization compound dramatically at scale.
	// Consider a system with 10 million entries: storing full filenames might
	// consume 250MB of memory just for segment identification, while segment IDs
	// consume only 20MB for the same information.
	//
	// The uint16 range supports up to 65,535 distinct segments, which provides
	// ample capacity for most real-world workloads while maintaining the compact
	// memory footprint that makes this optimization valuable.
	SegmentID uint16
}

// Index represents the in-memory hash table that maps keys to their disk locations.
// This structure embodies the central component of the Bitcask architecture,
// maintaining the balance between memory efficiency and access performance.
//
// The Index keeps all keys in memory for immediate lookup while storing only
// essential metadata about each entry. This design allows the system to handle
// datasets much larger than available RAM while maintaining predictable performance
// characteristics that don't degrade as data volume increases.
type Index struct {
	dataDir       string                    // Contains the filesystem path where segment files are stored.
	log           *zap.SugaredLogger        // Provides structured logging capabilities.
	recordPointer map[string]*RecordPointer // Maintains the core mapping from keys to their disk locations.
	mu            sync.RWMutex              // Protects concurrent access to the recordPointer map.
	closed        atomic.Bool               // Indicates whether the index has been closed.
}

// Config encapsulates the configuration parameters required to initialize an Index.
type Config struct {
	DataDir string             // Specifies the filesystem directory containing segment files.
	Logger  *zap.SugaredLogger // Provides structured logging capabilities for Index operations.
}
