// Package seginfo provides utilities for managing sequential segment files
// in the engine's append-only log.
//
// Filename Format: prefix_N
//
// Where:
//   - prefix: a configurable string identifying the segment family (default "log").
//   - N: a positive, monotonically increasing integer. Unlike the
//     zero-padded, timestamp-suffixed scheme this package used to generate,
//     filenames are NOT lexicographically sortable once N reaches double
//     digits ("log_10" sorts before "log_2" as a string) — every listing
//     function here sorts by the parsed integer, not the filename.
//
// Example filenames:
//
//	log_1
//	log_2
//	log_10
package seginfo

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/iamNilotpal/ignitedb/pkg/filesys"
)

// GetLatestSegmentInfo discovers the highest-numbered segment file in the
// given directory and returns its id and file metadata.
//
// Returns:
//   - uint64: the id of the latest segment (0 if no segments exist yet).
//   - os.FileInfo: metadata for the latest segment (nil if none exist).
//   - error: any I/O or parsing failure.
func GetLatestSegmentInfo(dataDir, segmentDir, prefix string) (uint64, os.FileInfo, error) {
	if dataDir == "" || segmentDir == "" || prefix == "" {
		return 0, nil, fmt.Errorf("all parameters (dataDir, segmentDir, prefix) must be non-empty")
	}

	ids, err := List(dataDir, segmentDir, prefix)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to list segments: %w", err)
	}

	if len(ids) == 0 {
		return 0, nil, nil
	}

	latestID := ids[len(ids)-1]
	path := filepath.Join(dataDir, segmentDir, GenerateName(latestID, prefix))

	info, err := GetFileInfo(path)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to retrieve file info for %s: %w", path, err)
	}

	return latestID, info, nil
}

// List returns every segment id present in the directory, in ascending
// numeric order (I1: names form a contiguous ordered set after open, but
// gaps are tolerated on read).
func List(dataDir, segmentDir, prefix string) ([]uint64, error) {
	if dataDir == "" || segmentDir == "" || prefix == "" {
		return nil, fmt.Errorf("all parameters (dataDir, segmentDir, prefix) must be non-empty")
	}

	dir := filepath.Join(dataDir, segmentDir)
	entries, err := filesys.ReadDir(filepath.Join(dir, prefix+"_*"))
	if err != nil {
		return nil, fmt.Errorf("failed to read segment directory %s: %w", dir, err)
	}

	ids := make([]uint64, 0, len(entries))
	for _, entry := range entries {
		id, err := ParseSegmentID(entry, prefix)
		if err != nil {
			// Tolerate files that merely share the prefix but aren't valid
			// segment names (e.g. the engine-kind sentinel file lives
			// alongside these, never inside the segment directory, but
			// defensively skip anything unparseable rather than fail open).
			continue
		}
		ids = append(ids, id)
	}

	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

// GenerateName creates the filename for a segment with the given id.
func GenerateName(id uint64, prefix string) string {
	return fmt.Sprintf("%s_%d", prefix, id)
}

// ParseSegmentID extracts the integer id from a segment filename or path.
func ParseSegmentID(fullPath, prefix string) (uint64, error) {
	_, filename := filepath.Split(fullPath)

	if !strings.HasPrefix(filename, prefix+"_") {
		return 0, fmt.Errorf("filename %s does not match expected prefix %s", filename, prefix)
	}

	idStr := strings.TrimPrefix(filename, prefix+"_")
	id, err := strconv.ParseUint(idStr, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse segment id %q as integer: %w", idStr, err)
	}

	return id, nil
}

// GetFileInfo retrieves filesystem metadata for a given path.
func GetFileInfo(filePath string) (os.FileInfo, error) {
	file, err := os.OpenFile(filePath, os.O_RDONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open file %s: %w", filePath, err)
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to get file info for %s: %w", filePath, err)
	}

	return stat, nil
}
