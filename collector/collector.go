// Package collector builds bounded, deterministic snapshots of a codebase.
// A snapshot is the filtered set of text files under a root directory, in
// lexicographic traversal order, subject to per-file and total size budgets.
package collector

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/zeebo/xxh3"
)

const (
	// DefaultPerFileLimit caps a single admitted file at 5 MB.
	DefaultPerFileLimit int64 = 5 * 1024 * 1024
	// DefaultTotalLimit caps the whole snapshot at 50 MB.
	DefaultTotalLimit int64 = 50 * 1024 * 1024

	// sniffLen is how many leading bytes the null-byte binary check inspects.
	sniffLen = 8000
)

// FileRecord is one admitted file: its slash-separated path relative to the
// snapshot root, its full text content, and its size in bytes.
type FileRecord struct {
	Path      string `json:"path"`
	Content   string `json:"-"`
	SizeBytes int64  `json:"size_bytes"`
}

// Snapshot is an ordered, deduplicated set of FileRecords plus aggregate
// counters. Skips are data, not failures: every file rejected for being
// binary, oversized, denylisted, or over budget increments SkippedCount.
type Snapshot struct {
	Files        []FileRecord `json:"files"`
	TotalBytes   int64        `json:"total_bytes"`
	SkippedCount int          `json:"skipped_count"`
}

// Empty reports whether the snapshot admitted no files. An empty snapshot is
// the coordinator's signal to skip analysis entirely.
func (s *Snapshot) Empty() bool {
	return len(s.Files) == 0
}

// Fingerprint hashes the ordered (path, content) sequence. Two collections
// over an unchanged tree yield the same fingerprint.
func (s *Snapshot) Fingerprint() uint64 {
	h := xxh3.New()
	var lenBuf [8]byte
	for _, f := range s.Files {
		binary.LittleEndian.PutUint64(lenBuf[:], uint64(len(f.Path)))
		_, _ = h.Write(lenBuf[:])
		_, _ = h.WriteString(f.Path)
		binary.LittleEndian.PutUint64(lenBuf[:], uint64(len(f.Content)))
		_, _ = h.Write(lenBuf[:])
		_, _ = h.WriteString(f.Content)
	}
	return h.Sum64()
}

// Options configures a collection run. Zero limits take the defaults.
type Options struct {
	PerFileLimit    int64
	TotalLimit      int64
	ExcludePatterns []string
}

// Collect walks root and returns its snapshot. It fails only for
// configuration errors: negative limits, an unreadable root, or a root that
// is not a directory. Ordinary skip conditions never interrupt the walk.
func Collect(root string, opts Options) (*Snapshot, error) {
	if opts.PerFileLimit == 0 {
		opts.PerFileLimit = DefaultPerFileLimit
	}
	if opts.TotalLimit == 0 {
		opts.TotalLimit = DefaultTotalLimit
	}
	if opts.PerFileLimit < 0 || opts.TotalLimit < 0 {
		return nil, fmt.Errorf("collector: limits must be positive (per-file=%d, total=%d)", opts.PerFileLimit, opts.TotalLimit)
	}

	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("collector: unreadable root %s: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("collector: root %s is not a directory", root)
	}

	matcher, err := NewMatcher(root, opts.ExcludePatterns)
	if err != nil {
		return nil, err
	}

	snapshot := &Snapshot{}
	seen := make(map[string]struct{})

	// WalkDir visits entries in lexical order per directory, which makes the
	// snapshot order reproducible across runs.
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			snapshot.SkippedCount++
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)
		if rel == "." {
			return nil
		}

		if d.IsDir() {
			if matcher.SkipDir(rel) {
				// The subtree is pruned without reading any content, but its
				// files still show up in the skip counter.
				snapshot.SkippedCount += countFiles(path)
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if matcher.SkipFile(rel) {
			snapshot.SkippedCount++
			return nil
		}
		if BinaryExt(rel) {
			snapshot.SkippedCount++
			return nil
		}

		fi, err := d.Info()
		if err != nil {
			snapshot.SkippedCount++
			return nil
		}
		size := fi.Size()
		if size > opts.PerFileLimit {
			snapshot.SkippedCount++
			return nil
		}
		if snapshot.TotalBytes+size > opts.TotalLimit {
			// Whole file skipped: partial content is never admitted.
			snapshot.SkippedCount++
			return nil
		}

		content, err := os.ReadFile(path)
		if err != nil {
			snapshot.SkippedCount++
			return nil
		}
		if isBinary(content) {
			snapshot.SkippedCount++
			return nil
		}
		if _, dup := seen[rel]; dup {
			return nil
		}
		seen[rel] = struct{}{}

		snapshot.Files = append(snapshot.Files, FileRecord{
			Path:      rel,
			Content:   string(content),
			SizeBytes: size,
		})
		snapshot.TotalBytes += size
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("collector: walking %s: %w", root, err)
	}
	return snapshot, nil
}

// countFiles counts regular files under dir without reading their content.
func countFiles(dir string) int {
	n := 0
	_ = filepath.WalkDir(dir, func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			n++
		}
		return nil
	})
	return n
}

// isBinary sniffs the leading bytes for a null byte, the same heuristic git
// uses to classify files.
func isBinary(content []byte) bool {
	n := len(content)
	if n > sniffLen {
		n = sniffLen
	}
	return bytes.IndexByte(content[:n], 0) >= 0
}
