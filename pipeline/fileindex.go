package pipeline

import (
	"encoding/binary"
	"strings"
)

// FileEntry is one file-index entry: a tar member's pathname and the
// byte offset of its header within the raw uncompressed tar stream.
// The sentinel entry (IsSentinel true) carries no name and its Offset
// is the total uncompressed tar byte count (spec.md §3).
type FileEntry struct {
	Name       string
	Offset     uint64
	IsSentinel bool
}

// FileIndex is the ordered list of file-index entries (a slice), built
// entirely by the reader stage and consumed once by the writer stage
// after the reader has joined (spec.md §4.2, §5).
//
// It is not safe for concurrent use: only the reader goroutine touches
// it while building, and the writer only reads it after the reader has
// been joined, matching spec.md §5's ownership rule.
type FileIndex struct {
	entries []FileEntry

	multiHeader      bool
	multiHeaderStart uint64
}

// NewFileIndex returns an empty file index.
func NewFileIndex() *FileIndex {
	return &FileIndex{}
}

// isMultiHeader classifies a tar pathname as an AppleDouble metadata
// fragment: its final path component begins with "._", matching
// original_source/write.c's is_multi_header.
func isMultiHeader(name string) bool {
	i := strings.LastIndexByte(name, '/')
	base := name[i+1:]
	return strings.HasPrefix(base, "._")
}

// AddHeader registers one tar header's offset and pathname, applying
// the multi-header collapse rule: a run of "._"-prefixed fragments is
// buffered (remembering only the first fragment's offset) until a real
// member arrives, at which point the real member's entry uses the
// remembered offset. Mirrors original_source/write.c's add_file.
func (fi *FileIndex) AddHeader(offset uint64, name string) {
	if isMultiHeader(name) {
		if !fi.multiHeader {
			fi.multiHeaderStart = offset
		}
		fi.multiHeader = true
		return
	}

	entryOffset := offset
	if fi.multiHeader {
		entryOffset = fi.multiHeaderStart
	}
	fi.multiHeader = false
	fi.entries = append(fi.entries, FileEntry{Name: name, Offset: entryOffset})
}

// Finish appends the sentinel entry, flushing any in-progress
// multi-header run per spec.md §4.2: "If end-of-archive arrives while
// inside a fragment run, the fragment chain is flushed using the
// sentinel NULL name." totalRead is the exact number of input bytes
// the reader pulled from the tar stream.
func (fi *FileIndex) Finish(totalRead uint64) {
	offset := totalRead
	if fi.multiHeader {
		offset = fi.multiHeaderStart
	}
	fi.multiHeader = false
	fi.entries = append(fi.entries, FileEntry{Offset: offset, IsSentinel: true})
}

// Entries returns the accumulated entries in tar parse order, sentinel
// last.
func (fi *FileIndex) Entries() []FileEntry {
	return fi.entries
}

// appendSerialized appends one entry's wire form — NUL-terminated UTF-8
// name (the sentinel emits a zero-length name, i.e. a single 0x00)
// followed by the 8-byte little-endian offset — to buf, matching
// spec.md §4.5's grammar.
func appendSerialized(buf []byte, e FileEntry) []byte {
	if !e.IsSentinel {
		buf = append(buf, e.Name...)
	}
	buf = append(buf, 0)
	var off [8]byte
	binary.LittleEndian.PutUint64(off[:], e.Offset)
	return append(buf, off[:]...)
}
