// Package list implements the read-side contract spec.md §6 assigns to
// the "listing/reader tools": printing the stream-level index the way
// original_source/list.c does, and recovering the trailing file index.
//
// Listing requires seeking to the stream footer at the end of the file
// (the xz format's index is only ever written at the tail), so this
// package works against an io.ReaderAt with a known length rather than
// a forward-only io.Reader. Callers reading from a non-seekable source
// such as stdin buffer it into memory first (cmd/pixz-list does this).
package list

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/timgates42/pixz/xzblock"
)

// Stream is an opened pixz/xz container ready for listing.
type Stream struct {
	ra        io.ReaderAt
	size      int64
	checkKind byte
	index     *xzblock.Index
	dataStart int64 // byte offset of the first block, i.e. right after the stream header
}

// Open reads the stream header and the trailing footer+index of ra
// (size bytes long), matching original_source/list.c's decode_index.
func Open(ra io.ReaderAt, size int64) (*Stream, error) {
	if size < xzblock.HeaderLen+xzblock.FooterLen {
		return nil, errors.New("list: input too small to be a valid stream")
	}

	hr := io.NewSectionReader(ra, 0, xzblock.HeaderLen)
	checkKind, err := xzblock.DecodeStreamHeader(hr)
	if err != nil {
		return nil, fmt.Errorf("list: reading stream header: %w", err)
	}

	fr := io.NewSectionReader(ra, size-xzblock.FooterLen, xzblock.FooterLen)
	backwardSize, footerCheck, err := xzblock.DecodeStreamFooter(fr)
	if err != nil {
		return nil, fmt.Errorf("list: reading stream footer: %w", err)
	}
	if footerCheck != checkKind {
		return nil, errors.New("list: header/footer checksum kind mismatch")
	}

	indexOffset := size - xzblock.FooterLen - int64(backwardSize)
	if indexOffset < xzblock.HeaderLen {
		return nil, errors.New("list: index offset precedes stream header")
	}
	ir := bufio.NewReader(io.NewSectionReader(ra, indexOffset, int64(backwardSize)))
	isIndex, err := xzblock.PeekIsIndex(ir)
	if err != nil {
		return nil, fmt.Errorf("list: reading index: %w", err)
	}
	if !isIndex {
		return nil, errors.New("list: expected index record before footer")
	}
	idx, err := xzblock.DecodeIndex(ir)
	if err != nil {
		return nil, fmt.Errorf("list: decoding index: %w", err)
	}

	return &Stream{
		ra:        ra,
		size:      size,
		checkKind: checkKind,
		index:     idx,
		dataStart: xzblock.HeaderLen,
	}, nil
}

// Blocks returns the stream-level index records in stream order.
func (s *Stream) Blocks() []xzblock.Record {
	return s.index.Records()
}

// PrintBlocks writes one "%9d / %9d" line per data block to w, matching
// original_source/list.c's main loop over lzma_index_iter.
func PrintBlocks(w io.Writer, blocks []xzblock.Record) error {
	for _, b := range blocks {
		if _, err := fmt.Fprintf(w, "%9d / %9d\n", b.UnpaddedSize, b.UncompressedSize); err != nil {
			return err
		}
	}
	return nil
}

// FileEntry mirrors pipeline.FileEntry for the read side, independent
// of the writer's internal package so the lister has no dependency on
// pipeline internals.
type FileEntry struct {
	Name       string
	Offset     uint64
	IsSentinel bool
}

// Index is the decoded file index: an ordered list of entries plus
// lookup by name, the "random-access handshake" spec.md §4.5 promises.
type Index struct {
	Entries []FileEntry
}

// Offset resolves a member name to its tar byte offset. It supplements
// original_source/list.c, which only ever dumps the index; looking a
// single name up is implied by spec.md §1's stated purpose ("random
// access to individual files") but not written out as a function there.
func (idx *Index) Offset(name string) (uint64, bool) {
	for _, e := range idx.Entries {
		if !e.IsSentinel && e.Name == name {
			return e.Offset, true
		}
	}
	return 0, false
}

// ReadFileIndex locates and decodes the trailing file-index block,
// matching original_source/list.c's read_file_index + dump_file_index.
// It returns (nil, nil) if the stream has no blocks at all.
func (s *Stream) ReadFileIndex() (*Index, error) {
	blocks := s.index.Records()
	if len(blocks) == 0 {
		return nil, nil
	}
	last := blocks[len(blocks)-1]

	offset := s.dataStart
	for _, b := range blocks[:len(blocks)-1] {
		offset += pad4(int64(b.UnpaddedSize))
	}

	sr := io.NewSectionReader(s.ra, offset, s.size-offset)
	br := bufio.NewReader(sr)
	isIndex, err := xzblock.PeekIsIndex(br)
	if err != nil {
		return nil, fmt.Errorf("list: reading file-index block: %w", err)
	}
	if isIndex {
		return nil, errors.New("list: expected a block, found the stream index")
	}
	meta, err := xzblock.DecodeBlockHeader(br)
	if err != nil {
		return nil, fmt.Errorf("list: decoding file-index block header: %w", err)
	}
	meta.CompressedSize = last.UnpaddedSize - uint64(meta.HeaderSize) - 4
	meta.UncompressedSize = last.UncompressedSize

	payload, err := xzblock.DecodeBlockPayload(br, meta)
	if err != nil {
		return nil, fmt.Errorf("list: decoding file-index payload: %w", err)
	}

	return parseFileIndex(payload)
}

func parseFileIndex(payload []byte) (*Index, error) {
	idx := &Index{}
	for len(payload) > 0 {
		nul := bytes.IndexByte(payload, 0)
		if nul < 0 {
			return nil, errors.New("list: truncated file-index record")
		}
		name := string(payload[:nul])
		payload = payload[nul+1:]
		if len(payload) < 8 {
			return nil, errors.New("list: truncated file-index offset")
		}
		offset := binary.LittleEndian.Uint64(payload[:8])
		payload = payload[8:]

		idx.Entries = append(idx.Entries, FileEntry{
			Name:       name,
			Offset:     offset,
			IsSentinel: name == "",
		})
	}
	return idx, nil
}

// DumpFileIndex writes one line per entry, matching
// original_source/list.c's dump_file_index: the sentinel entry prints
// as an empty name.
func DumpFileIndex(w io.Writer, idx *Index) error {
	for _, e := range idx.Entries {
		if _, err := fmt.Fprintf(w, "%d\t%s\n", e.Offset, e.Name); err != nil {
			return err
		}
	}
	return nil
}

func pad4(n int64) int64 { return (n + 3) &^ 3 }
